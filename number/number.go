// Package number validates destination phone numbers and converts them into
// the representation a provider needs.
package number

import (
	"strings"

	"github.com/nyaruka/phonenumbers"

	"i4.energy/across/smsdeliver/sms"
)

// DefaultPrefix is used for six digit subscriber numbers, which carry no
// operator prefix.
const DefaultPrefix = "41"

// International prefixes replaced by SplitNational.
var internationalPrefixes = []string{"+386", "00386"}

// Number is a validated destination.
type Number struct {
	// Prefix is the two digit operator prefix, without the trunk zero.
	Prefix string
	// Subscriber is the subscriber number following the prefix.
	Subscriber string
	// E164 is the number in E.164 form, e.g. "+38641928491".
	E164 string
}

// Digits returns the E.164 form without the leading plus sign.
func (n Number) Digits() string {
	return strings.TrimPrefix(n.E164, "+")
}

func (n Number) String() string {
	if n.E164 != "" {
		return n.E164
	}
	return n.Prefix + n.Subscriber
}

// SplitNational splits a Slovenian mobile number into operator prefix and
// subscriber number. An international prefix is replaced by the trunk zero
// unless the remainder already carries one or is a bare six digit
// subscriber number. What remains must be 6, 8 or 9 digits long.
func SplitNational(raw string) (Number, error) {
	s := strings.TrimSpace(raw)
	for _, p := range internationalPrefixes {
		if strings.HasPrefix(s, p) {
			s = s[len(p):]
			if len(s) > 6 && !strings.HasPrefix(s, "0") {
				s = "0" + s
			}
			break
		}
	}
	if !isDigits(s) {
		return Number{}, errFormat
	}

	var n Number
	switch len(s) {
	case 6:
		n = Number{Prefix: DefaultPrefix, Subscriber: s}
		n.E164 = "+386" + DefaultPrefix + s
	case 8:
		n = Number{Prefix: s[1:3], Subscriber: s[3:8]}
		n.E164 = "+386" + s[1:]
	case 9:
		n = Number{Prefix: s[1:3], Subscriber: s[3:9]}
		n.E164 = "+386" + s[1:]
	default:
		return Number{}, errFormat
	}
	return n, nil
}

// ParseE164 parses raw using region as the default country and returns the
// number in E.164 form. Prefix and Subscriber hold the national
// significant number split after its first two digits.
func ParseE164(raw, region string) (Number, error) {
	if strings.TrimSpace(raw) == "" {
		return Number{}, sms.InputError("number is empty")
	}
	pn, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil {
		return Number{}, sms.InputError("number formatted incorrectly", err)
	}
	if !phonenumbers.IsValidNumber(pn) {
		return Number{}, sms.InputError("number is not valid")
	}

	n := Number{E164: phonenumbers.Format(pn, phonenumbers.E164)}
	nsn := phonenumbers.GetNationalSignificantNumber(pn)
	if len(nsn) > 2 {
		n.Prefix, n.Subscriber = nsn[:2], nsn[2:]
	} else {
		n.Subscriber = nsn
	}
	return n, nil
}

var errFormat = sms.InputError("number formatted incorrectly")

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
