package sms

import (
	"math"
	"strconv"
)

// Balance is the number of messages a provider still accepts.
type Balance int

// Unlimited is reported by providers without a quota.
const Unlimited Balance = math.MaxInt

// IsUnlimited reports whether b carries no quota.
func (b Balance) IsUnlimited() bool { return b == Unlimited }

func (b Balance) String() string {
	if b.IsUnlimited() {
		return "unlimited"
	}
	return strconv.Itoa(int(b))
}

// MarshalJSON renders a limited balance as a number and an unlimited one
// as the string "unlimited".
func (b Balance) MarshalJSON() ([]byte, error) {
	if b.IsUnlimited() {
		return []byte(`"unlimited"`), nil
	}
	return []byte(strconv.Itoa(int(b))), nil
}
