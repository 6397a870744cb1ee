// Package message validates SMS text and splits long bodies into numbered
// parts.
package message

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"i4.energy/across/smsdeliver/sms"
)

// MaxLength is the number of characters carried by one physical message.
const MaxLength = 160

// Validate checks that text fits in a single message and returns it
// unchanged.
func Validate(text string) (string, error) {
	if Length(text) > MaxLength {
		return "", sms.InputError("too long")
	}
	return text, nil
}

// Length returns the number of characters in text, counting a base letter
// and its combining marks once.
func Length(text string) int {
	return utf8.RuneCountInString(norm.NFC.String(text))
}

// Normalize returns text in NFC form.
func Normalize(text string) string {
	return norm.NFC.String(text)
}

// Split cuts text into parts of at most limit characters each. Text that
// already fits is returned unchanged as the only part. Otherwise every part
// starts with "<index>/<total> ", index counting from zero.
func Split(text string, limit int) ([]string, error) {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil, sms.InputError("text is empty")
	}
	if len(runes) <= limit {
		return []string{text}, nil
	}

	size, total, err := segmentSize(len(runes), limit)
	if err != nil {
		return nil, err
	}

	parts := make([]string, 0, total)
	for i := 0; i < total; i++ {
		start := i * size
		end := min(start+size, len(runes))

		var b strings.Builder
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(total))
		b.WriteByte(' ')
		b.WriteString(string(runes[start:end]))
		parts = append(parts, b.String())
	}
	return parts, nil
}

// segmentSize returns the chunk size and part count for a text of length
// characters. The prefix reservation depends on the part count, so the
// count is grown until it no longer changes.
func segmentSize(length, limit int) (size, total int, err error) {
	total = 1
	for {
		size = limit - prefixWidth(total)
		if size < 1 {
			return 0, 0, sms.InputError("limit too small for part prefix")
		}
		need := (length + size - 1) / size
		if need <= total {
			return size, need, nil
		}
		total = need
	}
}

// prefixWidth is the widest "<index>/<total> " prefix for total parts.
func prefixWidth(total int) int {
	return 2*len(strconv.Itoa(total)) + 2
}
