package message_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"i4.energy/across/smsdeliver/message"
	"i4.energy/across/smsdeliver/sms"
)

func TestValidate(t *testing.T) {
	t.Run("Returns text of up to 160 characters unchanged", func(t *testing.T) {
		for _, text := range []string{"a", "test", "\u010d\u017e\u0161", strings.Repeat("a", 160), strings.Repeat("\u010d", 160)} {
			got, err := message.Validate(text)
			if err != nil {
				t.Errorf("unexpected error for %d characters: %v", message.Length(text), err)
			}
			if got != text {
				t.Errorf("expected text unchanged, got %q", got)
			}
		}
	})

	t.Run("Rejects text longer than 160 characters", func(t *testing.T) {
		for _, text := range []string{strings.Repeat("a", 161), strings.Repeat("\u017e", 200)} {
			_, err := message.Validate(text)
			if !errors.Is(err, sms.InputError("too long")) {
				t.Errorf("expected too long input error, got: %v", err)
			}
		}
	})

	t.Run("Returns empty text unchanged", func(t *testing.T) {
		got, err := message.Validate("")
		if err != nil || got != "" {
			t.Errorf("Validate(\"\") = %q, %v; want empty text and no error", got, err)
		}
	})

	t.Run("Counts composed characters once", func(t *testing.T) {
		decomposed := strings.Repeat("c\u030c", 160)
		got, err := message.Validate(decomposed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != decomposed {
			t.Errorf("expected decomposed text unchanged, got %q", got)
		}
	})
}

func TestValidateLengthBoundary(t *testing.T) {
	for n := 0; n <= message.MaxLength+1; n++ {
		text := sample(n)
		got, err := message.Validate(text)
		if n <= message.MaxLength {
			if err != nil || got != text {
				t.Errorf("Validate() of %d characters = %q, %v; want the text unchanged", n, got, err)
			}
			continue
		}
		if !errors.Is(err, sms.InputError("too long")) {
			t.Errorf("Validate() of %d characters error = %v, want too long", n, err)
		}
	}
}

func TestNormalize(t *testing.T) {
	if got := message.Normalize("c\u030c"); got != "\u010d" {
		t.Errorf("Normalize() = %q, want %q", got, "\u010d")
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		len   int
		limit int
		parts int
	}{
		{name: "Fits in one part", len: 160, limit: 160, parts: 1},
		{name: "Just over the limit", len: 161, limit: 160, parts: 2},
		{name: "Nine parts", len: 1400, limit: 160, parts: 9},
		{name: "Ten parts", len: 1500, limit: 160, parts: 10},
		{name: "Past ten parts the prefix grows", len: 1600, limit: 160, parts: 11},
		{name: "Past one hundred parts", len: 20000, limit: 160, parts: 132},
		{name: "Small limit", len: 50, limit: 10, parts: 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text := sample(tt.len)

			parts, err := message.Split(text, tt.limit)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(parts) != tt.parts {
				t.Fatalf("expected %d parts, got %d", tt.parts, len(parts))
			}

			if len(parts) == 1 {
				if parts[0] != text {
					t.Errorf("expected a single part to be the text itself")
				}
				return
			}

			var rebuilt strings.Builder
			var size int
			for i, part := range parts {
				if n := message.Length(part); n > tt.limit {
					t.Errorf("part %d has %d characters, limit is %d", i, n, tt.limit)
				}
				prefix := fmt.Sprintf("%d/%d ", i, len(parts))
				if !strings.HasPrefix(part, prefix) {
					t.Fatalf("part %d should start with %q, got %q", i, prefix, part)
				}
				chunk := strings.TrimPrefix(part, prefix)
				if i == 0 {
					size = message.Length(chunk)
				} else if i < len(parts)-1 && message.Length(chunk) != size {
					t.Errorf("part %d has chunk size %d, expected %d", i, message.Length(chunk), size)
				}
				rebuilt.WriteString(chunk)
			}

			if rebuilt.String() != text {
				t.Error("concatenated parts do not reconstruct the text")
			}
			if want := (tt.len + size - 1) / size; want != len(parts) {
				t.Errorf("expected ceil(%d/%d) = %d parts, got %d", tt.len, size, want, len(parts))
			}
		})
	}
}

func TestSplitMultibyte(t *testing.T) {
	text := strings.Repeat("\u010d\u0161\u017e", 100)

	parts, err := message.Split(text, 160)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("expected 2 parts, got %d", len(parts))
	}
	if got := message.Length(parts[0]); got != 160 {
		t.Errorf("expected first part to use the whole limit, got %d characters", got)
	}
}

func TestSplitErrors(t *testing.T) {
	if _, err := message.Split("", 160); !errors.Is(err, sms.ErrInput) {
		t.Errorf("expected input error for empty text, got: %v", err)
	}
	if _, err := message.Split("abcdef", 4); !errors.Is(err, sms.ErrInput) {
		t.Errorf("expected input error for a limit smaller than the prefix, got: %v", err)
	}
}

// sample returns n characters of varying text.
func sample(n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789 "
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[i%len(alphabet)])
	}
	return b.String()
}
