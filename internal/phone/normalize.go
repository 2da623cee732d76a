package phone

import "strings"

// DefaultCountryCode is prepended to national numbers.
const DefaultCountryCode = "49"

// Normalize converts user-entered phone text into +<countrycode><digits> form.
// It reports false for empty or whitespace-only input.
//
// The branch order below is part of the contract: a number typed with a
// leading "+" is only returned verbatim when none of the national rules
// matched its digits first.
func Normalize(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", false
	}

	digits := digitsOnly(trimmed)
	switch {
	case strings.HasPrefix(digits, DefaultCountryCode):
		return "+" + digits, true
	case strings.HasPrefix(digits, "0"):
		return "+" + DefaultCountryCode + digits[1:], true
	case strings.HasPrefix(digits, "1"):
		// mobile prefixes 15x, 16x and 17x typed without the trunk zero
		return "+" + DefaultCountryCode + digits, true
	case strings.HasPrefix(trimmed, "+"):
		return trimmed, true
	default:
		return "+" + DefaultCountryCode + digits, true
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
