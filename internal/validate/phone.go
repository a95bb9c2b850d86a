package validate

import "strings"

// FormatPhone turns raw keystroke input into the canonical display form
// (DD) DDDDD-DDDD (11 digits) or (DD) DDDD-DDDD (10 digits). Input whose
// digit count falls outside those bounds is returned unchanged, which also
// makes the formatter idempotent.
func FormatPhone(raw string) string {
	digits := digitsOnly(raw)
	switch len(digits) {
	case 10:
		return "(" + digits[:2] + ") " + digits[2:6] + "-" + digits[6:]
	case 11:
		return "(" + digits[:2] + ") " + digits[2:7] + "-" + digits[7:]
	default:
		return raw
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
