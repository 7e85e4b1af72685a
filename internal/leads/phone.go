package leads

import "strings"

// NormalizePhone strips everything except digits from a phone number, so
// "+1 (555) 123-4567" and "5551234567" compare as related values.
func NormalizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phonesRelated reports whether two numbers refer to the same lead under the
// lenient matching this system has always used: either normalized form
// containing the other. With a 1-prefixed and bare 10-digit number this is
// what makes "+15551234567" and "5551234567" land on the same lead.
func phonesRelated(stored, query string) bool {
	s := NormalizePhone(stored)
	q := NormalizePhone(query)
	if s == "" || q == "" {
		return false
	}
	return strings.Contains(s, q) || strings.Contains(q, s)
}

// placeholderName synthesizes a display name for a lead created from an
// unrecognized inbound number.
func placeholderName(phone string) string {
	digits := NormalizePhone(phone)
	if len(digits) > 4 {
		digits = digits[len(digits)-4:]
	}
	if digits == "" {
		return "SMS Lead"
	}
	return "SMS Lead " + digits
}
