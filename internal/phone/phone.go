package phone

import "strings"

// Normalizer canonicalizes user-entered phone numbers into a single
// comparable E.164-like key. The same normalization must be applied at
// OTP issue and verify time; it is the basis of user lookup correctness.
type Normalizer struct {
	countryCode string
}

// NewNormalizer creates a Normalizer with the given default country code
// (digits only, e.g. "91").
func NewNormalizer(countryCode string) Normalizer {
	return Normalizer{countryCode: strings.TrimPrefix(countryCode, "+")}
}

// Normalize strips every non-digit character, prepends the default country
// code when the digits do not already start with it, and returns the result
// with a leading "+". Pure; no side effects.
func (n Normalizer) Normalize(raw string) string {
	digits := stripNonDigits(raw)
	if !strings.HasPrefix(digits, n.countryCode) {
		digits = n.countryCode + digits
	}
	return "+" + digits
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
