// Package vehicle validates UK registration marks and resolves vehicle specifications.
package vehicle

import (
	"regexp"
	"strings"
)

// plate matches current, prefix, suffix and dateless UK registration formats.
var plate = regexp.MustCompile(`^(?:[A-Z]{2}[0-9]{2}[A-Z]{3}|[A-Z][0-9]{1,3}[A-Z]{3}|[A-Z]{3}[0-9]{1,3}[A-Z]|[0-9]{1,4}[A-Z]{1,2}|[A-Z]{1,2}[0-9]{1,4}|[A-Z]{3}[0-9]{1,4}|[0-9]{1,4}[A-Z]{3})$`)

// Normalize strips everything but letters and digits and upper-cases the rest.
func Normalize(vrm string) string {
	var b strings.Builder
	b.Grow(len(vrm))
	for _, r := range strings.ToUpper(vrm) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidUK reports whether a normalised mark is a plausible UK registration.
func ValidUK(vrm string) bool {
	return plate.MatchString(vrm)
}

// SelfTest checks the pattern against known good and bad marks.
func SelfTest() bool {
	for _, good := range []string{"AB12CDE", "A123BCD", "ABC123D", "1ABC", "AB1234"} {
		if !ValidUK(good) {
			return false
		}
	}
	for _, bad := range []string{"", "AB12CDEF", "12345678", "ABCDEFG"} {
		if ValidUK(bad) {
			return false
		}
	}
	return true
}
