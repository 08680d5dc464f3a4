package vehicle

import (
	"regexp"
	"strings"
)

// vinPattern is ISO 3779: 17 characters, never I, O or Q.
var vinPattern = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// NormalizeVIN upper-cases the identifier and drops spaces and dashes.
func NormalizeVIN(vin string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.ToUpper(strings.TrimSpace(vin)))
}

// ValidVIN reports whether a normalised identifier is a well-formed VIN.
func ValidVIN(vin string) bool {
	return vinPattern.MatchString(vin)
}
