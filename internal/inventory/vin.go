package inventory

import (
	"regexp"
	"strings"
)

// VINPattern matches a 17-character VIN token. VINs never contain I, O, or Q.
var VINPattern = regexp.MustCompile(`[A-HJ-NPR-Z0-9]{17}`)

var vinExact = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)

// NormalizeVIN uppercases and trims a raw VIN token.
func NormalizeVIN(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// IsValidVIN reports whether v looks like a real VIN rather than a random
// 17-character token scraped out of page text. It rejects strings of one
// repeated character and strings lacking either a letter or a digit; a full
// check-digit verification is deliberately not attempted because many
// pre-1981 and non-US VINs fail it.
func IsValidVIN(v string) bool {
	if !vinExact.MatchString(v) {
		return false
	}
	first := v[0]
	allSame := true
	hasLetter := false
	hasDigit := false
	for i := range len(v) {
		c := v[i]
		if c != first {
			allSame = false
		}
		switch {
		case c >= 'A' && c <= 'Z':
			hasLetter = true
		case c >= '0' && c <= '9':
			hasDigit = true
		}
	}
	if allSame {
		return false
	}
	return hasLetter && hasDigit
}

// VINSuffix returns the last n characters of a VIN, lowercased, for slug
// disambiguation.
func VINSuffix(vin string, n int) string {
	if n >= len(vin) {
		return strings.ToLower(vin)
	}
	return strings.ToLower(vin[len(vin)-n:])
}
