package inventory

import (
	"regexp"
	"strconv"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slug builds the deterministic SEO slug for a vehicle:
// vin-year-make-model-city-state, lowercased, with runs of non-alphanumeric
// characters collapsed to single hyphens.
func Slug(vin string, year int, make, model, city, state string) string {
	parts := []string{vin, strconv.Itoa(year), make, model, city, state}
	joined := strings.ToLower(strings.Join(parts, "-"))
	joined = nonSlugChars.ReplaceAllString(joined, "-")
	return strings.Trim(joined, "-")
}

// DisambiguateSlug appends the last six characters of the VIN to a slug that
// collided with an existing record. Collisions are expected when several
// dealers list visually identical vehicles.
func DisambiguateSlug(slug, vin string) string {
	return slug + "-" + VINSuffix(vin, 6)
}
