package scrape

import (
	"regexp"
	"strconv"
	"strings"
)

// Bounds rejects regex matches outside a plausible range. Free-text
// numeric scraping picks up phone numbers, stock IDs, and years; the
// bounds are what keep them out of price and mileage fields.
type Bounds struct {
	Min float64
	Max float64
}

// Contains reports whether v falls inside the bounds, inclusive.
func (b Bounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Default sanity bounds for dealer listings.
var (
	PriceBounds   = Bounds{Min: 1000, Max: 500000}
	MileageBounds = Bounds{Min: 0, Max: 500000}
)

var (
	pricePattern   = regexp.MustCompile(`\$\s?([\d,]+)(?:\.\d{2})?`)
	mileagePattern = regexp.MustCompile(`([\d,]+)\s*(?:mi\b|miles\b)`)
	colorPattern   = regexp.MustCompile(`(?i)(?:exterior\s+color|exterior|color)\s*:?\s*(?:<[^>]*>\s*)*([A-Za-z][A-Za-z ]{0,29})`)
)

// ExtractPrice finds the first dollar amount in text that passes the
// bounds check. Returns 0 when nothing plausible is found.
func ExtractPrice(text string, bounds Bounds) float64 {
	for _, m := range pricePattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}
		if bounds.Contains(v) {
			return v
		}
	}
	return 0
}

// ExtractMileage finds the first figure followed by a miles unit that
// passes the bounds check. Returns 0 when nothing plausible is found.
func ExtractMileage(text string, bounds Bounds) int {
	for _, m := range mileagePattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			continue
		}
		if bounds.Contains(float64(v)) {
			return v
		}
	}
	return 0
}

// ExtractColor looks for short text near an exterior/color label. The
// 30-character cap rejects matches that swallowed surrounding markup.
func ExtractColor(text string) string {
	m := colorPattern.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	color := strings.TrimSpace(m[1])
	if color == "" || len(color) > 30 {
		return ""
	}
	return color
}
