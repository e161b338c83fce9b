package inventory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidVIN(t *testing.T) {
	cases := []struct {
		name  string
		vin   string
		valid bool
	}{
		{"real vin", "1HGCM82633A004352", true},
		{"letters and digits", "5YJ3E1EA7KF317000", true},
		{"too short", "1HGCM82633A00435", false},
		{"too long", "1HGCM82633A0043521", false},
		{"contains I", "1HGCM82633A00435I", false},
		{"contains O", "OHGCM82633A004352", false},
		{"contains Q", "1HGCM82633A00435Q", false},
		{"repeated character", strings.Repeat("A", 17), false},
		{"repeated digit", strings.Repeat("1", 17), false},
		{"all letters", "ABCDEFGHJKLMNPRST", false},
		{"all digits", "12345678901234567", false},
		{"lowercase rejected", "1hgcm82633a004352", false},
		{"empty", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.valid, IsValidVIN(tc.vin))
		})
	}
}

func TestNormalizeVIN(t *testing.T) {
	require.Equal(t, "1HGCM82633A004352", NormalizeVIN(" 1hgcm82633a004352 "))
}

func TestVINPatternFindsTokens(t *testing.T) {
	html := `<a href="/used-spokane-2021-honda-civic-1HGCM82633A004352">listing</a>`
	require.Equal(t, "1HGCM82633A004352", VINPattern.FindString(html))
}

func TestSlug(t *testing.T) {
	got := Slug("1HGCM82633A004352", 2021, "Honda", "Civic", "Spokane Valley", "WA")
	require.Equal(t, "1hgcm82633a004352-2021-honda-civic-spokane-valley-wa", got)
}

func TestSlugCollapsesPunctuation(t *testing.T) {
	got := Slug("1HGCM82633A004352", 2019, "Mercedes-Benz", "C-Class", "Coeur d'Alene", "ID")
	require.Equal(t, "1hgcm82633a004352-2019-mercedes-benz-c-class-coeur-d-alene-id", got)
	require.False(t, strings.Contains(got, "--"))
}

func TestSlugDeterministic(t *testing.T) {
	a := Slug("1HGCM82633A004352", 2021, "Honda", "Civic", "Spokane", "WA")
	b := Slug("1HGCM82633A004352", 2021, "Honda", "Civic", "Spokane", "WA")
	require.Equal(t, a, b)
}

func TestDisambiguateSlug(t *testing.T) {
	slug := Slug("1HGCM82633A004352", 2021, "Honda", "Civic", "Spokane", "WA")
	got := DisambiguateSlug(slug, "1HGCM82633A004352")
	require.Equal(t, slug+"-004352", got)
	require.NotEqual(t, slug, got)
}
