package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractPrice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want float64
	}{
		{name: "plain", text: "Sale price $24,995 today only", want: 24995},
		{name: "with cents", text: "$24,995.00", want: 24995},
		{name: "no space variant", text: "now $ 18500", want: 18500},
		{name: "below floor rejected", text: "doc fee $499", want: 0},
		{name: "above ceiling rejected", text: "$9,999,999", want: 0},
		{name: "first plausible wins", text: "save $500 on this $31,000 truck", want: 31000},
		{name: "nothing", text: "call for price", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ExtractPrice(tc.text, PriceBounds))
		})
	}
}

func TestExtractMileage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want int
	}{
		{name: "miles word", text: "only 45,120 miles", want: 45120},
		{name: "mi abbreviation", text: "45120 mi, one owner", want: 45120},
		{name: "no unit ignored", text: "stock 45120", want: 0},
		{name: "above ceiling rejected", text: "1,000,000 miles", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ExtractMileage(tc.text, MileageBounds))
		})
	}
}

func TestExtractColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "exterior label", text: "Exterior: Silver", want: "Silver"},
		{name: "exterior color label", text: "Exterior Color: Midnight Blue", want: "Midnight Blue"},
		{name: "markup between label and value", text: "<dt>Color</dt><dd>Red</dd>", want: "Red"},
		{name: "no label", text: "a very nice car", want: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ExtractColor(tc.text))
		})
	}
}

func TestBoundsContains(t *testing.T) {
	t.Parallel()

	b := Bounds{Min: 1000, Max: 500000}
	require.True(t, b.Contains(1000))
	require.True(t, b.Contains(500000))
	require.False(t, b.Contains(999.99))
	require.False(t, b.Contains(500000.01))
}
