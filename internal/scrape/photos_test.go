package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCleanPhotoURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "absolute", raw: "https://cdn.example.com/1.jpg", want: "https://cdn.example.com/1.jpg"},
		{name: "protocol relative", raw: "//cdn.example.com/1.jpg", want: "https://cdn.example.com/1.jpg"},
		{name: "entities decoded", raw: "https://cdn.example.com/1.jpg?a=1&amp;b=2", want: "https://cdn.example.com/1.jpg?a=1&b=2"},
		{name: "relative rejected", raw: "/photos/1.jpg", want: ""},
		{name: "javascript rejected", raw: "javascript:void(0)", want: ""},
		{name: "whitespace trimmed", raw: "  https://cdn.example.com/1.jpg  ", want: "https://cdn.example.com/1.jpg"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, CleanPhotoURL(tc.raw))
		})
	}
}

func TestExtractInventoryPhotosNumericOrder(t *testing.T) {
	t.Parallel()

	vin := "2HGFC2F59LH000001"
	// Document order deliberately scrambled: 10 before 2 before 1.
	body := fmt.Sprintf(`<img src="https://cars.example.com/inventoryphotos/4491/%[1]s/ip/10.jpg">
<img src="//cars.example.com/inventoryphotos/4491/%[1]s/ip/2.jpg">
<img src="https://cars.example.com/inventoryphotos/4491/%[1]s/ip/1.jpg">
<img src="https://cars.example.com/inventoryphotos/4491/OTHERVIN000000001/ip/1.jpg">`,
		vin)

	urls := ExtractInventoryPhotos([]byte(body), vin)
	require.Equal(t, []string{
		fmt.Sprintf("https://cars.example.com/inventoryphotos/4491/%s/ip/1.jpg", vin),
		fmt.Sprintf("https://cars.example.com/inventoryphotos/4491/%s/ip/2.jpg", vin),
		fmt.Sprintf("https://cars.example.com/inventoryphotos/4491/%s/ip/10.jpg", vin),
	}, urls)
}

func TestExtractInventoryPhotosCaseInsensitiveVIN(t *testing.T) {
	t.Parallel()

	body := `<img src="https://cars.example.com/inventoryphotos/4491/2hgfc2f59lh000001/ip/1.jpg">`
	urls := ExtractInventoryPhotos([]byte(body), "2HGFC2F59LH000001")
	require.Len(t, urls, 1)
}

func TestPhotoProberStopsAtFirstMiss(t *testing.T) {
	t.Parallel()

	var heads []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodHead, r.Method)
		heads = append(heads, r.URL.Path)
		switch r.URL.Path {
		case "/inventoryphotos/4491/2hgfc2f59lh000001/ip/1.jpg",
			"/inventoryphotos/4491/2hgfc2f59lh000001/ip/2.jpg",
			"/inventoryphotos/4491/2hgfc2f59lh000001/ip/3.jpg":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewPhotoProber(5*time.Second, 50, zap.NewNop())
	urls := p.Probe(context.Background(), srv.URL, "4491", "2HGFC2F59LH000001")

	require.Len(t, urls, 3)
	// Stops at the first miss: exactly 4 probes, never 50.
	require.Len(t, heads, 4)
}

func TestPhotoProberMaxProbesCeiling(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p := NewPhotoProber(5*time.Second, 5, zap.NewNop())
	urls := p.Probe(context.Background(), srv.URL, "4491", "2HGFC2F59LH000001")
	require.Len(t, urls, 5)
}

func TestPhotoProberRequiresIdentifiers(t *testing.T) {
	t.Parallel()

	p := NewPhotoProber(time.Second, 50, zap.NewNop())
	require.Nil(t, p.Probe(context.Background(), "https://cars.example.com", "", "2HGFC2F59LH000001"))
	require.Nil(t, p.Probe(context.Background(), "https://cars.example.com", "4491", ""))
}
