package photos

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/storage"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)

const testVIN = "2HGFC2F59LH000001"

func photoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/img/"):
			_, _ = w.Write(pngBytes)
		case r.URL.Path == "/huge.png":
			_, _ = w.Write(make([]byte, 2048))
		case r.URL.Path == "/not-image.html":
			_, _ = w.Write([]byte("<html><body>not a photo</body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCapturePassthroughWithoutProvider(t *testing.T) {
	t.Parallel()

	c := NewCapturer(Config{}, nil, zap.NewNop())
	urls := []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"}

	got := c.Capture(context.Background(), testVIN, urls)
	require.Equal(t, urls, got)
}

func TestCaptureRehostsInOrder(t *testing.T) {
	t.Parallel()

	srv := photoServer(t)
	defer srv.Close()

	provider := storage.NewMemoryProvider("https://blobs.example.com")
	c := NewCapturer(Config{BatchSize: 2}, provider, zap.NewNop())

	sources := []string{srv.URL + "/img/1", srv.URL + "/img/2", srv.URL + "/img/3"}
	got := c.Capture(context.Background(), testVIN, sources)

	require.Len(t, got, 3)
	for i, u := range got {
		require.Contains(t, u, "https://blobs.example.com/inventory/"+testVIN+"/")
		require.Contains(t, u, "-photo-", "photo %d", i)
	}
	require.Equal(t, 3, provider.Len())

	// Index in the object name follows source order.
	require.Contains(t, got[0], "-photo-0")
	require.Contains(t, got[1], "-photo-1")
	require.Contains(t, got[2], "-photo-2")
}

func TestCaptureFallsBackPerPhoto(t *testing.T) {
	t.Parallel()

	srv := photoServer(t)
	defer srv.Close()

	provider := storage.NewMemoryProvider("https://blobs.example.com")
	c := NewCapturer(Config{}, provider, zap.NewNop())

	sources := []string{
		srv.URL + "/img/1",
		srv.URL + "/missing.jpg",
		srv.URL + "/not-image.html",
	}
	got := c.Capture(context.Background(), testVIN, sources)

	require.Len(t, got, 3)
	require.Contains(t, got[0], "blobs.example.com")
	// Failed downloads and non-images keep their source URLs in place.
	require.Equal(t, sources[1], got[1])
	require.Equal(t, sources[2], got[2])
	require.Equal(t, 1, provider.Len())
}

func TestCaptureRejectsOversizedPhoto(t *testing.T) {
	t.Parallel()

	srv := photoServer(t)
	defer srv.Close()

	provider := storage.NewMemoryProvider("https://blobs.example.com")
	c := NewCapturer(Config{MaxBytes: 1024}, provider, zap.NewNop())

	sources := []string{srv.URL + "/huge.png"}
	got := c.Capture(context.Background(), testVIN, sources)
	require.Equal(t, sources, got)
	require.Zero(t, provider.Len())
}

func TestCaptureEmptyInput(t *testing.T) {
	t.Parallel()

	provider := storage.NewMemoryProvider("https://blobs.example.com")
	c := NewCapturer(Config{}, provider, zap.NewNop())
	require.Empty(t, c.Capture(context.Background(), testVIN, nil))
}
