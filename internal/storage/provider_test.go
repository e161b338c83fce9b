package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryProviderRoundTrip(t *testing.T) {
	t.Parallel()

	p := NewMemoryProvider("https://photos.invalid")
	url, err := p.Upload(context.Background(), "inventory/VIN/VIN-photo-0.jpg", []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://photos.invalid/inventory/VIN/VIN-photo-0.jpg", url)

	data, contentType, ok := p.Object("inventory/VIN/VIN-photo-0.jpg")
	require.True(t, ok)
	require.Equal(t, []byte("jpeg-bytes"), data)
	require.Equal(t, "image/jpeg", contentType)
	require.Equal(t, 1, p.Len())
}

func TestNoOpProviderReturnsEmptyURL(t *testing.T) {
	t.Parallel()

	var p NoOpProvider
	url, err := p.Upload(context.Background(), "anything", nil, "image/png")
	require.NoError(t, err)
	require.Empty(t, url)
}
