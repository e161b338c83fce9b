// Package photos downloads scraped vehicle photos and rehosts them in
// owned storage, falling back to source URLs whenever rehosting is not
// possible.
package photos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/autolot/inventory-sync/internal/metrics"
	"github.com/autolot/inventory-sync/internal/storage"
)

// Config makes the capture behavior an explicit input: the fallback
// mode is decided by whether a provider is wired, not by reading the
// environment mid-upload.
type Config struct {
	MaxBytes    int64
	BatchSize   int
	HTTPTimeout time.Duration
}

// Capturer rehosts photo sets. A nil provider (or a no-op one that
// returns empty URLs) puts it in passthrough mode.
type Capturer struct {
	cfg      Config
	provider storage.Provider
	client   *http.Client
	logger   *zap.Logger
}

// NewCapturer wires a Capturer. provider may be nil.
func NewCapturer(cfg Config, provider storage.Provider, logger *zap.Logger) *Capturer {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 15 * time.Second
	}
	metrics.Init()
	return &Capturer{
		cfg:      cfg,
		provider: provider,
		client:   &http.Client{Timeout: cfg.HTTPTimeout},
		logger:   logger,
	}
}

// Capture returns durable URLs for the given source URLs, preserving
// order and length. With no provider configured the input is returned
// unchanged; per-photo failures fall back to the source URL for that
// position only. Batches run concurrently with no inter-batch delay;
// writes to owned storage are not rate-limited the way third-party
// GETs are.
func (c *Capturer) Capture(ctx context.Context, vin string, sourceURLs []string) []string {
	if c.provider == nil || len(sourceURLs) == 0 {
		return sourceURLs
	}

	out := make([]string, len(sourceURLs))
	copy(out, sourceURLs)

	for start := 0; start < len(sourceURLs); start += c.cfg.BatchSize {
		end := start + c.cfg.BatchSize
		if end > len(sourceURLs) {
			end = len(sourceURLs)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				hosted, err := c.captureOne(gctx, vin, sourceURLs[i], i)
				if err != nil {
					metrics.ObservePhotoFallback()
					c.logger.Warn("photo rehost failed, keeping source url",
						zap.String("vin", vin),
						zap.String("url", sourceURLs[i]),
						zap.Error(err))
					return nil
				}
				if hosted != "" {
					metrics.ObservePhotoRehosted()
					out[i] = hosted
				}
				return nil
			})
		}
		_ = g.Wait()
	}
	return out
}

// captureOne downloads, validates, and uploads a single photo. An
// empty hosted URL with nil error means the provider is in passthrough
// mode.
func (c *Capturer) captureOne(ctx context.Context, vin, sourceURL string, index int) (string, error) {
	data, err := c.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("content type %s is not an image", mtype.String())
	}

	objectName := fmt.Sprintf("inventory/%s/%s-photo-%d%s", vin, vin, index, mtype.Extension())
	hosted, err := c.provider.Upload(ctx, objectName, data, mtype.String())
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", objectName, err)
	}
	return hosted, nil
}

func (c *Capturer) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build photo request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("photo download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read photo body: %w", err)
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return nil, fmt.Errorf("photo exceeds %d byte ceiling", c.cfg.MaxBytes)
	}
	return data, nil
}
