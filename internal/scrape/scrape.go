// Package scrape discovers and extracts dealer inventory from untrusted,
// semi-structured HTML sources. Extraction is layered: structured data
// first, then page heuristics, then a last-resort VIN scan.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// Page is one fetched document plus its transport metadata.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	Body       []byte
	UsedJS     bool
}

// Fetcher retrieves a single page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Renderer executes a page with JavaScript enabled and returns the DOM
// snapshot. Optional; a nil Renderer means no escalation path.
type Renderer interface {
	Render(ctx context.Context, rawURL string) (Page, error)
	Close(ctx context.Context) error
}

// Detector decides whether a fetched page needs JavaScript rendering to
// expose its inventory content.
type Detector interface {
	NeedsJS(ctx context.Context, page Page) bool
}

// Scraper produces a dealer's full inventory snapshot from its feed.
type Scraper interface {
	Scrape(ctx context.Context, dealer inventory.Dealer) ([]inventory.ScrapedVehicle, error)
}

// Config carries the knobs shared by the scrapers in this package.
type Config struct {
	UserAgent        string
	RequestTimeout   time.Duration
	DetailBatchSize  int
	DetailBatchDelay time.Duration
	MaxPhotoProbes   int
}

// Registry dispatches by the dealer's configured feed type.
type Registry struct {
	scrapers map[inventory.FeedType]Scraper
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[inventory.FeedType]Scraper)}
}

// Register binds a scraper to a feed type, replacing any prior binding.
func (r *Registry) Register(ft inventory.FeedType, s Scraper) {
	r.scrapers[ft] = s
}

// For returns the scraper for ft. An unknown feed type is a hard failure
// for that dealer's run.
func (r *Registry) For(ft inventory.FeedType) (Scraper, error) {
	s, ok := r.scrapers[ft]
	if !ok {
		return nil, fmt.Errorf("unsupported feed type %q", ft)
	}
	return s, nil
}
