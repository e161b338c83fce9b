package scrape

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// DealerOnScraper handles DealerOn-platform dealer sites: sitemap
// discovery, batched detail-page fetches, and layered extraction with
// an optional headless-render escalation for JS-shell pages.
type DealerOnScraper struct {
	cfg       Config
	fetcher   Fetcher
	renderer  Renderer
	detector  Detector
	extractor *Extractor
	prober    *PhotoProber
	logger    *zap.Logger
}

// NewDealerOnScraper wires the scraper. renderer and detector may be
// nil, which disables the render escalation path entirely.
func NewDealerOnScraper(cfg Config, fetcher Fetcher, renderer Renderer, detector Detector, prober *PhotoProber, logger *zap.Logger) *DealerOnScraper {
	return &DealerOnScraper{
		cfg:       cfg,
		fetcher:   fetcher,
		renderer:  renderer,
		detector:  detector,
		extractor: NewExtractor(logger),
		prober:    prober,
		logger:    logger,
	}
}

// Scrape produces the dealer's full inventory snapshot. Sitemap
// discovery drives the happy path; an empty sitemap falls back to
// scraping the feed URL itself.
func (s *DealerOnScraper) Scrape(ctx context.Context, dealer inventory.Dealer) ([]inventory.ScrapedVehicle, error) {
	if dealer.FeedURL == "" {
		return nil, fmt.Errorf("dealer %s has no feed url", dealer.ID)
	}

	discoverer := NewDiscoverer(s.fetcher, s.logger)
	urls := discoverer.Discover(ctx, dealer.FeedURL, inventory.InventoryAll)
	if len(urls) == 0 {
		s.logger.Info("no sitemap urls, scraping inventory page directly",
			zap.String("dealer", dealer.ID))
		return s.scrapeInventoryPage(ctx, dealer.FeedURL)
	}

	return s.scrapeDetailPages(ctx, urls)
}

// scrapeDetailPages fetches and parses detail pages in fixed-size
// concurrent batches with a fixed delay between batches. The delay is
// rate limiting against the dealer site, not a tuning knob.
func (s *DealerOnScraper) scrapeDetailPages(ctx context.Context, urls []string) ([]inventory.ScrapedVehicle, error) {
	batchSize := max(1, s.cfg.DetailBatchSize)

	var vehicles []inventory.ScrapedVehicle
	for start := 0; start < len(urls); start += batchSize {
		end := start + batchSize
		if end > len(urls) {
			end = len(urls)
		}
		batch := urls[start:end]

		results := make([]*inventory.ScrapedVehicle, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i, u := range batch {
			g.Go(func() error {
				v := s.scrapeOneDetail(gctx, u)
				results[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		for _, v := range results {
			if v != nil {
				vehicles = append(vehicles, *v)
			}
		}

		if end < len(urls) && s.cfg.DetailBatchDelay > 0 {
			select {
			case <-time.After(s.cfg.DetailBatchDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return vehicles, nil
}

// scrapeOneDetail fetches one detail page and extracts its vehicle.
// Every failure path returns nil; a bad page never aborts the batch.
func (s *DealerOnScraper) scrapeOneDetail(ctx context.Context, rawURL string) *inventory.ScrapedVehicle {
	vin := vinFromURL(rawURL)

	page, err := s.fetchWithEscalation(ctx, rawURL)
	if err != nil {
		s.logger.Warn("detail fetch failed", zap.String("url", rawURL), zap.Error(err))
		return nil
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		s.logger.Warn("detail page non-2xx",
			zap.String("url", rawURL),
			zap.Int("status", page.StatusCode))
		return nil
	}

	vehicles := s.extractor.Extract(page, vin)
	if len(vehicles) == 0 {
		return nil
	}
	v := vehicles[0]
	if len(v.PhotoURLs) == 0 && s.prober != nil && vin != "" {
		if id := dealerPhotoID(page.Body); id != "" {
			v.PhotoURLs = s.prober.Probe(ctx, siteBaseOf(rawURL), id, vin)
		}
	}
	return &v
}

// scrapeInventoryPage is the no-sitemap fallback: fetch the feed URL
// and run the full extraction chain over it.
func (s *DealerOnScraper) scrapeInventoryPage(ctx context.Context, feedURL string) ([]inventory.ScrapedVehicle, error) {
	page, err := s.fetchWithEscalation(ctx, feedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory page: %w", err)
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		return nil, fmt.Errorf("inventory page returned status %d", page.StatusCode)
	}
	return s.extractor.Extract(page, ""), nil
}

// fetchWithEscalation fetches over plain HTTP first and re-renders with
// headless Chrome only when the detector flags a JS shell.
func (s *DealerOnScraper) fetchWithEscalation(ctx context.Context, rawURL string) (Page, error) {
	page, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return Page{}, err
	}
	if s.renderer == nil || s.detector == nil || !s.detector.NeedsJS(ctx, page) {
		return page, nil
	}

	rendered, renderErr := s.renderer.Render(ctx, rawURL)
	if renderErr != nil {
		s.logger.Warn("render escalation failed, using plain fetch",
			zap.String("url", rawURL), zap.Error(renderErr))
		return page, nil
	}
	return rendered, nil
}

// dealerPhotoID recovers the numeric dealer segment of the photo path
// from any inventory-photo URL already present in the page.
func dealerPhotoID(body []byte) string {
	m := inventoryPhotoPattern.FindSubmatch(body)
	if m == nil {
		return ""
	}
	return string(m[2])
}

// siteBaseOf reduces a detail-page URL to its scheme://host base for
// photo probing.
func siteBaseOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}
	return parsed.Scheme + "://" + parsed.Host
}
