package scrape

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
)

var (
	// Detail-page hrefs on DealerOn-style sites carry the stock segment
	// and end in a VIN-shaped token.
	sitemapHrefPattern = regexp.MustCompile(`href="([^"]*(?:used-|new-)[^"]*[A-HJ-NPR-Z0-9]{17})"`)

	// Strict XML sitemaps list one URL per <loc>; only entries whose path
	// ends in a VIN are vehicle detail pages.
	sitemapLocPattern = regexp.MustCompile(`<loc>\s*([^<]*(?:used-|new-)[^<]*[A-HJ-NPR-Z0-9]{17})\s*</loc>`)
)

// Discoverer finds vehicle detail-page URLs from a site's sitemap.
type Discoverer struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewDiscoverer builds a sitemap Discoverer on top of a Fetcher.
func NewDiscoverer(fetcher Fetcher, logger *zap.Logger) *Discoverer {
	return &Discoverer{fetcher: fetcher, logger: logger}
}

// Discover returns deduplicated absolute detail-page URLs filtered by
// inventory type. An empty result is not an error; it tells the caller
// to fall back to scraping the inventory pages directly. Network and
// non-2xx failures are logged and reported as "no sitemap".
func (d *Discoverer) Discover(ctx context.Context, baseURL string, invType inventory.InventoryType) []string {
	sitemapURL := strings.TrimRight(baseURL, "/") + "/sitemap.xml"
	page, err := d.fetcher.Fetch(ctx, sitemapURL)
	if err != nil {
		d.logger.Warn("sitemap fetch failed", zap.String("url", sitemapURL), zap.Error(err))
		return nil
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		d.logger.Warn("sitemap returned non-2xx",
			zap.String("url", sitemapURL),
			zap.Int("status", page.StatusCode))
		return nil
	}

	body := string(page.Body)
	urls := extractSitemapURLs(body, sitemapHrefPattern, baseURL, invType)
	if len(urls) == 0 {
		urls = extractSitemapURLs(body, sitemapLocPattern, baseURL, invType)
	}

	d.logger.Info("sitemap discovered",
		zap.String("base", baseURL),
		zap.String("type", string(invType)),
		zap.Int("urls", len(urls)))
	return urls
}

func extractSitemapURLs(body string, pattern *regexp.Regexp, baseURL string, invType inventory.InventoryType) []string {
	matches := pattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	var urls []string
	for _, m := range matches {
		raw := html.UnescapeString(m[1])
		if !matchesInventoryType(raw, invType) {
			continue
		}
		abs, err := absolutize(baseURL, raw)
		if err != nil {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
	}
	return urls
}

func matchesInventoryType(u string, invType inventory.InventoryType) bool {
	switch invType {
	case inventory.InventoryUsed:
		return strings.Contains(u, "used-")
	case inventory.InventoryNew:
		return strings.Contains(u, "new-")
	default:
		return strings.Contains(u, "used-") || strings.Contains(u, "new-")
	}
}

// absolutize resolves raw against base. Already-absolute URLs pass
// through untouched.
func absolutize(base, raw string) (string, error) {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	baseParsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	ref, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse relative url: %w", err)
	}
	return baseParsed.ResolveReference(ref).String(), nil
}

// vinFromURL pulls the trailing VIN-shaped token out of a detail-page
// URL, or returns "" when the URL carries none.
func vinFromURL(rawURL string) string {
	candidates := inventory.VINPattern.FindAllString(strings.ToUpper(rawURL), -1)
	for i := len(candidates) - 1; i >= 0; i-- {
		if inventory.IsValidVIN(candidates[i]) {
			return candidates[i]
		}
	}
	return ""
}
