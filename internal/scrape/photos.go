package scrape

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DealerOn hosts vehicle photos under a dealer/VIN-scoped path with a
// numeric photo index.
var inventoryPhotoPattern = regexp.MustCompile(`(https?:)?//[^"'\s]*/inventoryphotos/(\d+)/([A-HJ-NPR-Za-hj-npr-z0-9]{17})/ip/(\d+)\.(?:jpe?g|png|webp)[^"'\s]*`)

// CleanPhotoURL normalizes a scraped image URL: entity-decoded,
// protocol-relative URLs pinned to https, anything that is not an
// http(s) URL dropped.
func CleanPhotoURL(raw string) string {
	u := strings.TrimSpace(html.UnescapeString(raw))
	if strings.HasPrefix(u, "//") {
		u = "https:" + u
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return ""
	}
	return u
}

// ExtractInventoryPhotos scans HTML for inventory-photo URLs matching
// vin and returns them sorted by the numeric photo index. Regex scan
// order follows document order, which is not numeric order.
func ExtractInventoryPhotos(body []byte, vin string) []string {
	matches := inventoryPhotoPattern.FindAllStringSubmatch(string(body), -1)
	if len(matches) == 0 {
		return nil
	}

	type indexedPhoto struct {
		index int
		url   string
	}
	seen := make(map[string]struct{}, len(matches))
	var photos []indexedPhoto
	for _, m := range matches {
		if !strings.EqualFold(m[3], vin) {
			continue
		}
		cleaned := CleanPhotoURL(m[0])
		if cleaned == "" {
			continue
		}
		if _, dup := seen[cleaned]; dup {
			continue
		}
		seen[cleaned] = struct{}{}
		n, err := strconv.Atoi(m[4])
		if err != nil {
			continue
		}
		photos = append(photos, indexedPhoto{index: n, url: cleaned})
	}

	sort.Slice(photos, func(i, j int) bool { return photos[i].index < photos[j].index })

	urls := make([]string, len(photos))
	for i, p := range photos {
		urls[i] = p.url
	}
	return urls
}

// PhotoProber walks the conventional inventory-photo path with HEAD
// requests when a page exposes no photo markup at all.
type PhotoProber struct {
	client    *http.Client
	maxProbes int
	logger    *zap.Logger
}

// NewPhotoProber builds a prober with its own bounded-timeout client.
func NewPhotoProber(timeout time.Duration, maxProbes int, logger *zap.Logger) *PhotoProber {
	return &PhotoProber{
		client:    &http.Client{Timeout: timeout},
		maxProbes: maxProbes,
		logger:    logger,
	}
}

// Probe issues HEAD requests against sequential photo indexes and stops
// at the first miss. Photo hosting is contiguous from 1, so the first
// gap marks the end of the set.
func (p *PhotoProber) Probe(ctx context.Context, siteBase, dealerPhotoID, vin string) []string {
	if dealerPhotoID == "" || vin == "" {
		return nil
	}
	base := strings.TrimRight(siteBase, "/")
	var urls []string
	for i := 1; i <= p.maxProbes; i++ {
		photoURL := fmt.Sprintf("%s/inventoryphotos/%s/%s/ip/%d.jpg", base, dealerPhotoID, strings.ToLower(vin), i)
		if !p.exists(ctx, photoURL) {
			break
		}
		urls = append(urls, photoURL)
	}
	return urls
}

func (p *PhotoProber) exists(ctx context.Context, photoURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, photoURL, nil)
	if err != nil {
		return false
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("photo probe failed", zap.String("url", photoURL), zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
