package scrape

import (
	"bytes"
	"context"

	"github.com/PuerkitoBio/goquery"
)

// HeuristicDetector flags pages that look like empty JS shells: a tiny
// body, SPA framework markers, or no VIN-bearing links anywhere.
type HeuristicDetector struct {
	minHTMLBytes int
	keywords     [][]byte
}

// NewHeuristicDetector constructs a Detector with the configured thresholds.
func NewHeuristicDetector(minBytes int, keywords []string) *HeuristicDetector {
	lowerKeywords := make([][]byte, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		lowerKeywords = append(lowerKeywords, bytes.ToLower([]byte(kw)))
	}
	return &HeuristicDetector{
		minHTMLBytes: minBytes,
		keywords:     lowerKeywords,
	}
}

// NeedsJS inspects the page for signals that the inventory content is
// rendered client-side.
func (d *HeuristicDetector) NeedsJS(_ context.Context, page Page) bool {
	if d == nil {
		return false
	}
	switch {
	case d.bodyBelowThreshold(page.Body):
		return true
	case d.containsKeywords(page.Body):
		return d.missingInventoryLinks(page.Body)
	default:
		return false
	}
}

func (d *HeuristicDetector) bodyBelowThreshold(body []byte) bool {
	return d.minHTMLBytes > 0 && len(body) < d.minHTMLBytes
}

func (d *HeuristicDetector) containsKeywords(body []byte) bool {
	if len(body) == 0 || len(d.keywords) == 0 {
		return false
	}
	lowerBody := bytes.ToLower(body)
	for _, kw := range d.keywords {
		if bytes.Contains(lowerBody, kw) {
			return true
		}
	}
	return false
}

// missingInventoryLinks reports whether no anchor on the page carries a
// VIN-shaped href. SPA markers alone are not decisive; many dealer sites
// ship React chrome around fully server-rendered listings.
func (d *HeuristicDetector) missingInventoryLinks(body []byte) bool {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return true
	}
	found := false
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if vinFromURL(href) != "" {
			found = true
			return false
		}
		return true
	})
	return !found
}
