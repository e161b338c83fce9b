package scrape

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// CSVFeedScraper handles dealers that publish a hosted CSV export
// instead of a scrapeable site. The feed URL points directly at the
// CSV document; columns are matched by header name, case-insensitive.
type CSVFeedScraper struct {
	fetcher Fetcher
	logger  *zap.Logger
}

// NewCSVFeedScraper builds the CSV provider on the shared Fetcher.
func NewCSVFeedScraper(fetcher Fetcher, logger *zap.Logger) *CSVFeedScraper {
	return &CSVFeedScraper{fetcher: fetcher, logger: logger}
}

// Scrape downloads and parses the dealer's CSV feed. Rows with a
// missing or invalid VIN are skipped, not fatal.
func (s *CSVFeedScraper) Scrape(ctx context.Context, dealer inventory.Dealer) ([]inventory.ScrapedVehicle, error) {
	if dealer.FeedURL == "" {
		return nil, fmt.Errorf("dealer %s has no feed url", dealer.ID)
	}

	page, err := s.fetcher.Fetch(ctx, dealer.FeedURL)
	if err != nil {
		return nil, fmt.Errorf("fetch csv feed: %w", err)
	}
	if page.StatusCode < 200 || page.StatusCode >= 300 {
		return nil, fmt.Errorf("csv feed returned status %d", page.StatusCode)
	}

	vehicles, skipped, err := parseCSVFeed(page.Body)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		s.logger.Warn("csv rows skipped",
			zap.String("dealer", dealer.ID),
			zap.Int("skipped", skipped))
	}
	return vehicles, nil
}

func parseCSVFeed(body []byte) ([]inventory.ScrapedVehicle, int, error) {
	reader := csv.NewReader(bytes.NewReader(body))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["vin"]; !ok {
		return nil, 0, fmt.Errorf("csv feed has no vin column")
	}

	// Feeds disagree on header names; the first present alias wins.
	field := func(row []string, names ...string) string {
		for _, name := range names {
			i, ok := columns[name]
			if !ok || i >= len(row) {
				continue
			}
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
		return ""
	}

	var vehicles []inventory.ScrapedVehicle
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			skipped++
			continue
		}

		vin := inventory.NormalizeVIN(field(row, "vin"))
		if !inventory.IsValidVIN(vin) {
			skipped++
			continue
		}

		v := inventory.ScrapedVehicle{
			VIN:          vin,
			Price:        parseCSVFloat(field(row, "price", "sellingprice")),
			Mileage:      parseCSVInt(field(row, "mileage", "miles")),
			Color:        inventory.ColorUnknown,
			Year:         parseCSVInt(field(row, "year")),
			Make:         field(row, "make"),
			Model:        field(row, "model"),
			Trim:         field(row, "trim"),
			Transmission: field(row, "transmission"),
			FuelType:     field(row, "fuel_type", "fueltype"),
			Description:  field(row, "description"),
			DetailURL:    field(row, "detail_url"),
		}
		if color := field(row, "color", "exteriorcolor"); color != "" {
			v.Color = color
		}
		if v.FuelType == "" {
			v.FuelType = inferFuelType(field(row, "engine") + " " + v.Model)
		}
		for _, raw := range strings.Split(field(row, "photo_urls", "imageurls"), "|") {
			if cleaned := CleanPhotoURL(raw); cleaned != "" {
				v.PhotoURLs = append(v.PhotoURLs, cleaned)
			}
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, skipped, nil
}

// inferFuelType guesses the fuel type from engine or model text for
// feeds without a fuel column. Empty means no signal; the reconciler
// defaults it at insert time.
func inferFuelType(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "diesel"):
		return "Diesel"
	case strings.Contains(lower, "plug-in") || strings.Contains(lower, "hybrid"):
		return "Hybrid"
	case strings.Contains(lower, "electric") || strings.Contains(lower, " ev"):
		return "Electric"
	case strings.Contains(lower, "flex"):
		return "Flex Fuel"
	}
	return ""
}

func parseCSVFloat(s string) float64 {
	cleaned := strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func parseCSVInt(s string) int {
	v, err := strconv.Atoi(strings.ReplaceAll(s, ",", ""))
	if err != nil || v < 0 {
		return 0
	}
	return v
}
