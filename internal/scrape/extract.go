package scrape

import (
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// Strategy is one extraction approach tried against a fetched page.
// Strategies are best-effort: an empty result means "nothing here",
// never an error.
type Strategy interface {
	Name() string
	Extract(page Page, knownVIN string) []inventory.ScrapedVehicle
}

// Extractor runs strategies in priority order and returns the first
// non-empty result. Dealer markup varies wildly; structured data is
// tried first because it is precise, and the VIN scan last because it
// is noisy.
type Extractor struct {
	strategies []Strategy
	logger     *zap.Logger
}

// NewExtractor builds the standard chain: JSON-LD, then page
// heuristics, then the site-wide VIN scan.
func NewExtractor(logger *zap.Logger) *Extractor {
	return &Extractor{
		strategies: []Strategy{
			StructuredDataStrategy{},
			HeuristicStrategy{},
			VINScanStrategy{},
		},
		logger: logger,
	}
}

// NewExtractorWithStrategies builds a chain with an explicit strategy
// order, for platform-specific scrapers.
func NewExtractorWithStrategies(logger *zap.Logger, strategies ...Strategy) *Extractor {
	return &Extractor{strategies: strategies, logger: logger}
}

// Extract runs the chain against one page. knownVIN, when non-empty,
// scopes extraction to a single vehicle already identified from the URL.
func (e *Extractor) Extract(page Page, knownVIN string) []inventory.ScrapedVehicle {
	for _, s := range e.strategies {
		vehicles := s.Extract(page, knownVIN)
		if len(vehicles) > 0 {
			e.logger.Debug("extraction succeeded",
				zap.String("strategy", s.Name()),
				zap.String("url", page.URL),
				zap.Int("vehicles", len(vehicles)))
			return vehicles
		}
	}
	return nil
}

// StructuredDataStrategy reads JSON-LD vehicle markup.
type StructuredDataStrategy struct{}

// Name identifies the strategy in logs.
func (StructuredDataStrategy) Name() string { return "jsonld" }

// Extract parses ld+json blocks; when a VIN is already known it keeps
// only the matching record.
func (StructuredDataStrategy) Extract(page Page, knownVIN string) []inventory.ScrapedVehicle {
	vehicles := ExtractJSONLD(page.Body, page.URL)
	if knownVIN == "" {
		return vehicles
	}
	for _, v := range vehicles {
		if v.VIN == knownVIN {
			return []inventory.ScrapedVehicle{withDefaultDetailURL(v, page.URL)}
		}
	}
	return nil
}

// HeuristicStrategy extracts a single vehicle from a detail page whose
// VIN is already known from the URL.
type HeuristicStrategy struct{}

// Name identifies the strategy in logs.
func (HeuristicStrategy) Name() string { return "heuristic" }

// Extract pulls price, mileage, color, and photos out of the raw HTML
// with bounded regex matching.
func (HeuristicStrategy) Extract(page Page, knownVIN string) []inventory.ScrapedVehicle {
	if knownVIN == "" {
		return nil
	}
	body := string(page.Body)

	v := inventory.ScrapedVehicle{
		VIN:       knownVIN,
		Price:     ExtractPrice(body, PriceBounds),
		Mileage:   ExtractMileage(body, MileageBounds),
		Color:     inventory.ColorUnknown,
		PhotoURLs: ExtractInventoryPhotos(page.Body, knownVIN),
		DetailURL: page.URL,
	}
	if color := ExtractColor(body); color != "" {
		v.Color = color
	}

	if v.Price == 0 && v.Mileage == 0 && len(v.PhotoURLs) == 0 {
		return nil
	}
	return []inventory.ScrapedVehicle{v}
}

// vinScanWindow bounds how far around a VIN token the scan looks for a
// price and mileage figure.
const vinScanWindow = 500

// VINScanStrategy is the last resort: find VIN-shaped tokens anywhere
// in the page and mine their surrounding text.
type VINScanStrategy struct{}

// Name identifies the strategy in logs.
func (VINScanStrategy) Name() string { return "vinscan" }

// Extract scans the whole document for valid VINs and extracts price
// and mileage from a bounded window around each.
func (VINScanStrategy) Extract(page Page, knownVIN string) []inventory.ScrapedVehicle {
	body := string(page.Body)
	locations := inventory.VINPattern.FindAllStringIndex(body, -1)
	if len(locations) == 0 {
		return nil
	}

	seen := make(map[string]struct{})
	var vehicles []inventory.ScrapedVehicle
	for _, loc := range locations {
		vin := inventory.NormalizeVIN(body[loc[0]:loc[1]])
		if !inventory.IsValidVIN(vin) {
			continue
		}
		if knownVIN != "" && vin != knownVIN {
			continue
		}
		if _, dup := seen[vin]; dup {
			continue
		}
		seen[vin] = struct{}{}

		start := max(0, loc[0]-vinScanWindow)
		end := loc[1] + vinScanWindow
		if end > len(body) {
			end = len(body)
		}
		window := body[start:end]

		vehicles = append(vehicles, inventory.ScrapedVehicle{
			VIN:       vin,
			Price:     ExtractPrice(window, PriceBounds),
			Mileage:   ExtractMileage(window, MileageBounds),
			Color:     inventory.ColorUnknown,
			PhotoURLs: ExtractInventoryPhotos(page.Body, vin),
			DetailURL: page.URL,
		})
	}
	return vehicles
}

func withDefaultDetailURL(v inventory.ScrapedVehicle, pageURL string) inventory.ScrapedVehicle {
	if v.DetailURL == "" {
		v.DetailURL = pageURL
	}
	return v
}
