package reconcile

import (
	"math"

	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/store"
)

// Per-field significance thresholds. Dealer feeds re-report unchanged
// data constantly, often with placeholder or incomplete fields;
// unconditional overwrite would regress data already captured from a
// better source.
const (
	priceDeltaThreshold   = 1.0
	mileageDeltaThreshold = 100
)

// placeholderColors are CMS sentinels that any real value may replace.
var placeholderColors = map[string]struct{}{
	"":                     {},
	inventory.ColorUnknown: {},
	"Content":              {},
}

func isPlaceholderColor(c string) bool {
	_, ok := placeholderColors[c]
	return ok
}

// computeUpdate diffs one scraped record against its stored counterpart
// and returns only the fields worth writing. An empty update means the
// scrape re-reported what is already stored.
func computeUpdate(existing inventory.Vehicle, scraped inventory.ScrapedVehicle) store.VehicleUpdate {
	var upd store.VehicleUpdate

	if scraped.Price > 0 && math.Abs(scraped.Price-existing.Price) > priceDeltaThreshold {
		price := scraped.Price
		upd.Price = &price
	}

	if scraped.Mileage > 0 && abs(scraped.Mileage-existing.Mileage) > mileageDeltaThreshold {
		mileage := scraped.Mileage
		upd.Mileage = &mileage
	}

	// Color moves only from placeholder to real, never the reverse.
	if isPlaceholderColor(existing.Color) && !isPlaceholderColor(scraped.Color) {
		color := scraped.Color
		upd.Color = &color
	}

	if isUnsetFuel(existing.FuelType) && !isUnsetFuel(scraped.FuelType) {
		fuel := scraped.FuelType
		upd.FuelType = &fuel
	}

	// Photos only grow. A scrape that found fewer photos than are
	// already stored lost them, it did not remove them.
	if len(scraped.PhotoURLs) > len(existing.Photos) {
		upd.Photos = scraped.PhotoURLs
	}

	return upd
}

func isUnsetFuel(f string) bool {
	return f == "" || f == "Unknown"
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
