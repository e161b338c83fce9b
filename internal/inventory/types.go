// Package inventory defines the core domain types shared across the sync pipeline.
package inventory

import "time"

// Status represents the lifecycle state of a persisted vehicle record.
type Status string

// Vehicle status values persisted in the vehicle store.
const (
	StatusActive  Status = "active"
	StatusSold    Status = "sold"
	StatusPending Status = "pending"
	StatusRemoved Status = "removed"
)

// SyncStatus represents the state of a dealer's most recent sync run.
type SyncStatus string

// Sync status values persisted on the dealer record.
const (
	SyncStatusInProgress SyncStatus = "in_progress"
	SyncStatusSuccess    SyncStatus = "success"
	SyncStatusFailed     SyncStatus = "failed"
)

// FeedType identifies which scraper handles a dealer's inventory source.
type FeedType string

// Supported feed provider types.
const (
	FeedTypeDealerOn FeedType = "dealeron"
	FeedTypeCSV      FeedType = "csv"
)

// InventoryType filters sitemap discovery by new/used stock.
type InventoryType string

// Inventory type filter values.
const (
	InventoryUsed InventoryType = "used"
	InventoryNew  InventoryType = "new"
	InventoryAll  InventoryType = "all"
)

// ColorUnknown is the sentinel for a color that has not been determined yet.
// "Content" shows up in feeds that leak CMS placeholder text; both are
// treated as overwritable.
const ColorUnknown = "Unknown"

// ScrapedVehicle is the ephemeral record produced by one scrape of a
// dealer's source. Zero price/mileage mean "unknown", not free/new.
type ScrapedVehicle struct {
	VIN       string
	Price     float64
	Mileage   int
	Color     string
	PhotoURLs []string
	DetailURL string

	// Optional fields the source page may provide; VIN decoding fills the
	// gaps when a vehicle is first inserted.
	Year         int
	Make         string
	Model        string
	Trim         string
	Transmission string
	FuelType     string
	Description  string
}

// VinDecoded is the normalized result of an external VIN decode.
// Year, Make, and Model are always set; a decode missing any of the
// three fails instead of returning a partial record.
type VinDecoded struct {
	Year         int
	Make         string
	Model        string
	Trim         string
	BodyType     string
	Drivetrain   string
	FuelType     string
	Engine       string
	Transmission string
	Doors        int
}

// Vehicle is the persisted inventory record. VIN is the reconciliation
// key; Slug is the unique SEO identifier. Photos preserves display order.
type Vehicle struct {
	ID           string
	DealerID     string
	VIN          string
	Slug         string
	Year         int
	Make         string
	Model        string
	Trim         string
	Price        float64
	Mileage      int
	Color        string
	Transmission string
	BodyType     string
	Drivetrain   string
	FuelType     string
	Engine       string
	Description  string
	Photos       []string
	City         string
	State        string
	Latitude     float64
	Longitude    float64
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Dealer carries the sync configuration and status for one dealer.
type Dealer struct {
	ID               string
	Name             string
	City             string
	State            string
	FeedURL          string
	FeedType         FeedType
	AutoSyncEnabled  bool
	SyncFrequencyDays int
	Approved         bool
	LastSyncAt       *time.Time
	LastSyncStatus   SyncStatus
	LastSyncMessage  string
}

// SyncStats counts the outcomes of a single reconciliation run.
type SyncStats struct {
	Found      int
	Added      int
	Updated    int
	MarkedSold int
	Failed     int
}

// SyncSummary is the structured result of one dealer sync run.
type SyncSummary struct {
	DealerID   string
	DealerName string
	Success    bool
	Error      string
	Stats      SyncStats
	Duration   time.Duration
}
