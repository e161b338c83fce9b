// Package store defines persistence interfaces for vehicles and dealer
// sync configuration. Interfaces decouple the reconciler from Postgres so
// tests can run against the in-memory implementation.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// ErrNotFound is returned when a dealer or vehicle does not exist.
var ErrNotFound = errors.New("record not found")

// VehicleUpdate carries a partial-field update. Nil pointers mean "leave
// unchanged"; Photos is only applied when non-nil.
type VehicleUpdate struct {
	Price    *float64
	Mileage  *int
	Color    *string
	FuelType *string
	Photos   []string
}

// IsEmpty reports whether the update would change nothing.
func (u VehicleUpdate) IsEmpty() bool {
	return u.Price == nil && u.Mileage == nil && u.Color == nil && u.FuelType == nil && u.Photos == nil
}

// VehicleStore persists inventory records.
type VehicleStore interface {
	// ListUnsold returns a dealer's records with status != sold.
	ListUnsold(ctx context.Context, dealerID string) ([]inventory.Vehicle, error)

	// Create inserts a new record. The caller supplies ID, slug, and status.
	Create(ctx context.Context, v inventory.Vehicle) error

	// Update applies a partial-field update to one record.
	Update(ctx context.Context, id string, upd VehicleUpdate) error

	// MarkSold transitions a record to status sold.
	MarkSold(ctx context.Context, id string) error

	// SlugExists reports whether any record already uses slug.
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// DealerStore reads dealer sync configuration and writes sync status.
type DealerStore interface {
	// Get returns one dealer by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (inventory.Dealer, error)

	// ListDue returns dealers eligible for a scheduled sync: auto-sync
	// enabled, feed URL configured, approved, and last synced before the
	// cutoff (or never).
	ListDue(ctx context.Context, cutoff time.Time) ([]inventory.Dealer, error)

	// MarkSyncInProgress persists the in_progress status immediately so it
	// is visible to other readers while the run executes.
	MarkSyncInProgress(ctx context.Context, id string) error

	// RecordSyncResult persists the terminal status, message, and sync
	// timestamp. Called on both success and failure.
	RecordSyncResult(ctx context.Context, id string, status inventory.SyncStatus, message string, at time.Time) error
}
