package store

import (
	"context"
	"sync"
	"time"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// MemoryStore is an in-memory VehicleStore + DealerStore for tests and
// local runs without a database.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]inventory.Vehicle
	dealers  map[string]inventory.Dealer
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: make(map[string]inventory.Vehicle),
		dealers:  make(map[string]inventory.Dealer),
	}
}

// SeedDealer inserts or replaces a dealer record.
func (s *MemoryStore) SeedDealer(d inventory.Dealer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dealers[d.ID] = d
}

// SeedVehicle inserts or replaces a vehicle record.
func (s *MemoryStore) SeedVehicle(v inventory.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
}

// Vehicle returns a copy of one record by ID.
func (s *MemoryStore) Vehicle(id string) (inventory.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	return v, ok
}

// ListUnsold implements VehicleStore.
func (s *MemoryStore) ListUnsold(_ context.Context, dealerID string) ([]inventory.Vehicle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Vehicle
	for _, v := range s.vehicles {
		if v.DealerID == dealerID && v.Status != inventory.StatusSold {
			out = append(out, v)
		}
	}
	return out, nil
}

// Create implements VehicleStore.
func (s *MemoryStore) Create(_ context.Context, v inventory.Vehicle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return nil
}

// Update implements VehicleStore.
func (s *MemoryStore) Update(_ context.Context, id string, upd VehicleUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	if upd.Price != nil {
		v.Price = *upd.Price
	}
	if upd.Mileage != nil {
		v.Mileage = *upd.Mileage
	}
	if upd.Color != nil {
		v.Color = *upd.Color
	}
	if upd.FuelType != nil {
		v.FuelType = *upd.FuelType
	}
	if upd.Photos != nil {
		v.Photos = append([]string(nil), upd.Photos...)
	}
	v.UpdatedAt = time.Now().UTC()
	s.vehicles[id] = v
	return nil
}

// MarkSold implements VehicleStore.
func (s *MemoryStore) MarkSold(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = inventory.StatusSold
	v.UpdatedAt = time.Now().UTC()
	s.vehicles[id] = v
	return nil
}

// SlugExists implements VehicleStore.
func (s *MemoryStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, v := range s.vehicles {
		if v.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

// Get implements DealerStore.
func (s *MemoryStore) Get(_ context.Context, id string) (inventory.Dealer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.dealers[id]
	if !ok {
		return inventory.Dealer{}, ErrNotFound
	}
	return d, nil
}

// ListDue implements DealerStore.
func (s *MemoryStore) ListDue(_ context.Context, cutoff time.Time) ([]inventory.Dealer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []inventory.Dealer
	for _, d := range s.dealers {
		if !d.AutoSyncEnabled || d.FeedURL == "" || !d.Approved {
			continue
		}
		if d.LastSyncAt != nil && !d.LastSyncAt.Before(cutoff) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// MarkSyncInProgress implements DealerStore.
func (s *MemoryStore) MarkSyncInProgress(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dealers[id]
	if !ok {
		return ErrNotFound
	}
	d.LastSyncStatus = inventory.SyncStatusInProgress
	d.LastSyncMessage = "Sync started"
	s.dealers[id] = d
	return nil
}

// RecordSyncResult implements DealerStore.
func (s *MemoryStore) RecordSyncResult(_ context.Context, id string, status inventory.SyncStatus, message string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dealers[id]
	if !ok {
		return ErrNotFound
	}
	d.LastSyncStatus = status
	d.LastSyncMessage = message
	d.LastSyncAt = &at
	s.dealers[id] = d
	return nil
}
