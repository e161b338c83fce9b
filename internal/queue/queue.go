// Package queue publishes sync-completed events so downstream
// consumers (search indexers, cache invalidation) learn about
// inventory changes without polling the store.
package queue

import (
	"context"
	"sync"

	"github.com/autolot/inventory-sync/internal/inventory"
)

// Publisher emits one event per finished dealer sync.
type Publisher interface {
	Publish(ctx context.Context, summary inventory.SyncSummary) error
	Close() error
}

// NoOpPublisher drops events. Used when no broker is configured.
type NoOpPublisher struct{}

// Publish does nothing and always succeeds.
func (NoOpPublisher) Publish(context.Context, inventory.SyncSummary) error { return nil }

// Close does nothing.
func (NoOpPublisher) Close() error { return nil }

// MemoryPublisher records events in memory, for tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []inventory.SyncSummary
}

// Publish appends the event.
func (m *MemoryPublisher) Publish(_ context.Context, summary inventory.SyncSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, summary)
	return nil
}

// Close does nothing.
func (m *MemoryPublisher) Close() error { return nil }

// Events returns a copy of everything published so far.
func (m *MemoryPublisher) Events() []inventory.SyncSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]inventory.SyncSummary, len(m.events))
	copy(out, m.events)
	return out
}
