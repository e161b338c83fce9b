package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/store"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type recordingSyncer struct {
	synced []string
}

func (r *recordingSyncer) SyncDealer(_ context.Context, dealerID string) inventory.SyncSummary {
	r.synced = append(r.synced, dealerID)
	return inventory.SyncSummary{DealerID: dealerID, Success: true}
}

func seedDealer(mem *store.MemoryStore, id string, lastSync *time.Time, frequencyDays int) {
	mem.SeedDealer(inventory.Dealer{
		ID:                id,
		Name:              id,
		FeedURL:           "https://" + id + ".example.com",
		FeedType:          inventory.FeedTypeDealerOn,
		AutoSyncEnabled:   true,
		Approved:          true,
		SyncFrequencyDays: frequencyDays,
		LastSyncAt:        lastSync,
	})
}

func TestRunSyncsDueDealers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()

	fiveDaysAgo := now.AddDate(0, 0, -5)
	oneDayAgo := now.AddDate(0, 0, -1)
	seedDealer(mem, "never-synced", nil, 2)
	seedDealer(mem, "stale", &fiveDaysAgo, 2)
	seedDealer(mem, "fresh", &oneDayAgo, 2)

	syncer := &recordingSyncer{}
	s := New(Config{MinIntervalDays: 2}, mem, syncer, fixedClock{t: now}, zap.NewNop())

	summaries, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.ElementsMatch(t, []string{"never-synced", "stale"}, syncer.synced)
}

func TestRunHonorsPerDealerFrequency(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()

	// Past the 2-day floor but inside its own 7-day frequency.
	threeDaysAgo := now.AddDate(0, 0, -3)
	seedDealer(mem, "weekly", &threeDaysAgo, 7)

	syncer := &recordingSyncer{}
	s := New(Config{MinIntervalDays: 2}, mem, syncer, fixedClock{t: now}, zap.NewNop())

	summaries, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, summaries)
	require.Empty(t, syncer.synced)
}

func TestRunSkipsUnconfiguredDealers(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 9, 1, 6, 0, 0, 0, time.UTC)
	mem := store.NewMemoryStore()

	mem.SeedDealer(inventory.Dealer{
		ID: "disabled", FeedURL: "https://x.example.com",
		AutoSyncEnabled: false, Approved: true,
	})
	mem.SeedDealer(inventory.Dealer{
		ID: "no-feed", AutoSyncEnabled: true, Approved: true,
	})
	mem.SeedDealer(inventory.Dealer{
		ID: "unapproved", FeedURL: "https://y.example.com",
		AutoSyncEnabled: true, Approved: false,
	})

	syncer := &recordingSyncer{}
	s := New(Config{MinIntervalDays: 2}, mem, syncer, fixedClock{t: now}, zap.NewNop())

	summaries, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, summaries)
}

func TestRunPausesBetweenDealers(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	mem := store.NewMemoryStore()
	seedDealer(mem, "a", nil, 2)
	seedDealer(mem, "b", nil, 2)

	pause := 40 * time.Millisecond
	syncer := &recordingSyncer{}
	s := New(Config{MinIntervalDays: 2, DealerPause: pause}, mem, syncer, fixedClock{t: now}, zap.NewNop())

	start := time.Now()
	summaries, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.GreaterOrEqual(t, time.Since(start), pause)
}
