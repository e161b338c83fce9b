// Package schedule sweeps dealers that are due for an inventory sync
// and dispatches the reconciler for each.
package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/store"
)

// Syncer runs one dealer sync; satisfied by the reconciler.
type Syncer interface {
	SyncDealer(ctx context.Context, dealerID string) inventory.SyncSummary
}

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Config governs the sweep.
type Config struct {
	// MinIntervalDays is the floor below which no dealer re-syncs,
	// regardless of its own configured frequency.
	MinIntervalDays int
	// DealerPause is the fixed delay between dealers. Dealers run
	// strictly sequentially to bound aggregate outbound request rate,
	// and the pause keeps the traffic pattern polite across many
	// source sites.
	DealerPause time.Duration
}

// Scheduler selects due dealers and runs them one at a time.
type Scheduler struct {
	cfg     Config
	dealers store.DealerStore
	syncer  Syncer
	clock   Clock
	logger  *zap.Logger
}

// New wires a Scheduler.
func New(cfg Config, dealers store.DealerStore, syncer Syncer, clock Clock, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cfg:     cfg,
		dealers: dealers,
		syncer:  syncer,
		clock:   clock,
		logger:  logger,
	}
}

// Run performs one sweep and returns every per-dealer summary. The
// store pre-filters by the global floor; each dealer's own frequency
// is applied here on top of it.
func (s *Scheduler) Run(ctx context.Context) ([]inventory.SyncSummary, error) {
	now := s.clock.Now()
	cutoff := now.AddDate(0, 0, -s.cfg.MinIntervalDays)

	due, err := s.dealers.ListDue(ctx, cutoff)
	if err != nil {
		return nil, err
	}
	s.logger.Info("scheduled sweep starting", zap.Int("due_dealers", len(due)))

	var summaries []inventory.SyncSummary
	for i, dealer := range due {
		if !s.dealerDue(dealer, now) {
			s.logger.Debug("dealer not due by its own frequency",
				zap.String("dealer_id", dealer.ID),
				zap.Int("frequency_days", dealer.SyncFrequencyDays))
			continue
		}

		summaries = append(summaries, s.syncer.SyncDealer(ctx, dealer.ID))

		if i < len(due)-1 && s.cfg.DealerPause > 0 {
			select {
			case <-time.After(s.cfg.DealerPause):
			case <-ctx.Done():
				return summaries, ctx.Err()
			}
		}
	}

	s.logger.Info("scheduled sweep finished", zap.Int("synced", len(summaries)))
	return summaries, nil
}

// dealerDue applies the dealer's individually configured frequency.
// A dealer that has never synced is always due.
func (s *Scheduler) dealerDue(dealer inventory.Dealer, now time.Time) bool {
	if dealer.LastSyncAt == nil {
		return true
	}
	days := dealer.SyncFrequencyDays
	if days < s.cfg.MinIntervalDays {
		days = s.cfg.MinIntervalDays
	}
	return now.Sub(*dealer.LastSyncAt) >= time.Duration(days)*24*time.Hour
}
