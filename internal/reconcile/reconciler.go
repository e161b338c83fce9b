// Package reconcile diffs freshly scraped dealer inventory against the
// persisted vehicle set and applies the minimal insert/update/mark-sold
// operations to converge them.
package reconcile

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/metrics"
	"github.com/autolot/inventory-sync/internal/queue"
	"github.com/autolot/inventory-sync/internal/scrape"
	"github.com/autolot/inventory-sync/internal/store"
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

// IDGenerator mints primary keys for new vehicle records.
type IDGenerator interface {
	NewID() (string, error)
}

// Decoder resolves a VIN into normalized vehicle attributes.
type Decoder interface {
	Decode(ctx context.Context, vin string) (inventory.VinDecoded, error)
}

// PhotoCapturer rehosts a vehicle's photo set, preserving order and
// length.
type PhotoCapturer interface {
	Capture(ctx context.Context, vin string, sourceURLs []string) []string
}

const defaultEnrichBatchSize = 3

// Config tunes the enrichment batching for newly discovered vehicles.
type Config struct {
	EnrichBatchSize  int
	EnrichBatchDelay time.Duration
}

// Reconciler runs one dealer sync end to end. It is the sole writer
// for a dealer's vehicles during its run; a per-dealer try-lock keeps
// a manual trigger from racing a scheduled one.
type Reconciler struct {
	cfg       Config
	dealers   store.DealerStore
	vehicles  store.VehicleStore
	registry  *scrape.Registry
	decoder   Decoder
	photos    PhotoCapturer
	publisher queue.Publisher
	clock     Clock
	ids       IDGenerator
	logger    *zap.Logger

	locks sync.Map
}

// New wires a Reconciler.
func New(
	cfg Config,
	dealers store.DealerStore,
	vehicles store.VehicleStore,
	registry *scrape.Registry,
	decoder Decoder,
	photos PhotoCapturer,
	publisher queue.Publisher,
	clock Clock,
	ids IDGenerator,
	logger *zap.Logger,
) *Reconciler {
	metrics.Init()
	return &Reconciler{
		cfg:       cfg,
		dealers:   dealers,
		vehicles:  vehicles,
		registry:  registry,
		decoder:   decoder,
		photos:    photos,
		publisher: publisher,
		clock:     clock,
		ids:       ids,
		logger:    logger,
	}
}

// ErrSyncInProgress reports that another run already holds the
// dealer's lock.
var ErrSyncInProgress = fmt.Errorf("sync already in progress")

// SyncDealer performs one full sync run for the dealer and returns its
// summary. Every failure inside the run is converted into a failed
// summary; nothing propagates to crash a scheduler loop.
func (r *Reconciler) SyncDealer(ctx context.Context, dealerID string) inventory.SyncSummary {
	start := r.clock.Now()
	summary := inventory.SyncSummary{DealerID: dealerID}

	dealer, err := r.dealers.Get(ctx, dealerID)
	if err != nil {
		summary.Error = fmt.Sprintf("load dealer: %v", err)
		summary.Duration = r.clock.Now().Sub(start)
		return summary
	}
	summary.DealerName = dealer.Name

	if dealer.FeedURL == "" {
		summary.Error = "dealer has no inventory feed url"
		r.finish(ctx, dealer.ID, &summary, start)
		return summary
	}

	lock := r.dealerLock(dealer.ID)
	if !lock.TryLock() {
		// Another run owns this dealer right now. Do not touch its
		// persisted status; the owning run will.
		summary.Error = ErrSyncInProgress.Error()
		summary.Duration = r.clock.Now().Sub(start)
		return summary
	}
	defer lock.Unlock()

	if err := r.dealers.MarkSyncInProgress(ctx, dealer.ID); err != nil {
		r.logger.Warn("mark sync in progress failed",
			zap.String("dealer_id", dealer.ID), zap.Error(err))
	}

	if err := r.runSync(ctx, dealer, &summary); err != nil {
		summary.Error = err.Error()
	}
	r.finish(ctx, dealer.ID, &summary, start)
	return summary
}

// runSync does the scrape and reconciliation. Returned errors abort
// only this dealer's run.
func (r *Reconciler) runSync(ctx context.Context, dealer inventory.Dealer, summary *inventory.SyncSummary) error {
	scraper, err := r.registry.For(dealer.FeedType)
	if err != nil {
		return err
	}

	scraped, err := scraper.Scrape(ctx, dealer)
	if err != nil {
		return fmt.Errorf("scrape inventory: %w", err)
	}
	summary.Stats.Found = len(scraped)

	existing, err := r.vehicles.ListUnsold(ctx, dealer.ID)
	if err != nil {
		return fmt.Errorf("load current inventory: %w", err)
	}
	existingByVIN := make(map[string]inventory.Vehicle, len(existing))
	for _, v := range existing {
		existingByVIN[v.VIN] = v
	}

	scrapedVINs := make(map[string]struct{}, len(scraped))
	var fresh []inventory.ScrapedVehicle
	for _, sv := range scraped {
		if _, dup := scrapedVINs[sv.VIN]; dup {
			continue
		}
		scrapedVINs[sv.VIN] = struct{}{}

		if current, ok := existingByVIN[sv.VIN]; ok {
			r.applyUpdate(ctx, current, sv, &summary.Stats)
			continue
		}
		fresh = append(fresh, sv)
	}
	r.addVehicles(ctx, dealer, fresh, &summary.Stats)

	// A scrape that found nothing while inventory exists is far more
	// likely a source outage than a dealer selling every car at once.
	// Marking everything sold on that signal would wipe the listing set,
	// so the sold pass is skipped.
	if len(scrapedVINs) == 0 && len(existing) > 0 {
		r.logger.Warn("empty scrape with existing inventory, skipping sold pass",
			zap.String("dealer_id", dealer.ID),
			zap.Int("existing", len(existing)))
		return nil
	}

	// The sold pass depends on the complete fresh-VIN set, so it runs
	// strictly after all insert/update processing.
	for _, v := range existing {
		if _, found := scrapedVINs[v.VIN]; found {
			continue
		}
		if err := r.vehicles.MarkSold(ctx, v.ID); err != nil {
			summary.Stats.Failed++
			metrics.ObserveVehicle("failed")
			r.logger.Warn("mark sold failed",
				zap.String("vin", v.VIN), zap.Error(err))
			continue
		}
		summary.Stats.MarkedSold++
		metrics.ObserveVehicle("marked_sold")
	}
	return nil
}

// applyUpdate writes the significant field deltas for one matched VIN,
// or nothing when the scrape re-reported current data.
func (r *Reconciler) applyUpdate(ctx context.Context, current inventory.Vehicle, sv inventory.ScrapedVehicle, stats *inventory.SyncStats) {
	upd := computeUpdate(current, sv)
	if upd.IsEmpty() {
		metrics.ObserveVehicle("unchanged")
		return
	}
	if upd.Photos != nil {
		upd.Photos = r.photos.Capture(ctx, current.VIN, upd.Photos)
	}
	if err := r.vehicles.Update(ctx, current.ID, upd); err != nil {
		stats.Failed++
		metrics.ObserveVehicle("failed")
		r.logger.Warn("update vehicle failed",
			zap.String("vin", current.VIN), zap.Error(err))
		return
	}
	stats.Updated++
	metrics.ObserveVehicle("updated")
}

// addVehicles runs the creation sub-pipeline for VINs new to this dealer
// in small concurrent batches, pausing between batches to stay polite to
// the decode and photo hosts. A vehicle's failure never aborts its batch.
func (r *Reconciler) addVehicles(ctx context.Context, dealer inventory.Dealer, fresh []inventory.ScrapedVehicle, stats *inventory.SyncStats) {
	batchSize := r.cfg.EnrichBatchSize
	if batchSize <= 0 {
		batchSize = defaultEnrichBatchSize
	}

	for start := 0; start < len(fresh); start += batchSize {
		end := start + batchSize
		if end > len(fresh) {
			end = len(fresh)
		}
		batch := fresh[start:end]

		errs := make([]error, len(batch))
		var g errgroup.Group
		for i, sv := range batch {
			g.Go(func() error {
				errs[i] = r.addVehicle(ctx, dealer, sv)
				return nil
			})
		}
		_ = g.Wait()

		for i, sv := range batch {
			if errs[i] != nil {
				stats.Failed++
				metrics.ObserveVehicle("failed")
				r.logger.Warn("add vehicle failed",
					zap.String("dealer_id", dealer.ID),
					zap.String("vin", sv.VIN),
					zap.Error(errs[i]))
				continue
			}
			stats.Added++
			metrics.ObserveVehicle("added")
		}

		if end < len(fresh) && r.cfg.EnrichBatchDelay > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.cfg.EnrichBatchDelay):
			}
		}
	}
}

// addVehicle runs the full creation sub-pipeline for a VIN new to this
// dealer: decode, rehost photos, generate a unique slug, insert.
func (r *Reconciler) addVehicle(ctx context.Context, dealer inventory.Dealer, sv inventory.ScrapedVehicle) error {
	decoded, err := r.decoder.Decode(ctx, sv.VIN)
	if err != nil {
		metrics.ObserveVinDecodeFailure()
		return fmt.Errorf("decode vin: %w", err)
	}

	photos := r.photos.Capture(ctx, sv.VIN, sv.PhotoURLs)

	slug := inventory.Slug(sv.VIN, decoded.Year, decoded.Make, decoded.Model, dealer.City, dealer.State)
	taken, err := r.vehicles.SlugExists(ctx, slug)
	if err != nil {
		return fmt.Errorf("check slug: %w", err)
	}
	if taken {
		slug = inventory.DisambiguateSlug(slug, sv.VIN)
	}

	id, err := r.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate vehicle id: %w", err)
	}

	now := r.clock.Now()
	vehicle := inventory.Vehicle{
		ID:           id,
		DealerID:     dealer.ID,
		VIN:          sv.VIN,
		Slug:         slug,
		Year:         decoded.Year,
		Make:         decoded.Make,
		Model:        decoded.Model,
		Trim:         firstNonEmpty(sv.Trim, decoded.Trim),
		Price:        sv.Price,
		Mileage:      sv.Mileage,
		Color:        firstNonEmpty(sv.Color, inventory.ColorUnknown),
		Transmission: firstNonEmpty(sv.Transmission, decoded.Transmission, "Automatic"),
		BodyType:     decoded.BodyType,
		Drivetrain:   decoded.Drivetrain,
		FuelType:     firstNonEmpty(sv.FuelType, decoded.FuelType, "Gasoline"),
		Engine:       decoded.Engine,
		Description:  firstNonEmpty(sv.Description, fmt.Sprintf("%d %s %s", decoded.Year, decoded.Make, decoded.Model)),
		Photos:       photos,
		City:         dealer.City,
		State:        dealer.State,
		Status:       inventory.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.vehicles.Create(ctx, vehicle); err != nil {
		return fmt.Errorf("insert vehicle: %w", err)
	}
	return nil
}

// finish persists the terminal sync status and publishes the summary.
// lastSyncAt advances on success and failure alike; only "not due yet"
// skips leave it untouched.
func (r *Reconciler) finish(ctx context.Context, dealerID string, summary *inventory.SyncSummary, start time.Time) {
	summary.Success = summary.Error == ""
	summary.Duration = r.clock.Now().Sub(start)

	status := inventory.SyncStatusSuccess
	message := fmt.Sprintf("Added: %d, Updated: %d, Sold: %d",
		summary.Stats.Added, summary.Stats.Updated, summary.Stats.MarkedSold)
	if !summary.Success {
		status = inventory.SyncStatusFailed
		message = summary.Error
	}

	if err := r.dealers.RecordSyncResult(ctx, dealerID, status, message, r.clock.Now()); err != nil {
		r.logger.Warn("record sync result failed",
			zap.String("dealer_id", dealerID), zap.Error(err))
	}

	metrics.ObserveSyncRun(summary.Success, summary.Duration)

	if err := r.publisher.Publish(ctx, *summary); err != nil {
		r.logger.Warn("publish sync event failed",
			zap.String("dealer_id", dealerID), zap.Error(err))
	}

	r.logger.Info("dealer sync finished",
		zap.String("dealer_id", dealerID),
		zap.Bool("success", summary.Success),
		zap.Int("found", summary.Stats.Found),
		zap.Int("added", summary.Stats.Added),
		zap.Int("updated", summary.Stats.Updated),
		zap.Int("marked_sold", summary.Stats.MarkedSold),
		zap.Int("failed", summary.Stats.Failed),
		zap.Duration("duration", summary.Duration))
}

func (r *Reconciler) dealerLock(dealerID string) *sync.Mutex {
	val, _ := r.locks.LoadOrStore(dealerID, &sync.Mutex{})
	return val.(*sync.Mutex)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
