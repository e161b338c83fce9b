// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/autolot/inventory-sync/internal/api"
	"github.com/autolot/inventory-sync/internal/clock/system"
	"github.com/autolot/inventory-sync/internal/config"
	"github.com/autolot/inventory-sync/internal/id/uuid"
	"github.com/autolot/inventory-sync/internal/inventory"
	"github.com/autolot/inventory-sync/internal/logging"
	"github.com/autolot/inventory-sync/internal/photos"
	"github.com/autolot/inventory-sync/internal/queue"
	"github.com/autolot/inventory-sync/internal/reconcile"
	"github.com/autolot/inventory-sync/internal/schedule"
	"github.com/autolot/inventory-sync/internal/scrape"
	"github.com/autolot/inventory-sync/internal/storage"
	"github.com/autolot/inventory-sync/internal/store"
	"github.com/autolot/inventory-sync/internal/vindecode"
)

// stores is the persistence pair both providers satisfy.
type stores interface {
	store.VehicleStore
	store.DealerStore
}

// App holds all the shared, long-lived services for the application. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	cfg        config.Config
	logger     *zap.Logger
	stores     stores
	pgStore    *store.PostgresStore
	gcsStorage *storage.GCSProvider
	renderer   scrape.Renderer
	publisher  queue.Publisher
	reconciler *reconcile.Reconciler
	scheduler  *schedule.Scheduler
	apiServer  *api.Server
}

// New creates and initializes an App from configuration. It is the central
// point for service construction and fails fast if any critical service
// cannot be initialized.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger.Info("initializing services")

	a := &App{cfg: cfg, logger: logger}

	if err := a.initStores(ctx); err != nil {
		return nil, err
	}

	provider, err := a.initStorage(ctx)
	if err != nil {
		return nil, err
	}

	if err := a.initPublisher(ctx); err != nil {
		return nil, err
	}

	registry, err := a.initScrapers()
	if err != nil {
		return nil, err
	}

	decoder := vindecode.New(vindecode.Config{
		Endpoint: cfg.VinDecode.Endpoint,
		Timeout:  cfg.VinDecode.Timeout,
	}, logger)

	capturer := photos.NewCapturer(photos.Config{
		MaxBytes:  cfg.Photos.MaxBytes,
		BatchSize: cfg.Photos.BatchSize,
	}, provider, logger)

	clk := system.New()
	ids := uuid.NewUUIDGenerator()

	a.reconciler = reconcile.New(reconcile.Config{
		EnrichBatchSize:  cfg.Scrape.EnrichBatchSize,
		EnrichBatchDelay: cfg.Scrape.EnrichBatchDelay,
	}, a.stores, a.stores, registry, decoder, capturer, a.publisher, clk, ids, logger)
	a.scheduler = schedule.New(schedule.Config{
		MinIntervalDays: cfg.Schedule.MinIntervalDays,
		DealerPause:     cfg.Schedule.DealerPause,
	}, a.stores, a.reconciler, clk, logger)
	a.apiServer = api.NewServer(a.reconciler, a.stores, cfg, logger)

	logger.Info("services initialized",
		zap.String("db", cfg.DB.Provider),
		zap.String("storage", cfg.Storage.Provider),
		zap.String("pubsub", cfg.PubSub.Provider),
		zap.Bool("render", cfg.Scrape.RenderEnabled),
	)
	return a, nil
}

func (a *App) initStores(ctx context.Context) error {
	switch a.cfg.DB.Provider {
	case "postgres":
		pg, err := store.NewPostgresStore(ctx, store.PostgresConfig{
			DSN:      a.cfg.DB.DSN,
			MaxConns: a.cfg.DB.MaxConns,
		})
		if err != nil {
			return fmt.Errorf("init postgres store: %w", err)
		}
		a.pgStore = pg
		a.stores = pg
	case "memory":
		a.logger.Info("using in-memory store, data will not survive restarts")
		a.stores = store.NewMemoryStore()
	default:
		return fmt.Errorf("unknown db.provider %q", a.cfg.DB.Provider)
	}
	return nil
}

// initStorage returns the blob provider for rehosted photos. A nil provider
// means passthrough: vehicles keep their source photo URLs.
func (a *App) initStorage(ctx context.Context) (storage.Provider, error) {
	switch a.cfg.Storage.Provider {
	case "gcs":
		gcs, err := storage.NewGCSProvider(ctx, a.cfg.Storage.GCSBucket, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init gcs storage: %w", err)
		}
		a.gcsStorage = gcs
		return gcs, nil
	case "memory":
		return storage.NewMemoryProvider("https://photos.invalid"), nil
	case "noop":
		a.logger.Info("photo rehosting disabled, keeping source urls")
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage.provider %q", a.cfg.Storage.Provider)
	}
}

func (a *App) initPublisher(ctx context.Context) error {
	switch a.cfg.PubSub.Provider {
	case "pubsub":
		pub, err := queue.NewPubSubPublisher(ctx, a.cfg.PubSub.ProjectID, a.cfg.PubSub.TopicName, a.logger)
		if err != nil {
			return fmt.Errorf("init pubsub publisher: %w", err)
		}
		a.publisher = pub
	case "noop":
		a.publisher = queue.NoOpPublisher{}
	default:
		return fmt.Errorf("unknown pubsub.provider %q", a.cfg.PubSub.Provider)
	}
	return nil
}

func (a *App) initScrapers() (*scrape.Registry, error) {
	scrapeCfg := scrape.Config{
		UserAgent:        a.cfg.Scrape.UserAgent,
		RequestTimeout:   a.cfg.Scrape.RequestTimeout,
		DetailBatchSize:  a.cfg.Scrape.DetailBatchSize,
		DetailBatchDelay: a.cfg.Scrape.DetailBatchDelay,
		MaxPhotoProbes:   a.cfg.Scrape.MaxPhotoProbes,
	}
	fetcher, err := scrape.NewCollyFetcher(scrapeCfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var renderer scrape.Renderer
	var detector scrape.Detector
	if a.cfg.Scrape.RenderEnabled {
		r, err := scrape.NewChromedpRenderer(scrape.RenderConfig{
			UserAgent:      a.cfg.Scrape.UserAgent,
			Timeout:        a.cfg.Scrape.RenderTimeout,
			MaxConcurrency: a.cfg.Scrape.RenderMaxConcurrency,
			DomainQPS:      a.cfg.Scrape.RenderDomainQPS,
		}, a.logger)
		if err != nil {
			return nil, fmt.Errorf("init renderer: %w", err)
		}
		a.renderer = r
		renderer = r
		detector = scrape.NewHeuristicDetector(
			a.cfg.Scrape.DetectorMinHTMLBytes, a.cfg.Scrape.DetectorKeywords,
		)
	}

	prober := scrape.NewPhotoProber(a.cfg.Scrape.RequestTimeout, a.cfg.Scrape.MaxPhotoProbes, a.logger)

	registry := scrape.NewRegistry()
	registry.Register(inventory.FeedTypeDealerOn,
		scrape.NewDealerOnScraper(scrapeCfg, fetcher, renderer, detector, prober, a.logger))
	registry.Register(inventory.FeedTypeCSV, scrape.NewCSVFeedScraper(fetcher, a.logger))
	return registry, nil
}

// Config returns the configuration the container was built from.
func (a *App) Config() config.Config {
	return a.cfg
}

// Logger returns the shared zap logger instance.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Reconciler returns the dealer sync reconciler.
func (a *App) Reconciler() *reconcile.Reconciler {
	return a.reconciler
}

// Scheduler returns the scheduled sweep runner.
func (a *App) Scheduler() *schedule.Scheduler {
	return a.scheduler
}

// APIServer returns the HTTP API server.
func (a *App) APIServer() *api.Server {
	return a.apiServer
}

// Close gracefully shuts down all services in the container.
func (a *App) Close(ctx context.Context) {
	a.logger.Info("shutting down services")
	if a.renderer != nil {
		if err := a.renderer.Close(ctx); err != nil {
			a.logger.Warn("close renderer", zap.Error(err))
		}
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("close publisher", zap.Error(err))
		}
	}
	if a.gcsStorage != nil {
		if err := a.gcsStorage.Close(); err != nil {
			a.logger.Warn("close storage client", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	// Best effort; stderr sync fails on some platforms.
	_ = a.logger.Sync()
}
