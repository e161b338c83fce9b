// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	VinDecode VinDecodeConfig `mapstructure:"vindecode"`
	Photos    PhotosConfig    `mapstructure:"photos"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls the HTTP API server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig gates the manual sync trigger endpoint.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScrapeConfig governs the scraping pipeline: outbound identity, timeouts,
// batch sizes, and the optional headless-render escalation path.
type ScrapeConfig struct {
	UserAgent            string        `mapstructure:"user_agent"`
	RequestTimeout       time.Duration `mapstructure:"request_timeout"`
	DetailBatchSize      int           `mapstructure:"detail_batch_size"`
	DetailBatchDelay     time.Duration `mapstructure:"detail_batch_delay"`
	EnrichBatchSize      int           `mapstructure:"enrich_batch_size"`
	EnrichBatchDelay     time.Duration `mapstructure:"enrich_batch_delay"`
	MaxPhotoProbes       int           `mapstructure:"max_photo_probes"`
	RenderEnabled        bool          `mapstructure:"render_enabled"`
	RenderTimeout        time.Duration `mapstructure:"render_timeout"`
	RenderMaxConcurrency int           `mapstructure:"render_max_concurrency"`
	RenderDomainQPS      float64       `mapstructure:"render_domain_qps"`
	DetectorMinHTMLBytes int           `mapstructure:"detector_min_html_bytes"`
	DetectorKeywords     []string      `mapstructure:"detector_keywords"`
}

// VinDecodeConfig points at the external VIN decode service.
type VinDecodeConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// PhotosConfig controls the photo capture/rehost step.
type PhotosConfig struct {
	MaxBytes  int64 `mapstructure:"max_bytes"`
	BatchSize int   `mapstructure:"batch_size"`
}

// StorageConfig selects the blob storage provider for rehosted photos.
// Provider "noop" is the supported no-credential mode: photos keep their
// source URLs.
type StorageConfig struct {
	Provider  string `mapstructure:"provider"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DBConfig controls access to the inventory database.
type DBConfig struct {
	Provider string `mapstructure:"provider"`
	DSN      string `mapstructure:"dsn"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for sync-completed event publishing.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// ScheduleConfig governs the scheduled sweep over due dealers.
type ScheduleConfig struct {
	MinIntervalDays int           `mapstructure:"min_interval_days"`
	DealerPause     time.Duration `mapstructure:"dealer_pause"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("scrape.user_agent", "Mozilla/5.0 (compatible; autolot-sync/1.0)")
	v.SetDefault("scrape.request_timeout", "15s")
	v.SetDefault("scrape.detail_batch_size", 5)
	v.SetDefault("scrape.detail_batch_delay", "1s")
	v.SetDefault("scrape.enrich_batch_size", 3)
	v.SetDefault("scrape.enrich_batch_delay", "500ms")
	v.SetDefault("scrape.max_photo_probes", 50)
	v.SetDefault("scrape.render_enabled", false)
	v.SetDefault("scrape.render_timeout", "25s")
	v.SetDefault("scrape.render_max_concurrency", 1)
	v.SetDefault("scrape.render_domain_qps", 0.5)
	v.SetDefault("scrape.detector_min_html_bytes", 2000)
	v.SetDefault("scrape.detector_keywords", []string{
		"__NEXT_DATA__",
		"data-reactroot",
		"window.__APOLLO_STATE__",
	})
	v.SetDefault("vindecode.endpoint", "https://vpic.nhtsa.dot.gov/api/vehicles/decodevin")
	v.SetDefault("vindecode.timeout", "15s")
	v.SetDefault("photos.max_bytes", 10*1024*1024)
	v.SetDefault("photos.batch_size", 5)
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("db.provider", "memory")
	v.SetDefault("db.max_conns", 8)
	v.SetDefault("pubsub.provider", "noop")
	v.SetDefault("schedule.min_interval_days", 2)
	v.SetDefault("schedule.dealer_pause", "2s")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	if c.Scrape.UserAgent == "" {
		return fmt.Errorf("scrape.user_agent must be set")
	}
	if c.Scrape.RequestTimeout <= 0 {
		return fmt.Errorf("scrape.request_timeout must be > 0")
	}
	if c.Scrape.DetailBatchSize <= 0 || c.Scrape.EnrichBatchSize <= 0 {
		return fmt.Errorf("scrape batch sizes must be > 0")
	}
	if c.Scrape.RenderEnabled && c.Scrape.RenderMaxConcurrency <= 0 {
		return fmt.Errorf("scrape.render_max_concurrency must be > 0 when rendering is enabled")
	}
	if c.VinDecode.Endpoint == "" {
		return fmt.Errorf("vindecode.endpoint must be set")
	}
	if c.Photos.MaxBytes <= 0 {
		return fmt.Errorf("photos.max_bytes must be > 0")
	}
	if c.Photos.BatchSize <= 0 {
		return fmt.Errorf("photos.batch_size must be > 0")
	}
	switch c.Storage.Provider {
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
		}
	case "noop", "memory":
	default:
		return fmt.Errorf("unknown storage.provider %q", c.Storage.Provider)
	}
	switch c.DB.Provider {
	case "postgres":
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn must be set when db.provider is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown db.provider %q", c.DB.Provider)
	}
	switch c.PubSub.Provider {
	case "pubsub":
		if c.PubSub.ProjectID == "" || c.PubSub.TopicName == "" {
			return fmt.Errorf("pubsub.project_id and pubsub.topic_name must be set when pubsub.provider is pubsub")
		}
	case "noop":
	default:
		return fmt.Errorf("unknown pubsub.provider %q", c.PubSub.Provider)
	}
	if c.Schedule.MinIntervalDays <= 0 {
		return fmt.Errorf("schedule.min_interval_days must be > 0")
	}
	return nil
}
