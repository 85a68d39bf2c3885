// Package config loads and validates scraper configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/city-events-scraper/internal/event"
	"github.com/JakeFAU/city-events-scraper/internal/storage/local"
)

// Storage backends for archived listing pages.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendGCS    = "gcs"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Scraper  ScraperConfig  `mapstructure:"scraper"`
	Sources  []event.Source `mapstructure:"sources"`
	Defaults event.Defaults `mapstructure:"defaults"`
	Storage  StorageConfig  `mapstructure:"storage"`
	DB       DBConfig       `mapstructure:"db"`
	PubSub   PubSubConfig   `mapstructure:"pubsub"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
	// RequestTimeoutSeconds bounds each API request.
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScraperConfig governs scheduling and fetch behavior.
type ScraperConfig struct {
	IntervalMs     int64  `mapstructure:"interval_ms"`
	PageDelayMs    int64  `mapstructure:"page_delay_ms"`
	SourceDelayMs  int64  `mapstructure:"source_delay_ms"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	RunOnStart     bool   `mapstructure:"run_on_start"`
	// RateLimitRPS caps requests per second to one host; 0 disables it.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// StorageConfig selects where raw listing pages are archived.
type StorageConfig struct {
	Backend      string       `mapstructure:"backend"`
	ArchivePages bool         `mapstructure:"archive_pages"`
	Bucket       string       `mapstructure:"bucket"`
	CacheControl string       `mapstructure:"cache_control"`
	Local        local.Config `mapstructure:"local"`
	Prefix       string       `mapstructure:"prefix"`
	ContentType  string       `mapstructure:"content_type"`
}

// DBConfig controls access to the relational database. An empty DSN selects
// the in-memory store.
type DBConfig struct {
	DSN                string `mapstructure:"dsn"`
	EventsTable        string `mapstructure:"events_table"`
	SubscriptionsTable string `mapstructure:"subscriptions_table"`
	MaxConns           int32  `mapstructure:"max_conns"`
	MinConns           int32  `mapstructure:"min_conns"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// PubSubConfig holds topics for run summaries and subscription
// confirmations. An empty project disables publishing.
type PubSubConfig struct {
	ProjectID         string `mapstructure:"project_id"`
	ScrapeTopic       string `mapstructure:"scrape_topic"`
	SubscriptionTopic string `mapstructure:"subscription_topic"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("EVENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

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

// LoadDotEnv exports the variables in a dotenv file into the process
// environment so Load picks them up. Variables already set are kept. A
// missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// bindLegacyEnv maps the unprefixed variables deployments already set.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"scraper.interval_ms": {"EVENTS_SCRAPER_INTERVAL_MS", "SCRAPE_INTERVAL"},
		"server.port":         {"EVENTS_SERVER_PORT", "PORT"},
		"db.dsn":              {"EVENTS_DB_DSN", "DATABASE_URL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.request_timeout_seconds", 30)
	v.SetDefault("scraper.interval_ms", int64(24*time.Hour/time.Millisecond))
	v.SetDefault("scraper.page_delay_ms", 2000)
	v.SetDefault("scraper.source_delay_ms", 3000)
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (compatible; city-events-scraper/1.0)")
	v.SetDefault("scraper.timeout_seconds", 30)
	v.SetDefault("scraper.run_on_start", true)
	v.SetDefault("scraper.rate_limit_rps", 1.0)
	v.SetDefault("scraper.rate_limit_burst", 1)
	v.SetDefault("sources", DefaultSources())
	v.SetDefault("defaults.description", event.DefaultDescription)
	v.SetDefault("defaults.time", event.DefaultTime)
	v.SetDefault("defaults.venue", event.DefaultVenue)
	v.SetDefault("defaults.image_url", event.DefaultImageURL)
	v.SetDefault("defaults.price", event.DefaultPrice)
	v.SetDefault("storage.backend", BackendNone)
	v.SetDefault("storage.archive_pages", false)
	v.SetDefault("storage.local.base_dir", "data/pages")
	v.SetDefault("storage.prefix", "pages")
	v.SetDefault("storage.content_type", "text/html; charset=utf-8")
	v.SetDefault("db.events_table", "events")
	v.SetDefault("db.subscriptions_table", "subscriptions")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("db.min_conns", 0)
	v.SetDefault("db.auto_migrate", true)
	v.SetDefault("pubsub.scrape_topic", "scrape-runs")
	v.SetDefault("pubsub.subscription_topic", "subscription-confirmations")
	v.SetDefault("logging.development", true)
}

// DefaultSources returns the listing pages scraped when none are configured.
func DefaultSources() []map[string]any {
	return []map[string]any{
		{
			"name":            "Sydney.com",
			"url":             "https://www.sydney.com/events",
			"strategy":        "sydney.com",
			"uses_pagination": true,
			"max_pages":       3,
		},
		{
			"name":     "SydneyEvents",
			"url":      "https://www.example-sydney-events.com/events",
			"strategy": "event-card",
		},
		{
			"name":     "SydneyConcerts",
			"url":      "https://www.sydney-concerts.com/upcoming",
			"strategy": "event-card",
		},
	}
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.IntervalMs <= 0 {
		return fmt.Errorf("scraper.interval_ms must be > 0")
	}
	if c.Scraper.PageDelayMs < 0 || c.Scraper.SourceDelayMs < 0 {
		return fmt.Errorf("scraper delays must be >= 0")
	}
	if c.Scraper.RateLimitRPS < 0 {
		return fmt.Errorf("scraper.rate_limit_rps must be >= 0")
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.timeout_seconds must be > 0")
	}
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}
	for i, src := range c.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("sources[%d]: name and url are required", i)
		}
		if !event.IsAbsoluteURL(src.URL) {
			return fmt.Errorf("sources[%d]: url %q must be absolute", i, src.URL)
		}
		if src.MaxPages < 0 {
			return fmt.Errorf("sources[%d]: max_pages must be >= 0", i)
		}
	}
	switch c.Storage.Backend {
	case BackendNone, BackendMemory:
	case BackendLocal:
		if c.Storage.Local.BaseDir == "" {
			return fmt.Errorf("storage.local.base_dir is required for the local backend")
		}
	case BackendGCS:
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", c.Storage.Backend)
	}
	if c.Storage.ArchivePages && c.Storage.Backend == BackendNone {
		return fmt.Errorf("storage.archive_pages requires a storage backend")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// ScrapeInterval returns the scheduler period.
func (c Config) ScrapeInterval() time.Duration {
	return time.Duration(c.Scraper.IntervalMs) * time.Millisecond
}

// PageDelay returns the pause between paginated fetches.
func (c Config) PageDelay() time.Duration {
	return time.Duration(c.Scraper.PageDelayMs) * time.Millisecond
}

// SourceDelay returns the pause between sources.
func (c Config) SourceDelay() time.Duration {
	return time.Duration(c.Scraper.SourceDelayMs) * time.Millisecond
}

// FetchTimeout bounds a single page request.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.TimeoutSeconds) * time.Second
}
