package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv   = "NEWSHARVEST_CONFIG"
	databasePathEnv = "DATABASE_PATH"
	httpAddrEnv     = "HTTP_ADDR"
	logLevelEnv     = "LOG_LEVEL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Extract  ExtractConfig  `yaml:"extract"`
	Sources  []SourceConfig `yaml:"sources"`
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig describes the API listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig points at the SQLite file backing the article store.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// IngestConfig defines feed polling cadence and retention.
type IngestConfig struct {
	Interval      time.Duration `yaml:"interval"`
	FeedTimeout   time.Duration `yaml:"feedTimeout"`
	RetentionDays int           `yaml:"retentionDays"`
}

// RetentionHorizon resolves the configured retention window as a duration.
func (c IngestConfig) RetentionHorizon() time.Duration {
	days := c.RetentionDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

// ExtractConfig tunes the on-demand content extractor.
type ExtractConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Workers int           `yaml:"workers"`
}

// SourceConfig is one registered feed: a display name and its feed URL.
type SourceConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()

	if len(cfg.Sources) == 0 {
		cfg.Sources = defaultConfig().Sources
	}

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	if override.HTTP.Addr != "" {
		base.HTTP = override.HTTP
	}

	if override.Database.Path != "" {
		base.Database = override.Database
	}

	if override.Ingest.Interval > 0 {
		base.Ingest.Interval = override.Ingest.Interval
	}
	if override.Ingest.FeedTimeout > 0 {
		base.Ingest.FeedTimeout = override.Ingest.FeedTimeout
	}
	if override.Ingest.RetentionDays > 0 {
		base.Ingest.RetentionDays = override.Ingest.RetentionDays
	}

	if override.Extract.Timeout > 0 {
		base.Extract.Timeout = override.Extract.Timeout
	}
	if override.Extract.Workers > 0 {
		base.Extract.Workers = override.Extract.Workers
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info"},
		HTTP:     HTTPConfig{Addr: ":8080"},
		Database: DatabaseConfig{Path: "newsharvest.db"},
		Ingest: IngestConfig{
			Interval:      15 * time.Minute,
			FeedTimeout:   30 * time.Second,
			RetentionDays: 30,
		},
		Extract: ExtractConfig{
			Timeout: 10 * time.Second,
			Workers: 3,
		},
		Sources: []SourceConfig{
			{Name: "TAP", URL: "https://www.tap.info.tn/rss"},
			{Name: "Business News", URL: "https://www.businessnews.com.tn/feed"},
			{Name: "Kapitalis", URL: "https://www.kapitalis.com/rss"},
			{Name: "Tunisie Numerique", URL: "https://www.tunisienumerique.com/rss"},
			{Name: "Shems FM", URL: "https://www.shemsfm.net/rss"},
			{Name: "Mosaique FM", URL: "https://www.mosaiquefm.net/rss"},
			{Name: "Express FM", URL: "https://www.expressfm.net/rss"},
			{Name: "Webdo", URL: "https://www.webdo.tn/rss"},
			{Name: "Tekiano", URL: "https://www.tekiano.com/rss"},
			{Name: "African Manager", URL: "https://africanmanager.com/rss"},
		},
	}
}
