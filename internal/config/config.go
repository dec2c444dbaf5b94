package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/postforge/internal/foundation/errors"
)

// DefaultPath is the configuration file looked up when -c is not given.
const DefaultPath = "postforge.yaml"

// Config is the complete postforge configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Build   BuildConfig   `yaml:"build"`
	Watch   WatchConfig   `yaml:"watch"`
	Metrics MetricsConfig `yaml:"metrics"`
	Notify  NotifyConfig  `yaml:"notify"`

	// baseDir is the directory relative paths resolve against.
	baseDir string
}

// SiteConfig holds values exposed to layouts and feeds.
type SiteConfig struct {
	Title       string `yaml:"title"`
	URL         string `yaml:"url"`
	Author      string `yaml:"author,omitempty"`
	Description string `yaml:"description,omitempty"`
	Language    string `yaml:"language,omitempty"`
}

// CacheCompression selects the codec for the fingerprint store payload.
type CacheCompression string

const (
	CompressionZstd CacheCompression = "zstd"
	CompressionLZ4  CacheCompression = "lz4"
	CompressionNone CacheCompression = "none"
)

// BuildConfig controls the build pipeline.
type BuildConfig struct {
	ContentDir       string           `yaml:"content_dir"`
	TemplateDir      string           `yaml:"template_dir"`
	StaticDir        string           `yaml:"static_dir"`
	OutputDir        string           `yaml:"output_dir"`
	CacheFile        string           `yaml:"cache_file"`
	CacheCompression CacheCompression `yaml:"cache_compression"`
	PostsPerPage     int              `yaml:"posts_per_page"`
	PaginationWindow int              `yaml:"pagination_window"`
	FeedLimit        int              `yaml:"feed_limit"`
	HomeLimit        int              `yaml:"home_limit"`
	Workers          int              `yaml:"workers"`
	Drafts           bool             `yaml:"drafts"`
	SearchIndex      *bool            `yaml:"search_index,omitempty"`
	HighlightStyle   string           `yaml:"highlight_style"`
	HistoryDB        string           `yaml:"history_db,omitempty"`
}

// WatchConfig controls the watch loop and the development server.
type WatchConfig struct {
	Address          string `yaml:"address"`
	Port             int    `yaml:"port"`
	Debounce         string `yaml:"debounce"`
	MaxDelay         string `yaml:"max_delay"`
	FullRebuildEvery string `yaml:"full_rebuild_every,omitempty"`
	LiveReload       *bool  `yaml:"live_reload,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint of the development server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig configures optional pass notifications over NATS.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// Load reads, expands, defaults and validates the configuration at path.
// A missing file yields the default configuration rooted at the working
// directory.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	if path == "" {
		path = DefaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "failed to parse configuration").
				WithContext("path", path).
				Fatal().
				Build()
		}
		cfg.baseDir = filepath.Dir(path)
	case os.IsNotExist(err):
		cfg.baseDir = "."
	default:
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read configuration").
			WithContext("path", path).
			Fatal().
			Build()
	}

	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the default configuration rooted at dir.
func Default(dir string) *Config {
	cfg := &Config{baseDir: dir}
	applyDefaults(cfg)
	return cfg
}

// Resolve returns p resolved against the configuration's directory.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	base := c.baseDir
	if base == "" {
		base = "."
	}
	return filepath.Join(base, p)
}

// ContentRoot is the resolved content directory.
func (c *Config) ContentRoot() string { return c.Resolve(c.Build.ContentDir) }

// TemplateRoot is the resolved template directory.
func (c *Config) TemplateRoot() string { return c.Resolve(c.Build.TemplateDir) }

// StaticRoot is the resolved static asset directory.
func (c *Config) StaticRoot() string { return c.Resolve(c.Build.StaticDir) }

// OutputRoot is the resolved output directory.
func (c *Config) OutputRoot() string { return c.Resolve(c.Build.OutputDir) }

// CachePath is the resolved fingerprint store file.
func (c *Config) CachePath() string { return c.Resolve(c.Build.CacheFile) }

// HistoryPath is the resolved history database, empty when disabled.
func (c *Config) HistoryPath() string { return c.Resolve(c.Build.HistoryDB) }

// SearchIndexEnabled reports whether search-index.json is produced.
func (c *Config) SearchIndexEnabled() bool {
	return c.Build.SearchIndex == nil || *c.Build.SearchIndex
}

// LiveReloadEnabled reports whether the live-reload script is injected.
func (c *Config) LiveReloadEnabled() bool {
	return c.Watch.LiveReload == nil || *c.Watch.LiveReload
}

// DebounceDuration is the parsed quiet window of the watch loop.
func (c *Config) DebounceDuration() time.Duration {
	return mustDuration(c.Watch.Debounce, defaultDebounce)
}

// MaxDelayDuration is the parsed upper bound on debounce postponement.
func (c *Config) MaxDelayDuration() time.Duration {
	return mustDuration(c.Watch.MaxDelay, defaultMaxDelay)
}

// FullRebuildInterval is the safety-net rebuild interval; zero disables it.
func (c *Config) FullRebuildInterval() time.Duration {
	return mustDuration(c.Watch.FullRebuildEvery, 0)
}

// ListenAddr is the development server listen address.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Watch.Address, c.Watch.Port)
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}

	example := Default(".")
	example.Site = SiteConfig{
		Title:       "My Blog",
		URL:         "https://example.com",
		Author:      "${POSTFORGE_AUTHOR}",
		Description: "Notes and articles",
		Language:    "en",
	}
	example.Build.HistoryDB = ".postforge/history.db"

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryConfig, "failed to write config file").
			WithContext("path", path).
			Build()
	}
	return nil
}
