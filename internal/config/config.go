package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/dyluth/wikisync/internal/markup"
	"github.com/dyluth/wikisync/internal/reconcile"
	"github.com/dyluth/wikisync/pkg/wiki"
)

// Defaults applied by Validate.
const (
	DefaultPasswordEnv          = "WIKISYNC_PASSWORD"
	DefaultTimeout              = 30 * time.Second
	DefaultEditInterval         = time.Second
	DefaultStaleVersionPattern  = `\{\{V\|[0-9.]+\}\}`
	DefaultStaleCategoryPattern = `\[\[Category:v[0-9.]+\]\]`
	DefaultNamespace            = "default"
	DefaultUploadConcurrency    = 4
)

// Config represents the top-level wikisync.yml configuration
type Config struct {
	Version  string         `yaml:"version"`
	Wiki     WikiConfig     `yaml:"wiki"`
	GameData string         `yaml:"game_data"` // Path to the game data YAML, relative to this file
	Markers  MarkersConfig  `yaml:"markers"`
	Journal  *JournalConfig `yaml:"journal,omitempty"` // Optional run journal
	Uploads  *UploadsConfig `yaml:"uploads,omitempty"`
}

// WikiConfig describes the MediaWiki endpoint and bot account.
type WikiConfig struct {
	APIURL       string        `yaml:"api_url"`
	Username     string        `yaml:"username"`
	PasswordEnv  string        `yaml:"password_env,omitempty"` // Environment variable holding the password
	UserAgent    string        `yaml:"user_agent,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	EditInterval time.Duration `yaml:"edit_interval,omitempty"` // Minimum gap between edit requests
	Bot          *bool         `yaml:"bot,omitempty"`           // Flag edits as bot edits, default true
}

// MarkersConfig holds the version markers stamped on generated pages.
type MarkersConfig struct {
	Version              string `yaml:"version"`          // e.g. {{V|0.18}}
	StaleVersionPattern  string `yaml:"stale_version_pattern,omitempty"`
	VersionCategory      string `yaml:"version_category"` // e.g. [[Category:v0.18]]
	StaleCategoryPattern string `yaml:"stale_category_pattern,omitempty"`
}

// JournalConfig points at the Redis instance holding the run journal.
type JournalConfig struct {
	RedisURL  string `yaml:"redis_url"`
	Namespace string `yaml:"namespace,omitempty"`
}

// UploadsConfig configures image uploads.
type UploadsConfig struct {
	BaseURL     string `yaml:"base_url"` // Where game assets are downloaded from
	Concurrency int    `yaml:"concurrency,omitempty"`
}

// Validate performs strict validation and fills in defaults.
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if err := c.Wiki.validate(); err != nil {
		return err
	}

	if c.GameData == "" {
		return fmt.Errorf("game_data is required")
	}

	if err := c.Markers.validate(); err != nil {
		return err
	}

	if c.Journal != nil {
		if c.Journal.RedisURL == "" {
			return fmt.Errorf("journal.redis_url is required when journal is configured")
		}
		if _, err := redis.ParseURL(c.Journal.RedisURL); err != nil {
			return fmt.Errorf("invalid journal.redis_url: %w", err)
		}
		if c.Journal.Namespace == "" {
			c.Journal.Namespace = DefaultNamespace
		}
	}

	if c.Uploads != nil {
		if c.Uploads.BaseURL == "" {
			return fmt.Errorf("uploads.base_url is required when uploads is configured")
		}
		if c.Uploads.Concurrency == 0 {
			c.Uploads.Concurrency = DefaultUploadConcurrency
		}
		if c.Uploads.Concurrency < 1 {
			return fmt.Errorf("uploads.concurrency must be >= 1, got %d", c.Uploads.Concurrency)
		}
	}

	return nil
}

func (w *WikiConfig) validate() error {
	if w.APIURL == "" {
		return fmt.Errorf("wiki.api_url is required")
	}
	u, err := url.Parse(w.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("wiki.api_url must be an http(s) URL, got %q", w.APIURL)
	}
	if w.Username == "" {
		return fmt.Errorf("wiki.username is required")
	}
	if w.PasswordEnv == "" {
		w.PasswordEnv = DefaultPasswordEnv
	}
	if w.Timeout == 0 {
		w.Timeout = DefaultTimeout
	}
	if w.Timeout < 0 || w.EditInterval < 0 {
		return fmt.Errorf("wiki.timeout and wiki.edit_interval must not be negative")
	}
	if w.EditInterval == 0 {
		w.EditInterval = DefaultEditInterval
	}
	if w.Bot == nil {
		bot := true
		w.Bot = &bot
	}
	return nil
}

func (m *MarkersConfig) validate() error {
	if m.Version == "" {
		return fmt.Errorf("markers.version is required")
	}
	if m.VersionCategory == "" {
		return fmt.Errorf("markers.version_category is required")
	}
	if m.StaleVersionPattern == "" {
		m.StaleVersionPattern = DefaultStaleVersionPattern
	}
	if m.StaleCategoryPattern == "" {
		m.StaleCategoryPattern = DefaultStaleCategoryPattern
	}
	if _, err := regexp.Compile(m.StaleVersionPattern); err != nil {
		return fmt.Errorf("invalid markers.stale_version_pattern: %w", err)
	}
	if _, err := regexp.Compile(m.StaleCategoryPattern); err != nil {
		return fmt.Errorf("invalid markers.stale_category_pattern: %w", err)
	}
	return nil
}

// Password reads the bot password from the configured environment variable.
func (c *Config) Password() (string, error) {
	pw := os.Getenv(c.Wiki.PasswordEnv)
	if pw == "" {
		return "", fmt.Errorf("environment variable %s is not set", c.Wiki.PasswordEnv)
	}
	return pw, nil
}

// WikiOptions returns the transport options for the configured wiki.
func (c *Config) WikiOptions() wiki.Options {
	return wiki.Options{
		APIURL:       c.Wiki.APIURL,
		UserAgent:    c.Wiki.UserAgent,
		Timeout:      c.Wiki.Timeout,
		EditInterval: c.Wiki.EditInterval,
		Bot:          c.Wiki.Bot != nil && *c.Wiki.Bot,
	}
}

// VersionMarker returns the compiled page version marker.
func (c *Config) VersionMarker() (reconcile.VersionMarker, error) {
	return reconcile.NewVersionMarker(c.Markers.StaleVersionPattern, c.Markers.Version)
}

// RendererOptions returns the markers stamped on generated pages.
func (c *Config) RendererOptions() (markup.Options, error) {
	stale, err := regexp.Compile(c.Markers.StaleCategoryPattern)
	if err != nil {
		return markup.Options{}, fmt.Errorf("invalid markers.stale_category_pattern: %w", err)
	}
	return markup.Options{
		Version:         c.Markers.Version,
		VersionCategory: c.Markers.VersionCategory,
		StaleCategory:   stale,
	}, nil
}

// RedisOptions returns connection options for the run journal, or nil when
// no journal is configured.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.Journal == nil {
		return nil, nil
	}
	opts, err := redis.ParseURL(c.Journal.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid journal.redis_url: %w", err)
	}
	return opts, nil
}

// Load reads and validates wikisync.yml from the specified path.
// A relative game_data path is resolved against the config file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if !filepath.IsAbs(config.GameData) {
		config.GameData = filepath.Join(filepath.Dir(path), config.GameData)
	}

	return &config, nil
}
