// Package config loads application settings from a TOML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pelletier/go-toml/v2"
)

// DirName is the per-user configuration directory under the home directory.
const DirName = ".wishlist-companion"

// Config represents the application configuration.
type Config struct {
	Storage StorageConfig `toml:"storage"`
	Watch   WatchConfig   `toml:"watch"`
	API     APIConfig     `toml:"api"`
	Catalog CatalogConfig `toml:"catalog"`
	Log     LogConfig     `toml:"log"`
}

// StorageConfig contains database settings.
type StorageConfig struct {
	Path        string `toml:"path" env:"WISHLIST_DB_PATH"` // empty = <config dir>/wishlists.db
	AutoMigrate bool   `toml:"auto_migrate" env:"WISHLIST_DB_AUTO_MIGRATE"`

	// BackupInterval enables periodic backups while serving, e.g. "24h".
	BackupInterval string `toml:"backup_interval" env:"WISHLIST_DB_BACKUP_INTERVAL"`
	BackupDir      string `toml:"backup_dir" env:"WISHLIST_DB_BACKUP_DIR"` // empty = backups/ next to the database
	BackupKeep     int    `toml:"backup_keep" env:"WISHLIST_DB_BACKUP_KEEP"`
}

// WatchConfig contains wishlist directory watcher settings.
type WatchConfig struct {
	Dir          string `toml:"dir" env:"WISHLIST_WATCH_DIR"`
	PollInterval string `toml:"poll_interval" env:"WISHLIST_WATCH_POLL_INTERVAL"` // e.g. "2s"
	UseFsnotify  bool   `toml:"use_fsnotify" env:"WISHLIST_WATCH_USE_FSNOTIFY"`
}

// APIConfig contains HTTP server settings.
type APIConfig struct {
	Port           int      `toml:"port" env:"WISHLIST_API_PORT"`
	RateLimit      float64  `toml:"rate_limit" env:"WISHLIST_API_RATE_LIMIT"` // requests per second, 0 = off
	Burst          int      `toml:"burst" env:"WISHLIST_API_BURST"`
	RequestTimeout string   `toml:"request_timeout" env:"WISHLIST_API_REQUEST_TIMEOUT"`
	MaxBodyBytes   int64    `toml:"max_body_bytes" env:"WISHLIST_API_MAX_BODY_BYTES"`
	CORSOrigins    []string `toml:"cors_origins" env:"WISHLIST_API_CORS_ORIGINS" env-separator:","`
}

// CatalogConfig points at a definition catalog file (JSON or YAML).
type CatalogConfig struct {
	Path string `toml:"path" env:"WISHLIST_CATALOG_PATH"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `toml:"level" env:"WISHLIST_LOG_LEVEL"`   // debug, info, warn, error
	Format string `toml:"format" env:"WISHLIST_LOG_FORMAT"` // text or json
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			AutoMigrate: true,
			BackupKeep:  7,
		},
		Watch: WatchConfig{
			PollInterval: "2s",
			UseFsnotify:  true,
		},
		API: APIConfig{
			Port:           8080,
			RateLimit:      20,
			Burst:          40,
			RequestTimeout: "60s",
			MaxBodyBytes:   32 << 20,
			CORSOrigins:    []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Dir returns the configuration directory, creating it if needed.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	dir := filepath.Join(homeDir, DirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	return dir, nil
}

// DefaultPath returns the path of the default configuration file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load loads the default configuration file. See LoadFile.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile loads the configuration at path on top of the defaults, then
// applies environment overrides. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from WISHLIST_* environment variables. Unset
// variables leave the current value untouched.
func (c *Config) ApplyEnv() error {
	if err := cleanenv.ReadEnv(c); err != nil {
		return fmt.Errorf("read env: %w", err)
	}
	return nil
}

// Save saves the configuration to the default path.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes the configuration as TOML to path.
func (c *Config) SaveFile(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if _, err := time.ParseDuration(c.Watch.PollInterval); err != nil {
		return fmt.Errorf("invalid poll interval %q: %w", c.Watch.PollInterval, err)
	}
	if _, err := time.ParseDuration(c.API.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.API.RequestTimeout, err)
	}
	if c.Storage.BackupInterval != "" {
		if d, err := time.ParseDuration(c.Storage.BackupInterval); err != nil || d <= 0 {
			return fmt.Errorf("invalid backup interval %q", c.Storage.BackupInterval)
		}
	}
	if c.Storage.BackupKeep < 0 {
		return fmt.Errorf("backup keep cannot be negative: %d", c.Storage.BackupKeep)
	}
	if c.API.Port < 0 || c.API.Port > 65535 {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("rate limit cannot be negative: %v", c.API.RateLimit)
	}
	if c.API.RateLimit > 0 && c.API.Burst < 1 {
		return fmt.Errorf("burst must be at least 1 when rate limiting: %d", c.API.Burst)
	}
	if c.API.MaxBodyBytes < 0 {
		return fmt.Errorf("max body size cannot be negative: %d", c.API.MaxBodyBytes)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.Log.Format)
	}
	return nil
}

// DatabasePath returns the configured database path or the default one in
// the configuration directory.
func (c *Config) DatabasePath() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "wishlists.db"), nil
}

// GetPollInterval returns the watcher poll interval as a duration.
func (c *Config) GetPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Watch.PollInterval)
}

// GetRequestTimeout returns the API request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.RequestTimeout)
}
