// Package config handles TOML-based configuration loading and validation.
// Values are layered: defaults, then the config file, then .env and
// VIDMETA_* environment variables. Command-line flags are applied by cmd.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"vidmeta/internal/report"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "VIDMETA_"

const appName = "vidmeta"

// Worker bounds.
const (
	MinWorkers = 1
	MaxWorkers = 500
)

// Duration is a time.Duration that reads from strings such as "1.5s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds all application configuration.
type Config struct {
	Workers           int      `toml:"workers"`
	BypassCache       bool     `toml:"bypass_cache"`
	MaxURLs           int      `toml:"max_urls"`
	CacheBackend      string   `toml:"cache_backend"`
	CachePath         string   `toml:"cache_path"`
	MinDelay          Duration `toml:"min_delay"`
	MaxDelay          Duration `toml:"max_delay"`
	RequestTimeout    Duration `toml:"request_timeout"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	Format            string   `toml:"format"`
	Listen            string   `toml:"listen"`
	Debug             bool     `toml:"debug"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Workers:      50,
		MaxURLs:      20,
		CacheBackend: "json",
		MinDelay:     Duration{time.Second},
		MaxDelay:     Duration{2 * time.Second},
		Format:       "table",
		Listen:       "127.0.0.1:8080",
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// dataDir returns the XDG-compliant data directory.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", appName), nil
}

// ConfigPath returns the path to the config file. VIDMETA_CONFIG wins over
// the XDG location.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultCachePath returns the cache location for backend.
func DefaultCachePath(backend string) (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	name := "cache.json"
	if strings.EqualFold(backend, "sqlite") {
		name = "cache.db"
	}
	return filepath.Join(dir, name), nil
}

// LoadDotEnv loads variables from a .env file without overriding ones
// already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads .env, the config file and environment overrides over the
// defaults. If the config file doesn't exist, defaults are used.
func Load() (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from VIDMETA_* variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error
	get := func(key string) (string, bool) {
		v, ok := lookup(EnvPrefix + key)
		return strings.TrimSpace(v), ok && strings.TrimSpace(v) != ""
	}
	setInt := func(key string, dst *int) {
		if v, ok := get(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *Duration) {
		if v, ok := get(key); ok {
			if err := dst.UnmarshalText([]byte(v)); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	setString := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	setInt("WORKERS", &c.Workers)
	setBool("BYPASS_CACHE", &c.BypassCache)
	setInt("MAX_URLS", &c.MaxURLs)
	setString("CACHE_BACKEND", &c.CacheBackend)
	setString("CACHE_PATH", &c.CachePath)
	setDuration("MIN_DELAY", &c.MinDelay)
	setDuration("MAX_DELAY", &c.MaxDelay)
	setDuration("REQUEST_TIMEOUT", &c.RequestTimeout)
	if v, ok := get("REQUESTS_PER_SECOND"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_SECOND: %w", EnvPrefix, err))
		} else {
			c.RequestsPerSecond = f
		}
	}
	setString("FORMAT", &c.Format)
	setString("LISTEN", &c.Listen)
	setBool("DEBUG", &c.Debug)

	return errors.Join(errs...)
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	if c.Workers < MinWorkers || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between %d and %d, got %d", MinWorkers, MaxWorkers, c.Workers)
	}

	if c.MaxURLs < 0 {
		return fmt.Errorf("max_urls cannot be negative")
	}

	validBackends := map[string]bool{"json": true, "sqlite": true}
	if !validBackends[strings.ToLower(c.CacheBackend)] {
		return fmt.Errorf("unsupported cache backend %q (valid: json, sqlite)", c.CacheBackend)
	}

	if c.MinDelay.Duration < 0 || c.MaxDelay.Duration < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.MaxDelay.Duration < c.MinDelay.Duration {
		return fmt.Errorf("max_delay (%s) is shorter than min_delay (%s)", c.MaxDelay, c.MinDelay)
	}

	if c.RequestTimeout.Duration < 0 {
		return fmt.Errorf("request_timeout cannot be negative")
	}

	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second cannot be negative")
	}

	if !slices.Contains(report.Formats, strings.ToLower(c.Format)) {
		return fmt.Errorf("unsupported format %q (valid: %s)", c.Format, strings.Join(report.Formats, ", "))
	}

	if c.Listen == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	return nil
}

// ResolveCachePath returns the configured cache path with ~ expanded, or
// the default location for the configured backend.
func (c *Config) ResolveCachePath() (string, error) {
	p := c.CachePath
	if p == "" {
		return DefaultCachePath(c.CacheBackend)
	}
	if strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}
