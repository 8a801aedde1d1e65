// Package config loads cifra's TOML configuration.
//
// Configuration is read from $XDG_CONFIG_HOME/cifra/config.toml (or the path
// given with --config). A missing file is not an error: every field has a
// default, and CIFRA_* environment variables override both.
//
//	[render]
//	spelling = "sharp"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[store]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[server]
//	addr = ":8080"
//	write_timeout = "15s"
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
)

// AppName is used for the config, cache and data directories.
const AppName = "cifra"

// Cache backends.
const (
	CacheFile   = "file"
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

// Config holds all cifra configuration.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// RenderConfig holds defaults for render requests.
type RenderConfig struct {
	Spelling string `toml:"spelling"`
	Output   string `toml:"output"`
	MaxBytes int    `toml:"max_bytes"`
}

// CacheConfig selects the render cache.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// StoreConfig selects the preview store.
type StoreConfig struct {
	Backend       string   `toml:"backend"`
	Path          string   `toml:"path"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	Timeout       Duration `toml:"timeout"`
}

// ServerConfig configures `cifra serve`.
type ServerConfig struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
	AllowedOrigins  []string `toml:"allowed_origins"`
}

// ImportConfig configures the batch importer.
type ImportConfig struct {
	Workers int `toml:"workers"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Duration is a time.Duration written as a string ("15s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Render: RenderConfig{
			Spelling: chord.Flat.String(),
			Output:   pipeline.OutputHTML,
			MaxBytes: errors.MaxTextBytes,
		},
		Cache: CacheConfig{
			Backend: CacheFile,
		},
		Store: StoreConfig{
			Backend:       StoreSQLite,
			MongoDatabase: AppName,
			Timeout:       Duration{10 * time.Second},
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     Duration{10 * time.Second},
			WriteTimeout:    Duration{15 * time.Second},
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration at path on top of the defaults and applies
// environment overrides. It returns the keys in the file that match no
// field, so callers can warn about typos.
func Load(path string) (*Config, []string, error) {
	cfg := Default()

	var unknown []string
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, nil, errors.Wrap(errors.ErrCodeInternal, err, "read config")
	default:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
		}
		for _, k := range md.Undecoded() {
			unknown = append(unknown, k.String())
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, unknown, nil
}

// Save writes the configuration as TOML, creating the directory if needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies CIFRA_* environment variables.
func (c *Config) applyEnvOverrides() error {
	strs := []struct {
		env string
		dst *string
	}{
		{"CIFRA_SPELLING", &c.Render.Spelling},
		{"CIFRA_CACHE", &c.Cache.Backend},
		{"CIFRA_CACHE_DIR", &c.Cache.Dir},
		{"CIFRA_REDIS_URL", &c.Cache.RedisURL},
		{"CIFRA_STORE", &c.Store.Backend},
		{"CIFRA_DB", &c.Store.Path},
		{"CIFRA_MONGO_URI", &c.Store.MongoURI},
		{"CIFRA_ADDR", &c.Server.Addr},
		{"CIFRA_LOG_LEVEL", &c.Log.Level},
	}
	for _, s := range strs {
		if v := os.Getenv(s.env); v != "" {
			*s.dst = v
		}
	}
	if v := os.Getenv("CIFRA_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "CIFRA_WORKERS must be a number")
		}
		c.Import.Workers = n
	}
	return nil
}

// Validate checks backend names and render defaults.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheMemory, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid cache backend %q (must be one of: file, redis, memory, none)", c.Cache.Backend)
	}
	if c.Cache.Backend == CacheRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache.redis_url is required for the redis backend")
	}
	switch c.Store.Backend {
	case StoreSQLite, StoreMemory:
	case StoreMongo:
		if c.Store.MongoURI == "" {
			return errors.New(errors.ErrCodeInvalidInput, "store.mongo_uri is required for the mongo backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid store backend %q (must be one of: sqlite, mongo, memory)", c.Store.Backend)
	}
	if _, err := chord.ParseSpelling(c.Render.Spelling); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpelling, err, "render.spelling")
	}
	if err := pipeline.ValidateOutput(c.Render.Output); err != nil {
		return err
	}
	if c.Import.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "import.workers cannot be negative")
	}
	return nil
}

// =============================================================================
// Paths
// =============================================================================

// DefaultPath returns the config file location ($XDG_CONFIG_HOME/cifra/config.toml).
func DefaultPath() (string, error) {
	dir, err := xdgDir("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CacheDir returns the cache directory using XDG standard (~/.cache/cifra/).
func CacheDir() (string, error) {
	return xdgDir("XDG_CACHE_HOME", ".cache")
}

// DataDir returns the data directory using XDG standard (~/.local/share/cifra/).
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// CachePath returns the configured cache directory, or CacheDir.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	return CacheDir()
}

// StorePath returns the configured SQLite file, or previews.db in DataDir.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "previews.db"), nil
}

func xdgDir(env, fallback string) (string, error) {
	if base := os.Getenv(env); base != "" {
		return filepath.Join(base, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fallback, AppName), nil
}
