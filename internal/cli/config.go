package cli

import (
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/masonry/pkg/catalog"
	"github.com/matzehuels/masonry/pkg/errors"
	"github.com/matzehuels/masonry/pkg/masonry"
	"github.com/matzehuels/masonry/pkg/session"
)

// Cache backends.
const (
	cacheBackendFile  = "file"
	cacheBackendRedis = "redis"
	cacheBackendNone  = "none"
)

// Config is the contents of the config file.
//
//	[layout]
//	min_column_width = 240
//	gap = 12
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[serve]
//	addr = ":8080"
//	session_ttl = "15m"
//	log_file = "/var/log/masonry/serve.log"
//
//	[catalog]
//	source = "sqlite:///var/lib/gallery/images.db"
type Config struct {
	Layout  masonry.Config `toml:"layout"`
	Cache   CacheConfig    `toml:"cache"`
	Serve   ServeConfig    `toml:"serve"`
	Catalog CatalogConfig  `toml:"catalog"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// ServeConfig configures the API server.
type ServeConfig struct {
	Addr            string        `toml:"addr"`
	SessionTTL      time.Duration `toml:"session_ttl"`
	CleanupInterval time.Duration `toml:"cleanup_interval"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// Rotated request log. Empty disables file logging.
	LogFile       string `toml:"log_file"`
	LogMaxSizeMB  int    `toml:"log_max_size_mb"`
	LogMaxBackups int    `toml:"log_max_backups"`
	LogMaxAgeDays int    `toml:"log_max_age_days"`
}

// CatalogConfig names the default item source.
type CatalogConfig struct {
	Source    string `toml:"source"`
	BatchSize int    `toml:"batch_size"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Layout: masonry.DefaultConfig(),
		Cache:  CacheConfig{Backend: cacheBackendFile},
		Serve: ServeConfig{
			Addr:            ":8080",
			SessionTTL:      session.DefaultTTL,
			CleanupInterval: session.DefaultCleanupInterval,
			ShutdownTimeout: 10 * time.Second,
			LogMaxSizeMB:    100,
			LogMaxBackups:   3,
			LogMaxAgeDays:   28,
		},
		Catalog: CatalogConfig{BatchSize: catalog.DefaultBatchSize},
	}
}

// LoadConfig reads the config file at path over the defaults. A missing
// file is not an error unless the path was given explicitly.
func LoadConfig(path string, explicit bool) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a config document over the defaults. Unknown keys
// are rejected so that typos do not go unnoticed.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks the sections that the commands cannot check later.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	backends := []string{cacheBackendFile, cacheBackendRedis, cacheBackendNone}
	if c.Cache.Backend != "" && !slices.Contains(backends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend must be one of %s, got %q",
			strings.Join(backends, ", "), c.Cache.Backend)
	}
	if c.Cache.Backend == cacheBackendRedis && c.Cache.RedisURL == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_url is required for the redis backend")
	}
	if c.Catalog.Source != "" {
		if err := errors.ValidateSourceURI(c.Catalog.Source); err != nil {
			return fmt.Errorf("catalog.source: %w", err)
		}
	}
	if c.Serve.SessionTTL < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.session_ttl cannot be negative")
	}
	return nil
}
