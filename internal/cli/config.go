package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/qmap/pkg/device/mongosrc"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

// Cache backends accepted by the config file and --cache.
const (
	cacheFile  = "file"
	cacheRedis = "redis"
	cacheNone  = "none"
)

// Config is the on-disk configuration, $XDG_CONFIG_HOME/qmap/config.toml
// by default. Every field is optional; flags override it.
//
//	devices   = ["fake_lima", "fake_nairobi"]
//	device_dir = "~/qpus"
//	workers   = 4
//	timeout   = "30s"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//
//	[cost]
//	single_qubit = true
type Config struct {
	Devices   []string `toml:"devices"`
	DeviceDir string   `toml:"device_dir"`
	Workers   int      `toml:"workers"`
	Timeout   duration `toml:"timeout"`
	CallLimit int      `toml:"call_limit"`
	PerDevice int      `toml:"per_device"`

	Cache CacheConfig `toml:"cache"`
	Mongo MongoConfig `toml:"mongo"`
	Cost  CostConfig  `toml:"cost"`
	Serve ServeConfig `toml:"serve"`
}

// CacheConfig selects the result cache.
type CacheConfig struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url"`
	Prefix   string `toml:"prefix"`
}

// MongoConfig locates an optional device collection. Devices found there
// are added to the catalog after the built-in and file devices.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// CostConfig sets cost model defaults.
type CostConfig struct {
	SingleQubit  bool `toml:"single_qubit"`
	PerOperation bool `toml:"per_operation"`
}

// ServeConfig sets HTTP server defaults.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// duration decodes TOML strings such as "30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// loadConfig reads path. A missing file at the default location yields the
// zero config; a missing file that was asked for explicitly is an error.
func loadConfig(path string, explicit bool) (*Config, error) {
	cfg := &Config{}
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case "", cacheFile, cacheNone:
	case cacheRedis:
		if c.Cache.RedisURL == "" {
			return errors.New("cache.redis_url is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q (must be one of: file, redis, none)", c.Cache.Backend)
	}
	if c.Workers < 0 || c.CallLimit < 0 || c.Timeout.Duration < 0 {
		return errors.New("workers, call_limit and timeout must not be negative")
	}
	return nil
}

// applyTo copies configured defaults into opts before flags are parsed
// over them.
func (c *Config) applyTo(opts *pipeline.Options) {
	if len(c.Devices) > 0 {
		opts.Devices = append([]string(nil), c.Devices...)
	}
	opts.Workers = c.Workers
	opts.Timeout = c.Timeout.Duration
	opts.CallLimit = c.CallLimit
	if c.PerDevice != 0 {
		opts.PerDevice = c.PerDevice
	}
	opts.SingleQubit = c.Cost.SingleQubit
	opts.PerOperation = c.Cost.PerOperation
}

func (c *Config) mongo() mongosrc.Config {
	return mongosrc.Config{
		URI:        c.Mongo.URI,
		Database:   c.Mongo.Database,
		Collection: c.Mongo.Collection,
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/qmap/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/qmap/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}
