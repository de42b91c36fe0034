// Package cli implements the qmap command-line interface.
//
// # Commands
//
//   - layout: rank a circuit's placements across devices
//   - match: list every placement on one device with its cost
//   - deflate: drop idle qubits and clbits from a circuit
//   - devices: list, show and publish device definitions
//   - visualize: draw a placement on its device as SVG or DOT
//   - serve: run the HTTP API
//   - cache: inspect and clear the result cache
//
// # Configuration
//
// Defaults come from $XDG_CONFIG_HOME/qmap/config.toml (see [Config]),
// and flags override them. --verbose (-v) enables debug logging, which
// includes the matcher and cache events reported through the
// observability hooks.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/qmap/pkg/buildinfo"
	"github.com/matzehuels/qmap/pkg/cache"
	"github.com/matzehuels/qmap/pkg/device"
	"github.com/matzehuels/qmap/pkg/device/mongosrc"
	"github.com/matzehuels/qmap/pkg/observability"
	"github.com/matzehuels/qmap/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "qmap"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configFile string
	config     *Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		config: &Config{},
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "qmap picks the best physical qubits for a quantum circuit",
		Long: `qmap finds every way a circuit's two-qubit interactions fit onto the coupling
map of one or more devices, scores each placement from the devices' calibration
data, and ranks them from lowest to highest expected error.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default: $XDG_CONFIG_HOME/qmap/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.matchCommand())
	root.AddCommand(c.deflateCommand())
	root.AddCommand(c.devicesCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// setup loads the config file, attaches the logger to the command context
// and routes observability events to the debug log.
func (c *CLI) setup(cmd *cobra.Command) error {
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			c.Logger.Debug("no config directory", "err", err)
		}
		path = p
	}
	if path != "" {
		cfg, err := loadConfig(path, explicit)
		if err != nil {
			return err
		}
		c.config = cfg
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(withLogger(ctx, c.Logger))

	hooks := newLogHooks(c.Logger)
	observability.SetRankHooks(hooks)
	observability.SetPipelineHooks(hooks)
	observability.SetCacheHooks(hooks)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. The caller must Close it.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	catalog, err := c.newCatalog(ctx)
	if err != nil {
		return nil, err
	}
	store, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	var keyer cache.Keyer
	if p := c.config.Cache.Prefix; p != "" {
		keyer = cache.NewScopedKeyer(nil, p)
	}
	return pipeline.NewRunner(catalog, store, keyer, c.Logger), nil
}

// newCache opens the configured backend. A file cache that cannot be
// created degrades to no caching rather than failing the command.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.config.Cache.Backend {
	case cacheNone:
		return cache.NewNullCache(), nil
	case cacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.config.Cache.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	}
	dir := c.config.Cache.Dir
	if dir == "" {
		d, err := cacheDir()
		if err != nil {
			c.Logger.Warn("caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warn("caching disabled", "dir", dir, "err", err)
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// newCatalog assembles the device catalog: built-in devices first, then
// the TOML files in the configured device directory, then MongoDB. Later
// sources cannot shadow earlier names.
func (c *CLI) newCatalog(ctx context.Context) (*device.Catalog, error) {
	catalog := device.Builtin().Clone()

	if dir := c.config.DeviceDir; dir != "" {
		files, err := device.LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("load devices from %s: %w", dir, err)
		}
		for _, d := range files {
			if err := catalog.Add(d); err != nil {
				return nil, err
			}
		}
		c.Logger.Debug("loaded device files", "dir", dir, "count", len(files))
	}

	if c.config.Mongo.URI != "" {
		src, err := mongosrc.Open(ctx, c.config.mongo())
		if err != nil {
			return nil, err
		}
		defer src.Close(context.WithoutCancel(ctx))

		remote, err := src.Catalog(ctx)
		if err != nil {
			return nil, err
		}
		for _, name := range catalog.Merge(remote) {
			c.Logger.Warn("device shadowed by an earlier source", "device", name)
		}
		c.Logger.Debug("loaded devices from mongo", "count", remote.Len())
	}
	return catalog, nil
}

// pipelineOptions returns run options seeded from the config file.
func (c *CLI) pipelineOptions() pipeline.Options {
	var opts pipeline.Options
	c.config.applyTo(&opts)
	return opts
}

// writeOutput writes data to path, or to stdout when path is "" or "-".
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
