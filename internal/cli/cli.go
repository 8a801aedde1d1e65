// Package cli implements the cifra command-line interface.
//
// This package provides commands for detecting and rendering chord sheets,
// transposing song files in place, importing song folders into the preview
// store and serving the HTTP API. The CLI is built using cobra and logs via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - detect: Report the notation of song files and lines worth a review
//   - render: Render a song as HTML, text, source or JSON
//   - transpose: Rewrite a song file in another key
//   - import: Render song folders into the preview store
//   - preview: Browse a song in the terminal, transposing interactively
//   - watch: Re-render a song whenever it changes
//   - serve: Run the HTTP and live-editor API
//   - cache, config: Manage the render cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// logs pipeline and cache events. Loggers are passed through context.Context.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/cantai/cifra/pkg/buildinfo"
	"github.com/cantai/cifra/pkg/cache"
	"github.com/cantai/cifra/pkg/config"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/observability"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/preview"
	"github.com/cantai/cifra/pkg/songfile"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = config.AppName

	// defaultRedisPrefix namespaces cache keys when the config names none.
	defaultRedisPrefix = "cifra:"
)

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
	Config *config.Config

	configPath string
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
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
		Short: "Cifra renders and transposes chord sheets",
		Long: `Cifra reads song lyrics annotated with chords, in inline ([C]Santo), chords-above
or mixed notation, detects the notation, transposes the chords and renders the
result as HTML, plain text or markup.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cifra/config.toml)")

	// Register all subcommands
	root.AddCommand(c.detectCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.transposeCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and applies its log level. --verbose
// wins over the configured level and also logs pipeline events.
func (c *CLI) loadConfig() error {
	path := c.configPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}
	cfg, unknown, err := config.Load(path)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.configPath = path
	for _, key := range unknown {
		c.Logger.Warn("unknown config key", "key", key, "file", path)
	}

	if c.verbose {
		c.SetLogLevel(LogDebug)
		hooks := observability.NewLogHooks(c.Logger)
		observability.SetPipelineHooks(hooks)
		observability.SetCacheHooks(hooks)
		observability.SetServerHooks(hooks)
		return nil
	}
	if level, err := log.ParseLevel(cfg.Log.Level); err == nil {
		c.SetLogLevel(level)
	} else {
		c.Logger.Warn("invalid log level", "level", cfg.Log.Level)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache keys are scoped to
// the build so a new release never reads entries written by an old one.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), buildinfo.CacheScope())
	return pipeline.NewRunner(cc, keyer, c.Logger), nil
}

// newCache opens the configured cache backend. A cache that cannot be
// opened is logged and replaced by no cache.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch c.Config.Cache.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheMemory:
		return cache.NewMemoryCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			URL:    c.Config.Cache.RedisURL,
			Prefix: c.redisPrefix(),
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, continuing without cache", "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.Config.CachePath()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

func (c *CLI) redisPrefix() string {
	if c.Config.Cache.Prefix != "" {
		return c.Config.Cache.Prefix
	}
	return defaultRedisPrefix
}

// openStore opens the preview store named by backend, or the configured
// one when backend is empty.
func (c *CLI) openStore(ctx context.Context, backend string) (preview.Store, error) {
	if backend == "" {
		backend = c.Config.Store.Backend
	}
	switch backend {
	case config.StoreMemory:
		return preview.NewMemoryStore(), nil
	case config.StoreMongo:
		return preview.OpenMongo(ctx, preview.MongoOptions{
			URI:      c.Config.Store.MongoURI,
			Database: c.Config.Store.MongoDatabase,
			Timeout:  c.Config.Store.Timeout.Duration,
		})
	case config.StoreSQLite:
		path, err := c.Config.StorePath()
		if err != nil {
			return nil, err
		}
		c.Logger.Debug("opening preview store", "path", path)
		return preview.OpenSQLite(ctx, path)
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"invalid store %q (must be one of: sqlite, mongo, memory)", backend)
}

// =============================================================================
// Options Helpers
// =============================================================================

// spellingFlag resolves --sharp and --spelling against the config default.
func (c *CLI) spellingFlag(sharp bool, spelling string) string {
	switch {
	case sharp:
		return "sharp"
	case spelling != "":
		return spelling
	}
	return c.Config.Render.Spelling
}

// loadSong reads a song file, or a bare song from stdin when path is "-".
func loadSong(cmd *cobra.Command, path string) (songfile.Song, error) {
	if path != "-" {
		return songfile.Load(path)
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return songfile.Song{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
	}
	return songfile.Parse(data)
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty or "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
