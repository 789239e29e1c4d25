// Package cli implements the flowgraph command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowgraph/pkg/buildinfo"
	"github.com/matzehuels/flowgraph/pkg/cache"
	"github.com/matzehuels/flowgraph/pkg/catalog"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "flowgraph"

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

	configFile  string
	catalogFile string
	cfg         Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		cfg:    defaultConfig(),
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
		Short: "Flowgraph edits, validates and converts workflow graphs",
		Long: `Flowgraph works with document-processing workflows: directed graphs of typed
nodes (start, document processing, approvals, decisions, notifications, end)
joined by conditional edges.

It validates whether a workflow may be activated, converts between the compact
definition and the editor's canvas form, upgrades legacy payloads, renders
diagrams, and serves all of it over HTTP.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(cmd); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			installHooks(c.Logger)
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("{{.Name}} version %s\ncommit: %s\nbuilt: %s\n",
		buildinfo.Version, buildinfo.Commit, buildinfo.Date))
	root.PersistentFlags().StringVar(&c.configFile, "config", "", "config file (default $XDG_CONFIG_HOME/flowgraph/config.toml)")
	root.PersistentFlags().StringVar(&c.catalogFile, "catalog", "", "node type catalog file, JSON or TOML (default builtin)")

	root.AddCommand(c.catalogCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.newCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.editCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file and lets flags override it.
func (c *CLI) loadConfig(cmd *cobra.Command) error {
	path, explicit := c.configFile, c.configFile != ""
	if !explicit {
		p, err := configPath()
		if err != nil {
			c.cfg = defaultConfig()
			return nil
		}
		path = p
	}
	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("catalog") {
		cfg.Catalog = c.catalogFile
	}
	c.cfg = cfg
	c.Logger.Debug("config loaded", "path", path, "catalog", cfg.Catalog, "cache", cfg.Cache.Backend)
	return nil
}

// =============================================================================
// Shared Resources
// =============================================================================

// catalog returns the configured node type catalog.
func (c *CLI) catalog() (*catalog.Catalog, error) {
	if c.cfg.Catalog == "" {
		return catalog.Builtin()
	}
	cat, err := catalog.LoadFile(c.cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	c.Logger.Debug("catalog loaded", "path", c.cfg.Catalog, "node_types", cat.Len())
	return cat, nil
}

// newCache opens the configured cache backend. backend overrides the
// config when non-empty.
func (c *CLI) newCache(ctx context.Context, backend string) (cache.Cache, error) {
	if backend == "" {
		backend = c.cfg.Cache.Backend
	}
	switch backend {
	case backendNone:
		return cache.NewNullCache(), nil
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: c.cfg.Cache.RedisURL})
		if err != nil {
			return nil, fmt.Errorf("open redis cache: %w", err)
		}
		return rc, nil
	case backendFile:
		dir, err := cacheDir()
		if err != nil {
			c.Logger.Warn("no cache directory, caching disabled", "err", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, fmt.Errorf("open file cache: %w", err)
		}
		return fc, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q (want file, redis or none)", backend)
}

// cacheTTL is how long cached results are kept.
func (c *CLI) cacheTTL() time.Duration { return c.cfg.Cache.TTL.Duration }

// ExitCode maps a command error to a process exit status and reports whether
// the error still has to be printed. Validation failures exit with 2.
func ExitCode(err error) (code int, show bool) {
	switch {
	case err == nil:
		return 0, false
	case errors.Is(err, context.Canceled):
		return 130, false
	case errors.Is(err, ErrNotActivatable):
		return 2, false
	case errors.Is(err, errReported):
		return 1, false
	}
	return 1, true
}
