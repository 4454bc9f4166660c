// Package cli implements the orbweave command-line interface.
//
// This package provides commands for arranging mind maps, serving the
// arrangement API, rendering structural diagrams, and managing the
// arrangement cache. The CLI is built using cobra and supports verbose
// logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - arrange: Compute new 3D positions for a mind map file
//   - serve: Run the arrangement HTTP API
//   - viz: Render a mind map as a DOT, SVG, or PNG diagram
//   - cache: Manage the arrangement result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
//
// # Example
//
//	import "github.com/orbweave/orbweave/internal/cli"
//
//	func main() {
//	    if err := cli.Execute(); err != nil {
//	        os.Exit(1)
//	    }
//	}
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/orbweave/orbweave/pkg/buildinfo"
	"github.com/orbweave/orbweave/pkg/cache"
	"github.com/orbweave/orbweave/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "orbweave"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config Config
}

// New creates a new CLI instance with a default logger and the config
// loaded from the standard location.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: LoadConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "orbweave",
		Short:        "Orbweave rearranges 3D mind maps",
		Long:         `Orbweave is a force-directed layout engine for 3D mind maps. It computes fresh positions for every entry reachable from a chosen root, keeping children close to their parents without letting them collide.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.arrangeCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	backend, err := c.newCacheBackend(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(backend, nil, c.Logger), nil
}

// newCacheBackend picks the cache backend from flags and config. Cache
// setup failures degrade to a null cache rather than aborting the
// command; the arrangement itself does not need a cache to run.
func (c *CLI) newCacheBackend(noCache bool) (cache.Cache, error) {
	if noCache || c.Config.Cache.Backend == CacheBackendNone {
		return cache.NewNullCache(), nil
	}
	dir := c.Config.Cache.Dir
	if dir == "" {
		var err error
		dir, err = cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// cacheDir returns the cache directory using XDG standard (~/.cache/orbweave/).
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
