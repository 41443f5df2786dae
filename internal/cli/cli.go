// Package cli implements the mermatic command-line interface.
//
// The root command renders a diagram file or a directory of diagram files;
// subcommands write diagram templates, run the HTTP render service, manage
// the artifact cache, and generate shell completions. All commands support
// --verbose (-v) for debug-level logging; loggers travel through
// context.Context.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mermatic/mermatic/pkg/buildinfo"
	"github.com/mermatic/mermatic/pkg/cache"
)

// appName is the application name used for directories and display.
const appName = "mermatic"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose bool
}

// New creates a CLI writing logs to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:   "mermatic [input] [output]",
		Short: "Mermatic renders mermaid diagrams to SVG, PNG, or PDF",
		Long: `Mermatic feeds mermaid diagram source into a headless browser and exports
the rendered result. Input is a .mermaid file or a directory of them; the
optional output argument is a literal file path whose extension picks the
format.`,
		Example: `  mermatic flow.mermaid
  mermatic flow.mermaid out/chart.svg
  mermatic diagrams/ -o rendered -f pdf --recursive
  mermatic -i`,
		Version:       buildinfo.Version,
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRoot(cmd, args, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	registerRootFlags(root, opts)

	root.AddCommand(c.templateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// newCache creates the cache backend for CLI use. Failures to resolve or
// create the cache directory quietly fall back to no caching; the cache is
// an optimization, never a requirement.
func newCache(noCache bool) cache.Cache {
	if noCache {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache()
	}
	return fc
}

// cacheDir returns the cache directory using the XDG convention
// (~/.cache/mermatic/).
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
