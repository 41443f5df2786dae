package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mermatic/mermatic/pkg/assets"
	"github.com/mermatic/mermatic/pkg/config"
	apperrors "github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/pipeline"
	"github.com/mermatic/mermatic/pkg/render"
	"github.com/mermatic/mermatic/pkg/session"
	"github.com/mermatic/mermatic/pkg/source"
)

// rootOpts holds the root command's flag values. Only flags the user
// actually set are turned into overrides, so config-file values keep their
// priority below explicit arguments.
type rootOpts struct {
	outputDir   string
	format      string
	theme       string
	width       int
	height      int
	background  string
	padding     int
	quality     float64
	scale       float64
	recursive   bool
	configFile  string
	interactive bool
	noCache     bool
	bundle      bool
}

func registerRootFlags(cmd *cobra.Command, o *rootOpts) {
	f := cmd.Flags()
	f.StringVarP(&o.outputDir, "output", "o", config.DefaultOutputDir, "output directory")
	f.StringVarP(&o.format, "format", "f", config.DefaultFormat, "output format: svg, png, or pdf")
	f.StringVarP(&o.theme, "theme", "t", config.DefaultTheme, "mermaid theme: default, forest, dark, neutral, or base")
	f.IntVarP(&o.width, "width", "w", config.DefaultWidth, "page width in pixels")
	f.IntVarP(&o.height, "height", "H", config.DefaultHeight, "page height in pixels")
	f.StringVarP(&o.background, "background", "b", config.DefaultBackground, `page background color (use "transparent" for transparent PNGs)`)
	f.IntVarP(&o.padding, "padding", "p", config.DefaultPadding, "page padding in pixels")
	f.Float64VarP(&o.quality, "quality", "q", config.DefaultQuality, "device pixel density multiplier for raster output")
	f.Float64VarP(&o.scale, "scale", "s", config.DefaultScale, "post-layout scale factor")
	f.BoolVarP(&o.recursive, "recursive", "r", false, "recurse into subdirectories")
	f.StringVarP(&o.configFile, "config", "c", "", "JSON or TOML config file")
	f.BoolVarP(&o.interactive, "interactive", "i", false, "enter the diagram interactively")
	f.BoolVar(&o.noCache, "no-cache", false, "disable the artifact cache")
	f.BoolVar(&o.bundle, "bundle", false, "inline a locally cached copy of the rendering library for offline renders")
}

// overrides builds the CLI flag layer from the flags the user set.
func (o *rootOpts) overrides(cmd *cobra.Command, args []string) config.Overrides {
	f := cmd.Flags()
	ov := config.Overrides{}
	if f.Changed("output") {
		ov.OutputDir = &o.outputDir
	}
	if f.Changed("format") {
		ov.Format = &o.format
	}
	if f.Changed("theme") {
		ov.Theme = &o.theme
	}
	if f.Changed("width") {
		ov.Width = &o.width
	}
	if f.Changed("height") {
		ov.Height = &o.height
	}
	if f.Changed("background") {
		ov.Background = &o.background
	}
	if f.Changed("padding") {
		ov.Padding = &o.padding
	}
	if f.Changed("quality") {
		ov.Quality = &o.quality
	}
	if f.Changed("scale") {
		ov.Scale = &o.scale
	}
	if f.Changed("recursive") {
		ov.Recursive = &o.recursive
	}
	if len(args) > 1 {
		ov.OutputPath = args[1]
	}
	return ov
}

// runRoot resolves the effective options and dispatches to the interactive
// session or the batch loop.
func (c *CLI) runRoot(cmd *cobra.Command, args []string, o *rootOpts) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	opts, err := config.Resolve(o.configFile, o.overrides(cmd, args), logger)
	if err != nil {
		return err
	}
	if opts.Verbose {
		logger.SetLevel(LogDebug)
	}

	backend := newCache(o.noCache)

	renderer := render.New(logger)
	if o.bundle {
		script, err := assets.NewBundler(backend, logger).Fetch(ctx, "")
		if err != nil {
			return err
		}
		renderer.Script = script
	}

	runner := pipeline.NewRunner(renderer, backend, logger)
	defer runner.Close()

	if o.interactive {
		return session.New(os.Stdin, os.Stdout, runner, opts).Run(ctx)
	}

	if len(args) == 0 {
		return apperrors.New(apperrors.ErrCodeInvalidInput,
			"no input given: pass a diagram file or directory, or use --interactive")
	}

	return c.runBatch(ctx, args[0], opts, runner)
}

// runBatch renders every discovered diagram file, one at a time. Per-file
// failures are reported and the batch continues; only a missing input path
// fails the whole invocation.
func (c *CLI) runBatch(ctx context.Context, input string, opts config.Options, runner *pipeline.Runner) error {
	logger := loggerFromContext(ctx)

	paths, err := source.Discover(input, opts.Recursive, logger)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		printWarning("No diagram files found in %s", input)
		return nil
	}

	var rendered, skipped, failed int
	for _, path := range paths {
		sp := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s", path))
		sp.Start()

		outPath, cached, err := runner.RenderFile(ctx, path, opts)
		switch {
		case errors.Is(err, source.ErrSkip):
			sp.Stop()
			skipped++
			logger.Debug("Skipping non-diagram file", "path", path)
		case err != nil:
			sp.StopWithError(fmt.Sprintf("%s: %s", path, apperrors.UserMessage(err)))
			failed++
		default:
			sp.StopWithSuccess(fmt.Sprintf("Rendered %s", path))
			printFile(outPath)
			if cached {
				printDetail("from cache")
			}
			rendered++
		}
	}

	printNewline()
	printSummary(rendered, skipped, failed)
	return nil
}
