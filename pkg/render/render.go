package render

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mermatic/mermatic/pkg/config"
	"github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/observability"
)

const (
	// DefaultWaitTimeout bounds the wait for the rendered SVG element.
	DefaultWaitTimeout = 10 * time.Second

	// svgSelector matches the vector element the rendering library
	// produces inside the container.
	svgSelector = "#container svg"

	// errorSelector matches the indicator element parseError appends when
	// the diagram fails to parse.
	errorSelector = "#mermaid-error"
)

// Renderer renders diagram text through a disposable browser environment.
type Renderer struct {
	// Launch acquires the rendering environment. Defaults to Launch.
	Launch LaunchFunc

	// Script is the inlined rendering library source. Empty means the
	// page loads the library from the pinned CDN location.
	Script string

	// WaitTimeout bounds the wait for the rendered SVG. Defaults to
	// DefaultWaitTimeout.
	WaitTimeout time.Duration

	Logger *log.Logger
}

// New creates a renderer that launches a real headless browser.
func New(logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Renderer{
		Launch:      Launch,
		WaitTimeout: DefaultWaitTimeout,
		Logger:      logger,
	}
}

// Render drives one rendering environment through the fixed sequence and
// returns the exported bytes. The environment is released before Render
// returns, on every path.
func (r *Renderer) Render(ctx context.Context, text string, opts config.Options) (data []byte, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := errors.ValidateBackground(opts.Background); err != nil {
		return nil, err
	}

	start := time.Now()
	observability.Render().OnRenderStart(ctx, opts.Format)
	defer func() {
		observability.Render().OnRenderComplete(ctx, opts.Format, len(data), time.Since(start), err)
	}()

	env, err := r.launch(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrowser, err, "acquiring rendering environment")
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			r.Logger.Warn("Failed to release rendering environment", "error", cerr)
		}
	}()

	page, err := env.NewPage(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrowser, err, "opening page")
	}

	if err := page.SetViewport(opts.Width, opts.Height, opts.Quality); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrowser, err, "setting viewport")
	}

	if err := page.SetContent(Shell(text, opts, r.Script)); err != nil {
		return nil, errors.Wrap(errors.ErrCodeBrowser, err, "loading document")
	}

	timeout := r.WaitTimeout
	if timeout <= 0 {
		timeout = DefaultWaitTimeout
	}
	if err := page.WaitFor(svgSelector, timeout); err != nil {
		if msg, ok := page.TextOf(errorSelector); ok {
			return nil, errors.New(errors.ErrCodeSyntax, "diagram syntax error: %s", strings.TrimSpace(msg))
		}
		return nil, errors.Wrap(errors.ErrCodeTimeout, err, "diagram did not render within %s", timeout)
	}

	// Presentational adjustment after layout, not a re-layout.
	if opts.Scale != 1.0 {
		if err := page.ScaleElement(svgSelector, opts.Scale); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "applying scale %g", opts.Scale)
		}
	}

	return r.export(page, opts)
}

// export captures the rendered result in the requested format. The format
// is deliberately checked here rather than up front so an unsupported value
// still acquires and releases the environment on its way to the error.
func (r *Renderer) export(page Page, opts config.Options) ([]byte, error) {
	switch opts.Format {
	case config.FormatSVG:
		markup, err := page.ElementHTML(svgSelector)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "locating rendered SVG")
		}
		return FinalizeSVG(markup), nil

	case config.FormatPNG:
		// "transparent" is special-cased for raster export only; vector
		// and document export pass the value through as-is.
		data, err := page.ScreenshotElement(svgSelector, opts.Background == "transparent")
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "capturing screenshot")
		}
		return data, nil

	case config.FormatPDF:
		data, err := page.PDF(opts.Width, opts.Height)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "printing document")
		}
		return data, nil

	default:
		return nil, errors.New(errors.ErrCodeUnsupportedFormat,
			"unsupported format: %q (must be one of: svg, png, pdf)", opts.Format)
	}
}

func (r *Renderer) launch(ctx context.Context) (Environment, error) {
	if r.Launch != nil {
		return r.Launch(ctx)
	}
	return Launch(ctx)
}
