// Package pipeline orchestrates loading, caching, rendering, and writing
// diagram artifacts. Both the CLI and the render service go through the
// Runner so caching behaves the same everywhere.
package pipeline

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/mermatic/mermatic/pkg/cache"
	"github.com/mermatic/mermatic/pkg/config"
	"github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/observability"
	"github.com/mermatic/mermatic/pkg/source"
)

// Renderer renders one diagram text into artifact bytes.
// *render.Renderer is the production implementation.
type Renderer interface {
	Render(ctx context.Context, text string, opts config.Options) ([]byte, error)
}

// Runner renders diagrams with artifact caching. It is stateless except for
// the cache and logger; processing is strictly sequential, one diagram at a
// time.
type Runner struct {
	Renderer Renderer
	Cache    cache.Cache
	Keyer    cache.Keyer
	Logger   *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching, a nil keyer
// uses the default key scheme.
func NewRunner(r Renderer, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Runner{
		Renderer: r,
		Cache:    c,
		Keyer:    cache.NewDefaultKeyer(),
		Logger:   logger,
	}
}

// RenderText renders one diagram text, consulting the artifact cache first.
// A cache hit bypasses environment acquisition entirely. The bool reports
// whether the bytes came from the cache. Failed renders are never cached.
func (r *Runner) RenderText(ctx context.Context, text string, opts config.Options) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(cache.Hash([]byte(text)), opts.ArtifactKeyOpts())

	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "artifact")
		r.Logger.Debug("Artifact cache hit", "format", opts.Format)
		return data, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	data, err := r.Renderer.Render(ctx, text, opts)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.TTLArtifact); err != nil {
		r.Logger.Warn("Failed to cache artifact", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return data, false, nil
}

// RenderFile loads one diagram file, renders it, and writes the artifact to
// the path derived from opts. It returns the output path and whether the
// artifact came from the cache. Files without the diagram extension return
// source.ErrSkip.
func (r *Runner) RenderFile(ctx context.Context, path string, opts config.Options) (string, bool, error) {
	src, err := source.Load(path)
	if err != nil {
		return "", false, err
	}

	fileOpts := opts.ForFile(path)
	data, cached, err := r.RenderText(ctx, src.Text, fileOpts)
	if err != nil {
		return "", false, err
	}

	outPath := fileOpts.OutputPath()
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return "", false, errors.Wrap(errors.ErrCodeInvalidPath, err, "writing %s", outPath)
	}

	return outPath, cached, nil
}

// Close releases the cache backend.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
