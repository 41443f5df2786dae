package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mermatic/mermatic/internal/server"
	"github.com/mermatic/mermatic/pkg/assets"
	"github.com/mermatic/mermatic/pkg/cache"
	"github.com/mermatic/mermatic/pkg/observability"
	"github.com/mermatic/mermatic/pkg/pipeline"
	"github.com/mermatic/mermatic/pkg/render"
)

// serveCommand creates the serve command running the HTTP render service.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr      string
		redisAddr string
		noCache   bool
		bundle    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP render service",
		Long: `Run an HTTP service exposing the render pipeline: POST /render takes a
diagram source plus options and responds with the rendered bytes. With
--redis the artifact cache is shared across instances; otherwise the local
file cache is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			observability.SetRenderHooks(&logRenderHooks{logger: logger})

			backend, err := c.serveCache(ctx, redisAddr, noCache)
			if err != nil {
				return err
			}

			renderer := render.New(logger)
			if bundle {
				script, err := assets.NewBundler(backend, logger).Fetch(ctx, "")
				if err != nil {
					return err
				}
				renderer.Script = script
			}

			runner := pipeline.NewRunner(renderer, backend, logger)
			defer runner.Close()

			httpSrv := &http.Server{
				Addr:              addr,
				Handler:           server.New(runner, logger).Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = httpSrv.Shutdown(shutdownCtx)
			}()

			logger.Info("Render service listening", "addr", addr)
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&redisAddr, "redis", "", "redis address for the artifact cache (host:port)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&bundle, "bundle", false, "inline a locally cached copy of the rendering library")

	return cmd
}

// serveCache picks the cache backend for serve mode: redis when an address
// is given, the local file cache otherwise.
func (c *CLI) serveCache(ctx context.Context, redisAddr string, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisAddr != "" {
		return cache.NewRedisCache(ctx, redisAddr)
	}
	return newCache(false), nil
}

// logRenderHooks logs render pipeline events through the service logger.
type logRenderHooks struct {
	logger *log.Logger
}

func (h *logRenderHooks) OnRenderStart(ctx context.Context, format string) {
	h.logger.Debug("Render started", "format", format)
}

func (h *logRenderHooks) OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error) {
	if err != nil {
		h.logger.Debug("Render failed", "format", format, "duration", duration, "error", err)
		return
	}
	h.logger.Debug("Render complete", "format", format, "bytes", size, "duration", duration)
}
