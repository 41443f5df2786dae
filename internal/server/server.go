// Package server exposes the render pipeline over HTTP.
//
// The service renders one diagram per request with no queueing: POST /render
// takes the diagram source plus an options record mirroring the CLI flags
// and responds with the rendered bytes under the matching content type.
// Requests share the same Runner (and therefore the same artifact cache) as
// batch processing.
package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mermatic/mermatic/pkg/config"
	"github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/pipeline"
	"github.com/mermatic/mermatic/pkg/source"
)

// maxBodyBytes bounds the request body; diagram sources are small text.
const maxBodyBytes = 1 << 20

// Server handles render requests.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
}

// New creates a server backed by the given runner.
func New(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{runner: runner, logger: logger}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Get("/healthz", s.handleHealth)
	r.Post("/render", s.handleRender)
	return r
}

// renderRequest is the POST /render body. Options keys mirror the CLI
// option names; unset fields fall back to the defaults.
type renderRequest struct {
	Source  string         `json:"source"`
	Options config.Options `json:"options"`
}

// errorResponse is the JSON body returned for failed requests.
type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.requestLogger(ctx)

	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest,
			errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if req.Source == "" {
		s.writeError(w, http.StatusBadRequest,
			errors.New(errors.ErrCodeInvalidInput, "source is required"))
		return
	}

	opts := req.Options
	opts.Logger = logger
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	// Service sources go through the same newline normalization as files.
	text := source.Normalize(req.Source)

	data, cached, err := s.runner.RenderText(ctx, text, opts)
	if err != nil {
		logger.Error("Render failed", "code", errors.RenderClassification(err), "error", err)
		s.writeError(w, renderStatus(err), err)
		return
	}

	logger.Info("Rendered diagram", "format", opts.Format, "bytes", len(data), "cached", cached)

	w.Header().Set("Content-Type", contentType(opts.Format))
	if cached {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	_, _ = w.Write(data)
}

// renderStatus maps a render failure onto an HTTP status.
func renderStatus(err error) int {
	switch errors.RenderClassification(err) {
	case errors.ErrCodeSyntax:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupportedFormat:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// contentType returns the response content type for an export format.
func contentType(format string) string {
	switch format {
	case config.FormatSVG:
		return "image/svg+xml"
	case config.FormatPNG:
		return "image/png"
	case config.FormatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Code:    errors.GetCode(err),
		Message: errors.UserMessage(err),
	})
}

// ctxKey is the type for context keys used in this package.
type ctxKey int

const requestIDKey ctxKey = 0

// requestID tags every request with a UUID, echoed in the response and
// attached to the request-scoped logger.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger returns the logger annotated with the request ID.
func (s *Server) requestLogger(ctx context.Context) *log.Logger {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return s.logger.With("request_id", id)
	}
	return s.logger
}
