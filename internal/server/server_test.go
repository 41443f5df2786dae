package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mermatic/mermatic/pkg/config"
	apperrors "github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/pipeline"
)

type fakeRenderer struct {
	lastText string
	lastOpts config.Options
	data     []byte
	err      error
}

func (f *fakeRenderer) Render(ctx context.Context, text string, opts config.Options) ([]byte, error) {
	f.lastText = text
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.data, nil
}

func newTestServer(renderer *fakeRenderer) *httptest.Server {
	srv := New(pipeline.NewRunner(renderer, nil, nil), nil)
	return httptest.NewServer(srv.Router())
}

func postRender(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url+"/render", "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST /render: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(&fakeRenderer{data: []byte("x")})
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRenderEndpoint(t *testing.T) {
	renderer := &fakeRenderer{data: []byte("<svg/>")}
	ts := newTestServer(renderer)
	defer ts.Close()

	resp := postRender(t, ts.URL, map[string]any{
		"source":  `graph TD\nA-->B`,
		"options": map[string]any{"format": "svg", "theme": "forest"},
	})

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Errorf("content type = %q", ct)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing request ID header")
	}
	if resp.Header.Get("X-Cache") != "MISS" {
		t.Errorf("X-Cache = %q, want MISS", resp.Header.Get("X-Cache"))
	}

	// Escaped newlines in the body are normalized before rendering.
	if renderer.lastText != "graph TD\nA-->B" {
		t.Errorf("rendered text = %q", renderer.lastText)
	}
	if renderer.lastOpts.Theme != "forest" {
		t.Errorf("theme = %q, want forest", renderer.lastOpts.Theme)
	}
	// Unset options fall back to defaults.
	if renderer.lastOpts.Width != config.DefaultWidth {
		t.Errorf("width = %d, want default", renderer.lastOpts.Width)
	}
}

func TestRenderEndpointMissingSource(t *testing.T) {
	ts := newTestServer(&fakeRenderer{data: []byte("x")})
	defer ts.Close()

	resp := postRender(t, ts.URL, map[string]any{"options": map[string]any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var body struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Code != string(apperrors.ErrCodeInvalidInput) {
		t.Errorf("code = %q, want INVALID_INPUT", body.Code)
	}
}

func TestRenderEndpointFailureStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"syntax", apperrors.New(apperrors.ErrCodeSyntax, "parse error"), http.StatusUnprocessableEntity},
		{"timeout", apperrors.New(apperrors.ErrCodeTimeout, "no svg"), http.StatusGatewayTimeout},
		{"unsupported", apperrors.New(apperrors.ErrCodeUnsupportedFormat, "bmp"), http.StatusBadRequest},
		{"generic", apperrors.New(apperrors.ErrCodeBrowser, "crashed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(&fakeRenderer{err: tt.err})
			defer ts.Close()

			resp := postRender(t, ts.URL, map[string]any{"source": "graph TD"})
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
