// Package assets manages the rendering library script loaded into the
// browser page.
//
// By default the script is referenced from its pinned CDN location and the
// browser fetches it itself. With bundling enabled the script is
// downloaded once, stored through the cache without expiry, and inlined
// into the page so later renders work offline.
package assets

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/mermatic/mermatic/pkg/cache"
	"github.com/mermatic/mermatic/pkg/errors"
	"github.com/mermatic/mermatic/pkg/observability"
)

const (
	// ScriptVersion is the pinned rendering library version.
	ScriptVersion = "8.9.2"

	// ScriptURL is the fixed network location the page loads the
	// rendering library from.
	ScriptURL = "https://cdn.jsdelivr.net/npm/mermaid@" + ScriptVersion + "/dist/mermaid.min.js"
)

// Bundler downloads and caches the rendering library for offline renders.
type Bundler struct {
	client *retryablehttp.Client
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
}

// NewBundler creates a bundler storing downloads in the given cache.
func NewBundler(c cache.Cache, logger *log.Logger) *Bundler {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 30 * time.Second
	client.Logger = nil

	return &Bundler{
		client: client,
		cache:  c,
		keyer:  cache.NewDefaultKeyer(),
		logger: logger,
	}
}

// Fetch returns the rendering library source for url, downloading it on
// first use and serving from cache afterwards. An empty url means the
// pinned ScriptURL.
func (b *Bundler) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		url = ScriptURL
	}
	if err := errors.ValidateURL(url); err != nil {
		return "", err
	}

	key := b.keyer.AssetKey(url)
	if data, hit, err := b.cache.Get(ctx, key); err == nil && hit {
		observability.Cache().OnCacheHit(ctx, "asset")
		return string(data), nil
	}
	observability.Cache().OnCacheMiss(ctx, "asset")

	b.logger.Debug("Downloading rendering library", "url", url)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "building request for %s", url)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "downloading %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.New(errors.ErrCodeNetwork, "unexpected status %d downloading %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNetwork, err, "reading %s", url)
	}

	// Pinned versions never change; cache without expiry.
	if err := b.cache.Set(ctx, key, data, 0); err != nil {
		b.logger.Warn("Failed to cache rendering library", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "asset", len(data))
	}

	return string(data), nil
}
