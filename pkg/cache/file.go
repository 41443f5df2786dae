package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// FileCache implements a file-based cache for CLI usage.
// Artifact bytes are stored raw so large rendered images are not inflated
// by an encoding layer; expiration metadata lives in a sidecar file next
// to the data.
type FileCache struct {
	dir string
}

// NewFileCache creates a file-based cache in the given directory.
// The directory will be created if it doesn't exist.
func NewFileCache(dir string) (Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// entryMeta holds per-entry metadata stored alongside the data file.
type entryMeta struct {
	ExpiresAt time.Time `json:"expires_at"`
}

// Get retrieves a value from the cache.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	dataPath, metaPath := c.paths(key)

	meta, err := os.ReadFile(metaPath)
	switch {
	case err == nil:
		var m entryMeta
		if err := json.Unmarshal(meta, &m); err != nil {
			// Invalid metadata - treat as miss
			c.remove(key)
			return nil, false, nil
		}
		if !m.ExpiresAt.IsZero() && time.Now().After(m.ExpiresAt) {
			c.remove(key)
			return nil, false, nil
		}
	case !os.IsNotExist(err):
		// Sidecar exists but cannot be read, so expiry is unknowable.
		// Treat it like invalid metadata: drop the entry, report a miss.
		c.remove(key)
		return nil, false, nil
	}

	data, err := os.ReadFile(dataPath)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return data, true, nil
}

// Set stores a value in the cache.
func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	dataPath, metaPath := c.paths(key)

	if err := os.MkdirAll(filepath.Dir(dataPath), 0755); err != nil {
		return err
	}

	if err := os.WriteFile(dataPath, data, 0644); err != nil {
		return err
	}

	if ttl <= 0 {
		// No expiry; drop any stale sidecar from a previous Set.
		_ = os.Remove(metaPath)
		return nil
	}

	meta, err := json.Marshal(entryMeta{ExpiresAt: time.Now().Add(ttl)})
	if err != nil {
		return err
	}
	return os.WriteFile(metaPath, meta, 0644)
}

// Delete removes a value from the cache.
func (c *FileCache) Delete(ctx context.Context, key string) error {
	dataPath, metaPath := c.paths(key)
	_ = os.Remove(metaPath)
	err := os.Remove(dataPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Close does nothing for file cache.
func (c *FileCache) Close() error {
	return nil
}

// remove drops both entry files, ignoring errors.
func (c *FileCache) remove(key string) {
	dataPath, metaPath := c.paths(key)
	_ = os.Remove(dataPath)
	_ = os.Remove(metaPath)
}

// paths converts a cache key to its data and metadata file paths.
// Uses a hash-based directory structure to avoid too many files in one dir.
func (c *FileCache) paths(key string) (string, string) {
	hash := Hash([]byte(key))
	// Use first 2 chars as subdirectory for distribution
	subdir := hash[:2]
	base := filepath.Join(c.dir, subdir, hash[2:])
	return base + ".bin", base + ".json"
}

// Ensure FileCache implements Cache.
var _ Cache = (*FileCache)(nil)
