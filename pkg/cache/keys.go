package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// ArtifactKeyOpts identifies the render options that affect the produced
// bytes. Two renders with the same source hash and the same ArtifactKeyOpts
// are guaranteed to produce identical output.
type ArtifactKeyOpts struct {
	Format     string  `json:"format"`
	Theme      string  `json:"theme"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Background string  `json:"background"`
	Padding    int     `json:"padding"`
	Quality    float64 `json:"quality"`
	Scale      float64 `json:"scale"`
}

// Keyer generates cache keys for the different kinds of cached data.
type Keyer interface {
	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string

	// AssetKey generates a key for a downloaded rendering library asset.
	AssetKey(url string) string
}

// DefaultKeyer is the standard key generator.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard key generator.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(sourceHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sourceHash, opts)
}

// AssetKey generates a key for a downloaded rendering library asset.
func (k *DefaultKeyer) AssetKey(url string) string {
	return hashKey("asset", url)
}
