// Package cache provides content-addressed caching for rendered figure
// artifacts.
//
// Plotting a large dataset is dominated by panel rendering, so the CLI and
// the HTTP server cache finished artifacts keyed by the dataset content hash
// and the resolved plot options. Three backends are provided: a file cache
// for CLI usage, a Redis cache for multi-instance server deployments, and a
// null cache for tests or when caching is disabled.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte artifacts with optional expiration.
type Cache interface {
	// Get retrieves a value. The second return reports whether the key was
	// present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value. A zero ttl means no expiration.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases backend resources.
	Close() error
}

// ArtifactKeyOpts are the option fields that change a rendered artifact.
type ArtifactKeyOpts struct {
	Format     string     `json:"format"`
	Genes      []string   `json:"genes,omitempty"`
	GroupBy    string     `json:"group_by,omitempty"`
	Groups     []string   `json:"groups,omitempty"`
	Basis      string     `json:"basis,omitempty"`
	VKey       string     `json:"vkey,omitempty"`
	Layers     []string   `json:"layers,omitempty"`
	Fits       []string   `json:"fits,omitempty"`
	Stochastic bool       `json:"stochastic,omitempty"`
	Color      string     `json:"color,omitempty"`
	ColorMaps  [2]string  `json:"color_maps,omitempty"`
	Perc       [2]float64 `json:"perc,omitempty"`
	NCols      int        `json:"ncols,omitempty"`
	DPI        float64    `json:"dpi,omitempty"`
}

// ArtifactKey builds the cache key of a rendered figure from the dataset
// content hash and the rendering options.
func ArtifactKey(datasetHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", datasetHash, opts)
}
