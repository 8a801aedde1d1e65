// Package cache stores parsed documents and rendered artifacts.
//
// # Overview
//
// Rendering a song is cheap, but the site renders the same few thousand songs
// over and over, in a dozen keys each. The pipeline therefore caches two
// things:
//
//   - Sheets: the parsed [sheet.Document] for a text, keyed by content hash
//     and detected format
//   - Artifacts: rendered output for a sheet, keyed by the sheet key plus the
//     transposition and output options
//
// # Backends
//
//   - [FileCache]: JSON files under the user cache dir, for the CLI
//   - [MemoryCache]: an in-process map, for tests and a single server
//   - [RedisCache]: shared cache for server deployments
//   - [NullCache]: caching disabled
//
// All backends treat read failures as misses; callers never fail a render
// because the cache is down.
//
// [sheet.Document]: github.com/cantai/cifra/pkg/sheet.Document
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with per-entry expiration.
type Cache interface {
	// Get returns the value for key and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of zero never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default TTLs for each kind of entry.
const (
	SheetTTL    = 7 * 24 * time.Hour
	ArtifactTTL = 24 * time.Hour
)

// Keyer builds cache keys. Implementations must be deterministic.
type Keyer interface {
	// SheetKey identifies a parsed document by the hash of its source text
	// and the format it was parsed with.
	SheetKey(textHash, format string) string
	// ArtifactKey identifies rendered output of a sheet.
	ArtifactKey(sheetKey string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Interval int    `json:"interval"`
	Spelling string `json:"spelling"`
	Output   string `json:"output"`
}

// DefaultKeyer produces keys of the form "sheet:<format>:<hash>" and
// "artifact:<hash>".
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SheetKey implements Keyer.
func (DefaultKeyer) SheetKey(textHash, format string) string {
	return "sheet:" + format + ":" + textHash
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(sheetKey string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", sheetKey, opts)
}
