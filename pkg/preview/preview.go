// Package preview stores rendered previews of songs.
//
// A preview is what the site shows an editor before a song is published: the
// original markdown, the notation the detector chose, the rendered HTML and
// the line numbers flagged for review. Previews are written by the batch
// importer and the HTTP API and read back by ID.
//
// # Backends
//
//   - [MemoryStore]: in-process map for tests and one-off runs
//   - [SQLiteStore]: single-file database for the CLI (modernc.org/sqlite, no cgo)
//   - [MongoStore]: shared store for server deployments
//
// # Usage
//
//	store, err := preview.OpenSQLite(ctx, filepath.Join(dir, "previews.db"))
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	imp := preview.NewImporter(runner, store, logger)
//	summary, err := imp.Import(ctx, []string{"songs/"})
package preview

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/songfile"
)

// DefaultListLimit caps List when the caller passes no limit.
const DefaultListLimit = 50

// Record is a stored preview.
type Record struct {
	ID        string    `json:"id" bson:"_id"`
	Path      string    `json:"path,omitempty" bson:"path,omitempty"`
	Title     string    `json:"title,omitempty" bson:"title,omitempty"`
	Artist    string    `json:"artist,omitempty" bson:"artist,omitempty"`
	Key       string    `json:"key,omitempty" bson:"key,omitempty"`
	Markdown  string    `json:"markdown" bson:"markdown"`
	Format    string    `json:"format" bson:"format"`
	HTML      string    `json:"html" bson:"html"`
	TextHash  string    `json:"text_hash" bson:"text_hash"`
	Ambiguous []int     `json:"ambiguous,omitempty" bson:"ambiguous,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// NewRecord builds a record from a pipeline result rendered as HTML.
func NewRecord(markdown string, res *pipeline.Result) *Record {
	return &Record{
		ID:        uuid.NewString(),
		Markdown:  markdown,
		Format:    res.Document.Format.String(),
		HTML:      string(res.Body),
		TextHash:  res.TextHash,
		Ambiguous: res.Detection.Ambiguous,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

// FromSong builds a record for a song file. The song's front matter fills
// in the descriptive fields.
func FromSong(s songfile.Song, res *pipeline.Result) *Record {
	r := NewRecord(s.Body, res)
	r.Path = s.Path
	r.Title = s.Title()
	r.Artist = s.Meta.Artist
	r.Key = s.Meta.Key
	return r
}

func (r *Record) clone() *Record {
	c := *r
	if r.Ambiguous != nil {
		c.Ambiguous = append([]int(nil), r.Ambiguous...)
	}
	return &c
}

// Store is the interface for preview storage backends.
type Store interface {
	// Get returns the record with id, or a PREVIEW_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// FindByHash returns the newest record for a content hash, or a
	// PREVIEW_NOT_FOUND error.
	FindByHash(ctx context.Context, hash string) (*Record, error)

	// Put inserts or replaces a record.
	Put(ctx context.Context, r *Record) error

	// List returns up to limit records, newest first.
	List(ctx context.Context, limit int) ([]*Record, error)

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}

// IsNotFound reports whether err means the preview does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, errors.ErrCodePreviewNotFound)
}

func notFound(what string) error {
	return errors.New(errors.ErrCodePreviewNotFound, "preview %s not found", what)
}

func listLimit(n int) int {
	if n <= 0 {
		return DefaultListLimit
	}
	return n
}
