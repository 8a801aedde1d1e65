package preview

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cantai/cifra/pkg/errors"
)

const sqliteDriver = "sqlite"

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS previews (
		id         TEXT PRIMARY KEY,
		path       TEXT NOT NULL DEFAULT '',
		title      TEXT NOT NULL DEFAULT '',
		artist     TEXT NOT NULL DEFAULT '',
		song_key   TEXT NOT NULL DEFAULT '',
		markdown   TEXT NOT NULL,
		format     TEXT NOT NULL,
		html       TEXT NOT NULL,
		text_hash  TEXT NOT NULL,
		ambiguous  TEXT NOT NULL DEFAULT 'null',
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS previews_text_hash ON previews (text_hash, created_at)`,
	`CREATE INDEX IF NOT EXISTS previews_created_at ON previews (created_at)`,
}

const sqliteColumns = `id, path, title, artist, song_key, markdown, format, html, text_hash, ambiguous, created_at`

// SQLiteStore keeps previews in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database at path and applies
// the schema. The parent directory is created when missing.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "create store dir")
		}
	}
	db, err := sql.Open(sqliteDriver, path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "open preview store")
	}
	// One writer at a time; the importer serializes on this connection.
	db.SetMaxOpenConns(1)

	for _, stmt := range sqliteSchema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "migrate preview store")
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM previews WHERE id = ?`, id)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	return r, err
}

func (s *SQLiteStore) FindByHash(ctx context.Context, hash string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteColumns+` FROM previews WHERE text_hash = ? ORDER BY created_at DESC LIMIT 1`, hash)
	r, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, notFound("with hash " + hash)
	}
	return r, err
}

func (s *SQLiteStore) Put(ctx context.Context, r *Record) error {
	amb, err := json.Marshal(r.Ambiguous)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode ambiguous lines")
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO previews (`+sqliteColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	path = excluded.path,
	title = excluded.title,
	artist = excluded.artist,
	song_key = excluded.song_key,
	markdown = excluded.markdown,
	format = excluded.format,
	html = excluded.html,
	text_hash = excluded.text_hash,
	ambiguous = excluded.ambiguous,
	created_at = excluded.created_at`,
		r.ID, r.Path, r.Title, r.Artist, r.Key, r.Markdown, r.Format, r.HTML,
		r.TextHash, string(amb), r.CreatedAt.UnixMilli())
	if err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "store preview %s", r.ID)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, limit int) ([]*Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM previews ORDER BY created_at DESC, id LIMIT ?`, listLimit(limit))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "list previews")
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "list previews")
	}
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM previews WHERE id = ?`, id); err != nil {
		return errors.Wrap(errors.ErrCodeUnavailable, err, "delete preview %s", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r       Record
		amb     string
		created int64
	)
	err := sc.Scan(&r.ID, &r.Path, &r.Title, &r.Artist, &r.Key, &r.Markdown,
		&r.Format, &r.HTML, &r.TextHash, &amb, &created)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable, err, "read preview")
	}
	if err := json.Unmarshal([]byte(amb), &r.Ambiguous); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode ambiguous lines")
	}
	r.CreatedAt = time.UnixMilli(created).UTC()
	return &r, nil
}
