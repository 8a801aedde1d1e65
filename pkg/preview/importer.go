package preview

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/songfile"
)

// Importer renders song files and stores them as previews. Files are
// processed concurrently; a failing file is recorded in the summary and
// does not stop the others.
type Importer struct {
	Runner *pipeline.Runner
	Store  Store
	Logger *log.Logger

	// Workers bounds concurrent files. Zero means GOMAXPROCS.
	Workers int

	// Force stores a new preview even when one exists for the same text.
	Force bool

	// Progress, when set, is called after each file with the number of
	// files finished so far. Calls are serialized.
	Progress func(done, total int)

	hashes keyedMutex
}

// NewImporter creates an importer with default concurrency.
func NewImporter(r *pipeline.Runner, s Store, logger *log.Logger) *Importer {
	if logger == nil {
		logger = log.Default()
	}
	return &Importer{Runner: r, Store: s, Logger: logger}
}

// Summary reports what an import did.
type Summary struct {
	Files     int            `json:"files"`
	Imported  int            `json:"imported"`
	Unchanged int            `json:"unchanged"`
	Failed    int            `json:"failed"`
	Flagged   int            `json:"flagged"`
	ByFormat  map[string]int `json:"by_format"`
	Failures  []Failure      `json:"failures,omitempty"`
	Records   []*Record      `json:"-"`
	Duration  time.Duration  `json:"duration"`
}

// Failure is a file that could not be imported.
type Failure struct {
	Path string      `json:"path"`
	Code errors.Code `json:"code"`
	Err  string      `json:"error"`
}

// Import expands paths (files or directories, walked recursively for song
// files) and imports every song found. It returns an error only when the
// paths cannot be read or ctx is cancelled.
func (im *Importer) Import(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	files, err := CollectSongs(paths)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Files: len(files), ByFormat: make(map[string]int)}
	var (
		mu       sync.Mutex
		finished int
	)

	workers := im.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range files {
		path := path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, unchanged, err := im.importFile(gctx, path)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				sum.Failed++
				sum.Failures = append(sum.Failures, Failure{Path: path, Code: errors.GetCode(err), Err: errors.UserMessage(err)})
				im.Logger.Warn("import failed", "path", path, "err", err)
			case unchanged:
				sum.Unchanged++
				sum.ByFormat[rec.Format]++
				im.Logger.Debug("unchanged", "path", path, "id", rec.ID)
			default:
				sum.Imported++
				sum.ByFormat[rec.Format]++
				sum.Records = append(sum.Records, rec)
				im.Logger.Debug("imported", "path", path, "id", rec.ID, "format", rec.Format)
			}
			if err == nil && len(rec.Ambiguous) > 0 {
				sum.Flagged++
			}
			finished++
			if im.Progress != nil {
				im.Progress(finished, sum.Files)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(sum.Failures, func(i, j int) bool { return sum.Failures[i].Path < sum.Failures[j].Path })
	sort.Slice(sum.Records, func(i, j int) bool { return sum.Records[i].Path < sum.Records[j].Path })
	sum.Duration = time.Since(start)
	return sum, nil
}

// importFile renders one song and stores it. It reports true when a preview
// for the same text already existed and was left alone.
func (im *Importer) importFile(ctx context.Context, path string) (*Record, bool, error) {
	song, err := songfile.Load(path)
	if err != nil {
		return nil, false, err
	}
	res, err := im.Runner.Execute(ctx, pipeline.Options{Text: song.Body, Output: pipeline.OutputHTML})
	if err != nil {
		return nil, false, err
	}

	// Files with the same text share a hash; lookup and insert must not
	// interleave or both would be stored.
	unlock := im.hashes.lock(res.TextHash)
	defer unlock()

	if !im.Force {
		existing, err := im.Store.FindByHash(ctx, res.TextHash)
		if err == nil {
			return existing, true, nil
		}
		if !IsNotFound(err) {
			return nil, false, err
		}
	}

	rec := FromSong(song, res)
	if err := im.Store.Put(ctx, rec); err != nil {
		return nil, false, err
	}
	return rec, false, nil
}

// keyedMutex hands out one mutex per key. Entries are dropped when no
// goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

// lock blocks until key is free and returns the matching unlock.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedLock)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		if l.refs--; l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// CollectSongs expands paths into a sorted, de-duplicated list of song
// files. Directories are walked recursively; hidden directories are skipped.
// A path named explicitly must be a song file.
func CollectSongs(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "path not found: %s", root)
			}
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "stat %s", root)
		}
		if !info.IsDir() {
			if err := errors.ValidateSongPath(root); err != nil {
				return nil, err
			}
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if p != root && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if errors.IsSongPath(p) {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "walk %s", root)
		}
	}
	sort.Strings(out)
	return out, nil
}
