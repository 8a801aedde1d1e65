package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cantai/cifra/pkg/cache"
	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/observability"
	"github.com/cantai/cifra/pkg/render"
	"github.com/cantai/cifra/pkg/sheet"
	"github.com/cantai/cifra/pkg/transpose"
)

// Runner encapsulates pipeline execution with caching.
// The CLI, the server and the importer all use it so caching and hooks
// behave the same everywhere.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete detect → parse → transpose → render pipeline
// with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		Output:   opts.Output,
		TextHash: cache.HashString(opts.Text),
	}

	// Stage 1: Detect
	detectStart := time.Now()
	result.Detection = r.Detect(ctx, opts.Text)
	format := result.Detection.Format
	if opts.hasFormat {
		format = opts.format
	}
	result.Stats.DetectTime = time.Since(detectStart)

	// Stage 2: Parse
	parseStart := time.Now()
	doc, sheetKey, hit, err := r.parse(ctx, opts, result.TextHash, format)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.Stats = doc.Stats()
	result.CacheInfo.SheetHit = hit

	observability.Pipeline().OnParseComplete(ctx, format.String(),
		result.Stats.Lines, result.Stats.Chords, result.Stats.ParseTime)
	opts.Logger.Debug("parsed sheet",
		"format", format,
		"lines", result.Stats.Lines,
		"chords", result.Stats.Chords,
		"cached", hit)

	// Stage 3: Transpose
	result.Interval = r.resolveInterval(doc, opts)
	if result.Interval != 0 || opts.spelling != doc.Spelling {
		observability.Pipeline().OnTranspose(ctx, result.Interval, opts.Spelling)
	}
	result.Document = transpose.Apply(doc, result.Interval, opts.spelling)

	// Stage 4: Render
	renderStart := time.Now()
	body, hit, err := r.render(ctx, result.Document, sheetKey, result.Interval, opts)
	result.Stats.RenderTime = time.Since(renderStart)
	observability.Pipeline().OnRenderComplete(ctx, opts.Output, len(body), result.Stats.RenderTime, err)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Body = body
	result.Stats.Bytes = len(body)
	result.CacheInfo.ArtifactHit = hit

	opts.Logger.Debug("rendered sheet",
		"output", opts.Output,
		"interval", result.Interval,
		"bytes", len(body),
		"cached", hit)

	return result, nil
}

// Detect classifies text and reports the lines flagged for review.
func (r *Runner) Detect(ctx context.Context, text string) sheet.Detection {
	d := sheet.Analyze(text)
	observability.Pipeline().OnDetect(ctx, d.Format.String(), len(d.Ambiguous))
	return d
}

// Parse returns the parsed document for opts, using the sheet cache.
func (r *Runner) Parse(ctx context.Context, opts Options) (sheet.Document, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return sheet.Document{}, err
	}
	format := opts.format
	if !opts.hasFormat {
		format = r.Detect(ctx, opts.Text).Format
	}
	doc, _, _, err := r.parse(ctx, opts, cache.HashString(opts.Text), format)
	return doc, err
}

// parse returns the document for text in format, its sheet key, and whether
// it came from the cache.
func (r *Runner) parse(ctx context.Context, opts Options, textHash string, format sheet.Format) (sheet.Document, string, bool, error) {
	key := r.Keyer.SheetKey(textHash, format.String())

	if !opts.NoCache {
		if data, ok := r.get(ctx, key, "sheet", opts.Logger); ok {
			doc, err := UnmarshalDocument(data)
			if err == nil {
				return doc, key, true, nil
			}
			opts.Logger.Debug("discarding unreadable cached sheet", "key", key, "err", err)
		}
	}

	doc := sheet.Parse(opts.Text, format)

	if !opts.NoCache {
		if data, err := MarshalDocument(doc); err == nil {
			r.set(ctx, key, "sheet", data, cache.SheetTTL, opts.Logger)
		}
	}
	return doc, key, false, nil
}

// render returns the body for doc, using the artifact cache.
func (r *Runner) render(ctx context.Context, doc sheet.Document, sheetKey string, interval int, opts Options) ([]byte, bool, error) {
	key := r.Keyer.ArtifactKey(sheetKey, opts.ArtifactKeyOpts(interval))

	if !opts.NoCache {
		if data, ok := r.get(ctx, key, "artifact", opts.Logger); ok {
			return data, true, nil
		}
	}

	body, err := Render(doc, opts.Output, render.WithClampHook(func(c render.Clamp) {
		observability.Pipeline().OnClamp(ctx, c.Line, c.Offset, c.Len)
	}))
	if err != nil {
		return nil, false, err
	}

	if !opts.NoCache {
		r.set(ctx, key, "artifact", body, cache.ArtifactTTL, opts.Logger)
	}
	return body, false, nil
}

// resolveInterval turns ToKey into an interval against the document's
// first chord. Documents without chords are never transposed by key.
func (r *Runner) resolveInterval(doc sheet.Document, opts Options) int {
	if opts.toKey == nil {
		return normalize(opts.Interval)
	}
	from, ok := transpose.Key(doc)
	if !ok {
		opts.Logger.Warn("no chords to infer the key from", "to", opts.ToKey)
		return 0
	}
	return chord.Interval(from, *opts.toKey)
}

// get reads key from the cache. Backend errors degrade to a miss.
func (r *Runner) get(ctx context.Context, key, keyType string, logger *log.Logger) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	switch {
	case err != nil:
		observability.Cache().OnCacheError(ctx, keyType, err)
		logger.Debug("cache read failed", "type", keyType, "err", err)
		return nil, false
	case !hit:
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

func (r *Runner) set(ctx context.Context, key, keyType string, data []byte, ttl time.Duration, logger *log.Logger) {
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		observability.Cache().OnCacheError(ctx, keyType, err)
		logger.Debug("cache write failed", "type", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func normalize(n int) int {
	return ((n % 12) + 12) % 12
}
