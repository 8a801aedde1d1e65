// Package pipeline provides the core render pipeline for cifra.
//
// This package implements the complete detect → parse → transpose → render
// pipeline used by the CLI, the HTTP server and the batch importer. By
// centralizing this logic, every entry point validates input the same way
// and shares one cache layout.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Detect: Classify the notation (inline, above, mixed) unless overridden
//  2. Parse: Build a [sheet.Document], cached by content hash and format
//  3. Transpose: Move chords by an interval or to a target key
//  4. Render: Generate output (html, text, source, json), cached per options
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Text:     song,
//	    Interval: 2,
//	    Output:   pipeline.OutputHTML,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(string(result.Body))
//
// The stages are also available without a Runner: [Render] turns a document
// into bytes, and [sheet.Analyze] reports the detection alone.
package pipeline

import (
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/cantai/cifra/pkg/cache"
	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/errors"
	"github.com/cantai/cifra/pkg/sheet"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Importer
// =============================================================================

// Output constants for rendered formats.
const (
	OutputHTML   = "html"
	OutputText   = "text"
	OutputSource = "source"
	OutputJSON   = "json"
)

// DefaultOutput is the output produced when none is requested.
const DefaultOutput = OutputHTML

// DefaultSpelling is the accidental preference when none is requested.
const DefaultSpelling = chord.Flat

// ValidOutputs is the set of supported outputs.
var ValidOutputs = map[string]bool{
	OutputHTML:   true,
	OutputText:   true,
	OutputSource: true,
	OutputJSON:   true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Text string `json:"text"`

	// Format overrides detection when set ("inline", "above", "mixed").
	Format string `json:"format,omitempty"`

	// Interval transposes by semitones. ToKey, when set, wins over Interval
	// and is resolved against the key of the first chord.
	Interval int    `json:"interval,omitempty"`
	ToKey    string `json:"to_key,omitempty"`
	Spelling string `json:"spelling,omitempty"`

	Output   string `json:"output,omitempty"`
	NoCache  bool   `json:"no_cache,omitempty"`
	MaxBytes int    `json:"max_bytes,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	format    sheet.Format
	hasFormat bool
	spelling  chord.Spelling
	toKey     *chord.Note
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Detection is the notation analysis of the input. When Format was
	// overridden it still reports what detection would have chosen.
	Detection sheet.Detection

	// Document is the parsed and transposed document.
	Document sheet.Document

	// TextHash is the content hash of the input text.
	TextHash string

	// Interval is the transposition applied, after resolving ToKey.
	Interval int

	// Output names the rendered format and Body holds it.
	Output string
	Body   []byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	sheet.Stats
	Bytes      int
	DetectTime time.Duration
	ParseTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SheetHit    bool // Whether the parsed document came from cache
	ArtifactHit bool // Whether the rendered body came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateOutput checks that an output name is valid.
func ValidateOutput(output string) error {
	if !ValidOutputs[output] {
		return errors.New(errors.ErrCodeInvalidOutput,
			"invalid output: %q (must be one of: html, text, source, json)", output)
	}
	return nil
}

// ParseKey parses a target key such as "A", "F#" or "Bbm". Anything after
// the root is ignored, so a chord name is accepted as its root's key.
func ParseKey(s string) (chord.Note, error) {
	sym, err := chord.Parse(strings.TrimSpace(s))
	if err != nil {
		return chord.Note{}, errors.Wrap(errors.ErrCodeInvalidKey, err, "invalid key %q", s)
	}
	return sym.Root, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks every field and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := errors.ValidateText(o.Text, o.MaxBytes); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	if o.Format != "" {
		f, err := sheet.ParseFormat(o.Format)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidFormat, err, "invalid format %q", o.Format)
		}
		o.format, o.hasFormat = f, true
	}
	if o.ToKey != "" {
		k, err := ParseKey(o.ToKey)
		if err != nil {
			return err
		}
		o.toKey = &k
	}
	o.validated = true
	return nil
}

// ValidateForRender validates and sets defaults for the render stage only.
func (o *Options) ValidateForRender() error {
	o.SetDefaults()
	if err := ValidateOutput(o.Output); err != nil {
		return err
	}
	sp, err := chord.ParseSpelling(o.Spelling)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidSpelling, err, "invalid spelling %q", o.Spelling)
	}
	o.spelling = sp
	o.Spelling = sp.String()
	return nil
}

// SetDefaults fills in zero-valued fields.
func (o *Options) SetDefaults() {
	if o.Output == "" {
		o.Output = DefaultOutput
	}
	if o.Spelling == "" {
		o.Spelling = DefaultSpelling.String()
	}
	if o.MaxBytes <= 0 {
		o.MaxBytes = errors.MaxTextBytes
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Transposes reports whether the run changes any chord.
func (o *Options) Transposes() bool {
	return o.Interval%12 != 0 || o.ToKey != ""
}

// ArtifactKeyOpts returns cache key options for the render stage.
func (o *Options) ArtifactKeyOpts(interval int) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Interval: interval,
		Spelling: o.Spelling,
		Output:   o.Output,
	}
}
