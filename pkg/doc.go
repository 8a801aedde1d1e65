// Package pkg provides the core libraries for Cifra chord sheets.
//
// # Overview
//
// Cifra reads songs written in the chord notations musicians actually use
// (chords inline in brackets, chord rows above the lyric, or a mix of both),
// transposes them and renders them for display. The pkg directory is
// organized into three areas:
//
//  1. Domain logic: [chord], [sheet], [transpose] and [render]
//  2. Orchestration: [pipeline], backed by [cache]
//  3. Supporting packages: [songfile], [preview], [config], [errors],
//     [observability] and [buildinfo]
//
// # Architecture
//
// The typical data flow through Cifra:
//
//	Song file (front matter + chord sheet)
//	         ↓
//	    [songfile] package (split metadata from body)
//	         ↓
//	    [sheet] package (detect notation + parse into a Document)
//	         ↓
//	    [transpose] package (shift every chord by an interval)
//	         ↓
//	    [render] package (HTML, plain text or source notation)
//
// # Quick Start
//
// Parse a sheet, move it up a whole tone and render HTML:
//
//	import (
//	    "github.com/cantai/cifra/pkg/chord"
//	    "github.com/cantai/cifra/pkg/render"
//	    "github.com/cantai/cifra/pkg/sheet"
//	    "github.com/cantai/cifra/pkg/transpose"
//	)
//
//	doc := sheet.DetectAndParse("[C]Santo, [Am]santo")
//	doc = transpose.Apply(doc, 2, chord.Flat)
//	html := render.HTML(doc)
//
// The same steps with caching, defaults and logging go through the
// [pipeline] runner used by the CLI and the server:
//
//	runner := pipeline.NewRunner(cache.NewMemoryCache(), cache.NewDefaultKeyer(), logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Text: text, ToKey: "D"})
//
// # Main Packages
//
// [chord] - Chord symbol grammar: root, accidental, quality, extensions and
// bass note, plus note arithmetic with sharp or flat spelling.
//
// [sheet] - Notation detection (inline, above, mixed) and parsing into a
// Document of lines and chord anchors. Tokens that do not parse as chords
// are kept as literals.
//
// [transpose] - Interval and target-key transposition of whole documents,
// and key inference from the first chord.
//
// [render] - Output formats: HTML with chord spans, column-aligned plain
// text, and source notation that round-trips through the parser.
//
// [pipeline] - Detect, parse, transpose and render with two cache tiers
// (parsed sheets and rendered artifacts).
//
// [cache] - Cache backends (null, memory, file, Redis) and key derivation.
//
// [songfile] - Song files with YAML front matter (title, artist, key).
//
// [preview] - Preview records of imported songs, stored in SQLite, MongoDB
// or memory, and the concurrent folder importer.
//
// [config] - TOML configuration with CIFRA_* environment overrides.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/sheet/...              # Specific package
//	go test -run Example                 # Examples only
//
// [chord]: https://pkg.go.dev/github.com/cantai/cifra/pkg/chord
// [sheet]: https://pkg.go.dev/github.com/cantai/cifra/pkg/sheet
// [transpose]: https://pkg.go.dev/github.com/cantai/cifra/pkg/transpose
// [render]: https://pkg.go.dev/github.com/cantai/cifra/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/cantai/cifra/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/cantai/cifra/pkg/cache
// [songfile]: https://pkg.go.dev/github.com/cantai/cifra/pkg/songfile
// [preview]: https://pkg.go.dev/github.com/cantai/cifra/pkg/preview
// [config]: https://pkg.go.dev/github.com/cantai/cifra/pkg/config
// [errors]: https://pkg.go.dev/github.com/cantai/cifra/pkg/errors
// [observability]: https://pkg.go.dev/github.com/cantai/cifra/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/cantai/cifra/pkg/buildinfo
package pkg
