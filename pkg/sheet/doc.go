// Package sheet detects the notation style of a chord sheet and parses it
// into a structured [Document].
//
// Three notation styles coexist in the song corpus:
//
//   - [Inline]: chords in brackets inside the lyric, "[C]Santo, [Am]santo".
//   - [Above]: a line of chords over the lyric line it annotates, aligned by
//     column.
//   - [Mixed]: inline sung sections plus labeled instrumental blocks
//     ("Intro:", "Solo", "Ponte") made of chord-only lines.
//
// [Detect] picks the style and [Parse] builds the document. Neither function
// fails: malformed chords become literal anchors that renderers print as
// plain text, and unmatched brackets stay in the lyric.
//
// A [Document] is a value. The transpose package returns modified copies and
// the render package reads it without mutation, so one parsed document can be
// shared across goroutines.
//
// # Layout
//
// Each lyric [Line] is split into word [Run]s. A run is a word plus the
// whitespace that follows it; a line starting with spaces has a leading
// whitespace-only run. Chords are [Anchor]s whose Offset is counted in runes
// from the start of their run, which lets renderers keep a chord and the
// syllable under it together.
package sheet
