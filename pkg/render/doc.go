// Package render serializes parsed chord sheets.
//
// # Overview
//
// A [sheet.Document] can be rendered three ways:
//
//   - [HTML] produces the fragment the site embeds in a song page
//   - [Text] and [PlainText] lay chords over lyrics for terminals
//   - [Source] writes the document back in its own markup
//
// All renderers are deterministic and never fail. Anchors whose offsets fall
// outside their run are clamped to it; [WithClampHook] reports each one.
//
// # HTML Contract
//
// The fragment is a single container:
//
//	<div class="chord-sheet chord-sheet-inline">
//	<div class="line"><span class="chord-word"><span class="chord">C</span>Santo, </span>...</div>
//	</div>
//
// Inline and mixed documents wrap every chord-bearing word in a chord-word
// span so the word never breaks between a chord and its syllable. Above
// documents add the chord-above class and emit a chord-line row (columns
// padded with &nbsp;) followed by a lyric-line row. Instrumental sections
// render as:
//
//	<div class="section instrumental">
//	  <div class="section-label">Intro</div>
//	  <div class="section-chords"><div class="section-bar">...</div></div>
//	</div>
//
// Literal anchors (bracketed tokens that are not chords) are emitted as
// escaped text without the chord class. No scripts or inline styles are ever
// written.
//
// # Source
//
// [Source] is how a transposed song is saved back as markup:
//
//	doc := sheet.DetectAndParse("[D/F#]Glória")
//	render.Source(transpose.Apply(doc, 1, chord.Flat)) // "[Eb/G]Glória"
package render
