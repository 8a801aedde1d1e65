// Package transpose moves every chord of a sheet by a number of semitones.
//
// A [sheet.Document] remembers the chords as they were parsed and the
// cumulative shift applied to them. Apply always recomputes chords from the
// parsed originals, so transposing up and back down restores the exact
// spelling the author wrote, transposing by an octave is a no-op, and two
// steps of +1 equal one step of +2.
//
//	doc := sheet.DetectAndParse("[C]Santo, [Am]santo")
//	up := transpose.Apply(doc, 2, chord.Flat) // [D]Santo, [Bm]santo
//	back := transpose.Apply(up, -2, chord.Flat)
//
// Literal anchors (bracketed tokens that are not chords) are never touched.
package transpose

import (
	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/sheet"
)

// Apply returns a copy of doc with every chord moved by interval semitones
// and spelled with sp. Any interval is accepted and taken modulo 12. The
// input document is not modified.
func Apply(doc sheet.Document, interval int, sp chord.Spelling) sheet.Document {
	out := doc.Clone()
	out.Shift = normalize(normalize(doc.Shift) + normalize(interval))
	out.Spelling = sp
	out.EachAnchor(func(a *sheet.Anchor) {
		if a.Original == nil {
			return
		}
		c := a.Original.Transpose(out.Shift, sp)
		a.Chord = &c
	})
	return out
}

// ToKey transposes doc so that the key from becomes the key to.
func ToKey(doc sheet.Document, from, to chord.Note, sp chord.Spelling) sheet.Document {
	return Apply(doc, chord.Interval(from, to), sp)
}

// Chord transposes a single chord token. Tokens that do not parse are
// returned unchanged.
func Chord(token string, n int, sp chord.Spelling) string {
	sym, err := chord.Parse(token)
	if err != nil {
		return token
	}
	return sym.Transpose(n, sp).String()
}

// Key guesses the key of doc from its first chord, as currently spelled.
// It reports false when the document has no parsed chords.
func Key(doc sheet.Document) (chord.Note, bool) {
	for _, a := range doc.Chords() {
		if a.Chord != nil {
			return a.Chord.Root, true
		}
	}
	return chord.Note{}, false
}

func normalize(n int) int {
	return ((n % 12) + 12) % 12
}
