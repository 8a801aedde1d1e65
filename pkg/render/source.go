package render

import (
	"slices"
	"strings"

	"github.com/cantai/cifra/pkg/sheet"
)

const directive = "#mic#"

// Source writes doc back as markup in its own notation: bracketed chords for
// inline documents, chord lines over lyrics for above documents, and section
// headers with bracketed bars for mixed documents. Mixed documents keep each
// lyric line in the notation it was written in. Parsing the result with the
// same format yields the same chords at the same places, and blank lines and
// a final newline are kept.
func Source(doc sheet.Document) string {
	var lines []string
	if doc.Directive {
		lines = append(lines, directive)
	}
	for i, l := range doc.Lines {
		switch {
		case l.Kind == sheet.LineSection:
			lines = append(lines, sectionSource(l.Section, i+1)...)
		case l.IsBlank():
			lines = append(lines, "")
		case !columnSource(doc.Format, l):
			lines = append(lines, inlineSource(l))
		default:
			lines = append(lines, chordRow(spans(placeLine(l, i+1, nil))))
			if !chordOnly(l) {
				lines = append(lines, strings.TrimRight(l.Text(), " "))
			}
		}
	}
	out := strings.Join(lines, "\n")
	if doc.FinalNewline {
		out += "\n"
	}
	return out
}

// columnSource reports whether l is written as a chord line over its lyric.
// In mixed documents only lines merged from a chord line qualify, and only
// when a lyric follows, since a lone bare chord line reads back as lyric.
func columnSource(f sheet.Format, l sheet.Line) bool {
	if !l.HasChords() || hasLiteral(l) {
		return false
	}
	switch f {
	case sheet.Above:
		return true
	case sheet.Mixed:
		return l.Columns && !chordOnly(l)
	}
	return false
}

func inlineSource(l sheet.Line) string {
	var b strings.Builder
	for _, run := range l.Runs {
		rs := []rune(run.Text)
		anchors := make([]placed, len(run.Anchors))
		for k, a := range run.Anchors {
			anchors[k] = placed{col: min(max(a.Offset, 0), len(rs)), anchor: a}
		}
		slices.SortStableFunc(anchors, func(a, b placed) int { return a.col - b.col })

		pos := 0
		for _, p := range anchors {
			b.WriteString(string(rs[pos:p.col]))
			b.WriteString(bracket(p.anchor))
			pos = p.col
		}
		b.WriteString(string(rs[pos:]))
	}
	return b.String()
}

func sectionSource(s *sheet.Section, line int) []string {
	if s == nil {
		return nil
	}
	out := []string{s.Label + ":"}
	for _, bar := range s.Bars {
		out = append(out, chordRow(spansWith(placeBar(bar, line, nil), bracket)))
	}
	return out
}

// bracket returns the anchor as inline markup.
func bracket(a sheet.Anchor) string {
	if a.IsLiteral() {
		return a.Literal
	}
	return "[" + a.Chord.String() + "]"
}

func hasLiteral(l sheet.Line) bool {
	for _, r := range l.Runs {
		for _, a := range r.Anchors {
			if a.IsLiteral() {
				return true
			}
		}
	}
	return false
}
