package render

import (
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cantai/cifra/pkg/sheet"
)

// Clamp describes an anchor whose offset fell outside its run.
type Clamp struct {
	Line   int    // 1-based line index in the document
	Run    int    // run index in the line, or -1 for a section bar
	Offset int    // offset as stored
	Len    int    // rune length of the run
	Label  string // chord or literal text
}

// Span is a chord label placed on a chord row.
type Span struct {
	Col     int    `json:"col"`
	Label   string `json:"label"`
	Literal bool   `json:"literal,omitempty"`
}

type placed struct {
	col    int
	anchor sheet.Anchor
}

// clampOffset keeps off within [0, n] and reports out-of-range offsets.
func clampOffset(off, n int, c Clamp, hook func(Clamp)) int {
	if off >= 0 && off <= n {
		return off
	}
	if hook != nil {
		c.Offset = off
		c.Len = n
		hook(c)
	}
	return min(max(off, 0), n)
}

// placeLine returns the anchors of a lyric line with absolute columns.
func placeLine(l sheet.Line, line int, hook func(Clamp)) []placed {
	var out []placed
	col := 0
	for j, r := range l.Runs {
		n := utf8.RuneCountInString(r.Text)
		for _, a := range r.Anchors {
			off := clampOffset(a.Offset, n, Clamp{Line: line, Run: j, Label: a.Label()}, hook)
			out = append(out, placed{col: col + off, anchor: a})
		}
		col += n
	}
	return out
}

// placeBar returns the anchors of a section bar; their offsets are columns.
func placeBar(bar []sheet.Anchor, line int, hook func(Clamp)) []placed {
	out := make([]placed, len(bar))
	for i, a := range bar {
		col := a.Offset
		if col < 0 {
			col = clampOffset(col, 0, Clamp{Line: line, Run: -1, Label: a.Label()}, hook)
		}
		out[i] = placed{col: col, anchor: a}
	}
	return out
}

// spans resolves chord columns for a chord row. A chord that would touch or
// overlap the previous one is pushed right to leave one space.
func spans(ps []placed) []Span {
	return spansWith(ps, sheet.Anchor.Label)
}

func spansWith(ps []placed, label func(sheet.Anchor) string) []Span {
	ps = slices.Clone(ps)
	slices.SortStableFunc(ps, func(a, b placed) int { return a.col - b.col })

	out := make([]Span, 0, len(ps))
	cursor := 0
	for i, p := range ps {
		col := p.col
		if i > 0 && col <= cursor {
			col = cursor + 1
		}
		text := label(p.anchor)
		out = append(out, Span{Col: col, Label: text, Literal: p.anchor.IsLiteral()})
		cursor = col + utf8.RuneCountInString(text)
	}
	return out
}

// chordRow lays spans out as plain text.
func chordRow(ss []Span) string {
	var b strings.Builder
	cursor := 0
	for _, s := range ss {
		if s.Col > cursor {
			b.WriteString(strings.Repeat(" ", s.Col-cursor))
			cursor = s.Col
		}
		b.WriteString(s.Label)
		cursor += utf8.RuneCountInString(s.Label)
	}
	return b.String()
}

// chordOnly reports whether a lyric line holds chords but no lyric text.
func chordOnly(l sheet.Line) bool {
	return l.HasChords() && strings.TrimSpace(l.Text()) == ""
}
