package render

import (
	"html"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cantai/cifra/pkg/sheet"
)

// Option configures [HTML].
type Option func(*htmlRenderer)

type htmlRenderer struct {
	onClamp func(Clamp)
}

// WithClampHook calls fn for every anchor whose offset had to be clamped.
func WithClampHook(fn func(Clamp)) Option {
	return func(r *htmlRenderer) { r.onClamp = fn }
}

// HTML renders doc as an HTML fragment. An empty document renders as "".
func HTML(doc sheet.Document, opts ...Option) string {
	if doc.IsEmpty() {
		return ""
	}
	var r htmlRenderer
	for _, opt := range opts {
		opt(&r)
	}

	var b strings.Builder
	b.WriteString(`<div class="chord-sheet chord-sheet-`)
	b.WriteString(doc.Format.String())
	if doc.Format == sheet.Above {
		b.WriteString(` chord-above`)
	}
	b.WriteString("\">\n")

	for i, l := range doc.Lines {
		switch {
		case l.Kind == sheet.LineSection:
			r.section(&b, l.Section, i+1)
		case l.IsBlank():
			b.WriteString(`<div class="line line-blank"></div>`)
		case doc.Format == sheet.Above:
			r.aboveLine(&b, l, i+1)
		default:
			r.inlineLine(&b, l, i+1)
		}
		b.WriteByte('\n')
	}
	b.WriteString("</div>")
	return b.String()
}

func (r *htmlRenderer) inlineLine(b *strings.Builder, l sheet.Line, line int) {
	b.WriteString(`<div class="line">`)
	for j, run := range l.Runs {
		if len(run.Anchors) == 0 {
			b.WriteString(html.EscapeString(run.Text))
			continue
		}
		rs := []rune(run.Text)
		anchors := make([]placed, len(run.Anchors))
		for k, a := range run.Anchors {
			off := clampOffset(a.Offset, len(rs), Clamp{Line: line, Run: j, Label: a.Label()}, r.onClamp)
			anchors[k] = placed{col: off, anchor: a}
		}
		slices.SortStableFunc(anchors, func(a, b placed) int { return a.col - b.col })

		b.WriteString(`<span class="chord-word">`)
		pos := 0
		for _, p := range anchors {
			b.WriteString(html.EscapeString(string(rs[pos:p.col])))
			writeAnchor(b, p.anchor)
			pos = p.col
		}
		b.WriteString(html.EscapeString(string(rs[pos:])))
		b.WriteString(`</span>`)
	}
	b.WriteString(`</div>`)
}

func (r *htmlRenderer) aboveLine(b *strings.Builder, l sheet.Line, line int) {
	if l.HasChords() {
		writeChordLine(b, spans(placeLine(l, line, r.onClamp)))
		if chordOnly(l) {
			return
		}
		b.WriteByte('\n')
	}
	b.WriteString(`<div class="lyric-line">`)
	b.WriteString(nbsp(html.EscapeString(l.Text())))
	b.WriteString(`</div>`)
}

func (r *htmlRenderer) section(b *strings.Builder, s *sheet.Section, line int) {
	b.WriteString(`<div class="section instrumental">`)
	if s == nil {
		b.WriteString(`</div>`)
		return
	}
	b.WriteString(`<div class="section-label">`)
	b.WriteString(html.EscapeString(s.Label))
	b.WriteString(`</div><div class="section-chords">`)
	for _, bar := range s.Bars {
		b.WriteString(`<div class="section-bar">`)
		writeSpans(b, spans(placeBar(bar, line, r.onClamp)))
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div></div>`)
}

func writeChordLine(b *strings.Builder, ss []Span) {
	b.WriteString(`<div class="chord-line">`)
	writeSpans(b, ss)
	b.WriteString(`</div>`)
}

func writeSpans(b *strings.Builder, ss []Span) {
	cursor := 0
	for _, s := range ss {
		if s.Col > cursor {
			b.WriteString(strings.Repeat("&nbsp;", s.Col-cursor))
			cursor = s.Col
		}
		if s.Literal {
			b.WriteString(html.EscapeString(s.Label))
		} else {
			b.WriteString(`<span class="chord">`)
			b.WriteString(html.EscapeString(s.Label))
			b.WriteString(`</span>`)
		}
		cursor += utf8.RuneCountInString(s.Label)
	}
}

func writeAnchor(b *strings.Builder, a sheet.Anchor) {
	if a.IsLiteral() {
		b.WriteString(html.EscapeString(a.Literal))
		return
	}
	b.WriteString(`<span class="chord">`)
	b.WriteString(html.EscapeString(a.Chord.String()))
	b.WriteString(`</span>`)
}

func nbsp(s string) string {
	return strings.ReplaceAll(s, " ", "&nbsp;")
}
