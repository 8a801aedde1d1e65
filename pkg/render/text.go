package render

import (
	"strings"

	"github.com/cantai/cifra/pkg/sheet"
)

// RowKind tells a terminal how to style a [TextRow].
type RowKind int

const (
	RowLyric RowKind = iota
	RowChord
	RowSection
	RowBlank
)

func (k RowKind) String() string {
	switch k {
	case RowChord:
		return "chord"
	case RowSection:
		return "section"
	case RowBlank:
		return "blank"
	}
	return "lyric"
}

// TextRow is one row of chords-over-lyrics text. Chord rows also carry
// their spans so a terminal can color chords individually.
type TextRow struct {
	Kind  RowKind `json:"kind"`
	Text  string  `json:"text"`
	Spans []Span  `json:"spans,omitempty"`
}

// Text lays doc out as rows of monospaced text, chords above lyrics, for
// every format.
func Text(doc sheet.Document) []TextRow {
	var rows []TextRow
	for i, l := range doc.Lines {
		switch {
		case l.Kind == sheet.LineSection:
			if l.Section == nil {
				continue
			}
			rows = append(rows, TextRow{Kind: RowSection, Text: l.Section.Label})
			for _, bar := range l.Section.Bars {
				rows = append(rows, chordTextRow(spans(placeBar(bar, i+1, nil))))
			}
		case l.IsBlank():
			rows = append(rows, TextRow{Kind: RowBlank})
		default:
			if l.HasChords() {
				rows = append(rows, chordTextRow(spans(placeLine(l, i+1, nil))))
				if chordOnly(l) {
					continue
				}
			}
			rows = append(rows, TextRow{Kind: RowLyric, Text: l.Text()})
		}
	}
	return rows
}

func chordTextRow(ss []Span) TextRow {
	return TextRow{Kind: RowChord, Text: chordRow(ss), Spans: ss}
}

// PlainText joins the rows of [Text] with newlines.
func PlainText(doc sheet.Document) string {
	rows := Text(doc)
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = r.Text
	}
	return strings.Join(lines, "\n")
}
