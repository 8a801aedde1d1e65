package sheet

import (
	"fmt"
	"strings"

	"github.com/cantai/cifra/pkg/chord"
)

// Anchor is a chord attached to a rune offset inside a [Run].
//
// Chord is the symbol as currently spelled and Original the symbol as parsed;
// they differ only after transposition. Both are nil for a literal anchor,
// which holds a bracketed token that failed to parse and is printed as-is.
type Anchor struct {
	Offset   int           `json:"offset"`
	Chord    *chord.Symbol `json:"chord,omitempty"`
	Original *chord.Symbol `json:"original,omitempty"`
	Literal  string        `json:"literal,omitempty"`
}

// IsLiteral reports whether the anchor holds unparsed text.
func (a Anchor) IsLiteral() bool {
	return a.Chord == nil
}

// Label returns the chord as it should be displayed, or the literal text.
func (a Anchor) Label() string {
	if a.Chord == nil {
		return a.Literal
	}
	return a.Chord.String()
}

func (a Anchor) clone() Anchor {
	if a.Chord != nil {
		c := cloneSymbol(*a.Chord)
		a.Chord = &c
	}
	if a.Original != nil {
		o := cloneSymbol(*a.Original)
		a.Original = &o
	}
	return a
}

func cloneSymbol(s chord.Symbol) chord.Symbol {
	if s.Bass != nil {
		b := *s.Bass
		s.Bass = &b
	}
	return s
}

// newAnchor parses token and builds a chord anchor, or a literal anchor
// holding raw when the token is not a chord.
func newAnchor(offset int, token, raw string) Anchor {
	sym, err := chord.Parse(token)
	if err != nil {
		return Anchor{Offset: offset, Literal: raw}
	}
	orig := cloneSymbol(sym)
	return Anchor{Offset: offset, Chord: &sym, Original: &orig}
}

// Run is one word of lyric text plus its trailing whitespace, with the chords
// anchored inside it.
type Run struct {
	Text    string   `json:"text"`
	Anchors []Anchor `json:"anchors,omitempty"`
}

// LineKind distinguishes lyric lines from section headers.
type LineKind int

const (
	// LineLyric is a sung line; zero runs means a blank line.
	LineLyric LineKind = iota
	// LineSection is an instrumental section header with its chord bars.
	LineSection
)

// String returns "lyric" or "section".
func (k LineKind) String() string {
	if k == LineSection {
		return "section"
	}
	return "lyric"
}

// MarshalText implements encoding.TextMarshaler.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LineKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "lyric":
		*k = LineLyric
	case "section":
		*k = LineSection
	default:
		return fmt.Errorf("invalid line kind %q", b)
	}
	return nil
}

// Section is an instrumental block such as "Intro:" followed by chord-only
// lines. Each bar holds the anchors of one chord line; their offsets are the
// columns where the chords were written.
type Section struct {
	Label   string     `json:"label"`
	Keyword string     `json:"keyword"`
	Bars    [][]Anchor `json:"bars,omitempty"`
}

// Line is one logical line of a document. Columns is set on lines whose
// chords were written on a separate chord line and merged by column.
type Line struct {
	Kind    LineKind `json:"kind"`
	Runs    []Run    `json:"runs,omitempty"`
	Section *Section `json:"section,omitempty"`
	Columns bool     `json:"columns,omitempty"`
}

// IsBlank reports whether the line is an empty lyric line.
func (l Line) IsBlank() bool {
	return l.Kind == LineLyric && len(l.Runs) == 0
}

// Text returns the lyric text of the line with chord markup removed, or the
// section label.
func (l Line) Text() string {
	if l.Kind == LineSection {
		if l.Section == nil {
			return ""
		}
		return l.Section.Label
	}
	var b strings.Builder
	for _, r := range l.Runs {
		b.WriteString(r.Text)
	}
	return b.String()
}

// HasChords reports whether any anchor (chord or literal) is on the line.
func (l Line) HasChords() bool {
	for _, r := range l.Runs {
		if len(r.Anchors) > 0 {
			return true
		}
	}
	return false
}

// Placed is an anchor with its absolute column in the line.
type Placed struct {
	Col    int
	Anchor Anchor
}

// Placed returns the line's anchors with absolute rune columns, in order.
// Offsets outside their run are clamped to the run.
func (l Line) Placed() []Placed {
	var out []Placed
	col := 0
	for _, r := range l.Runs {
		n := len([]rune(r.Text))
		for _, a := range r.Anchors {
			out = append(out, Placed{Col: col + clamp(a.Offset, 0, n), Anchor: a})
		}
		col += n
	}
	return out
}

func (l Line) clone() Line {
	out := Line{Kind: l.Kind, Columns: l.Columns}
	if l.Runs != nil {
		out.Runs = make([]Run, len(l.Runs))
		for i, r := range l.Runs {
			out.Runs[i] = Run{Text: r.Text, Anchors: cloneAnchors(r.Anchors)}
		}
	}
	if l.Section != nil {
		s := Section{Label: l.Section.Label, Keyword: l.Section.Keyword}
		if l.Section.Bars != nil {
			s.Bars = make([][]Anchor, len(l.Section.Bars))
			for i, bar := range l.Section.Bars {
				s.Bars[i] = cloneAnchors(bar)
			}
		}
		out.Section = &s
	}
	return out
}

func cloneAnchors(as []Anchor) []Anchor {
	if as == nil {
		return nil
	}
	out := make([]Anchor, len(as))
	for i, a := range as {
		out[i] = a.clone()
	}
	return out
}

// Document is a parsed chord sheet.
//
// Shift is the cumulative transposition (0-11) applied to every chord, and
// Spelling the enharmonic preference used to spell it. FinalNewline records
// that the text ended with a newline.
type Document struct {
	Format       Format         `json:"format"`
	Directive    bool           `json:"directive,omitempty"`
	Shift        int            `json:"shift,omitempty"`
	Spelling     chord.Spelling `json:"spelling"`
	Lines        []Line         `json:"lines"`
	FinalNewline bool           `json:"final_newline,omitempty"`
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	out := d
	if d.Lines != nil {
		out.Lines = make([]Line, len(d.Lines))
		for i, l := range d.Lines {
			out.Lines[i] = l.clone()
		}
	}
	return out
}

// IsEmpty reports whether the document has no lines.
func (d Document) IsEmpty() bool {
	return len(d.Lines) == 0
}

// Text returns the lyric text of the document, one line per Line.
func (d Document) Text() string {
	lines := make([]string, len(d.Lines))
	for i, l := range d.Lines {
		lines[i] = l.Text()
	}
	return strings.Join(lines, "\n")
}

// EachAnchor calls fn with a pointer to every anchor in document order,
// including section bars. fn may modify the anchor in place.
func (d *Document) EachAnchor(fn func(*Anchor)) {
	for i := range d.Lines {
		l := &d.Lines[i]
		for j := range l.Runs {
			for k := range l.Runs[j].Anchors {
				fn(&l.Runs[j].Anchors[k])
			}
		}
		if l.Section != nil {
			for j := range l.Section.Bars {
				for k := range l.Section.Bars[j] {
					fn(&l.Section.Bars[j][k])
				}
			}
		}
	}
}

// Chords returns a copy of every anchor in document order.
func (d Document) Chords() []Anchor {
	var out []Anchor
	d.EachAnchor(func(a *Anchor) {
		out = append(out, a.clone())
	})
	return out
}

// Stats summarizes a document.
type Stats struct {
	Lines    int `json:"lines"`
	Sections int `json:"sections"`
	Chords   int `json:"chords"`
	Literals int `json:"literals"`
}

// Stats counts lines, sections, chords and literal tokens.
func (d Document) Stats() Stats {
	s := Stats{Lines: len(d.Lines)}
	for _, l := range d.Lines {
		if l.Kind == LineSection {
			s.Sections++
		}
	}
	d.EachAnchor(func(a *Anchor) {
		if a.IsLiteral() {
			s.Literals++
		} else {
			s.Chords++
		}
	})
	return s
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
