package sheet

import (
	"strings"
	"unicode"

	"github.com/cantai/cifra/pkg/chord"
)

// token is a bracketed chord token found in a line. Start and End are rune
// indices of '[' and ']'.
type token struct {
	Start, End int
	Text       string
}

// closing returns the index of the ']' matching the '[' at rs[i], or -1 when
// the bracket is unmatched (end of line or another '[' comes first).
func closing(rs []rune, i int) int {
	for k := i + 1; k < len(rs); k++ {
		switch rs[k] {
		case '[':
			return -1
		case ']':
			return k
		}
	}
	return -1
}

// bracketTokens lists the matched bracket tokens of a line.
func bracketTokens(rs []rune) []token {
	var out []token
	for i := 0; i < len(rs); i++ {
		if rs[i] != '[' {
			continue
		}
		j := closing(rs, i)
		if j < 0 {
			continue
		}
		out = append(out, token{Start: i, End: j, Text: string(rs[i+1 : j])})
		i = j
	}
	return out
}

// adjacent reports whether the token touches a letter on either side.
func (t token) adjacent(rs []rune) bool {
	if t.Start > 0 && unicode.IsLetter(rs[t.Start-1]) {
		return true
	}
	return t.End+1 < len(rs) && unicode.IsLetter(rs[t.End+1])
}

// scanInline removes bracket tokens from the line. It returns the lyric text
// and the anchors with absolute offsets into that text.
func scanInline(rs []rune) ([]rune, []Anchor) {
	text := make([]rune, 0, len(rs))
	var anchors []Anchor
	for i := 0; i < len(rs); i++ {
		if rs[i] == '[' {
			if j := closing(rs, i); j >= 0 {
				tok := string(rs[i+1 : j])
				anchors = append(anchors, newAnchor(len(text), tok, string(rs[i:j+1])))
				i = j
				continue
			}
		}
		text = append(text, rs[i])
	}
	return text, anchors
}

// field is a whitespace-separated piece of a line with its rune column.
type field struct {
	Col  int
	Text string
}

func fields(rs []rune) []field {
	var out []field
	start := -1
	for i, r := range rs {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, field{Col: start, Text: string(rs[start:i])})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, field{Col: start, Text: string(rs[start:])})
	}
	return out
}

// chordLine reports whether every field of the line is a chord, either bare
// ("Am") or bracketed ("[Am]"). Bare fields must be plausible chords so that
// lyric words such as "Glória" are not mistaken for G chords. The anchors
// carry the column of each field; bare reports whether no field used
// brackets.
func chordLine(rs []rune) (anchors []Anchor, bare bool, ok bool) {
	fs := fields(rs)
	if len(fs) == 0 {
		return nil, false, false
	}
	bare = true
	for _, f := range fs {
		tok := f.Text
		if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") && len(tok) > 2 {
			tok = tok[1 : len(tok)-1]
			bare = false
			if !chord.IsChord(tok) {
				return nil, false, false
			}
		} else if !chord.Plausible(tok) {
			return nil, false, false
		}
		anchors = append(anchors, newAnchor(f.Col, tok, f.Text))
	}
	return anchors, bare, true
}

// chordOnly reports whether the line holds chords and nothing else. Unlike
// chordLine it also accepts bracket tokens that fail to parse (they become
// literal anchors), as long as no lyric text remains outside the brackets.
// Anchor offsets are the columns where the tokens start.
func chordOnly(rs []rune) ([]Anchor, bool) {
	if anchors, _, ok := chordLine(rs); ok {
		return anchors, true
	}
	toks := bracketTokens(rs)
	if len(toks) == 0 {
		return nil, false
	}
	text, _ := scanInline(rs)
	if strings.TrimSpace(string(text)) != "" {
		return nil, false
	}
	anchors := make([]Anchor, len(toks))
	for i, t := range toks {
		anchors[i] = newAnchor(t.Start, t.Text, string(rs[t.Start:t.End+1]))
	}
	return anchors, true
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// splitRuns cuts a line into word runs and distributes the anchors, whose
// offsets are absolute, among them. A line with no text and no anchors has
// no runs.
func splitRuns(text []rune, anchors []Anchor) []Run {
	if len(text) == 0 {
		if len(anchors) == 0 {
			return nil
		}
		return []Run{{Text: "", Anchors: anchors}}
	}

	starts := []int{0}
	for p := 1; p < len(text); p++ {
		if !unicode.IsSpace(text[p]) && unicode.IsSpace(text[p-1]) {
			starts = append(starts, p)
		}
	}

	runs := make([]Run, len(starts))
	for i, s := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		runs[i].Text = string(text[s:end])
	}

	for _, a := range anchors {
		k := len(starts) - 1
		for k > 0 && starts[k] > a.Offset {
			k--
		}
		a.Offset -= starts[k]
		if a.Offset < 0 {
			a.Offset = 0
		}
		runs[k].Anchors = append(runs[k].Anchors, a)
	}
	return runs
}

// padTo extends text with spaces so that it is at least n runes long.
func padTo(text []rune, n int) []rune {
	for len(text) < n {
		text = append(text, ' ')
	}
	return text
}
