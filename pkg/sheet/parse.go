package sheet

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// directive is the leading line that forces inline parsing.
const directive = "#mic#"

// splitLines normalizes text to NFC and splits it into lines, dropping a
// trailing '\r' from each and the empty line after a final newline.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = norm.NFC.String(text)
	lines := strings.Split(text, "\n")
	if len(lines) > 1 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func isDirective(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), directive)
}

// Parse builds a Document from text using the given format. It never fails;
// see the package documentation for how malformed input degrades.
func Parse(text string, format Format) Document {
	doc := Document{Format: format, FinalNewline: strings.HasSuffix(text, "\n")}
	lines := splitLines(text)
	if len(lines) > 0 && isDirective(lines[0]) {
		doc.Directive = true
		lines = lines[1:]
	}

	switch format {
	case Inline:
		doc.Lines = parseInline(lines)
	case Mixed:
		doc.Lines = parseMixed(lines)
	default:
		doc.Lines = parseAbove(lines)
	}
	return doc
}

// DetectAndParse detects the format of text and parses it.
func DetectAndParse(text string) Document {
	return Parse(text, Detect(text))
}

func parseInline(lines []string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, inlineLine([]rune(l)))
	}
	return out
}

func inlineLine(rs []rune) Line {
	text, anchors := scanInline(rs)
	return Line{Kind: LineLyric, Runs: splitRuns(text, anchors)}
}

func plainLine(s string) Line {
	return Line{Kind: LineLyric, Runs: splitRuns([]rune(s), nil)}
}

// mergeColumns anchors chord-line chords onto lyric by column, padding the
// lyric with spaces when a chord sits past its end.
func mergeColumns(chords []Anchor, lyric []rune) Line {
	text := append([]rune(nil), lyric...)
	for _, a := range chords {
		text = padTo(text, a.Offset)
	}
	return Line{Kind: LineLyric, Runs: splitRuns(text, chords), Columns: true}
}

// lyricFollows reports whether lines[i] exists and is a lyric line that a
// chord line above it can annotate.
func lyricFollows(lines []string, i int, sections bool) bool {
	if i >= len(lines) || isBlank(lines[i]) {
		return false
	}
	if sections && IsSectionHeader(lines[i]) {
		return false
	}
	_, _, isChords := chordLine([]rune(lines[i]))
	return !isChords
}

func parseAbove(lines []string) []Line {
	out := make([]Line, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		rs := []rune(lines[i])
		chords, _, ok := chordLine(rs)
		if !ok {
			out = append(out, plainLine(lines[i]))
			continue
		}
		if lyricFollows(lines, i+1, false) {
			out = append(out, mergeColumns(chords, []rune(lines[i+1])))
			i++
			continue
		}
		out = append(out, mergeColumns(chords, nil))
	}
	return out
}

func parseMixed(lines []string) []Line {
	out := make([]Line, 0, len(lines))
	for i := 0; i < len(lines); i++ {
		if kw, label, ok := SectionKeyword(lines[i]); ok {
			sec := &Section{Label: label, Keyword: kw}
			for i+1 < len(lines) && !isBlank(lines[i+1]) {
				bar, ok := chordOnly([]rune(lines[i+1]))
				if !ok {
					break
				}
				sec.Bars = append(sec.Bars, bar)
				i++
			}
			out = append(out, Line{Kind: LineSection, Section: sec})
			continue
		}

		rs := []rune(lines[i])
		if chords, bare, ok := chordLine(rs); ok && bare && lyricFollows(lines, i+1, true) {
			out = append(out, mergeColumns(chords, []rune(lines[i+1])))
			i++
			continue
		}
		out = append(out, inlineLine(rs))
	}
	return out
}
