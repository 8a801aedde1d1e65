package sheet

// Detection is the result of [Analyze].
type Detection struct {
	Format Format `json:"format"`

	// Directive is true when a leading "#mic#" line forced Inline.
	Directive bool `json:"directive,omitempty"`

	// Ambiguous lists 1-based line numbers worth a manual review: section
	// headers and chord-only lines inside a document detected as Inline,
	// where the inline rule won over the other notations.
	Ambiguous []int `json:"ambiguous,omitempty"`
}

// Detect classifies text into a notation style. It is pure and never fails;
// empty input is Above.
func Detect(text string) Format {
	return Analyze(text).Format
}

// Analyze classifies text like [Detect] and also reports ambiguous lines.
//
// The rules, in order: a leading "#mic#" directive forces Inline; any
// bracket token touching a letter makes the document Inline; any section
// header line makes it Mixed; everything else is Above.
func Analyze(text string) Detection {
	lines := splitLines(text)
	if len(lines) > 0 && isDirective(lines[0]) {
		return Detection{Format: Inline, Directive: true}
	}

	var (
		inline   bool
		sections bool
		review   []int
	)
	for i, l := range lines {
		if IsSectionHeader(l) {
			sections = true
			review = append(review, i+1)
			continue
		}
		rs := []rune(l)
		toks := bracketTokens(rs)
		for _, t := range toks {
			if t.adjacent(rs) {
				inline = true
				break
			}
		}
		if _, ok := chordOnly(rs); ok {
			review = append(review, i+1)
		}
	}

	switch {
	case inline:
		return Detection{Format: Inline, Ambiguous: review}
	case sections:
		return Detection{Format: Mixed}
	}
	return Detection{Format: Above}
}
