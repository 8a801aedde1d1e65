package render_test

import (
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/net/html"

	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/render"
	"github.com/cantai/cifra/pkg/sheet"
	"github.com/cantai/cifra/pkg/transpose"
)

func TestHTMLInline(t *testing.T) {
	got := render.HTML(sheet.DetectAndParse("[C]Santo, [Am]santo"))
	want := `<div class="chord-sheet chord-sheet-inline">` + "\n" +
		`<div class="line">` +
		`<span class="chord-word"><span class="chord">C</span>Santo, </span>` +
		`<span class="chord-word"><span class="chord">Am</span>santo</span>` +
		`</div>` + "\n" +
		`</div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLTransposed(t *testing.T) {
	doc := transpose.Apply(sheet.DetectAndParse("[C]Santo, [Am]santo"), 2, chord.Flat)
	got := render.HTML(doc)
	for _, want := range []string{
		`<span class="chord">D</span>Santo, `,
		`<span class="chord">Bm</span>santo`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML missing %q:\n%s", want, got)
		}
	}
}

func TestHTMLAbove(t *testing.T) {
	got := render.HTML(sheet.DetectAndParse("C        Am\nSanto    santo"))
	want := `<div class="chord-sheet chord-sheet-above chord-above">` + "\n" +
		`<div class="chord-line"><span class="chord">C</span>` + strings.Repeat("&nbsp;", 8) +
		`<span class="chord">Am</span></div>` + "\n" +
		`<div class="lyric-line">Santo&nbsp;&nbsp;&nbsp;&nbsp;santo</div>` + "\n" +
		`</div>`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("HTML mismatch (-want +got):\n%s", diff)
	}
}

func TestHTMLAboveChordOnlyAndPlainLines(t *testing.T) {
	got := render.HTML(sheet.Parse("C G\n\nSanto", sheet.Above))
	if strings.Count(got, `class="chord-line"`) != 1 {
		t.Errorf("want one chord line:\n%s", got)
	}
	if strings.Count(got, `class="lyric-line"`) != 1 {
		t.Errorf("want one lyric line:\n%s", got)
	}
	if !strings.Contains(got, `<div class="line line-blank"></div>`) {
		t.Errorf("missing blank line:\n%s", got)
	}
}

func TestHTMLAboveOverlap(t *testing.T) {
	doc := transpose.Apply(sheet.Parse("C G\nSanto", sheet.Above), 1, chord.Flat)
	got := render.HTML(doc)
	want := `<span class="chord">Db</span>&nbsp;<span class="chord">Ab</span>`
	if !strings.Contains(got, want) {
		t.Errorf("HTML missing %q:\n%s", want, got)
	}
}

func TestHTMLMixed(t *testing.T) {
	doc := sheet.DetectAndParse("Intro:\n[C] [G] [Am] [F]\n\nSanto santo")
	got := render.HTML(doc)
	gap := "&nbsp;&nbsp;&nbsp;"
	for _, want := range []string{
		`<div class="chord-sheet chord-sheet-mixed">`,
		`<div class="section instrumental"><div class="section-label">Intro</div>` +
			`<div class="section-chords"><div class="section-bar">` +
			`<span class="chord">C</span>` + gap + `<span class="chord">G</span>` + gap +
			`<span class="chord">Am</span>` + gap + `<span class="chord">F</span>` +
			`</div></div></div>`,
		`<div class="line line-blank"></div>`,
		`<div class="line">Santo santo</div>`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("HTML missing %q:\n%s", want, got)
		}
	}
}

func TestHTMLLiteralFallback(t *testing.T) {
	got := render.HTML(sheet.DetectAndParse("[Hmaj]Santo"))
	if !strings.Contains(got, "[Hmaj]Santo") {
		t.Errorf("literal not emitted verbatim:\n%s", got)
	}
	if strings.Contains(got, `<span class="chord">[Hmaj]`) || strings.Contains(got, `<span class="chord">Hmaj`) {
		t.Errorf("literal styled as chord:\n%s", got)
	}
}

func TestHTMLEmpty(t *testing.T) {
	for _, f := range []sheet.Format{sheet.Above, sheet.Inline, sheet.Mixed} {
		if got := render.HTML(sheet.Parse("", f)); got != "" {
			t.Errorf("HTML(empty %v) = %q, want empty", f, got)
		}
	}
}

func TestHTMLEscapes(t *testing.T) {
	doc := sheet.Parse(`[C]<script>alert("x")</script> & [C<b>]co`, sheet.Inline)
	got := render.HTML(doc)
	if strings.Contains(got, "<script>") || strings.Contains(got, "<b>") {
		t.Errorf("unescaped markup:\n%s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") || !strings.Contains(got, "&amp;") {
		t.Errorf("missing escaped text:\n%s", got)
	}
	if strings.Contains(got, "style=") {
		t.Errorf("inline style emitted:\n%s", got)
	}
}

func TestHTMLDeterministic(t *testing.T) {
	doc := sheet.DetectAndParse("Intro\n[C] [G]\n\n[D/F#]Glória a [Em]Deus")
	first := render.HTML(doc)
	for i := 0; i < 5; i++ {
		if got := render.HTML(doc); got != first {
			t.Fatalf("render %d differs", i)
		}
	}
}

func TestHTMLClampHook(t *testing.T) {
	c := chord.MustParse("C")
	doc := sheet.Document{
		Format: sheet.Inline,
		Lines: []sheet.Line{{
			Runs: []sheet.Run{{Text: "Santo", Anchors: []sheet.Anchor{{Offset: 10, Chord: &c, Original: &c}}}},
		}},
	}
	var clamps []render.Clamp
	got := render.HTML(doc, render.WithClampHook(func(cl render.Clamp) {
		clamps = append(clamps, cl)
	}))
	want := []render.Clamp{{Line: 1, Run: 0, Offset: 10, Len: 5, Label: "C"}}
	if diff := cmp.Diff(want, clamps); diff != "" {
		t.Errorf("clamps mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(got, `Santo<span class="chord">C</span>`) {
		t.Errorf("clamped chord not at end of run:\n%s", got)
	}
}

// visibleLines returns the text of every line and lyric-line element with
// chord spans removed.
func visibleLines(t *testing.T, fragment string) []string {
	t.Helper()
	z := html.NewTokenizer(strings.NewReader(fragment))
	var (
		stack [][]string
		lines []string
		cur   strings.Builder
	)
	inside := func(class string) bool {
		for _, cls := range stack {
			if slices.Contains(cls, class) {
				return true
			}
		}
		return false
	}
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				t.Fatalf("tokenize: %v", z.Err())
			}
			return lines
		case html.StartTagToken:
			var class []string
			for {
				key, val, more := z.TagAttr()
				if string(key) == "class" {
					class = strings.Fields(string(val))
				}
				if !more {
					break
				}
			}
			stack = append(stack, class)
		case html.EndTagToken:
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if slices.Contains(top, "line") || slices.Contains(top, "lyric-line") {
				lines = append(lines, cur.String())
				cur.Reset()
			}
		case html.TextToken:
			if inside("chord") {
				continue
			}
			if inside("line") || inside("lyric-line") {
				cur.WriteString(strings.ReplaceAll(string(z.Text()), "\u00a0", " "))
			}
		}
	}
}

func TestHTMLPreservesLyricText(t *testing.T) {
	texts := []string{
		"[C]Santo, [Am]santo\n\n  [G]é o  Senhor",
		"Gló[G]ria a [D/F#]Deus <nas> alturas & [Em]paz",
		"C        Am\nSanto    santo\nDeus forte",
		"Intro:\n[C] [G] [Am] [F]\n\nSanto santo\nG     D\nHosana nas alturas",
	}
	for _, text := range texts {
		doc := sheet.DetectAndParse(text)
		var want []string
		for _, l := range doc.Lines {
			if l.Kind == sheet.LineSection || (l.HasChords() && strings.TrimSpace(l.Text()) == "") {
				continue
			}
			want = append(want, l.Text())
		}
		for _, n := range []int{0, 1, 5, 11} {
			got := visibleLines(t, render.HTML(transpose.Apply(doc, n, chord.Sharp)))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("%q +%d: lyric text mismatch (-want +got):\n%s", text, n, diff)
			}
		}
	}
}
