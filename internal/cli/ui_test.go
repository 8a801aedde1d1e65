package cli

import (
	"strings"
	"testing"

	"github.com/cantai/cifra/pkg/preview"
	"github.com/cantai/cifra/pkg/render"
	"github.com/cantai/cifra/pkg/sheet"
)

func TestStyleRows(t *testing.T) {
	doc := sheet.DetectAndParse("Intro:\n[C] [G]\n\nSanto, [Am]santo [Hmaj]")
	got := styleRows(render.Text(doc))
	want := render.PlainText(doc)
	// Without a color profile styling adds nothing, so the layout must
	// match the plain text exactly.
	if got != want {
		t.Errorf("styled rows:\n%q\nwant:\n%q", got, want)
	}
}

func TestPlural(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0 chords"},
		{1, "1 chord"},
		{12, "12 chords"},
	}
	for _, tt := range tests {
		if got := plural(tt.n, "chord"); got != tt.want {
			t.Errorf("plural(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatLines(t *testing.T) {
	if got := formatLines([]int{1, 3, 12}); got != "1, 3, 12" {
		t.Errorf("formatLines = %q", got)
	}
	if got := formatLines(nil); got != "" {
		t.Errorf("formatLines(nil) = %q", got)
	}
}

func TestSummaryTable(t *testing.T) {
	out := summaryTable(&preview.Summary{
		ByFormat: map[string]int{"inline": 3, "mixed": 1},
		Failed:   2,
	})
	for _, want := range []string{"Format", "inline", "3", "mixed", "failed", "2"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "above") {
		t.Errorf("formats with no songs should be left out:\n%s", out)
	}
}

func TestPrintHelpers(t *testing.T) {
	buf := captureStatus(t)
	printSuccess("Rendered %s", "Santo")
	printWarning("Lines %s may need review", "1, 3")
	printKeyValue("key", "D")
	printNextStep("Apply it with", "cifra transpose santo.md 2 -w")

	out := buf.String()
	for _, want := range []string{iconSuccess + " Rendered Santo", "Lines 1, 3 may need review", "key", "D", "Apply it with:", "cifra transpose"} {
		if !strings.Contains(out, want) {
			t.Errorf("status missing %q:\n%s", want, out)
		}
	}
}
