package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cantai/cifra/pkg/pipeline"
	"github.com/cantai/cifra/pkg/preview"
	"github.com/cantai/cifra/pkg/render"
)

// statusOut receives status lines. Rendered songs go to the command's
// stdout, so status goes to stderr.
var statusOut io.Writer = os.Stderr

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings, chords
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	// StyleChord for chord names in terminal renderings.
	StyleChord = lipgloss.NewStyle().Bold(true).Foreground(colorYellow)

	// StyleSection for instrumental section labels.
	StyleSection = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleLiteral  = lipgloss.NewStyle().Foreground(colorGray).Italic(true)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Fprintln(statusOut, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(statusOut, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(statusOut, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Stats Display
// =============================================================================

// printStats prints render statistics on a single line.
func printStats(res *pipeline.Result) {
	parts := []string{
		res.Document.Format.String(),
		plural(res.Stats.Lines, "line"),
		plural(res.Stats.Chords, "chord"),
	}
	if res.Interval != 0 {
		parts = append(parts, fmt.Sprintf("%+d", res.Interval))
	}
	if res.Stats.Literals > 0 {
		parts = append(parts, plural(res.Stats.Literals, "literal"))
	}

	status := iconFresh
	statusStyle := styleComputed
	if res.CacheInfo.ArtifactHit {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	line += StyleDim.Render(" · ") + statusStyle.Render(status)
	fmt.Fprintln(statusOut, line)
}

// formatLines lists 1-based line numbers for display.
func formatLines(lines []int) string {
	s := make([]string, len(lines))
	for i, n := range lines {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}

// =============================================================================
// Tables
// =============================================================================

var (
	tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	tableCellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle.Padding(0, 1)
			}
			return tableCellStyle
		})
}

// summaryTable renders an import summary, one row per format plus failures.
func summaryTable(sum *preview.Summary) string {
	t := newTable("Format", "Songs")
	for _, f := range []string{"inline", "above", "mixed"} {
		if n := sum.ByFormat[f]; n > 0 {
			t.Row(f, strconv.Itoa(n))
		}
	}
	if sum.Failed > 0 {
		t.Row(StyleWarning.Render("failed"), strconv.Itoa(sum.Failed))
	}
	return t.Render()
}

// previewTable lists stored previews.
func previewTable(recs []*preview.Record) string {
	t := newTable("ID", "Title", "Format", "Review", "Created")
	for _, r := range recs {
		review := "-"
		if len(r.Ambiguous) > 0 {
			review = formatLines(r.Ambiguous)
		}
		t.Row(r.ID[:8], r.Title, r.Format, review, r.CreatedAt.Local().Format("Jan 2 15:04"))
	}
	return t.Render()
}

// =============================================================================
// Song Display
// =============================================================================

// styleRows colors text rows for the terminal: chords and section labels
// are highlighted, literal annotations dimmed.
func styleRows(rows []render.TextRow) string {
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch r.Kind {
		case render.RowChord:
			b.WriteString(styleChordRow(r))
		case render.RowSection:
			b.WriteString(StyleSection.Render(r.Text))
		default:
			b.WriteString(r.Text)
		}
	}
	return b.String()
}

// styleChordRow rebuilds a chord row span by span so each chord can be
// styled without disturbing the column layout.
func styleChordRow(r render.TextRow) string {
	if len(r.Spans) == 0 {
		return StyleChord.Render(r.Text)
	}
	var b strings.Builder
	col := 0
	for _, s := range r.Spans {
		if s.Col > col {
			b.WriteString(strings.Repeat(" ", s.Col-col))
			col = s.Col
		}
		if s.Literal {
			b.WriteString(styleLiteral.Render(s.Label))
		} else {
			b.WriteString(StyleChord.Render(s.Label))
		}
		col += utf8.RuneCountInString(s.Label)
	}
	return b.String()
}
