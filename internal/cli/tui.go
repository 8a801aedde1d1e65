package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cantai/cifra/pkg/chord"
	"github.com/cantai/cifra/pkg/preview"
	"github.com/cantai/cifra/pkg/render"
	"github.com/cantai/cifra/pkg/sheet"
	"github.com/cantai/cifra/pkg/transpose"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// headerLines is the space taken above and below the song viewport.
const headerLines = 5

// =============================================================================
// SongModel - Interactive key selection
// =============================================================================

// KeySelection is the transposition chosen in a SongModel.
type KeySelection struct {
	Interval int
	Spelling chord.Spelling
	Key      *chord.Note // nil when the song has no chords
}

// SongModel is the bubbletea model for browsing a song and picking a key.
// The parsed document is kept untransposed; every change re-applies the
// interval from the original chords.
type SongModel struct {
	Title    string
	Doc      sheet.Document
	Interval int // 0-11 semitones up
	Spelling chord.Spelling
	Selected *KeySelection

	key      chord.Note
	hasKey   bool
	viewport viewport.Model
}

// NewSongModel creates a song model starting at the document's own key.
func NewSongModel(title string, doc sheet.Document, sp chord.Spelling) SongModel {
	m := SongModel{
		Title:    title,
		Doc:      doc,
		Spelling: sp,
		viewport: viewport.New(80, 20),
	}
	m.key, m.hasKey = transpose.Key(doc)
	m.refresh()
	return m
}

func (m SongModel) Init() tea.Cmd {
	return nil
}

func (m SongModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l", "+":
			m.Interval = (m.Interval + 1) % 12
			m.refresh()
			return m, nil
		case "left", "h", "-":
			m.Interval = (m.Interval + 11) % 12
			m.refresh()
			return m, nil
		case "0":
			m.Interval = 0
			m.refresh()
			return m, nil
		case "s":
			if m.Spelling == chord.Sharp {
				m.Spelling = chord.Flat
			} else {
				m.Spelling = chord.Sharp
			}
			m.refresh()
			return m, nil
		case "enter":
			m.Selected = &KeySelection{Interval: m.Interval, Spelling: m.Spelling}
			if k, ok := m.CurrentKey(); ok {
				m.Selected.Key = &k
			}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerLines, 3)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// CurrentKey returns the key of the song at the current interval.
func (m SongModel) CurrentKey() (chord.Note, bool) {
	if !m.hasKey {
		return chord.Note{}, false
	}
	return m.key.Pitch().Add(m.Interval).Name(m.Spelling), true
}

// Signed returns the interval as the shortest move, -5 to +6.
func (m SongModel) Signed() int {
	return signedInterval(m.Interval)
}

func (m *SongModel) refresh() {
	doc := transpose.Apply(m.Doc, m.Interval, m.Spelling)
	m.viewport.SetContent(styleRows(render.Text(doc)))
}

func (m SongModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(m.keyLine())
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render("←/→ key  0 reset  s sharps/flats  ↑/↓ scroll  ⏎ select  q quit"))

	return b.String()
}

func (m SongModel) keyLine() string {
	shift := fmt.Sprintf("%+d", m.Signed())
	if m.Interval == 0 {
		shift = "original"
	}
	parts := []string{StyleDim.Render(shift), StyleDim.Render(m.Spelling.String())}
	if k, ok := m.CurrentKey(); ok {
		from := m.key.Pitch().Name(m.Spelling)
		key := StyleChord.Render(k.String())
		if m.Interval != 0 {
			key = StyleDim.Render(from.String()+" "+iconArrow+" ") + key
		}
		parts = append([]string{key}, parts...)
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func signedInterval(n int) int {
	n = ((n % 12) + 12) % 12
	if n > 6 {
		n -= 12
	}
	return n
}

// =============================================================================
// PreviewListModel - Interactive stored preview selection
// =============================================================================

// PreviewListModel is the bubbletea model for picking a stored preview.
type PreviewListModel struct {
	Records  []*preview.Record
	Cursor   int
	Selected *preview.Record
	Height   int
	Offset   int
}

// NewPreviewListModel creates a new preview list model.
func NewPreviewListModel(recs []*preview.Record) PreviewListModel {
	return PreviewListModel{
		Records: recs,
		Height:  15,
	}
}

func (m PreviewListModel) Init() tea.Cmd {
	return nil
}

func (m PreviewListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Records)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Records) == 0 {
				return m, nil
			}
			m.Selected = m.Records[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m PreviewListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Preview"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ open  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Records))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Records[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		title := r.Title
		if title == "" {
			title = r.ID[:8]
		}
		review := "—"
		if len(r.Ambiguous) > 0 {
			review = formatLines(r.Ambiguous)
		}
		rows = append(rows, []string{cursor, title, r.Artist, r.Format, review, formatRelativeTime(r.CreatedAt)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Title", "Artist", "Format", "Review", "Created").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Records) {
				return lipgloss.NewStyle()
			}
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case col == 4 && len(m.Records[idx].Ambiguous) > 0:
				return StyleWarning
			case col >= 3:
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Records))))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}
