package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// CanvasListModel - Interactive canvas selection
// =============================================================================

// CanvasListModel is the bubbletea model for picking a saved canvas.
type CanvasListModel struct {
	Canvases []canvas.Summary
	Cursor   int
	Selected *canvas.Summary
	Height   int
	Offset   int
}

// NewCanvasListModel creates a new canvas list model.
func NewCanvasListModel(canvases []canvas.Summary) CanvasListModel {
	return CanvasListModel{
		Canvases: canvases,
		Height:   15,
	}
}

func (m CanvasListModel) Init() tea.Cmd {
	return nil
}

func (m CanvasListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Canvases)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Canvases) == 0 {
				return m, tea.Quit
			}
			sel := m.Canvases[m.Cursor]
			m.Selected = &sel
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m CanvasListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Canvas"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	if len(m.Canvases) == 0 {
		b.WriteString(listDimStyle.Render("  no saved canvases"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Canvases))
	rows := make([][]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		c := m.Canvases[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, c.Name, shortID(c.ID), formatRelativeTime(c.UpdatedAt, time.Now())})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Canvas", "ID", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			if col >= 2 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Canvases))))

	return b.String()
}

// pickCanvas runs the picker and returns the chosen canvas, or nil if the
// user quit without choosing.
func pickCanvas(canvases []canvas.Summary) (*canvas.Summary, error) {
	final, err := tea.NewProgram(NewCanvasListModel(canvases)).Run()
	if err != nil {
		return nil, err
	}
	return final.(CanvasListModel).Selected, nil
}

// =============================================================================
// Helpers
// =============================================================================

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "—"
	}
	diff := now.Sub(t)

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
