package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/sketchcanvas/pkg/canvas"
	"github.com/matzehuels/sketchcanvas/pkg/shape"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
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

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
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

	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
	styleNewRow      = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNewline prints an empty line.
func printNewline() {
	fmt.Println()
}

// =============================================================================
// Tables
// =============================================================================

// printShapeTable prints shapes one per row. Rows from index existing on are
// the newly generated ones and are highlighted.
func printShapeTable(shapes []shape.Shape, existing int) {
	fmt.Println(shapeTable(shapes, existing).Render())
}

func shapeTable(shapes []shape.Shape, existing int) *table.Table {
	rows := make([][]string, len(shapes))
	for i, s := range shapes {
		rows[i] = []string{fmt.Sprint(i + 1), string(s.Kind()), geometry(s), shapeColor(s)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("#", "Type", "Geometry", "Color").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return styleTableHeader
			case row >= existing:
				return styleNewRow
			default:
				return lipgloss.NewStyle()
			}
		})
}

// printCanvasTable prints saved canvases, most recently updated first.
func printCanvasTable(list []canvas.Summary, now time.Time) {
	rows := make([][]string, len(list))
	for i, c := range list {
		rows[i] = []string{c.ID, c.Name, formatRelativeTime(c.UpdatedAt, now)}
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("ID", "Name", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			if col != 1 {
				return StyleDim
			}
			return lipgloss.NewStyle()
		})
	fmt.Println(t.Render())
}

// geometry is a compact position and size summary for one shape.
func geometry(s shape.Shape) string {
	switch v := s.(type) {
	case shape.Circle:
		return fmt.Sprintf("(%g, %g) r=%g", v.X, v.Y, v.Radius)
	case shape.Arc:
		return fmt.Sprintf("(%g, %g) r=%g", v.X, v.Y, v.Radius)
	case shape.Rectangle:
		return fmt.Sprintf("(%g, %g) %gx%g", v.X, v.Y, v.Width, v.Height)
	case shape.Line:
		return fmt.Sprintf("(%g, %g) → (%g, %g)", v.X1, v.Y1, v.X2, v.Y2)
	case shape.Ellipse:
		return fmt.Sprintf("(%g, %g) rx=%g ry=%g", v.CX, v.CY, v.RX, v.RY)
	case shape.Polygon:
		return fmt.Sprintf("%d points", len(v.Points))
	default:
		return ""
	}
}

func shapeColor(s shape.Shape) string {
	switch v := s.(type) {
	case shape.Circle:
		return v.Color
	case shape.Arc:
		return v.Color
	case shape.Rectangle:
		return v.Color
	case shape.Line:
		return v.Color
	case shape.Ellipse:
		return v.Color
	case shape.Polygon:
		return v.Color
	default:
		return ""
	}
}
