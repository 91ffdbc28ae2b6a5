package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/masonry/pkg/board"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - progress, highlights
	colorGreen  = lipgloss.Color("35")  // Green - success, cache hits
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - labels
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleHighlight marks transient state such as an in-flight fetch.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary text and the viewer status line.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for paths and measurements.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleWarning for warnings and viewer errors.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleLabel    = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand  = lipgloss.NewStyle().Foreground(colorBlue)
)

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

func printSuccess(format string, args ...any) {
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	fmt.Println(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Println("  " + StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a written output path.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Layout Summaries
// =============================================================================

// printStats prints the item count, column count and cache status of a run
// on one line.
func printStats(itemCount, columns int, cached bool) {
	fmt.Println(statsLine(itemCount, columns, cached))
}

func statsLine(itemCount, columns int, cached bool) string {
	var parts []string
	if itemCount > 0 {
		parts = append(parts, fmt.Sprintf("%d items", itemCount))
	}
	if columns > 0 {
		parts = append(parts, fmt.Sprintf("%d columns", columns))
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}
	parts = append(parts, status)
	return "  " + strings.Join(parts, StyleDim.Render(" · "))
}

// printBoard prints the geometry of a board as labeled rows.
func printBoard(b board.Board) {
	for _, row := range boardSummary(b) {
		printKeyValue(row[0], row[1])
	}
}

// boardSummary returns the label/value rows printBoard shows.
func boardSummary(b board.Board) [][2]string {
	return [][2]string{
		{"container", formatPx(b.Width)},
		{"columns", fmt.Sprintf("%d × %s", b.Columns, formatPx(b.ColumnWidth))},
		{"gap", formatPx(b.Gap)},
		{"track height", formatPx(b.Height)},
	}
}

// printKeyValue prints a labeled value indented under a status line.
func printKeyValue(key, value string) {
	fmt.Println("  " + styleLabel.Render(key) + StyleValue.Render(value))
}

// formatPx formats a length with at most two decimals.
func formatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + "px"
}

// printNextStep prints a suggested follow-up command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Println()
}
