// Package style provides consistent terminal styling using Lipgloss.
package style

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Bold is used for titles and table headers.
	Bold = lipgloss.NewStyle().Bold(true)

	// Dim is used for separators, hints and unselected choices.
	Dim = lipgloss.NewStyle().Faint(true)

	// Success marks a saved score.
	Success = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a7f37", Dark: "#3fb950"})

	// Warning marks notices about the score file.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"})

	// Error marks failures.
	Error = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#cf222e", Dark: "#f85149"}).Bold(true)

	// Info marks neutral status lines.
	Info = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0969da", Dark: "#58a6ff"})

	// Selected highlights the active choice in a question.
	Selected = lipgloss.NewStyle().Reverse(true).Bold(true)

	// Box frames a notice.
	Box = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.AdaptiveColor{Light: "#9a6700", Dark: "#d29922"}).
		Padding(0, 1)
)

// Out is where the Print helpers write.
var Out io.Writer = os.Stderr

// PrintWarning prints a formatted warning line.
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(Out, Warning.Render("⚠ "+fmt.Sprintf(format, args...))) //nolint:errcheck // terminal output
}

// PrintError prints a formatted error line.
func PrintError(format string, args ...any) {
	fmt.Fprintln(Out, Error.Render("✗ "+fmt.Sprintf(format, args...))) //nolint:errcheck // terminal output
}

// PrintSuccess prints a formatted success line.
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Out, Success.Render("✓ "+fmt.Sprintf(format, args...))) //nolint:errcheck // terminal output
}
