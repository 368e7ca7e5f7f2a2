package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	styleWarning = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	styleBold    = lipgloss.NewStyle().Bold(true)
)

func writeLine(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func renderTitle(msg string) string   { return styleTitle.Render(msg) }
func renderMuted(msg string) string   { return styleMuted.Render(msg) }
func renderWarning(msg string) string { return styleWarning.Render(msg) }
func renderSuccess(msg string) string { return styleSuccess.Render(msg) }

// renderRow pads or truncates each cell to its column width.
func renderRow(widths []int, cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		width := widths[i]
		if len(cell) > width {
			if width > 3 {
				cell = cell[:width-3] + "..."
			} else {
				cell = cell[:width]
			}
		}
		parts[i] = fmt.Sprintf("%-*s", width, cell)
	}
	return strings.TrimRight(strings.Join(parts, "  "), " ")
}

// renderHeader renders a bold table header row.
func renderHeader(widths []int, titles []string) string {
	return styleBold.Render(renderRow(widths, titles))
}
