package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnknownFormat is returned for a --format value other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#7D56F4", Dark: "#BD93F9"})
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	valueStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#FFFFFF"})
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#F1FA8C"})
)

// textRenderer is implemented by reports that have a human-readable form.
type textRenderer interface {
	renderText() string
}

// writeOut prints v in the app's format. Text mode uses v's renderText when it has one.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	w := cmd.OutOrStdout()
	switch app.Format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		if r, ok := v.(textRenderer); ok {
			_, err := io.WriteString(w, r.renderText()+"\n")
			return err
		}
		_, err := fmt.Fprintf(w, "%v\n", v)
		return err
	}
}

// field renders one "label value" line.
func field(label string, value any) string {
	return labelStyle.Render(fmt.Sprintf("%-10s", label)) + " " + valueStyle.Render(fmt.Sprint(value))
}

// columns renders rows with each column padded to its widest cell.
func columns(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	pad := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	lines := []string{labelStyle.Render(pad(header))}
	for _, row := range rows {
		lines = append(lines, pad(row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
