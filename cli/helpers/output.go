package helpers

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/common-nighthawk/go-figure"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true)
	headStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
)

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// Title renders a section heading.
func Title(s string) string { return titleStyle.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// KeyValue is one labeled line of text output.
type KeyValue struct {
	Key   string
	Value any
}

// WriteKeyValues writes aligned "key: value" lines.
func WriteKeyValues(w io.Writer, pairs []KeyValue) error {
	width := 0
	for _, p := range pairs {
		width = max(width, len(p.Key))
	}
	for _, p := range pairs {
		label := labelStyle.Render(fmt.Sprintf("%-*s", width+1, p.Key+":"))
		if _, err := fmt.Fprintf(w, "%s %v\n", label, p.Value); err != nil {
			return err
		}
	}
	return nil
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}

var bannerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)

// Banner renders the product name as ASCII art.
func Banner() string {
	return bannerStyle.Render(figure.NewFigure("docchunk", "standard", true).String())
}

const previewRunes = 80

// Preview collapses whitespace and truncates s for a table cell.
func Preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= previewRunes {
		return s
	}
	return string(r[:previewRunes-1]) + "…"
}
