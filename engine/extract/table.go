package extract

import (
	"strings"
	"text/tabwriter"
)

const truncationMarker = "... (truncated)"

// table accumulates a header and at most limit data rows while counting all rows.
type table struct {
	header    []string
	rows      [][]string
	total     int
	limit     int
	truncated bool
}

func newTable(limit int) *table {
	return &table{limit: limit}
}

// add appends the next record. The first record becomes the header.
func (t *table) add(record []string) {
	if t.header == nil {
		t.header = append([]string{}, record...)
		return
	}
	t.total++
	if t.limit > 0 && len(t.rows) >= t.limit {
		t.truncated = true
		return
	}
	t.rows = append(t.rows, append([]string{}, record...))
}

// render lays out the header and rows in aligned columns.
func (t *table) render() string {
	if t.header == nil {
		return ""
	}
	width := len(t.header)
	for _, row := range t.rows {
		width = max(width, len(row))
	}
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', 0)
	writeRow := func(cells []string) {
		for i := range width {
			if i > 0 {
				_, _ = w.Write([]byte{'\t'})
			}
			if i < len(cells) {
				_, _ = w.Write([]byte(cleanCell(cells[i])))
			}
		}
		_, _ = w.Write([]byte{'\n'})
	}
	writeRow(t.header)
	for _, row := range t.rows {
		writeRow(row)
	}
	_ = w.Flush()
	out := sb.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.Join(lines, "\n")
}

// cleanCell keeps a cell on one line so rows stay aligned.
func cleanCell(v string) string {
	return strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ").Replace(v)
}
