package extract

import "slices"

// Metadata is the immutable structural description produced by one format.
type Metadata interface {
	// Fields returns a fresh map; callers may keep or modify it.
	Fields() map[string]any
}

type PDFMetadata struct {
	Pages int
}

func (m PDFMetadata) Fields() map[string]any {
	return map[string]any{"pages": m.Pages}
}

type WordMetadata struct {
	Paragraphs int
}

func (m WordMetadata) Fields() map[string]any {
	return map[string]any{"paragraphs": m.Paragraphs}
}

type SpreadsheetMetadata struct {
	Sheets    []string
	TotalRows int
	Truncated bool
}

func (m SpreadsheetMetadata) Fields() map[string]any {
	return map[string]any{
		"sheets":     slices.Clone(m.Sheets),
		"total_rows": m.TotalRows,
		"truncated":  m.Truncated,
	}
}

type DelimitedMetadata struct {
	Rows      int
	Columns   []string
	Truncated bool
}

func (m DelimitedMetadata) Fields() map[string]any {
	return map[string]any{
		"rows":      m.Rows,
		"columns":   slices.Clone(m.Columns),
		"truncated": m.Truncated,
	}
}

type TextMetadata struct {
	Encoding     string
	Confidence   float64
	Lines        int
	HTMLStripped bool
}

func (m TextMetadata) Fields() map[string]any {
	fields := map[string]any{
		"encoding":            m.Encoding,
		"encoding_confidence": m.Confidence,
		"lines":               m.Lines,
	}
	if m.HTMLStripped {
		fields["html_stripped"] = true
	}
	return fields
}
