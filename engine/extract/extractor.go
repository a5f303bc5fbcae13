// Package extract normalizes document bytes into UTF-8 text plus format
// metadata. Each supported format is handled by one variant selected from a
// lookup table keyed by MIME type.
package extract

import (
	"context"
	"time"

	"github.com/compozy/docchunk/pkg/logger"
)

const DefaultMaxRows = 1000

// Options tunes extraction.
type Options struct {
	// MaxRows bounds the rendered data rows per sheet or CSV table.
	MaxRows int `json:"max_rows" yaml:"max_rows" mapstructure:"max_rows"`
	// StripHTML removes markup from text/html before it is returned.
	StripHTML bool `json:"strip_html" yaml:"strip_html" mapstructure:"strip_html"`
}

func DefaultOptions() Options {
	return Options{MaxRows: DefaultMaxRows}
}

// Document is the result of one extraction.
type Document struct {
	Text        string
	Metadata    Metadata
	ContentType string
	Format      Format
}

type formatExtractor interface {
	extract(ctx context.Context, data []byte, contentType string) (string, Metadata, error)
}

// Extractor dispatches to the variant for a content type. It is safe for
// concurrent use.
type Extractor struct {
	variants map[Format]formatExtractor
}

func New(opts Options) *Extractor {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	return &Extractor{
		variants: map[Format]formatExtractor{
			FormatPDF:         pdfExtractor{},
			FormatWord:        wordExtractor{},
			FormatSpreadsheet: &spreadsheetExtractor{maxRows: opts.MaxRows},
			FormatDelimited:   &delimitedExtractor{maxRows: opts.MaxRows},
			FormatText:        newTextExtractor(opts.StripHTML),
		},
	}
}

var defaultExtractor = New(DefaultOptions())

// Extract runs the default extractor.
func Extract(ctx context.Context, data []byte, contentTypeOrExt string) (*Document, error) {
	return defaultExtractor.Extract(ctx, data, contentTypeOrExt)
}

// Extract converts data to text. contentTypeOrExt is a MIME type or a file
// extension; unrecognized values are handled as generic text.
func (e *Extractor) Extract(ctx context.Context, data []byte, contentTypeOrExt string) (*Document, error) {
	contentType := canonicalType(contentTypeOrExt)
	format := FormatFor(contentType)
	log := logger.FromContext(ctx).With("format", format, "content_type", contentType)
	started := time.Now()
	text, meta, err := e.variants[format].extract(ctx, data, contentType)
	recordExtraction(ctx, format, time.Since(started), err)
	if err != nil {
		log.Debug("Extraction failed", "error", err)
		return nil, err
	}
	log.Debug("Extraction completed", "bytes", len(data), "text_length", len(text))
	return &Document{Text: text, Metadata: meta, ContentType: contentType, Format: format}, nil
}
