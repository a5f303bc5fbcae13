package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/compozy/docchunk/pkg/logger"
	"github.com/ledongthuc/pdf"
)

type pdfExtractor struct{}

func (pdfExtractor) extract(ctx context.Context, data []byte, _ string) (text string, meta Metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, meta, err = "", nil, extractionError(FormatPDF, "malformed document: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, &ExtractionError{Format: FormatPDF, Err: err}
	}
	log := logger.FromContext(ctx)
	pages := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		fmt.Fprintf(&sb, "\n--- Page %d ---\n%s\n", i, pageText(log, reader, i))
	}
	return strings.TrimSpace(sb.String()), PDFMetadata{Pages: pages}, nil
}

// pageText returns the plain text of page n, or "" when the page has no
// content or its text cannot be decoded.
func pageText(log logger.Logger, reader *pdf.Reader, n int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			log.Warn("Failed to extract PDF page text", "page", n, "error", r)
			text = ""
		}
	}()
	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		log.Warn("Failed to extract PDF page text", "page", n, "error", err)
		return ""
	}
	return text
}
