package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const documentPart = "word/document.xml"

type wordExtractor struct{}

func (wordExtractor) extract(_ context.Context, data []byte, _ string) (string, Metadata, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", nil, extractionError(FormatWord, "open archive: %w", err)
	}
	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", nil, extractionError(FormatWord, "%s not found in archive", documentPart)
	}
	rc, err := part.Open()
	if err != nil {
		return "", nil, extractionError(FormatWord, "open %s: %w", documentPart, err)
	}
	defer rc.Close()
	paragraphs, err := readParagraphs(rc)
	if err != nil {
		return "", nil, extractionError(FormatWord, "parse %s: %w", documentPart, err)
	}
	return strings.TrimSpace(strings.Join(paragraphs, "\n")), WordMetadata{Paragraphs: len(paragraphs)}, nil
}

// readParagraphs returns the text of every w:p element in document order,
// including empty paragraphs and those inside tables.
func readParagraphs(r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		depth      int // nesting of w:p
		inText     bool
		sawBody    bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "body":
				sawBody = true
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth == 0 {
					continue
				}
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		}
	}
	if !sawBody {
		return nil, fmt.Errorf("document has no body")
	}
	return paragraphs, nil
}
