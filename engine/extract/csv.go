package extract

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

type delimitedExtractor struct {
	maxRows int
}

func (x *delimitedExtractor) extract(_ context.Context, data []byte, _ string) (string, Metadata, error) {
	decoded, err := decodeText(data)
	if err != nil {
		return "", nil, err
	}
	r := csv.NewReader(bytes.NewReader([]byte(decoded.text)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.ReuseRecord = true
	tbl := newTable(x.maxRows)
	for line := 1; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", nil, &ExtractionError{Format: FormatDelimited, Err: err}
		}
		if tbl.header != nil && len(record) > len(tbl.header) {
			return "", nil, &ExtractionError{
				Format: FormatDelimited,
				Err:    fmt.Errorf("record %d has %d fields, header has %d", line, len(record), len(tbl.header)),
			}
		}
		tbl.add(record)
	}
	meta := DelimitedMetadata{Rows: tbl.total, Columns: tbl.header, Truncated: tbl.truncated}
	if meta.Columns == nil {
		meta.Columns = []string{}
	}
	text := tbl.render()
	if tbl.truncated {
		text += "\n" + truncationMarker
	}
	return text, meta, nil
}
