package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var oleSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

type spreadsheetExtractor struct {
	maxRows int
}

type sheet struct {
	name  string
	table *table
}

func (x *spreadsheetExtractor) extract(_ context.Context, data []byte, _ string) (string, Metadata, error) {
	var (
		sheets []sheet
		err    error
	)
	if bytes.HasPrefix(data, oleSignature) {
		sheets, err = x.readXLS(data)
	} else {
		sheets, err = x.readXLSX(data)
	}
	if err != nil {
		return "", nil, &ExtractionError{Format: FormatSpreadsheet, Err: err}
	}
	var sb strings.Builder
	meta := SpreadsheetMetadata{Sheets: make([]string, 0, len(sheets))}
	for _, s := range sheets {
		fmt.Fprintf(&sb, "\n--- Sheet: %s ---\n", s.name)
		if rendered := s.table.render(); rendered != "" {
			sb.WriteString(rendered)
			sb.WriteByte('\n')
		}
		if s.table.truncated {
			sb.WriteString(truncationMarker + "\n")
			meta.Truncated = true
		}
		meta.Sheets = append(meta.Sheets, s.name)
		meta.TotalRows += s.table.total
	}
	return strings.TrimSpace(sb.String()), meta, nil
}

func (x *spreadsheetExtractor) readXLSX(data []byte) ([]sheet, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	var out []sheet
	for _, name := range f.GetSheetList() {
		rows, err := f.Rows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		tbl := newTable(x.maxRows)
		for rows.Next() {
			cols, err := rows.Columns()
			if err != nil {
				_ = rows.Close()
				return nil, fmt.Errorf("read sheet %q: %w", name, err)
			}
			tbl.add(cols)
		}
		if err := rows.Close(); err != nil {
			return nil, fmt.Errorf("close sheet %q: %w", name, err)
		}
		out = append(out, sheet{name: name, table: tbl})
	}
	return out, nil
}

func (x *spreadsheetExtractor) readXLS(data []byte) (out []sheet, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("malformed workbook: %v", r)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	for i := range wb.NumSheets() {
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		tbl := newTable(x.maxRows)
		for r := 0; r <= int(ws.MaxRow); r++ {
			row := ws.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			tbl.add(cells)
		}
		out = append(out, sheet{name: ws.Name, table: tbl})
	}
	return out, nil
}
