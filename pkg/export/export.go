// Package export renders tabular data as CSV or XLSX downloads.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"

	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]interface{}
}

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func Render(t Table, format, baseName string, now time.Time) (*File, error) {
	name := fmt.Sprintf("%s_%s.%s", baseName, now.Format("2006-01-02"), format)
	switch format {
	case FormatCSV:
		data, err := CSV(t)
		if err != nil {
			return nil, err
		}
		return &File{Name: name, ContentType: ContentTypeCSV, Data: data}, nil
	case FormatXLSX:
		data, err := XLSX(t)
		if err != nil {
			return nil, err
		}
		return &File{Name: name, ContentType: ContentTypeXLSX, Data: data}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

func CSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	record := make([]string, len(t.Headers))
	for _, row := range t.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) && row[i] != nil {
				record[i] = cellString(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func cellString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprint(val)
	}
}

func XLSX(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = "Sheet1"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		headers[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return nil, err
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}

	for i, row := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
