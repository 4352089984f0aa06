package core

// import_file.go reads uploaded .csv and .xlsx files into ImportRows.
//
// The first non-blank line is the header. Headers are matched against
// ImportColumns after lower-casing and turning spaces into underscores, so
// "Customer Name" and "customer_name" are the same column. Unknown columns
// are ignored and blank data lines are dropped.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ParseImportFile reads an import file, choosing the format by extension.
func ParseImportFile(filename string, r io.Reader) ([]ImportRow, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFile, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	return rowsFromRecords(records), nil
}

// readCSV strips a UTF-8 BOM and replaces invalid UTF-8 before parsing.
func readCSV(r io.Reader) ([][]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid csv: %w", err)
	}
	return records, nil
}

// readXLSX reads the first worksheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("invalid xlsx: workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	return rows, nil
}

// NormalizeHeader maps a header cell onto an import column name.
func NormalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.Trim(h, "\"'`")
	return strings.ReplaceAll(h, " ", "_")
}

func isBlankRecord(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// rowsFromRecords turns a header plus data records into ImportRows. A cell is
// present whenever its column exists in the header, even past the end of a
// short record.
func rowsFromRecords(records [][]string) []ImportRow {
	start := 0
	for start < len(records) && isBlankRecord(records[start]) {
		start++
	}
	if start >= len(records) {
		return nil
	}

	header := records[start]
	positions := make(map[string]int, len(header))
	for i, h := range header {
		name := NormalizeHeader(h)
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}

	var rows []ImportRow
	for _, rec := range records[start+1:] {
		if isBlankRecord(rec) {
			continue
		}
		var row ImportRow
		for _, col := range ImportColumns {
			pos, ok := positions[col]
			if !ok {
				continue
			}
			value := ""
			if pos < len(rec) {
				value = rec[pos]
			}
			*row.field(col) = Text(value)
		}
		rows = append(rows, row)
	}
	return rows
}
