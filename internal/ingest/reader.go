package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a raw input sheet with normalized column names.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string

	index map[string]int
}

// NewTable normalizes header names and resolves known aliases. Alias columns are
// only renamed when the canonical name is not already present.
func NewTable(name string, header []string, rows [][]string) *Table {
	t := &Table{Name: name, Rows: rows, index: make(map[string]int, len(header))}

	t.Header = make([]string, len(header))
	for i, col := range header {
		t.Header[i] = normalizeColumnName(col)
	}
	for i, col := range t.Header {
		if _, ok := t.index[col]; !ok {
			t.index[col] = i
		}
	}
	for _, a := range columnAliases {
		if _, ok := t.index[a.canonical]; ok {
			continue
		}
		if i, ok := t.index[a.alias]; ok {
			t.index[a.canonical] = i
			t.Header[i] = a.canonical
		}
	}

	return t
}

// Has reports whether the table carries the column.
func (t *Table) Has(column string) bool {
	_, ok := t.index[column]
	return ok
}

// Require returns a MissingColumnError for the first absent column.
func (t *Table) Require(columns ...string) error {
	for _, col := range columns {
		if !t.Has(col) {
			return missingColumn(t, col)
		}
	}
	return nil
}

// Value returns the trimmed cell of a row, or "" when the row is short or the
// column is absent.
func (t *Table) Value(row []string, column string) string {
	i, ok := t.index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var columnNameReplacer = strings.NewReplacer(" ", "_", "-", "_")

func normalizeColumnName(col string) string {
	col = strings.TrimPrefix(col, "\ufeff")
	col = strings.ToLower(strings.TrimSpace(col))
	return columnNameReplacer.Replace(col)
}

// ReadFile loads a CSV or XLSX file. XLSX files are read from their first sheet.
func ReadFile(path string) (*Table, error) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(name, path)
	case ".csv", "":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		return ReadCSV(name, f)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", path)
	}
}

// ReadCSV loads a table from CSV content. Blank lines are skipped.
func ReadCSV(name string, r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: empty file", name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read CSV header: %w", name, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read CSV row: %w", name, err)
		}
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return NewTable(name, header, rows), nil
}

func readXLSX(name, path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx file %s has no sheets", path)
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: empty sheet", name)
	}

	rows := make([][]string, 0, len(records)-1)
	for _, record := range records[1:] {
		if isBlank(record) {
			continue
		}
		rows = append(rows, record)
	}

	return NewTable(name, records[0], rows), nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
