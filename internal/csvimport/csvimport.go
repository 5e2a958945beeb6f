// Package csvimport reads bank exports: semicolon separated, header first.
package csvimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"finanzbuch/internal/core"
)

// Delimiter separates cells.
const Delimiter = ';'

var (
	ErrEmpty         = errors.New("csv has no header row")
	ErrColumnMissing = errors.New("csv column out of range")
)

// Table is a parsed file. Rows excludes the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read parses r. Rows may have differing lengths.
func Read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// ReadFile opens and parses path.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ColumnIndex finds a header by name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	for i, h := range t.Header {
		if h == name {
			return i, true
		}
	}
	return 0, false
}

// Column parses every cell of column index as a signed monetary value.
// The first failing cell aborts with its row number, counting the header as row 1.
func (t *Table) Column(index int) ([]float64, error) {
	if index < 0 || index >= len(t.Header) {
		return nil, fmt.Errorf("%w: %d of %d", ErrColumnMissing, index, len(t.Header))
	}
	values := make([]float64, 0, len(t.Rows))
	for i, row := range t.Rows {
		if index >= len(row) {
			return nil, fmt.Errorf("row %d: %w: %d", i+2, ErrColumnMissing, index)
		}
		v, err := core.ParseMonetary(row[index], false)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		values = append(values, v)
	}
	return values, nil
}
