package batterycsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrEmptyFile is returned when the file has no header row.
var ErrEmptyFile = errors.New("batterycsv: file has no header")

// Row is one data line keyed by column name.
type Row struct {
	Line   int
	Fields map[string]string
}

// Table is a decoded battery data file.
type Table struct {
	Columns []string
	Rows    []Row
}

// Has reports whether the column is present in the header.
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Missing returns the columns from want that are absent from the header, in order.
func (t *Table) Missing(want ...string) []string {
	var missing []string
	for _, c := range want {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// ReadTable decodes a delimited file with a header row. Rows shorter than the header are
// padded with empty cells; rows longer than the header are an error.
func ReadTable(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("batterycsv: read header: %w", err)
	}

	columns := make([]string, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		columns[i] = name
	}

	table := &Table{Columns: columns}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("batterycsv: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if len(record) > len(columns) {
			return nil, fmt.Errorf("batterycsv: line %d: expected %d fields, saw %d", line, len(columns), len(record))
		}

		fields := make(map[string]string, len(columns))
		for i, c := range columns {
			if i < len(record) {
				fields[c] = strings.TrimSpace(record[i])
			} else {
				fields[c] = ""
			}
		}
		table.Rows = append(table.Rows, Row{Line: line, Fields: fields})
	}

	return table, nil
}

// ReadFile opens path and decodes it with ReadTable.
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadTable(file)
}
