// Package tabular reads and writes the CSV tables the engine exchanges with
// the migration pipeline. Reading is forgiving: legacy exports carry mixed
// encodings, ragged rows, and sloppy quoting, so recoverable problems become
// warnings instead of errors. Writing is strict: every writer emits a fixed
// column order so repeated runs over the same inputs are byte-identical.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Warning is a recoverable problem found while reading a table. Row is
// 1-indexed with the header as row 1, matching what a spreadsheet shows.
type Warning struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Table is one parsed CSV file: rows keyed by trimmed header name, plus the
// warnings and the detected source encoding for the audit log.
type Table struct {
	Headers  []string
	Rows     []map[string]string
	Warnings []Warning
	Encoding string
}

// Parse reads CSV bytes into a Table. Ragged rows are padded or truncated to
// the header width with a warning; rows the csv reader rejects outright are
// skipped with a warning. A missing header row is the only fatal case. A
// table with zero data rows is valid; the evidence table is legitimately
// empty for a mirror with no event or gallery pages.
func Parse(data []byte) (*Table, error) {
	decoded, encoding := detectAndDecode(data)

	r := csv.NewReader(bytes.NewReader(decoded))
	// Ragged rows are handled here, not rejected by the reader.
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headers, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file: no header row")
		}
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	t := &Table{
		Headers:  headers,
		Encoding: encoding,
	}

	rowNum := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++

		if err != nil {
			t.Warnings = append(t.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("parse error: %v", err),
			})
			continue
		}

		switch {
		case len(row) < len(headers):
			t.Warnings = append(t.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; padding with empty values", len(row), len(headers)),
			})
			padded := make([]string, len(headers))
			copy(padded, row)
			row = padded
		case len(row) > len(headers):
			t.Warnings = append(t.Warnings, Warning{
				Row:     rowNum,
				Message: fmt.Sprintf("row has %d columns, expected %d; truncating extra columns", len(row), len(headers)),
			})
			row = row[:len(headers)]
		}

		record := make(map[string]string, len(headers))
		for i, h := range headers {
			record[h] = row[i]
		}
		t.Rows = append(t.Rows, record)
	}

	return t, nil
}

// ParseFile reads and parses the CSV file at path.
func ParseFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return t, nil
}
