package grid

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

const (
	Comma = ','
	Tab   = '\t'
)

var ErrUnsupportedFormat = errors.New("unsupported format")

// DelimiterFor returns the delimiter for a .csv or .tsv file name or a bare
// format name ("csv", "tsv").
func DelimiterFor(name string) (rune, error) {
	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if format == "" {
		format = strings.ToLower(name)
	}
	switch format {
	case "csv":
		return Comma, nil
	case "tsv":
		return Tab, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
}

// ParseDelimited reads delimited text whose first record is the header.
// Spaces after a delimiter are ignored, blank lines are skipped, and records
// whose width differs from the header are dropped. At least one data row is
// required, and header names must be unique ignoring case.
func ParseDelimited(r io.Reader, delim rune) (Grid, error) {
	reader := csv.NewReader(r)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = delim != Tab
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return Grid{}, ErrNoData
	}
	if err != nil {
		return Grid{}, fmt.Errorf("failed to read header: %w", err)
	}
	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		key := strings.ToLower(columns[i])
		if seen[key] {
			return Grid{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, columns[i])
		}
		seen[key] = true
	}

	rows := make([]Row, 0)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Grid{}, fmt.Errorf("failed to read record: %w", err)
		}
		if len(record) != len(columns) {
			continue
		}
		row := make(Row, len(columns))
		for i, c := range columns {
			row[c] = record[i]
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return Grid{}, ErrNoData
	}
	return Grid{Columns: columns, Rows: rows}, nil
}

// ParseString is ParseDelimited over a string.
func ParseString(text string, delim rune) (Grid, error) {
	return ParseDelimited(strings.NewReader(text), delim)
}
