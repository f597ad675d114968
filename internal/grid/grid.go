// Package grid implements the in-memory relational operators used on tabular
// data: join, group-by, filter/sort views, and delimited text import/export.
package grid

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrNoData          = errors.New("no data rows")
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Row is one record keyed by column name. A nil value is a null.
type Row map[string]any

// Grid is an ordered set of columns and the rows over them.
type Grid struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

func New(columns []string, rows []Row) Grid {
	if rows == nil {
		rows = []Row{}
	}
	return Grid{Columns: columns, Rows: rows}
}

func (g Grid) Len() int {
	return len(g.Rows)
}

func (g Grid) HasColumn(name string) bool {
	return slices.Contains(g.Columns, name)
}

func (g Grid) requireColumn(name string) error {
	if !g.HasColumn(name) {
		return fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return nil
}

// Values returns the column's values in row order.
func (g Grid) Values(column string) []any {
	out := make([]any, len(g.Rows))
	for i, r := range g.Rows {
		out[i] = r[column]
	}
	return out
}

// FormatValue renders a cell as text. Nulls render empty.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}
