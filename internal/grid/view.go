package grid

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

type Operator string

const (
	OpContains   Operator = "contains"
	OpEquals     Operator = "equals"
	OpStartsWith Operator = "startsWith"
	OpEndsWith   Operator = "endsWith"
	OpIsEmpty    Operator = "isEmpty"
	OpIsNotEmpty Operator = "isNotEmpty"
	OpRegex      Operator = "regex"
)

// Filter keeps rows whose column satisfies the operator. Text comparisons
// ignore case except for regex.
type Filter struct {
	Column   string   `json:"column" validate:"required"`
	Operator Operator `json:"operator" validate:"required,oneof=contains equals startsWith endsWith isEmpty isNotEmpty regex"`
	Value    string   `json:"value"`
}

type SortSpec struct {
	Column string `json:"column" validate:"required"`
	Desc   bool   `json:"desc"`
}

// View is the visible state of a grid: filters (AND), sort order, and
// projected columns, applied in that order.
type View struct {
	Columns []string   `json:"columns,omitempty"`
	Filters []Filter   `json:"filters,omitempty" validate:"dive"`
	Sort    []SortSpec `json:"sort,omitempty" validate:"dive"`
}

func (v View) IsZero() bool {
	return len(v.Columns) == 0 && len(v.Filters) == 0 && len(v.Sort) == 0
}

func (g Grid) Apply(v View) (Grid, error) {
	rows := g.Rows
	for _, f := range v.Filters {
		if err := g.requireColumn(f.Column); err != nil {
			return Grid{}, err
		}
		match, err := f.matcher()
		if err != nil {
			return Grid{}, err
		}
		kept := make([]Row, 0, len(rows))
		for _, r := range rows {
			if match(FormatValue(r[f.Column])) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	if len(v.Sort) > 0 {
		for _, s := range v.Sort {
			if err := g.requireColumn(s.Column); err != nil {
				return Grid{}, err
			}
		}
		rows = slices.Clone(rows)
		slices.SortStableFunc(rows, func(a, b Row) int {
			for _, s := range v.Sort {
				c := compareValues(a[s.Column], b[s.Column])
				if s.Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}

	if len(v.Columns) == 0 {
		return New(g.Columns, rows), nil
	}
	for _, c := range v.Columns {
		if err := g.requireColumn(c); err != nil {
			return Grid{}, err
		}
	}
	projected := make([]Row, len(rows))
	for i, r := range rows {
		out := make(Row, len(v.Columns))
		for _, c := range v.Columns {
			out[c] = r[c]
		}
		projected[i] = out
	}
	return New(slices.Clone(v.Columns), projected), nil
}

func (f Filter) matcher() (func(string) bool, error) {
	want := strings.ToLower(f.Value)
	switch f.Operator {
	case OpContains:
		return func(s string) bool { return strings.Contains(strings.ToLower(s), want) }, nil
	case OpEquals:
		return func(s string) bool { return strings.ToLower(s) == want }, nil
	case OpStartsWith:
		return func(s string) bool { return strings.HasPrefix(strings.ToLower(s), want) }, nil
	case OpEndsWith:
		return func(s string) bool { return strings.HasSuffix(strings.ToLower(s), want) }, nil
	case OpIsEmpty:
		return func(s string) bool { return strings.TrimSpace(s) == "" }, nil
	case OpIsNotEmpty:
		return func(s string) bool { return strings.TrimSpace(s) != "" }, nil
	case OpRegex:
		re, err := regexp.Compile(f.Value)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", f.Column, err)
		}
		return re.MatchString, nil
	default:
		return nil, fmt.Errorf("unknown filter operator %q", f.Operator)
	}
}

// compareValues orders nulls first, numbers numerically, and everything else as text.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	as, bs := FormatValue(a), FormatValue(b)
	af, aerr := strconv.ParseFloat(strings.TrimSpace(as), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(bs), 64)
	if aerr == nil && berr == nil {
		return cmp.Compare(af, bf)
	}
	return strings.Compare(as, bs)
}
