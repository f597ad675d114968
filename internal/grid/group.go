package grid

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotNumeric = errors.New("value is not numeric")

type Aggregate string

const (
	AggCount Aggregate = "count"
	AggSum   Aggregate = "sum"
	AggMin   Aggregate = "min"
	AggMax   Aggregate = "max"
	AggAvg   Aggregate = "avg"
)

func ParseAggregate(s string) (Aggregate, error) {
	switch a := Aggregate(strings.ToLower(strings.TrimSpace(s))); a {
	case AggCount, AggSum, AggMin, AggMax, AggAvg:
		return a, nil
	default:
		return "", fmt.Errorf("unknown aggregate %q", s)
	}
}

// Group buckets rows by every column except column and reduces column with op.
// The output has the aggregate column {column}_{op} first, then the group
// columns; groups keep first-seen order.
func Group(g Grid, column string, op Aggregate) (Grid, error) {
	if err := g.requireColumn(column); err != nil {
		return Grid{}, err
	}
	if _, err := ParseAggregate(string(op)); err != nil {
		return Grid{}, err
	}

	groupBy := make([]string, 0, len(g.Columns)-1)
	for _, c := range g.Columns {
		if c != column {
			groupBy = append(groupBy, c)
		}
	}

	type bucket struct {
		first  Row
		values []any
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, r := range g.Rows {
		parts := make([]string, len(groupBy))
		for i, c := range groupBy {
			parts[i] = FormatValue(r[c])
		}
		key := bucketKey(parts)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{first: r}
			buckets[key] = b
			order = append(order, key)
		}
		b.values = append(b.values, r[column])
	}

	aggColumn := column + "_" + string(op)
	rows := make([]Row, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		v, err := reduce(op, b.values)
		if err != nil {
			return Grid{}, fmt.Errorf("group %q: %w", key, err)
		}
		out := Row{aggColumn: v}
		for _, c := range groupBy {
			out[c] = b.first[c]
		}
		rows = append(rows, out)
	}

	return Grid{Columns: append([]string{aggColumn}, groupBy...), Rows: rows}, nil
}

// bucketKey encodes group values as a JSON array so that values containing
// separators cannot collide.
func bucketKey(parts []string) string {
	b, _ := json.Marshal(parts)
	return string(b)
}

func reduce(op Aggregate, values []any) (any, error) {
	if op == AggCount {
		return len(values), nil
	}

	var (
		acc      decimal.Decimal
		n        int64
		integral = true
	)
	for _, v := range values {
		if v == nil {
			continue
		}
		d, err := ToDecimal(v)
		if err != nil {
			return nil, err
		}
		if !d.IsInteger() {
			integral = false
		}
		switch {
		case n == 0:
			acc = d
		case op == AggMin:
			acc = decimal.Min(acc, d)
		case op == AggMax:
			acc = decimal.Max(acc, d)
		default:
			acc = acc.Add(d)
		}
		n++
	}

	switch {
	case n == 0 && op == AggSum:
		return int64(0), nil
	case n == 0:
		return nil, nil
	case op == AggAvg:
		return acc.Div(decimal.NewFromInt(n)).StringFixed(2), nil
	case integral:
		return acc.IntPart(), nil
	default:
		return acc.InexactFloat64(), nil
	}
}

// ToDecimal converts a numeric cell to a decimal. Text cells must parse as numbers.
func ToDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case int32:
		return decimal.NewFromInt32(x), nil
	case int64:
		return decimal.NewFromInt(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case json.Number:
		return ToDecimal(string(x))
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotNumeric, x)
		}
		return d, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrNotNumeric, v)
	}
}
