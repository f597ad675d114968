package grid

import (
	"fmt"
	"strings"
)

type JoinKind string

const (
	JoinInner JoinKind = "inner"
	JoinLeft  JoinKind = "left"
	JoinRight JoinKind = "right"
)

func ParseJoinKind(s string) (JoinKind, error) {
	switch k := JoinKind(strings.ToLower(strings.TrimSpace(s))); k {
	case JoinInner, JoinLeft, JoinRight:
		return k, nil
	case "":
		return JoinInner, nil
	default:
		return "", fmt.Errorf("unknown join kind %q", s)
	}
}

// joinKey compares keys by their text form. Nulls form their own key.
type joinKey struct {
	null bool
	text string
}

func keyOf(v any) joinKey {
	if v == nil {
		return joinKey{null: true}
	}
	return joinKey{text: FormatValue(v)}
}

// excludedFromJoin reports columns dropped from join output.
func excludedFromJoin(column string) bool {
	return column == "id" || strings.HasSuffix(column, ".id")
}

// Join combines left and right on leftKey = rightKey.
//
// Inner and right joins index the left side and probe with right rows; left
// joins index the right side and probe with left rows. Every matching pair is
// emitted. Outer joins keep unmatched anchor rows with nulls for the other side.
// The key column appears once, named after the anchor side's key.
func Join(left, right Grid, leftKey, rightKey string, kind JoinKind) (Grid, error) {
	if err := left.requireColumn(leftKey); err != nil {
		return Grid{}, fmt.Errorf("left: %w", err)
	}
	if err := right.requireColumn(rightKey); err != nil {
		return Grid{}, fmt.Errorf("right: %w", err)
	}

	keyName := leftKey
	if kind == JoinRight {
		keyName = rightKey
	}

	columns := []string{keyName}
	seen := map[string]bool{keyName: true}
	addColumns := func(g Grid, key string) {
		for _, c := range g.Columns {
			if c == key || excludedFromJoin(c) || seen[c] {
				continue
			}
			seen[c] = true
			columns = append(columns, c)
		}
	}
	addColumns(left, leftKey)
	addColumns(right, rightKey)

	merge := func(l, r Row, key any) Row {
		out := make(Row, len(columns))
		for _, c := range columns {
			out[c] = nil
		}
		if l != nil {
			for _, c := range left.Columns {
				if c != leftKey && !excludedFromJoin(c) {
					out[c] = l[c]
				}
			}
		}
		if r != nil {
			for _, c := range right.Columns {
				if c != rightKey && !excludedFromJoin(c) {
					out[c] = r[c]
				}
			}
		}
		out[keyName] = key
		return out
	}

	rows := make([]Row, 0)
	switch kind {
	case JoinInner, JoinRight:
		index := indexBy(left.Rows, leftKey)
		for _, r := range right.Rows {
			matches := index[keyOf(r[rightKey])]
			if len(matches) == 0 {
				if kind == JoinRight {
					rows = append(rows, merge(nil, r, r[rightKey]))
				}
				continue
			}
			for _, l := range matches {
				key := l[leftKey]
				if kind == JoinRight {
					key = r[rightKey]
				}
				rows = append(rows, merge(l, r, key))
			}
		}
	case JoinLeft:
		index := indexBy(right.Rows, rightKey)
		for _, l := range left.Rows {
			matches := index[keyOf(l[leftKey])]
			if len(matches) == 0 {
				rows = append(rows, merge(l, nil, l[leftKey]))
				continue
			}
			for _, r := range matches {
				rows = append(rows, merge(l, r, l[leftKey]))
			}
		}
	default:
		return Grid{}, fmt.Errorf("unknown join kind %q", kind)
	}

	return Grid{Columns: columns, Rows: rows}, nil
}

func indexBy(rows []Row, column string) map[joinKey][]Row {
	index := make(map[joinKey][]Row, len(rows))
	for _, r := range rows {
		k := keyOf(r[column])
		index[k] = append(index[k], r)
	}
	return index
}
