package grid

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// WriteDelimited writes the header and rows in column order.
func WriteDelimited(w io.Writer, g Grid, delim rune) error {
	writer := csv.NewWriter(w)
	writer.Comma = delim

	if err := writer.Write(g.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(g.Columns))
	for _, r := range g.Rows {
		for i, c := range g.Columns {
			record[i] = FormatValue(r[c])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Markdown renders the grid as a GitHub-flavored markdown table.
func Markdown(g Grid) string {
	var b strings.Builder
	cell := func(s string) string {
		s = strings.ReplaceAll(s, "|", `\|`)
		return strings.ReplaceAll(s, "\n", " ")
	}

	b.WriteString("|")
	for _, c := range g.Columns {
		b.WriteString(" " + cell(c) + " |")
	}
	b.WriteString("\n|")
	for range g.Columns {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, r := range g.Rows {
		b.WriteString("|")
		for _, c := range g.Columns {
			b.WriteString(" " + cell(FormatValue(r[c])) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}
