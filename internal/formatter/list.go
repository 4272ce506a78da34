package formatter

import (
	"strconv"
	"strings"
)

// RenderList renders every row of t as a numbered block of "column: value"
// lines, skipping empty values.
func RenderList(t Tabular, noColor bool) string {
	columns := t.Columns()
	var b strings.Builder
	for r, row := range t.Rows() {
		if r > 0 {
			b.WriteString("\n")
		}
		header := strconv.Itoa(r + 1)
		if !noColor {
			header = headerStyle.Render(header)
		}
		b.WriteString(header)
		b.WriteString("\n")
		for i, col := range columns {
			if i >= len(row) || row[i] == "" {
				continue
			}
			key := "  " + strings.ToLower(col)
			val := row[i]
			if !noColor {
				key = keyStyle.Render(key)
				val = valueStyle.Render(val)
			}
			b.WriteString(key)
			b.WriteString(": ")
			b.WriteString(val)
			b.WriteString("\n")
		}
	}
	return b.String()
}
