package formatter

import (
	"strings"

	runewidth "github.com/mattn/go-runewidth"
)

const (
	columnSep      = "  "
	minColumnWidth = 4
)

// RenderTable renders t as aligned columns under a header. When the table
// is wider than maxWidth the widest columns shrink first. maxWidth <= 0
// disables truncation.
func RenderTable(t Tabular, noColor bool, maxWidth int) string {
	columns := t.Columns()
	rows := t.Rows()
	if len(columns) == 0 {
		return ""
	}

	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = runewidth.StringWidth(c)
	}
	cells := make([][]string, len(rows))
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for i := range columns {
			if i < len(row) {
				cells[r][i] = escapeCell(row[i])
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cells[r][i]))
		}
	}
	if maxWidth > 0 {
		fitWidths(widths, maxWidth-len(columnSep)*(len(columns)-1))
	}

	var b strings.Builder
	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = padRight(truncate(c, widths[i]), widths[i])
		if !noColor {
			header[i] = headerStyle.Render(header[i])
		}
	}
	b.WriteString(strings.TrimRight(strings.Join(header, columnSep), " "))
	b.WriteString("\n")

	total := len(columnSep) * (len(columns) - 1)
	for _, w := range widths {
		total += w
	}
	separator := strings.Repeat("─", total)
	if !noColor {
		separator = separatorStyle.Render(separator)
	}
	b.WriteString(separator)
	b.WriteString("\n")

	for _, row := range cells {
		out := make([]string, len(columns))
		for i, cell := range row {
			out[i] = padRight(truncate(cell, widths[i]), widths[i])
			if !noColor {
				if i == 0 {
					out[i] = keyStyle.Render(out[i])
				} else {
					out[i] = valueStyle.Render(out[i])
				}
			}
		}
		line := strings.Join(out, columnSep)
		if noColor {
			line = strings.TrimRight(line, " ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// fitWidths shrinks the widest columns until their sum fits budget or no
// column can shrink further.
func fitWidths(widths []int, budget int) {
	sum := 0
	for _, w := range widths {
		sum += w
	}
	for sum > budget {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			return
		}
		widths[widest]--
		sum--
	}
}
