package extractor

import (
	"fmt"
	"strings"
)

// FormatTable renders an extracted row/column grid as a markdown table.
// The first row is taken as the header; blank header cells get a synthetic
// Column_N name. A computed summary line (row and column counts) is
// appended so table chunks stay self-describing after retrieval.
func FormatTable(rows [][]string, tableNumber int) string {
	if len(rows) == 0 {
		return ""
	}

	headers := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		h := CleanText(cell)
		if h == "" {
			h = fmt.Sprintf("Column_%d", i+1)
		}
		headers[i] = h
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Table %d\n\n", tableNumber))
	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(headers)) + "\n")

	rowCount := 0
	for _, row := range rows[1:] {
		cells := make([]string, len(row))
		empty := true
		for i, cell := range row {
			cells[i] = CleanText(cell)
			if cells[i] != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		rowCount++
	}

	b.WriteString(fmt.Sprintf("\n**Summary**: %d rows, %d columns.\n", rowCount, len(headers)))
	return b.String()
}
