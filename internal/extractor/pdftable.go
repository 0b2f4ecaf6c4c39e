package extractor

import (
	"sort"
	"strings"
)

// Geometry thresholds, in PDF points.
const (
	lineYTolerance = 2.0  // runs within this vertical distance share a line
	cellGapMin     = 12.0 // horizontal gap that separates two cells
	columnXTol     = 6.0  // cell starts within this distance share a column
	blockGapMin    = 15.0 // vertical gap that separates two text blocks
	runGapSpace    = 1.5  // horizontal gap that inserts a space when joining
)

type textRun struct {
	x, y, w float64
	s       string
}

type tableCell struct {
	x    float64
	text string
}

type textLine struct {
	y     float64
	runs  []textRun
	cells []tableCell
}

type tableRegion struct {
	yTop float64
	rows [][]string
}

// buildLines sorts runs into reading order and groups them into lines by
// vertical proximity, pre-splitting each line into gap-separated cells.
func buildLines(runs []textRun) []textLine {
	sort.SliceStable(runs, func(i, j int) bool {
		if runs[i].y != runs[j].y {
			return runs[i].y < runs[j].y
		}
		return runs[i].x < runs[j].x
	})

	var lines []textLine
	for _, r := range runs {
		if n := len(lines); n > 0 && r.y-lines[n-1].y <= lineYTolerance {
			lines[n-1].runs = append(lines[n-1].runs, r)
			continue
		}
		lines = append(lines, textLine{y: r.y, runs: []textRun{r}})
	}
	for i := range lines {
		sort.SliceStable(lines[i].runs, func(a, b int) bool {
			return lines[i].runs[a].x < lines[i].runs[b].x
		})
		lines[i].cells = splitCells(lines[i].runs)
	}
	return lines
}

// splitCells breaks a line's runs into cells wherever the horizontal gap
// exceeds the cell threshold.
func splitCells(runs []textRun) []tableCell {
	var cells []tableCell
	var b strings.Builder
	start := 0.0
	flush := func() {
		if text := strings.TrimSpace(b.String()); text != "" {
			cells = append(cells, tableCell{x: start, text: text})
		}
		b.Reset()
	}
	for i, r := range runs {
		if i == 0 {
			start = r.x
			b.WriteString(r.s)
			continue
		}
		gap := r.x - (runs[i-1].x + runs[i-1].w)
		if gap > cellGapMin {
			flush()
			start = r.x
		} else if gap > runGapSpace {
			b.WriteString(" ")
		}
		b.WriteString(r.s)
	}
	flush()
	return cells
}

// detectTables finds runs of at least two consecutive multi-cell lines whose
// cell starts align into shared columns, and extracts them as row grids.
// Everything else is returned as plain text lines.
func detectTables(lines []textLine) ([]tableRegion, []textLine) {
	var tables []tableRegion
	var rest []textLine

	i := 0
	for i < len(lines) {
		if len(lines[i].cells) < 2 {
			rest = append(rest, lines[i])
			i++
			continue
		}
		j := i + 1
		for j < len(lines) && len(lines[j].cells) >= 2 && sharedColumns(lines[j-1].cells, lines[j].cells) >= 2 {
			j++
		}
		if j-i < 2 {
			rest = append(rest, lines[i])
			i++
			continue
		}
		tables = append(tables, buildRegion(lines[i:j]))
		i = j
	}
	return tables, rest
}

func sharedColumns(a, b []tableCell) int {
	shared := 0
	for _, ca := range a {
		for _, cb := range b {
			if ca.x-cb.x <= columnXTol && cb.x-ca.x <= columnXTol {
				shared++
				break
			}
		}
	}
	return shared
}

// buildRegion clusters the cell starts of the region into column positions
// and projects every line onto them.
func buildRegion(lines []textLine) tableRegion {
	var starts []float64
	for _, l := range lines {
		for _, c := range l.cells {
			starts = append(starts, c.x)
		}
	}
	sort.Float64s(starts)

	var columns []float64
	for _, x := range starts {
		if n := len(columns); n == 0 || x-columns[n-1] > columnXTol {
			columns = append(columns, x)
		}
	}

	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		row := make([]string, len(columns))
		for _, c := range l.cells {
			idx := nearestColumn(columns, c.x)
			if row[idx] != "" {
				row[idx] += " "
			}
			row[idx] += c.text
		}
		rows = append(rows, row)
	}
	return tableRegion{yTop: lines[0].y, rows: rows}
}

func nearestColumn(columns []float64, x float64) int {
	best, bestDist := 0, -1.0
	for i, c := range columns {
		d := x - c
		if d < 0 {
			d = -d
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

type lineGroup struct {
	yTop  float64
	lines []textLine
}

// groupLines merges consecutive text lines into blocks, breaking on large
// vertical gaps (multi-column pages produce separate groups per column
// band, which the later y-sort interleaves back into reading order).
func groupLines(lines []textLine) []lineGroup {
	sort.SliceStable(lines, func(i, j int) bool { return lines[i].y < lines[j].y })

	var groups []lineGroup
	for _, l := range lines {
		if n := len(groups); n > 0 {
			prev := &groups[n-1]
			if l.y-prev.lines[len(prev.lines)-1].y <= blockGapMin {
				prev.lines = append(prev.lines, l)
				continue
			}
		}
		groups = append(groups, lineGroup{yTop: l.y, lines: []textLine{l}})
	}
	return groups
}

func (g lineGroup) text() string {
	parts := make([]string, 0, len(g.lines))
	for _, l := range g.lines {
		var b strings.Builder
		for i, r := range l.runs {
			if i > 0 && r.x-(l.runs[i-1].x+l.runs[i-1].w) > runGapSpace {
				b.WriteString(" ")
			}
			b.WriteString(r.s)
		}
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n")
}
