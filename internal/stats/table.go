package stats

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// column describes one history table column. A zero maxWidth means unbounded.
type column struct {
	title    string
	right    bool
	maxWidth int
}

// Lesson ids come from config or the command line and may be arbitrarily long.
const lessonCellWidth = 32

var (
	runColumns = []column{
		{title: "ID", right: true},
		{title: "When"},
		{title: "Lesson", maxWidth: lessonCellWidth},
		{title: "Ex", right: true},
		{title: "Outcome"},
		{title: "Tests", right: true},
		{title: "Duration", right: true},
	}
	exerciseColumns = []column{
		{title: "Lesson", maxWidth: lessonCellWidth},
		{title: "Ex", right: true},
		{title: "Runs", right: true},
		{title: "Passed", right: true},
		{title: "Pass Rate", right: true},
		{title: "Last Run"},
	}
)

// formatTable lays rows out under cols. Cells are flattened to one line and
// cut to their column's maxWidth.
func formatTable(cols []column, rows [][]string) []string {
	if len(cols) == 0 {
		return nil
	}
	cells := make([][]string, len(rows))
	widths := make([]int, len(cols))
	for i, col := range cols {
		widths[i] = displayWidth(col.title)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(cols))
		for i, col := range cols {
			if i >= len(row) {
				continue
			}
			cell := fitCell(row[i], col.maxWidth)
			cells[r][i] = cell
			widths[i] = max(widths[i], displayWidth(cell))
		}
	}

	titles := make([]string, len(cols))
	for i, col := range cols {
		titles[i] = col.title
	}
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, formatRow(cols, titles, widths))
	for _, row := range cells {
		lines = append(lines, formatRow(cols, row, widths))
	}
	return lines
}

func formatRow(cols []column, row []string, widths []int) string {
	var b strings.Builder
	for i, col := range cols {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(row[i], widths[i], col.right))
	}
	return b.String()
}

func fitCell(value string, maxWidth int) string {
	value = strings.Join(strings.Fields(value), " ")
	if maxWidth > 0 && displayWidth(value) > maxWidth {
		return runewidth.Truncate(value, maxWidth, "…")
	}
	return value
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return runewidth.StringWidth(value)
}
