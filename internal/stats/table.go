package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// WriteTable writes an aligned table followed by a blank line. Columns listed
// in right are right-aligned.
func WriteTable(w io.Writer, headers []string, rows [][]string, right ...int) error {
	align := make(map[int]bool, len(right))
	for _, col := range right {
		align[col] = true
	}
	for _, line := range tableLines(headers, rows, align) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// tableLines lays rows out in columns one space apart. Widths are measured in
// terminal cells.
func tableLines(headers []string, rows [][]string, right map[int]bool) []string {
	cols := len(headers)
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return nil
	}
	widths := make([]int, cols)
	measure := func(row []string) {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}
	measure(headers)
	for _, row := range rows {
		measure(row)
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, joinCells(headers, widths, right))
	}
	for _, row := range rows {
		lines = append(lines, joinCells(row, widths, right))
	}
	return lines
}

func joinCells(row []string, widths []int, right map[int]bool) string {
	cells := make([]string, len(widths))
	for i, width := range widths {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		pad := strings.Repeat(" ", max(0, width-runewidth.StringWidth(cell)))
		if right[i] {
			cells[i] = pad + cell
		} else {
			cells[i] = cell + pad
		}
	}
	return strings.Join(cells, " ")
}
