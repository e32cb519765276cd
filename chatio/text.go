package chatio

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Columns renders rows as left-aligned columns separated by two spaces.
// Widths are measured in terminal cells, so wide glyphs line up.
func Columns(rows [][]string) string {
	var widths []int
	for _, row := range rows {
		for i, cell := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	var b strings.Builder
	for _, row := range rows {
		for i, cell := range row {
			if i == len(row)-1 {
				b.WriteString(cell)
				break
			}
			b.WriteString(runewidth.FillRight(cell, widths[i]))
			b.WriteString("  ")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Truncate shortens s to at most width cells, marking the cut with "…"
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}
