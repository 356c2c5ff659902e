package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Table creates a formatted table for output
type Table struct {
	headers  []string
	rows     [][]string
	maxWidth int // Maximum total table width
}

// NewTable creates a new table
func NewTable(headers ...string) *Table {
	return &Table{
		headers:  headers,
		maxWidth: 120,
	}
}

// SetMaxWidth sets the maximum table width
func (t *Table) SetMaxWidth(width int) {
	t.maxWidth = width
}

// AddRow adds a row; missing cells are left empty and extra ones dropped
func (t *Table) AddRow(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// widths measures display width, so styled cells line up
func (t *Table) widths() []int {
	widths := make([]int, len(t.headers))
	total := 0
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
		for _, row := range t.rows {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
		total += widths[i] + 3
	}

	// shrink the widest columns first
	for excess := total + 1 - t.maxWidth; excess > 0; excess-- {
		maxIdx := 0
		for i := 1; i < len(widths); i++ {
			if widths[i] > widths[maxIdx] {
				maxIdx = i
			}
		}
		if widths[maxIdx] <= 8 {
			break
		}
		widths[maxIdx]--
	}
	return widths
}

// Render writes the table with box borders
func (t *Table) Render(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	widths := t.widths()

	line := func(left, mid, right string) {
		parts := make([]string, len(widths))
		for i, cw := range widths {
			parts[i] = strings.Repeat("─", cw+2)
		}
		fmt.Fprintln(w, left+strings.Join(parts, mid)+right)
	}
	row := func(cells []string) {
		var b strings.Builder
		b.WriteString("│")
		for i, cw := range widths {
			cell := truncate(cells[i], cw)
			b.WriteString(" " + cell + strings.Repeat(" ", cw-lipgloss.Width(cell)) + " │")
		}
		fmt.Fprintln(w, b.String())
	}

	line("┌", "┬", "┐")
	row(t.headers)
	line("├", "┼", "┤")
	for _, r := range t.rows {
		row(r)
	}
	line("└", "┴", "┘")
}

// RenderCompact writes the table without borders
func (t *Table) RenderCompact(w io.Writer) {
	if len(t.headers) == 0 {
		return
	}
	widths := t.widths()

	write := func(cells []string) {
		parts := make([]string, len(widths))
		for i, cw := range widths {
			cell := truncate(cells[i], cw)
			parts[i] = cell + strings.Repeat(" ", cw-lipgloss.Width(cell))
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	write(t.headers)
	seps := make([]string, len(widths))
	for i, cw := range widths {
		seps[i] = strings.Repeat("─", cw)
	}
	fmt.Fprintln(w, strings.Join(seps, "  "))
	for _, r := range t.rows {
		write(r)
	}
}

// truncate shortens s to maxLen display cells with an ellipsis
func truncate(s string, maxLen int) string {
	if lipgloss.Width(s) <= maxLen {
		return s
	}
	runes := []rune(stripANSI(s))
	if maxLen <= 3 {
		return string(runes[:min(maxLen, len(runes))])
	}
	for len(runes) > 0 && lipgloss.Width(string(runes))+3 > maxLen {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}

// stripANSI drops escape sequences; truncated cells lose their colour
func stripANSI(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
