package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Column defines a table column. Right-aligned columns are for amounts,
// latencies, and other numeric cells.
type Column struct {
	Title string
	Width int
	Right bool
}

// Row is a slice of cell values.
type Row []string

// Table renders the wallet, endpoint, and paged explorer listings. The
// selected row gets a pointer and highlight; rows marked stale render
// dimmed with the cache-refresh failure appended.
type Table struct {
	Columns []Column
	Rows    []Row
	SelIdx  int // selected row index (-1 = none)

	stale map[int]string
}

// NewTable creates a new table.
func NewTable(cols []Column) *Table {
	return &Table{Columns: cols, SelIdx: -1}
}

// AddRow appends a row.
func (t *Table) AddRow(r Row) {
	t.Rows = append(t.Rows, r)
}

// MarkStale flags row i as served from a stale ledger read.
func (t *Table) MarkStale(i int, reason string) {
	if t.stale == nil {
		t.stale = make(map[int]string)
	}
	t.stale[i] = reason
}

// fit aligns s within exactly width chars, clipping overlong cells with an
// ellipsis. Alignment happens before styling: lipgloss Width+PaddingRight
// wraps instead of clipping.
func fit(s string, width int, right bool) string {
	if len(s) > width {
		if width <= 1 {
			return s[:width]
		}
		return s[:width-1] + "…"
	}
	gap := strings.Repeat(" ", width-len(s))
	if right {
		return gap + s
	}
	return s + gap
}

// Render returns the full table as a string.
func (t *Table) Render() string {
	headerStyle := lipgloss.NewStyle().Foreground(ColorBrand).Bold(true)
	cellStyle := lipgloss.NewStyle().Foreground(ColorValue)
	dimStyle := lipgloss.NewStyle().Foreground(ColorMeta)

	var sb strings.Builder

	var headers []string
	for _, col := range t.Columns {
		headers = append(headers, headerStyle.Render(fit(col.Title, col.Width, col.Right)))
	}
	sb.WriteString("  " + strings.Join(headers, " ") + "\n")

	var rule []string
	for _, col := range t.Columns {
		rule = append(rule, dimStyle.Render(strings.Repeat("─", col.Width)))
	}
	sb.WriteString("  " + strings.Join(rule, " ") + "\n")

	for i, row := range t.Rows {
		style := cellStyle
		gutter := "  "
		switch {
		case i == t.SelIdx:
			style = StyleSelected
			gutter = StyleSelected.Render("▸ ")
		case t.stale[i] != "":
			style = dimStyle
		}

		var cells []string
		for j, col := range t.Columns {
			val := ""
			if j < len(row) {
				val = row[j]
			}
			cells = append(cells, style.Render(fit(val, col.Width, col.Right)))
		}
		sb.WriteString(gutter + strings.Join(cells, " "))
		if reason := t.stale[i]; reason != "" {
			sb.WriteString(" " + StyleWarning.Render("⚠ stale: "+reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// KeyValueBlock renders a set of key-value pairs in a bordered box. The
// label column sizes itself to the longest key.
func KeyValueBlock(title string, pairs [][2]string) string {
	keyWidth := 0
	for _, p := range pairs {
		if len(p[0]) > keyWidth {
			keyWidth = len(p[0])
		}
	}

	var sb strings.Builder
	if title != "" {
		sb.WriteString(StyleTitle.Render(title))
		sb.WriteString("\n")
	}
	for _, p := range pairs {
		key := StyleMeta.Render(fmt.Sprintf("%-*s", keyWidth+1, p[0]+":"))
		sb.WriteString("  " + key + " " + StyleValue.Render(p[1]) + "\n")
	}
	return StyleBorder.Render(sb.String())
}
