// Package table renders aligned text tables for the command line.
package table

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc is a callback to format/colorize cell values
type FormatFunc func(value string) string

// ColumnSpec defines a column's properties
type ColumnSpec struct {
	Header     string
	BlankValue string     // Value to show for empty cells (default: "-")
	FormatFunc FormatFunc // Applied to the value before padding; must only add escapes
	RightAlign bool
}

type Table struct {
	columns []ColumnSpec
	rows    [][]string
	widths  []int
}

func New(cols ...ColumnSpec) *Table {
	t := &Table{
		columns: cols,
		widths:  make([]int, len(cols)),
	}
	for i := range t.columns {
		if t.columns[i].BlankValue == "" {
			t.columns[i].BlankValue = "-"
		}
		t.widths[i] = visibleLength(cols[i].Header)
	}
	return t
}

// AddRow adds a row; missing or empty cells show the column's BlankValue
func (t *Table) AddRow(data ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(data) && data[i] != "" {
			row[i] = data[i]
		} else {
			row[i] = t.columns[i].BlankValue
		}
		t.widths[i] = max(t.widths[i], visibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int { return len(t.rows) }

// Render writes the header, a rule and every row
func (t *Table) Render(w io.Writer) error {
	cells := make([]string, len(t.columns))

	for i, col := range t.columns {
		cells[i] = t.pad(i, col.Header)
	}
	if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
		return err
	}

	for i := range cells {
		cells[i] = strings.Repeat("-", t.widths[i])
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, "  ")); err != nil {
		return err
	}

	for _, row := range t.rows {
		for i, val := range row {
			if f := t.columns[i].FormatFunc; f != nil {
				val = f(val)
			}
			cells[i] = t.pad(i, val)
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (t *Table) pad(col int, s string) string {
	gap := t.widths[col] - visibleLength(s)
	if gap <= 0 {
		return s
	}
	if t.columns[col].RightAlign {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

// visibleLength counts runes outside ANSI escape sequences
func visibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
