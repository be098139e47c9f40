package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	columnSep = "  "
	// headerPadding is the minimum room a column leaves beyond its header.
	headerPadding = 2
)

// Table is a header plus rows of cells, rendered in the "simple" layout:
//
//	name    uuid
//	------  ------
//	a.txt   1234
//
// Cells and headers are trimmed of surrounding whitespace. A column whose
// cells are all numbers is right-aligned, header included.
type Table struct {
	Headers []string
	Rows    [][]string
}

// NewTable builds the table for records.
func NewTable(records []Record) *Table {
	t := &Table{Headers: Columns, Rows: make([][]string, len(records))}
	for i, r := range records {
		t.Rows[i] = r.Fields()
	}
	return t
}

// Render writes records as a table to w.
func Render(w io.Writer, records []Record) error {
	return NewTable(records).Write(w)
}

// Write renders the table. Every line ends in a newline and carries no
// trailing blanks.
func (t *Table) Write(w io.Writer) error {
	widths := make([]int, len(t.Headers))
	numeric := make([]bool, len(t.Headers))
	for i := range t.Headers {
		widths[i] = runewidth.StringWidth(t.header(i)) + headerPadding
		numeric[i] = len(t.Rows) > 0
	}
	for _, row := range t.Rows {
		for i := range t.Headers {
			cell := cellAt(row, i)
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
			if !isNumber(cell) {
				numeric[i] = false
			}
		}
	}

	bw := bufio.NewWriter(w)
	line := func(cells func(i int) string) {
		parts := make([]string, len(t.Headers))
		for i := range t.Headers {
			parts[i] = pad(cells(i), widths[i], numeric[i])
		}
		bw.WriteString(strings.TrimRight(strings.Join(parts, columnSep), " "))
		bw.WriteByte('\n')
	}

	line(t.header)
	line(func(i int) string { return strings.Repeat("-", widths[i]) })
	for _, row := range t.Rows {
		line(func(i int) string { return cellAt(row, i) })
	}
	return bw.Flush()
}

func (t *Table) header(i int) string {
	return strings.TrimSpace(t.Headers[i])
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func pad(s string, width int, right bool) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
