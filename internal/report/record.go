// Package report turns query solutions into sorted display records and
// renders them as a plain text table.
package report

import (
	"cmp"
	"slices"
	"strings"

	"jeeves/internal/graph"
	"jeeves/internal/query"
)

// Default display limits for the name column.
const (
	DefaultNameWidth = 40
	DefaultEllipsis  = "..."
)

const uuidPrefix = "urn:uuid:"

// Columns are the table headers, in field order.
var Columns = []string{"name", "uuid", "git-blob"}

// Record is one table row.
type Record struct {
	Name    string
	UUID    string
	GitBlob string
}

// Fields returns the values in column order.
func (r Record) Fields() []string {
	return []string{r.Name, r.UUID, r.GitBlob}
}

// Options controls how solutions are shaped into records.
type Options struct {
	// NameWidth is the maximum name length in characters; longer names are
	// cut so that name plus Ellipsis is exactly NameWidth long.
	NameWidth int
	Ellipsis  string
}

// DefaultOptions returns the 40 character "..." truncation.
func DefaultOptions() Options {
	return Options{NameWidth: DefaultNameWidth, Ellipsis: DefaultEllipsis}
}

// FromRow builds a record from the ?uuid, ?name and ?gitblob bindings.
// Missing bindings render as empty strings.
func FromRow(row query.Row, opts Options) Record {
	return Record{
		Name:    Truncate(graph.Display(row["name"]), opts.NameWidth, opts.Ellipsis),
		UUID:    StripUUIDPrefix(graph.Display(row["uuid"])),
		GitBlob: graph.Display(row["gitblob"]),
	}
}

// FromRows builds one record per row, preserving order.
func FromRows(rows []query.Row, opts Options) []Record {
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = FromRow(row, opts)
	}
	return records
}

// Truncate shortens s to width characters when it is longer, replacing the
// tail with ellipsis. A width that cannot fit the ellipsis disables
// truncation.
func Truncate(s string, width int, ellipsis string) string {
	keep := width - len([]rune(ellipsis))
	if width <= 0 || keep < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:keep]) + ellipsis
}

// StripUUIDPrefix removes every occurrence of "urn:uuid:".
func StripUUIDPrefix(s string) string {
	return strings.ReplaceAll(s, uuidPrefix, "")
}

// Sort orders records by name, then uuid. Records equal on both keep their
// relative order.
func Sort(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.UUID, b.UUID)
	})
}
