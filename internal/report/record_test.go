package report

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jeeves/internal/query"
)

func TestTruncate(t *testing.T) {
	forty := strings.Repeat("a", 40)
	fortyOne := strings.Repeat("b", 41)

	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"short", "Report.docx", 40, "Report.docx"},
		{"exactly forty", forty, 40, forty},
		{"forty one", fortyOne, 40, strings.Repeat("b", 37) + "..."},
		{"empty", "", 40, ""},
		{"multibyte counts characters", strings.Repeat("é", 41), 40, strings.Repeat("é", 37) + "..."},
		{"disabled", fortyOne, 0, fortyOne},
		{"too narrow for ellipsis", fortyOne, 2, fortyOne},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.width, DefaultEllipsis)
			assert.Equal(t, tt.want, got)
			if tt.width >= 3 {
				assert.LessOrEqual(t, len([]rune(got)), tt.width)
			}
		})
	}
}

func TestStripUUIDPrefix(t *testing.T) {
	assert.Equal(t, "11111111-1111-1111-1111-111111111111",
		StripUUIDPrefix("urn:uuid:11111111-1111-1111-1111-111111111111"))
	assert.Equal(t, "uuid:///abc", StripUUIDPrefix("uuid:///abc"))
	assert.Equal(t, "ab", StripUUIDPrefix("urn:uuid:aurn:uuid:b"), "every occurrence is removed")
}

func mustIRI(t *testing.T, s string) rdf.IRI {
	t.Helper()
	iri, err := rdf.NewIRI(s)
	require.NoError(t, err)
	return iri
}

func mustLiteral(t *testing.T, s string) rdf.Literal {
	t.Helper()
	lit, err := rdf.NewLiteral(s)
	require.NoError(t, err)
	return lit
}

func TestFromRow(t *testing.T) {
	row := query.Row{
		"uuid":    mustIRI(t, "urn:uuid:11111111-1111-1111-1111-111111111111"),
		"name":    mustLiteral(t, strings.Repeat("n", 45)),
		"gitblob": mustLiteral(t, "abc123"),
	}
	got := FromRow(row, DefaultOptions())
	want := Record{
		Name:    strings.Repeat("n", 37) + "...",
		UUID:    "11111111-1111-1111-1111-111111111111",
		GitBlob: "abc123",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromRow mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, Record{}, FromRow(query.Row{}, DefaultOptions()), "missing bindings are empty")

	custom := FromRow(row, Options{NameWidth: 10, Ellipsis: "~"})
	assert.Equal(t, strings.Repeat("n", 9)+"~", custom.Name)
}

func TestSort(t *testing.T) {
	records := []Record{
		{Name: "b", UUID: "2", GitBlob: "x"},
		{Name: "a", UUID: "9", GitBlob: "y"},
		{Name: "b", UUID: "1", GitBlob: "z"},
		{Name: "B", UUID: "5", GitBlob: "w"},
		{Name: "a", UUID: "9", GitBlob: "v"},
	}
	Sort(records)
	want := []Record{
		{Name: "B", UUID: "5", GitBlob: "w"},
		{Name: "a", UUID: "9", GitBlob: "y"},
		{Name: "a", UUID: "9", GitBlob: "v"},
		{Name: "b", UUID: "1", GitBlob: "z"},
		{Name: "b", UUID: "2", GitBlob: "x"},
	}
	if diff := cmp.Diff(want, records); diff != "" {
		t.Errorf("Sort mismatch (-want +got):\n%s", diff)
	}
}

func TestSortUsesTruncatedName(t *testing.T) {
	prefix := strings.Repeat("p", 37)
	rows := []query.Row{
		{"uuid": mustIRI(t, "urn:uuid:2"), "name": mustLiteral(t, prefix+"AAAA"), "gitblob": mustLiteral(t, "x")},
		{"uuid": mustIRI(t, "urn:uuid:1"), "name": mustLiteral(t, prefix+"ZZZZ"), "gitblob": mustLiteral(t, "y")},
	}
	records := FromRows(rows, DefaultOptions())
	Sort(records)

	// Both names truncate to the same text, so uuid decides.
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].UUID)
	assert.Equal(t, "2", records[1].UUID)
	assert.Equal(t, records[0].Name, records[1].Name)
}
