package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableString(t *Table) string {
	var sb strings.Builder
	_ = t.Write(&sb)
	return sb.String()
}

func TestRenderSingleRecord(t *testing.T) {
	var buf bytes.Buffer
	err := Render(&buf, []Record{{
		Name:    "Report.docx",
		UUID:    "11111111-1111-1111-1111-111111111111",
		GitBlob: "abc123",
	}})
	require.NoError(t, err)

	want := "" +
		"name         uuid                                  git-blob\n" +
		"-----------  ------------------------------------  ----------\n" +
		"Report.docx  11111111-1111-1111-1111-111111111111  abc123\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil))

	want := "" +
		"name    uuid    git-blob\n" +
		"------  ------  ----------\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderNumericColumnRightAligned(t *testing.T) {
	table := NewTable([]Record{
		{Name: "a", UUID: "u1", GitBlob: "7"},
		{Name: "bb", UUID: "u2", GitBlob: "12345678901"},
	})

	want := "" +
		"name    uuid       git-blob\n" +
		"------  ------  -----------\n" +
		"a       u1                7\n" +
		"bb      u2      12345678901\n"
	assert.Equal(t, want, tableString(table))
}

func TestRenderMixedColumnLeftAligned(t *testing.T) {
	out := tableString(NewTable([]Record{
		{Name: "a", UUID: "1", GitBlob: "7"},
		{Name: "b", UUID: "x", GitBlob: "deadbeef"},
	}))

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "a       1       7", lines[2])
	assert.Equal(t, "b       x       deadbeef", lines[3])
}

func TestRenderWideCharacters(t *testing.T) {
	out := tableString(NewTable([]Record{{Name: "報告書", UUID: "u", GitBlob: "b"}}))
	lines := strings.Split(out, "\n")

	// Three double-width runes occupy six cells, the width of "name" + 2.
	assert.Equal(t, "報告書  u       b", lines[2])
}

func TestRenderNoTrailingBlanks(t *testing.T) {
	out := tableString(NewTable([]Record{{Name: "x", UUID: "", GitBlob: ""}}))
	for _, line := range strings.Split(out, "\n") {
		assert.Equal(t, strings.TrimRight(line, " "), line)
	}
}

func TestRenderIdempotent(t *testing.T) {
	records := []Record{{Name: "b", UUID: "2", GitBlob: "x"}, {Name: "a", UUID: "1", GitBlob: "y"}}
	assert.Equal(t, tableString(NewTable(records)), tableString(NewTable(records)))
}

func TestRenderTrimsCellWhitespace(t *testing.T) {
	table := &Table{
		Headers: []string{" name ", "size"},
		Rows: [][]string{
			{"  x  ", " 12 "},
			{"yy", "3"},
		},
	}

	want := "" +
		"name      size\n" +
		"------  ------\n" +
		"x           12\n" +
		"yy           3\n"
	assert.Equal(t, want, tableString(table))
}

func TestIsNumber(t *testing.T) {
	for _, s := range []string{"1", "-2", "3.5", "1e10"} {
		assert.True(t, isNumber(s), s)
	}
	for _, s := range []string{"", "abc123", "1.2.3", "0xZZ", " 4 "} {
		assert.False(t, isNumber(s), s)
	}
}
