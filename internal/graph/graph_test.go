package graph

import (
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scm = "terminusdb:///schema#"

func TestLoad(t *testing.T) {
	g, err := Load(filepath.Join("testdata", "small.ttl"))
	require.NoError(t, err)

	// The repeated Report.docx name statement collapses.
	assert.Equal(t, 6, g.Len())

	_, ok := g.ID(IRIKey(scm + "is-a"))
	assert.True(t, ok, "is-a predicate should be interned")

	_, ok = g.ID(LiteralKey("computer file", "", ""))
	assert.True(t, ok, "plain literal should be interned")

	_, ok = g.ID(LiteralKey("typed", "", xsdString))
	assert.True(t, ok, "xsd:string literal shares the plain key")

	_, ok = g.ID(LiteralKey("tagged", "EN", ""))
	assert.True(t, ok, "language tags compare case-insensitively")
}

func TestLoadResolvesRelativeIRIs(t *testing.T) {
	path := filepath.Join("testdata", "small.ttl")
	g, err := Load(path)
	require.NoError(t, err)

	var found bool
	require.NoError(t, g.Each(func(tr EncodedTriple) error {
		subj, ok := g.Term(tr.S)
		require.True(t, ok)
		if strings.HasSuffix(subj.String(), "relative") {
			found = true
			assert.True(t, strings.HasPrefix(subj.String(), "file://"), "got %s", subj)
		}
		return nil
	}))
	assert.True(t, found)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "jeeves.ttl"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestParseSyntaxError(t *testing.T) {
	_, err := Parse(strings.NewReader(`<a> <b> "unterminated .`), "")
	require.Error(t, err)
}

func TestParseEmpty(t *testing.T) {
	g, err := Parse(strings.NewReader(""), "")
	require.NoError(t, err)
	assert.Zero(t, g.Len())
	assert.Zero(t, g.Terms())
}

func TestEachAndTerm(t *testing.T) {
	g, err := Parse(strings.NewReader(`<urn:s> <urn:p> <urn:o> . <urn:o> <urn:p> "x" .`), "")
	require.NoError(t, err)

	var got []string
	err = g.Each(func(tr EncodedTriple) error {
		s, ok := g.Term(tr.S)
		require.True(t, ok)
		o, ok := g.Term(tr.O)
		require.True(t, ok)
		got = append(got, Display(s)+"->"+Display(o))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"urn:s->urn:o", "urn:o->x"}, got)

	_, ok := g.Term(-1)
	assert.False(t, ok)
	_, ok = g.Term(int64(g.Terms()))
	assert.False(t, ok)
}

func TestTermKey(t *testing.T) {
	iri, err := rdf.NewIRI("urn:x")
	require.NoError(t, err)
	assert.Equal(t, "<urn:x>", TermKey(iri))

	assert.Equal(t, `"a\"b"`, LiteralKey(`a"b`, "", ""))
	assert.Equal(t, `"5"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		LiteralKey("5", "", "http://www.w3.org/2001/XMLSchema#integer"))
	assert.Equal(t, "_:b0", BlankKey("b0"))
	assert.Equal(t, "_:b0", BlankKey("_:b0"))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "", Display(nil))

	g, err := Parse(strings.NewReader(`_:n1 <urn:p> "lit"@en .`), "")
	require.NoError(t, err)
	var got []string
	require.NoError(t, g.Each(func(tr EncodedTriple) error {
		for _, id := range []int64{tr.S, tr.P, tr.O} {
			term, _ := g.Term(id)
			got = append(got, Display(term))
		}
		return nil
	}))
	assert.Equal(t, []string{"n1", "urn:p", "lit"}, got)
}
