// Package graph holds an in-memory RDF graph loaded from Turtle.
//
// Every distinct term is interned to a dense int64 identifier so the graph
// can be handed to the Datalog engine as triple(S, P, O) facts without
// escaping IRIs or literals into rule source.
package graph

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knakk/rdf"
)

const xsdString = "http://www.w3.org/2001/XMLSchema#string"

// EncodedTriple is a triple of interned term identifiers.
type EncodedTriple struct {
	S, P, O int64
}

// Graph is a set of RDF triples. It is not safe for concurrent mutation;
// after loading it is only read.
type Graph struct {
	encoded []EncodedTriple
	seen    map[EncodedTriple]struct{}
	ids     map[string]int64
	terms   []rdf.Term
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		seen: make(map[EncodedTriple]struct{}),
		ids:  make(map[string]int64),
	}
}

// Load resolves path to an absolute path and parses the file as Turtle.
// Relative IRIs in the document resolve against the file's own URL.
func Load(path string) (*Graph, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}

	f, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	defer f.Close()

	g, err := Parse(f, "file://"+filepath.ToSlash(abs))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", abs, err)
	}
	return g, nil
}

// Parse decodes Turtle from r. base may be empty.
func Parse(r io.Reader, base string) (*Graph, error) {
	dec := rdf.NewTripleDecoder(r, rdf.Turtle)
	if base != "" {
		baseIRI, err := rdf.NewIRI(base)
		if err != nil {
			return nil, fmt.Errorf("base iri %q: %w", base, err)
		}
		if err := dec.SetOption(rdf.Base, baseIRI); err != nil {
			return nil, err
		}
	}

	triples, err := dec.DecodeAll()
	if err != nil {
		return nil, err
	}

	g := New()
	for _, t := range triples {
		g.Add(t)
	}
	return g, nil
}

// Add inserts t, reporting whether it was new.
func (g *Graph) Add(t rdf.Triple) bool {
	enc := EncodedTriple{
		S: g.intern(t.Subj),
		P: g.intern(t.Pred),
		O: g.intern(t.Obj),
	}
	if _, dup := g.seen[enc]; dup {
		return false
	}
	g.seen[enc] = struct{}{}
	g.encoded = append(g.encoded, enc)
	return true
}

func (g *Graph) intern(t rdf.Term) int64 {
	key := TermKey(t)
	if id, ok := g.ids[key]; ok {
		return id
	}
	id := int64(len(g.terms))
	g.ids[key] = id
	g.terms = append(g.terms, t)
	return id
}

// Len returns the number of distinct triples.
func (g *Graph) Len() int { return len(g.encoded) }

// Terms returns the number of distinct terms.
func (g *Graph) Terms() int { return len(g.terms) }

// Each calls fn for every encoded triple in insertion order, stopping at
// the first error.
func (g *Graph) Each(fn func(EncodedTriple) error) error {
	for _, t := range g.encoded {
		if err := fn(t); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the identifier for a term key, see TermKey.
func (g *Graph) ID(key string) (int64, bool) {
	id, ok := g.ids[key]
	return id, ok
}

// Term returns the term interned under id.
func (g *Graph) Term(id int64) (rdf.Term, bool) {
	if id < 0 || id >= int64(len(g.terms)) {
		return nil, false
	}
	return g.terms[id], true
}

// TermKey returns the canonical key of an RDF term.
func TermKey(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return IRIKey(v.String())
	case rdf.Blank:
		return BlankKey(v.String())
	case rdf.Literal:
		return LiteralKey(v.String(), v.Lang(), v.DataType.String())
	default:
		return t.String()
	}
}

// IRIKey is the key of the IRI iri.
func IRIKey(iri string) string { return "<" + iri + ">" }

// BlankKey is the key of the blank node labelled label.
func BlankKey(label string) string { return "_:" + strings.TrimPrefix(label, "_:") }

// LiteralKey is the key of a literal. A language tag takes precedence over
// the datatype; xsd:string and the empty datatype are the same simple literal.
func LiteralKey(lexical, lang, datatype string) string {
	quoted := `"` + escapeLexical(lexical) + `"`
	if lang != "" {
		return quoted + "@" + strings.ToLower(lang)
	}
	if datatype == "" || datatype == xsdString {
		return quoted
	}
	return quoted + "^^" + IRIKey(datatype)
}

func escapeLexical(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

// Display renders a term the way a user expects to read it: the bare IRI,
// the lexical form of a literal, or the blank node label.
func Display(t rdf.Term) string {
	switch v := t.(type) {
	case nil:
		return ""
	case rdf.Blank:
		return strings.TrimPrefix(v.String(), "_:")
	default:
		return t.String()
	}
}
