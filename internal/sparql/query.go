// Package sparql parses the subset of SPARQL 1.1 SELECT queries that jeeves
// evaluates: a prologue, a projection and a single basic graph pattern whose
// predicates may carry a one-or-more (+) path modifier.
package sparql

import "strings"

const rdfType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// TermKind distinguishes the node types a pattern position can hold.
type TermKind int

const (
	Var TermKind = iota
	IRI
	Literal
	// Blank is a blank node label in the pattern; it behaves as a variable
	// that cannot be projected.
	Blank
)

// Term is a node in a triple pattern.
type Term struct {
	Kind     TermKind
	Value    string // variable name, IRI, lexical form or blank label
	Lang     string
	Datatype string
}

// IsVariable reports whether t binds during matching.
func (t Term) IsVariable() bool { return t.Kind == Var || t.Kind == Blank }

// VarName is the binding name for variables and blank nodes.
func (t Term) VarName() string {
	if t.Kind == Blank {
		return "_:" + t.Value
	}
	return t.Value
}

func (t Term) String() string {
	switch t.Kind {
	case Var:
		return "?" + t.Value
	case IRI:
		return "<" + t.Value + ">"
	case Blank:
		return "_:" + t.Value
	default:
		s := `"` + t.Value + `"`
		if t.Lang != "" {
			return s + "@" + t.Lang
		}
		if t.Datatype != "" {
			return s + "^^<" + t.Datatype + ">"
		}
		return s
	}
}

// Pattern is one triple pattern. OneOrMore marks a p+ property path, where
// Predicate is always an IRI.
type Pattern struct {
	Subject   Term
	Predicate Term
	Object    Term
	OneOrMore bool
}

func (p Pattern) String() string {
	pred := p.Predicate.String()
	if p.OneOrMore {
		pred += "+"
	}
	return strings.Join([]string{p.Subject.String(), pred, p.Object.String()}, " ")
}

// Query is a parsed SELECT query.
type Query struct {
	Base     string
	Prefixes map[string]string
	Distinct bool
	// Reduced permits but does not require duplicate elimination.
	Reduced bool
	// Star is set for SELECT *; Vars then lists the pattern variables in
	// order of first appearance.
	Star     bool
	Vars     []string
	Patterns []Pattern
}

// PatternVars returns the named variables of the pattern in order of first
// appearance, followed by blank node labels.
func (q *Query) PatternVars() []string {
	seen := make(map[string]bool)
	var named, blanks []string
	for _, p := range q.Patterns {
		for _, t := range []Term{p.Subject, p.Predicate, p.Object} {
			if !t.IsVariable() || seen[t.VarName()] {
				continue
			}
			seen[t.VarName()] = true
			if t.Kind == Blank {
				blanks = append(blanks, t.VarName())
			} else {
				named = append(named, t.VarName())
			}
		}
	}
	return append(named, blanks...)
}
