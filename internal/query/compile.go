package query

import (
	"errors"
	"fmt"
	"strings"

	"jeeves/internal/graph"
	"jeeves/internal/sparql"
)

// Predicates of the compiled program.
const (
	triplePredicate = "triple"
	answerPredicate = "answer"
	pathPrefix      = "path_"
)

// ErrUnboundVariable is returned when a projected variable does not occur in
// the graph pattern.
var ErrUnboundVariable = errors.New("projected variable does not occur in the pattern")

// Program is a query compiled to Mangle source.
type Program struct {
	// Source is the complete Mangle program including declarations.
	Source string
	// Head lists the variables of the answer predicate in argument order.
	Head []string
	// Vars is the projection, a subset of Head.
	Vars []string
	// Empty is set when a constant of the query does not occur in the
	// graph, so no solution can exist and evaluation can be skipped.
	Empty bool
	// Unit is set for a pattern without variables; answer then carries a
	// single placeholder argument.
	Unit bool
}

// Compile translates q into a Mangle program over the triple(S, P, O) facts
// of g. Each p+ path pattern becomes a recursive rule pair and the basic
// graph pattern becomes one answer rule.
//
// With DISTINCT or REDUCED the answer head is the projection, so the
// fact store's set semantics remove duplicates. Otherwise the head holds
// every pattern variable and projection happens after evaluation, keeping
// one row per solution.
func Compile(q *sparql.Query, g *graph.Graph) (*Program, error) {
	patternVars := q.PatternVars()
	inPattern := make(map[string]bool, len(patternVars))
	for _, v := range patternVars {
		inPattern[v] = true
	}
	for _, v := range q.Vars {
		if !inPattern[v] {
			return nil, fmt.Errorf("?%s: %w", v, ErrUnboundVariable)
		}
	}

	prog := &Program{Vars: q.Vars}
	if q.Distinct || q.Reduced {
		prog.Head = q.Vars
	} else {
		prog.Head = patternVars
	}

	c := &compiler{
		graph:    g,
		varNames: make(map[string]string, len(patternVars)),
		paths:    make(map[int64]string),
	}
	for i, v := range patternVars {
		c.varNames[v] = fmt.Sprintf("V%d", i)
	}

	var body []string
	for _, p := range q.Patterns {
		atom, ok := c.pattern(p)
		if !ok {
			prog.Empty = true
			return prog, nil
		}
		body = append(body, atom)
	}

	head := make([]string, len(prog.Head))
	for i, v := range prog.Head {
		head[i] = c.varNames[v]
	}
	if len(head) == 0 {
		prog.Unit = true
		head = []string{"0"}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Decl %s(S, P, O).\n", triplePredicate)
	for _, rules := range c.pathRules {
		sb.WriteString(rules)
	}
	fmt.Fprintf(&sb, "Decl %s(%s).\n", answerPredicate, declArgs(len(head)))
	if len(body) == 0 {
		fmt.Fprintf(&sb, "%s(%s).\n", answerPredicate, strings.Join(head, ", "))
	} else {
		fmt.Fprintf(&sb, "%s(%s) :- %s.\n", answerPredicate, strings.Join(head, ", "), strings.Join(body, ", "))
	}
	prog.Source = sb.String()
	return prog, nil
}

type compiler struct {
	graph     *graph.Graph
	varNames  map[string]string
	paths     map[int64]string
	pathRules []string
}

// pattern returns the body atom for p, or false when a constant of p is
// absent from the graph.
func (c *compiler) pattern(p sparql.Pattern) (string, bool) {
	s, ok := c.term(p.Subject)
	if !ok {
		return "", false
	}
	o, ok := c.term(p.Object)
	if !ok {
		return "", false
	}

	if !p.OneOrMore {
		pred, ok := c.term(p.Predicate)
		if !ok {
			return "", false
		}
		return fmt.Sprintf("%s(%s, %s, %s)", triplePredicate, s, pred, o), true
	}

	id, ok := c.graph.ID(termKey(p.Predicate))
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s(%s, %s)", c.path(id), s, o), true
}

// path returns the closure predicate for predicate id, emitting its rules on
// first use.
func (c *compiler) path(id int64) string {
	if name, ok := c.paths[id]; ok {
		return name
	}
	name := fmt.Sprintf("%s%d", pathPrefix, len(c.paths))
	c.paths[id] = name
	c.pathRules = append(c.pathRules, fmt.Sprintf(
		"Decl %[1]s(X, Y).\n%[1]s(X, Y) :- %[2]s(X, %[3]d, Y).\n%[1]s(X, Y) :- %[2]s(X, %[3]d, Z), %[1]s(Z, Y).\n",
		name, triplePredicate, id))
	return name
}

func (c *compiler) term(t sparql.Term) (string, bool) {
	if t.IsVariable() {
		return c.varNames[t.VarName()], true
	}
	id, ok := c.graph.ID(termKey(t))
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d", id), true
}

func termKey(t sparql.Term) string {
	switch t.Kind {
	case sparql.IRI:
		return graph.IRIKey(t.Value)
	case sparql.Blank:
		return graph.BlankKey(t.Value)
	default:
		return graph.LiteralKey(t.Value, t.Lang, t.Datatype)
	}
}

func declArgs(n int) string {
	args := make([]string, n)
	for i := range args {
		args[i] = fmt.Sprintf("A%d", i)
	}
	return strings.Join(args, ", ")
}
