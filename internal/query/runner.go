// Package query evaluates SPARQL SELECT queries over a loaded graph by
// compiling them to Mangle rules.
package query

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/knakk/rdf"
	"go.uber.org/zap"

	"jeeves/internal/graph"
	"jeeves/internal/logging"
	"jeeves/internal/mangle"
	"jeeves/internal/sparql"
)

// ComputerFiles selects every entity that is, directly or through a chain of
// is-a links, a kind of "computer file" and has both a name and a git blob.
const ComputerFiles = `
PREFIX uuid: <uuid:///>
PREFIX  scm: <terminusdb:///schema#>
PREFIX  xsd: <http://www.w3.org/2001/XMLSchema#>

SELECT DISTINCT ?uuid ?name ?gitblob
WHERE {
    ?file scm:name "computer file" .
    ?uuid scm:is-a+ ?file .
    ?uuid scm:name ?name .
    ?uuid scm:git-blob ?gitblob .
}
`

// Row is one solution: projected variable name to bound term.
type Row map[string]rdf.Term

// Result holds the projected variables and the solutions in a deterministic
// order.
type Result struct {
	Vars     []string
	Rows     []Row
	Duration time.Duration
}

// Runner evaluates queries. Each Run uses a fresh engine.
type Runner struct {
	config mangle.Config
	logger *zap.Logger
}

// NewRunner returns a runner using cfg for every evaluation.
func NewRunner(cfg mangle.Config, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{config: cfg, logger: logger}
}

// Run parses text, evaluates it against g and returns the solutions.
func (r *Runner) Run(ctx context.Context, g *graph.Graph, text string) (*Result, error) {
	q, err := sparql.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse query: %w", err)
	}
	return r.Execute(ctx, g, q)
}

// Execute evaluates an already parsed query.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, q *sparql.Query) (*Result, error) {
	start := time.Now()

	prog, err := Compile(q, g)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	res := &Result{Vars: q.Vars}
	if prog.Empty {
		r.logger.Debug("Query constant absent from graph, skipping evaluation")
		res.Duration = time.Since(start)
		return res, nil
	}
	r.logger.Debug("Compiled query", zap.String("program", prog.Source))

	kernel := logging.Get(r.logger, logging.CategoryKernel)
	engine, err := mangle.NewEngine(r.config, kernel)
	if err != nil {
		return nil, err
	}
	if err := engine.LoadSchemaString(prog.Source); err != nil {
		return nil, fmt.Errorf("load compiled query: %w", err)
	}

	facts := make([]mangle.Fact, 0, g.Len())
	_ = g.Each(func(t graph.EncodedTriple) error {
		facts = append(facts, mangle.Fact{Predicate: triplePredicate, Args: []interface{}{t.S, t.P, t.O}})
		return nil
	})
	if err := engine.AddFacts(facts); err != nil {
		return nil, fmt.Errorf("load graph facts: %w", err)
	}
	timer := logging.StartTimer(kernel, "evaluate")
	if err := engine.Evaluate(ctx); err != nil {
		return nil, err
	}
	stats := engine.GetStats()
	timer.Stop(zap.Int("facts", stats.TotalFacts), zap.Any("predicates", stats.PredicateCounts))

	answers, err := engine.GetFacts(answerPredicate)
	if err != nil {
		return nil, err
	}

	rows, err := decode(g, prog, answers)
	if err != nil {
		return nil, err
	}
	res.Rows = rows
	res.Duration = time.Since(start)

	if r.logger.Core().Enabled(zap.DebugLevel) {
		for _, row := range rows {
			r.logger.Debug("Solution", zap.String("row", row.Describe(q.Vars)))
		}
	}

	r.logger.Debug("Query evaluated",
		zap.Int("triples", g.Len()),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", res.Duration))
	return res, nil
}

// decode maps answer facts back to terms, projects them and orders the rows
// by the term keys of their projected columns.
func decode(g *graph.Graph, prog *Program, answers []mangle.Fact) ([]Row, error) {
	headIndex := make(map[string]int, len(prog.Head))
	for i, v := range prog.Head {
		headIndex[v] = i
	}

	type keyed struct {
		row  Row
		keys []string
	}
	out := make([]keyed, 0, len(answers))
	for _, fact := range answers {
		row := make(Row, len(prog.Vars))
		keys := make([]string, len(prog.Vars))
		for i, v := range prog.Vars {
			id, ok := fact.Args[headIndex[v]].(int64)
			if !ok {
				return nil, fmt.Errorf("answer argument for ?%s is %T, want term id", v, fact.Args[headIndex[v]])
			}
			term, ok := g.Term(id)
			if !ok {
				return nil, fmt.Errorf("answer references unknown term id %d", id)
			}
			row[v] = term
			keys[i] = graph.TermKey(term)
		}
		out = append(out, keyed{row: row, keys: keys})
	}

	slices.SortStableFunc(out, func(a, b keyed) int {
		return slices.Compare(a.keys, b.keys)
	})

	rows := make([]Row, len(out))
	for i, k := range out {
		rows[i] = k.row
	}
	return rows, nil
}

// Describe renders a row as ?var=key pairs in vars order.
func (r Row) Describe(vars []string) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		if t, ok := r[v]; ok {
			parts[i] = "?" + v + "=" + graph.TermKey(t)
		} else {
			parts[i] = "?" + v + "="
		}
	}
	return strings.Join(parts, " ")
}
