// Package mangle wraps the Google Mangle Datalog engine for evaluating
// compiled graph queries over an in-memory fact store.
package mangle

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
	"go.uber.org/zap"
)

// Config holds Mangle engine configuration. Zero values disable the
// corresponding limit.
type Config struct {
	FactLimit    int           `yaml:"fact_limit"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns the defaults: no fact limit and no deadline.
func DefaultConfig() Config {
	return Config{}
}

// Engine holds a program and the facts it is evaluated over.
type Engine struct {
	config Config
	logger *zap.Logger

	mu              sync.RWMutex
	store           factstore.ConcurrentFactStore
	programInfo     *analysis.ProgramInfo
	predicateIndex  map[string]ast.PredicateSym
	schemaFragments []parse.SourceUnit
	factCount       int
}

// Fact represents a single fact in the store.
type Fact struct {
	Predicate string        `json:"predicate"`
	Args      []interface{} `json:"args"`
}

// Stats contains engine statistics.
type Stats struct {
	TotalFacts      int            `json:"total_facts"`
	PredicateCounts map[string]int `json:"predicate_counts"`
}

// NewEngine creates a new engine. A nil logger discards log output.
func NewEngine(cfg Config, logger *zap.Logger) (*Engine, error) {
	if cfg.FactLimit < 0 {
		return nil, fmt.Errorf("fact limit must not be negative: %d", cfg.FactLimit)
	}
	if cfg.QueryTimeout < 0 {
		return nil, fmt.Errorf("query timeout must not be negative: %v", cfg.QueryTimeout)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		config:         cfg,
		logger:         logger,
		store:          factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
		predicateIndex: make(map[string]ast.PredicateSym),
	}, nil
}

// LoadSchemaString parses and analyzes a Mangle source fragment. Fragments
// accumulate; each call re-analyzes the whole program.
func (e *Engine) LoadSchemaString(schema string) error {
	unit, err := parse.Unit(bytes.NewReader([]byte(schema)))
	if err != nil {
		return fmt.Errorf("failed to parse schema: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.schemaFragments = append(e.schemaFragments, unit)
	if err := e.rebuildProgramLocked(); err != nil {
		e.schemaFragments = e.schemaFragments[:len(e.schemaFragments)-1]
		return fmt.Errorf("failed to analyze schema: %w", err)
	}
	return nil
}

func (e *Engine) rebuildProgramLocked() error {
	var clauses []ast.Clause
	var decls []ast.Decl
	for _, fragment := range e.schemaFragments {
		clauses = append(clauses, fragment.Clauses...)
		decls = append(decls, fragment.Decls...)
	}

	programInfo, err := analysis.AnalyzeOneUnit(parse.SourceUnit{Clauses: clauses, Decls: decls}, nil)
	if err != nil {
		return err
	}

	e.programInfo = programInfo
	e.predicateIndex = make(map[string]ast.PredicateSym, len(programInfo.Decls))
	for sym := range programInfo.Decls {
		e.predicateIndex[sym.Symbol] = sym
	}
	return nil
}

// AddFacts inserts facts in one batch. Rules run on Evaluate.
func (e *Engine) AddFacts(facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no schemas loaded; call LoadSchemaString first")
	}

	for _, fact := range facts {
		if err := e.insertFactLocked(fact); err != nil {
			return err
		}
	}
	return nil
}

// insertFactLocked adds fact to the store. Duplicates never count against
// the fact limit.
func (e *Engine) insertFactLocked(fact Fact) error {
	atom, err := e.factToAtomLocked(fact)
	if err != nil {
		return err
	}
	if e.store.Contains(atom) {
		return nil
	}
	if e.config.FactLimit > 0 && e.factCount >= e.config.FactLimit {
		return fmt.Errorf("fact limit exceeded: %d", e.config.FactLimit)
	}
	e.store.Add(atom)
	e.factCount++
	return nil
}

func (e *Engine) factToAtomLocked(fact Fact) (ast.Atom, error) {
	sym, ok := e.predicateIndex[fact.Predicate]
	if !ok {
		return ast.Atom{}, fmt.Errorf("predicate %s is not declared in schemas", fact.Predicate)
	}
	if len(fact.Args) != sym.Arity {
		return ast.Atom{}, fmt.Errorf("predicate %s expects %d args, got %d", fact.Predicate, sym.Arity, len(fact.Args))
	}

	args := make([]ast.BaseTerm, len(fact.Args))
	for i, raw := range fact.Args {
		term, err := convertValueToBaseTerm(raw)
		if err != nil {
			return ast.Atom{}, fmt.Errorf("predicate %s arg %d: %w", fact.Predicate, i, err)
		}
		args[i] = term
	}
	return ast.Atom{Predicate: sym, Args: args}, nil
}

func convertValueToBaseTerm(value interface{}) (ast.BaseTerm, error) {
	switch v := value.(type) {
	case ast.BaseTerm:
		return v, nil
	case int64:
		return ast.Number(v), nil
	case int:
		return ast.Number(int64(v)), nil
	default:
		return nil, fmt.Errorf("unsupported fact argument type %T", v)
	}
}

// Evaluate runs all rules to a fixed point. Without a deadline on ctx or a
// configured query timeout it runs to completion on the calling goroutine.
// Otherwise it is abandoned with an error when the deadline passes; the
// abandoned evaluation keeps writing to the store, so an engine must not be
// reused after a timeout.
func (e *Engine) Evaluate(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.programInfo == nil {
		return fmt.Errorf("no schemas loaded; call LoadSchemaString first")
	}

	if e.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	if _, ok := ctx.Deadline(); !ok {
		if _, err := mengine.EvalProgramWithStats(e.programInfo, e.store); err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		e.logEvaluated(start)
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := mengine.EvalProgramWithStats(e.programInfo, e.store)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("evaluation failed: %w", err)
		}
		e.logEvaluated(start)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("evaluation timed out after %v: %w", time.Since(start).Round(time.Millisecond), ctx.Err())
	}
}

func (e *Engine) logEvaluated(start time.Time) {
	e.logger.Debug("Evaluation complete",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("facts", e.store.EstimateFactCount()))
}

// GetFacts retrieves all facts for a predicate, including derived ones.
func (e *Engine) GetFacts(predicate string) ([]Fact, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	sym, ok := e.predicateIndex[predicate]
	if !ok {
		return nil, fmt.Errorf("predicate %s is not declared", predicate)
	}

	var results []Fact
	err := e.store.GetFacts(ast.NewQuery(sym), func(atom ast.Atom) error {
		args := make([]interface{}, len(atom.Args))
		for i, arg := range atom.Args {
			args[i] = convertBaseTermToInterface(arg)
		}
		results = append(results, Fact{Predicate: predicate, Args: args})
		return nil
	})
	return results, err
}

// GetStats returns statistics for the fact store.
func (e *Engine) GetStats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	counts := make(map[string]int)
	for _, sym := range e.store.ListPredicates() {
		n := 0
		_ = e.store.GetFacts(ast.NewQuery(sym), func(ast.Atom) error {
			n++
			return nil
		})
		counts[sym.Symbol] = n
	}
	return Stats{
		TotalFacts:      e.store.EstimateFactCount(),
		PredicateCounts: counts,
	}
}

func convertBaseTermToInterface(term ast.BaseTerm) interface{} {
	if c, ok := term.(ast.Constant); ok && c.Type == ast.NumberType {
		return c.NumValue
	}
	return term.String()
}
