// Package pipeline runs the full jeeves report: load the knowledge base,
// select the computer file subtypes and print them as a table.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"jeeves/internal/config"
	"jeeves/internal/graph"
	"jeeves/internal/logging"
	"jeeves/internal/mangle"
	"jeeves/internal/query"
	"jeeves/internal/report"
)

// Options controls one run.
type Options struct {
	File   string
	Query  mangle.Config
	Report report.Options
}

// FromConfig derives run options from cfg.
func FromConfig(cfg *config.Config) Options {
	q := mangle.DefaultConfig()
	q.FactLimit = cfg.Query.FactLimit
	q.QueryTimeout = cfg.GetQueryTimeout()
	return Options{
		File:  cfg.Input.File,
		Query: q,
		Report: report.Options{
			NameWidth: cfg.Report.NameWidth,
			Ellipsis:  cfg.Report.Ellipsis,
		},
	}
}

// Records loads opts.File and returns the sorted computer file records.
func Records(ctx context.Context, opts Options, logger *zap.Logger) ([]report.Record, error) {
	timer := logging.StartTimer(logging.Get(logger, logging.CategoryGraph), "load")
	g, err := graph.Load(opts.File)
	if err != nil {
		return nil, err
	}
	timer.StopWithThreshold(5*time.Second,
		zap.String("file", opts.File),
		zap.Int("triples", g.Len()),
		zap.Int("terms", g.Terms()))

	res, err := query.NewRunner(opts.Query, logging.Get(logger, logging.CategoryQuery)).
		Run(ctx, g, query.ComputerFiles)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", opts.File, err)
	}

	records := report.FromRows(res.Rows, opts.Report)
	report.Sort(records)
	logging.Get(logger, logging.CategoryReport).Debug("Records ready", zap.Int("records", len(records)))
	return records, nil
}

// Run writes the computer file table for opts.File to w.
func Run(ctx context.Context, opts Options, logger *zap.Logger, w io.Writer) error {
	records, err := Records(ctx, opts, logger)
	if err != nil {
		return err
	}
	if err := report.Render(w, records); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	return nil
}
