// Package logging builds the structured zap loggers used across jeeves.
// Logs go to stderr so they never mix with the table on stdout. Each
// subsystem logs under its own category name.
package logging

import (
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot   Category = "boot"   // Startup, config loading
	CategoryGraph  Category = "graph"  // Turtle loading
	CategoryQuery  Category = "query"  // SPARQL compilation and execution
	CategoryKernel Category = "kernel" // Mangle evaluation
	CategoryReport Category = "report" // Record shaping, table output
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = "warn"

// New builds a production JSON logger writing to stderr at level. Verbose
// forces debug.
func New(level string, verbose bool) (*zap.Logger, error) {
	return NewWithSink(level, verbose, zapcore.Lock(os.Stderr))
}

// NewWithSink is New with an explicit destination.
func NewWithSink(level string, verbose bool, sink zapcore.WriteSyncer) (*zap.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	config := zap.NewProductionConfig()
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		sink,
		zap.NewAtomicLevelAt(lvl),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// ParseLevel maps a level name to a zap level. The empty string is the
// default level.
func ParseLevel(level string) (zapcore.Level, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid logging level %q: %w", level, err)
	}
	return lvl, nil
}

// Get returns logger scoped to category. A nil logger yields a no-op one.
func Get(logger *zap.Logger, category Category) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger.Named(string(category))
}

// Timer helps measure operation duration
type Timer struct {
	logger *zap.Logger
	op     string
	start  time.Time
}

// StartTimer begins timing an operation
func StartTimer(logger *zap.Logger, operation string) *Timer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Timer{
		logger: logger,
		op:     operation,
		start:  time.Now(),
	}
}

// Stop ends the timer and logs the duration at debug level
func (t *Timer) Stop(fields ...zap.Field) time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug(t.op+" completed", append(fields, zap.Duration("elapsed", elapsed))...)
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration, fields ...zap.Field) time.Duration {
	elapsed := time.Since(t.start)
	fields = append(fields, zap.Duration("elapsed", elapsed))
	if elapsed > threshold {
		t.logger.Warn(t.op+" was slow", append(fields, zap.Duration("threshold", threshold))...)
	} else {
		t.logger.Debug(t.op+" completed", fields...)
	}
	return elapsed
}
