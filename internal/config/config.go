// Package config holds the jeeves YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all jeeves configuration.
type Config struct {
	// Knowledge base input
	Input InputConfig `yaml:"input"`

	// Rule engine limits
	Query QueryConfig `yaml:"query"`

	// Table shaping
	Report ReportConfig `yaml:"report"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// InputConfig names the Turtle file to load.
type InputConfig struct {
	File string `yaml:"file" validate:"required"`
}

// QueryConfig configures query evaluation. A zero timeout or fact limit
// leaves evaluation unbounded.
type QueryConfig struct {
	Timeout   string `yaml:"timeout" validate:"required"`
	FactLimit int    `yaml:"fact_limit" validate:"min=0"`
}

// ReportConfig configures record shaping.
type ReportConfig struct {
	NameWidth int    `yaml:"name_width" validate:"min=0"`
	Ellipsis  string `yaml:"ellipsis"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Input: InputConfig{
			File: "jeeves.ttl",
		},
		Query: QueryConfig{
			Timeout:   "0s",
			FactLimit: 0,
		},
		Report: ReportConfig{
			NameWidth: 40,
			Ellipsis:  "...",
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load loads configuration from a YAML file. Keys absent from the file keep
// their defaults; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetQueryTimeout returns the query timeout as a duration; zero means none.
func (c *Config) GetQueryTimeout() time.Duration {
	d, err := time.ParseDuration(c.Query.Timeout)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	if d, err := time.ParseDuration(c.Query.Timeout); err != nil || d < 0 {
		return fmt.Errorf("invalid query timeout: %q", c.Query.Timeout)
	}
	return nil
}

// formatValidationError joins field errors into one readable message.
func formatValidationError(err error) error {
	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrors))
	for _, e := range fieldErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Namespace())
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
