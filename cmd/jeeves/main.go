// Command jeeves lists every kind of computer file recorded in the jeeves.ttl
// knowledge base.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jeeves/internal/config"
	"jeeves/internal/logging"
	"jeeves/internal/pipeline"
)

// flags holds the root command's flag values.
type flags struct {
	file       string
	configPath string
	verbose    bool
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	var (
		f      flags
		cfg    *config.Config
		logger *zap.Logger
	)

	cmd := &cobra.Command{
		Use:   "jeeves",
		Short: "List computer file types from the jeeves knowledge base",
		Long: `jeeves loads jeeves.ttl from the working directory, selects every entity
that is transitively a kind of "computer file" and has a name and a git blob,
and prints them as a table sorted by name and uuid.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = resolveConfig(cmd, f)
			if err != nil {
				return err
			}
			logger, err = logging.New(cfg.Logging.Level, f.verbose)
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			logging.Get(logger, logging.CategoryBoot).Debug("Configuration resolved",
				zap.String("file", cfg.Input.File),
				zap.String("timeout", cfg.Query.Timeout),
				zap.Int("fact_limit", cfg.Query.FactLimit))
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return pipeline.Run(cmd.Context(), pipeline.FromConfig(cfg), logger, cmd.OutOrStdout())
		},
	}

	cmd.PersistentFlags().StringVarP(&f.file, "file", "f", "", "Turtle knowledge base (default: jeeves.ttl)")
	cmd.PersistentFlags().StringVarP(&f.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().DurationVar(&f.timeout, "timeout", 0, "Query evaluation timeout, 0 for none")

	cmd.AddCommand(newInitConfigCmd())
	return cmd
}

// resolveConfig starts from the defaults, applies the config file when one
// is named, then the flags that were set.
func resolveConfig(cmd *cobra.Command, f flags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	if cmd.Flags().Changed("file") {
		cfg.Input.File = f.file
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Query.Timeout = f.timeout.String()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newInitConfigCmd writes the default configuration to a file.
func newInitConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init-config [path]",
		Short: "Write the default configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "jeeves.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
}

func execute(ctx context.Context, args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

func main() {
	if err := execute(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
