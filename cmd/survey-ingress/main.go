// cmd/survey-ingress/main.go
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dataport/survey-ingress/pkg/config"
	"github.com/dataport/survey-ingress/pkg/normalizer"
	"github.com/dataport/survey-ingress/pkg/pipeline"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "survey-ingress",
		Short: "Normalize raw household survey responses into typed tables",
		Long: "survey-ingress recodes the free-text responses of a household energy\n" +
			"survey into typed, analysis-ready columns driven by a declarative rule\n" +
			"table, and records every fallback coercion in an audit table.",
		SilenceUsage: true,
	}

	cmd.AddCommand(runCmd())
	cmd.AddCommand(validateCmd())
	cmd.AddCommand(rulesCmd())
	return cmd
}

// loadEnv loads configuration, initializing the logger first so config
// failures are reported through it.
func loadEnv() (*config.Config, error) {
	// Missing .env is fine; environment variables may be set directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := buildLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(logger)

	return cfg, nil
}

func buildLogger(level, format string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var zapCfg zap.Config
	switch format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	case "json":
		zapCfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format %q (want json or console)", format)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(lvl)

	return zapCfg.Build()
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Execute a full normalization run",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEnv()
			if err != nil {
				return err
			}
			defer zap.L().Sync() //nolint:errcheck

			runner, err := pipeline.NewRunner(cfg)
			if err != nil {
				return err
			}

			result, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("run %s: %d rows read, %d rows written, %d coercions\n",
				result.RunID, result.RowsRead, result.RowsWritten, result.CoercionTotal)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the rule table without touching any database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEnv()
			if err != nil {
				return err
			}
			defer zap.L().Sync() //nolint:errcheck

			set, err := pipeline.LoadRules(cfg)
			if err != nil {
				return err
			}
			if _, err := normalizer.NewEngine(set); err != nil {
				return err
			}

			source := cfg.RuleFile
			if source == "" {
				source = "built-in 2014 survey rules"
			}
			fmt.Printf("%s: %d rules OK\n", source, len(set.Rules))
			return nil
		},
	}
}

func rulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule table, one line per output field",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadEnv()
			if err != nil {
				return err
			}
			defer zap.L().Sync() //nolint:errcheck

			set, err := pipeline.LoadRules(cfg)
			if err != nil {
				return err
			}

			for _, r := range set.Rules {
				cols := r.SourceColumns()
				sort.Strings(cols)
				line := fmt.Sprintf("%-45s %-9s fallback=%s", r.Field, r.Kind, r.Fallback)
				if r.Condition != "" {
					line += " when=" + r.Condition
				}
				fmt.Printf("%s  <- %v\n", line, cols)
			}
			return nil
		},
	}
}
