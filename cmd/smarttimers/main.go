// Package main provides the CLI entry point for smarttimers.
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	internalconfig "github.com/joosthooz/smarttimers/internal/config"
	"github.com/joosthooz/smarttimers/pkg/config"
	"github.com/joosthooz/smarttimers/pkg/logger"
)

var (
	clockID     string
	sessionName string
	outputPath  string
	appendMode  bool
	debugMode   bool
	traceMode   bool
)

func main() {
	os.Exit(mainWithExitCode())
}

func mainWithExitCode() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)

		return 1
	}

	return 0
}

var rootCmd = &cobra.Command{
	Use:   "smarttimers",
	Short: "Tic-toc timing instrumentation",
	Long: `smarttimers measures named code blocks with paired tic/toc marks and
reports per-label, relative, and cumulative timings.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		checkVersionFlag()
	},
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&clockID,
		"clock",
		"k",
		"",
		"Clock used for readings (monotonic, wall, process)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&sessionName,
		"name",
		"n",
		"",
		"Session name used to label exported output",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputPath,
		"output",
		"o",
		"",
		"Export file path (default: derived from session name)",
	)
	rootCmd.PersistentFlags().BoolVar(
		&appendMode,
		"append",
		false,
		"Append to the export file instead of truncating it",
	)
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceMode, "trace", false, "Enable trace logging")
}

// loadConfig loads configuration from all sources with precedence.
func loadConfig() (*config.Config, error) {
	loader, err := internalconfig.NewLoader()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create config loader")
	}

	cfg, err := loader.Load(buildFlagsMap())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}

	return cfg, nil
}

// buildFlagsMap converts CLI flags to a map for the config provider.
func buildFlagsMap() map[string]any {
	flags := make(map[string]any)

	if clockID != "" {
		flags["clock"] = clockID
	}

	if sessionName != "" {
		flags["name"] = sessionName
	}

	if outputPath != "" {
		flags["output"] = outputPath
	}

	if appendMode {
		flags["append"] = true
	}

	if debugMode {
		flags["debug"] = true
	}

	if traceMode {
		flags["trace"] = true
	}

	return flags
}

// newLogger creates a logger from the log configuration.
//
//nolint:ireturn // callers program against the Logger interface
func newLogger(cfg *config.Config) (logger.Logger, error) {
	logCfg := cfg.GetLog()
	level := logger.LevelFromFlags(logCfg.IsDebugEnabled(), logCfg.IsTraceEnabled())

	if logCfg.File != "" {
		log, err := logger.NewFileLogger(logCfg.File, level)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create logger")
		}

		return log, nil
	}

	return logger.NewWriterLogger(os.Stderr, level), nil
}
