// Package cli implements the satsend command-line interface.
//
// This package uses global variables to manage CLI state, which is the
// standard pattern for Cobra-based CLI applications. The globals are
// initialized in PersistentPreRunE and cleaned up in PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mrz1836/satsend/internal/config"
	satserr "github.com/mrz1836/satsend/pkg/errors"
)

var (
	// Global flags
	homeDir string
	verbose bool

	// Global state initialized in PersistentPreRunE
	store  *config.Store
	logger *config.Logger
	remote config.RemoteLog
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "satsend",
	Short: "A non-custodial Bitcoin send engine CLI",
	Long: `Satsend is a terminal-based non-custodial Bitcoin wallet focused on
on-chain sends: HD accounts, deterministic coin selection, fee-level
resolution, and a strict validate-build-execute pipeline.

Example:
  satsend wallet create main --words 24
  satsend balance --wallet main
  satsend send --wallet main --to bc1q... --amount 0.1 --fee-level priority`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return initGlobals()
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

// Execute runs the root command.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
		return err
	}
	return nil
}

// ExitCode returns the appropriate exit code for an error.
func ExitCode(err error) int {
	return satserr.ExitCode(err)
}

// printError renders an error with its suggestion when present.
func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)

	var se *satserr.SatsendError
	if satserr.As(err, &se) && se.Suggestion != "" {
		fmt.Fprintf(os.Stderr, "Suggestion: %s\n", se.Suggestion)
	}
}

// initGlobals initializes the injected configuration store and logger.
func initGlobals() error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	var err error
	store, err = config.Open(config.Path(home))
	if err != nil {
		return err
	}

	cfg := store.Config()
	if homeDir != "" {
		cfg.Home = homeDir
	} else if cfg.Home == "" {
		cfg.Home = home
	}
	if verbose {
		cfg.Display.Verbose = true
		cfg.Logging.Level = "debug"
	}

	logLevel := config.ParseLogLevel(cfg.Logging.Level)
	logger, err = config.NewLogger(logLevel, cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	remote = &config.FileRemoteLog{Logger: logger}
	return nil
}

// cleanup releases resources.
func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return store.Config()
}

// Store returns the injected configuration store.
func Store() *config.Store {
	return store
}

// Logger returns the global logger.
func Logger() *config.Logger {
	return logger
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "satsend data directory (default: ~/.satsend)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}
