// =============================================================================
// Watson Report Validator - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. The root command is
// the base command that all other commands are attached to.
//
// COBRA CLI STRUCTURE:
//   rootCmd (watson)
//   ├── validateCmd (watson validate)
//   ├── processCmd  (watson process)
//   ├── allocateCmd (watson allocate)
//   ├── historyCmd  (watson history)
//   └── versionCmd  (watson version)
//
// CONFIGURATION:
//   The root command is responsible for:
//   1. Setting up global flags (--config, --verbose)
//   2. Loading .env files and the main configuration
//   3. Setting up logging
//
// =============================================================================

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/config"
	"github.com/ginjaninja78/watson-validator/internal/logging"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// verbose enables debug logging when set to true.
var verbose bool

// cfg and logger are set up before any subcommand runs.
var (
	cfg    *config.MainConfig
	logger = zap.NewNop()
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "watson",
	Short: "Watson - Validate and repair supplier invoice report exports",
	Long: `Watson imports supplier invoice reports exported from the legacy
reporting system (xlsx, xls or csv), validates every row against the column
rules, proposes repairs for drifted columns, stray whitespace and junk cells,
and exports a corrected workbook plus a validation report.

Key Features:
  - Header row detection with report metadata extraction
  - Column rule validation with error and warning findings
  - Fix suggestions grouped by category, with automatic repairs
  - Undoable activity history, persisted to a local store
  - Quantity allocation calculator for standard and promotion prices

Example Usage:
  watson validate ./input/daily.xlsx      # Print findings and suggestions
  watson process                          # Repair and export every input file
  watson process --save                   # Also save results to the store
  watson allocate --max-qty 10 --raw 920 --std-ext 100 --optimize`,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadEnvFiles(".env"); err != nil {
			return err
		}

		loaded, err := config.LoadMainConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load main config: %w", err)
		}
		cfg = loaded

		l, err := logging.New(cfg.LogLevel, verbose)
		if err != nil {
			return fmt.Errorf("failed to set up logging: %w", err)
		}
		logger = l
		logger.Debug("configuration loaded", zap.String("config", cfgFile))
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}
