// =============================================================================
// Watson Report Validator - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing the application
// configuration. Settings come from three layers, lowest precedence first:
//   1. Built-in defaults (applyDefaults)
//   2. The main config file (config.yaml)
//   3. Environment variables, optionally seeded from a .env file
//
// CONFIGURATION FILE:
//   parser:
//     header_anchor: supplier
//     header_scan_limit: 20
//     default_header_row: 10
//     csv_delimiter: ","
//   suggestions:
//     delete_row_error_threshold: 5
//     whitespace_limit: 10
//   store:
//     path: ./watson.db
//   input_dir: ./input
//   output_dir: ./output
//   archive_dir: ""
//   log_level: info
//
// ENVIRONMENT OVERRIDES:
//   WATSON_STORE_PATH, WATSON_LOG_LEVEL, WATSON_INPUT_DIR,
//   WATSON_OUTPUT_DIR, WATSON_HEADER_ANCHOR, WATSON_USER_NAME,
//   WATSON_USER_EMAIL
//
// A missing config file is not an error: the defaults are used as is.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// Parser controls header detection and file reading.
	Parser ParserConfig `yaml:"parser"`

	// Suggestions controls the fix-suggestion detectors.
	Suggestions SuggestionConfig `yaml:"suggestions"`

	// Store controls the local SQLite store used for cloud saves and the
	// persisted activity history.
	Store StoreConfig `yaml:"store"`

	// InputDir is scanned by 'process' when no files are named.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where exports are written when no explicit path is given.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir receives input files after they were processed
	// successfully. Empty disables archiving.
	ArchiveDir string `yaml:"archive_dir"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// User is attached to activity entries when set.
	User UserConfig `yaml:"user"`
}

// ParserConfig holds the grid parser settings.
type ParserConfig struct {
	// HeaderAnchor is the case-insensitive substring that identifies the
	// header row. Default: "supplier"
	HeaderAnchor string `yaml:"header_anchor"`

	// HeaderScanLimit is the number of leading rows searched for the anchor.
	// Default: 20
	HeaderScanLimit int `yaml:"header_scan_limit"`

	// DefaultHeaderRow is the 0-based header row used when no anchor is
	// found. Unset means 10; an explicit 0 selects the first row.
	DefaultHeaderRow *int `yaml:"default_header_row"`

	// CSVDelimiter is the field separator for .csv inputs. Default: ","
	CSVDelimiter string `yaml:"csv_delimiter"`
}

// SuggestionConfig holds the fix-suggestion thresholds.
type SuggestionConfig struct {
	// DeleteRowErrorThreshold is the number of error findings in one row at
	// which a delete-row suggestion is raised. Default: 5
	DeleteRowErrorThreshold int `yaml:"delete_row_error_threshold"`

	// WhitespaceLimit caps the number of trim-whitespace suggestions.
	// Default: 10
	WhitespaceLimit int `yaml:"whitespace_limit"`
}

// StoreConfig holds the SQLite store settings.
type StoreConfig struct {
	// Path is the database file. ":memory:" keeps everything in process.
	// Default: "./watson.db"
	Path string `yaml:"path"`
}

// UserConfig identifies the operator in the activity log.
type UserConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrInvalidConfig is returned when a loaded configuration fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{}
	applyDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file. A missing file
//     yields the defaults.
//
// RETURNS:
//   - A pointer to the MainConfig struct with defaults and environment
//     overrides applied.
//   - An error if the file cannot be read or parsed, or fails validation.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var cfg MainConfig

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// Defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyDefaults(&cfg)
	applyEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFiles seeds the process environment from .env files. Missing files
// are ignored; variables already set are not overwritten.
//
// RETURNS:
//   - An error naming the first file that exists but cannot be read or
//     parsed.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *MainConfig) {
	if cfg.Parser.HeaderAnchor == "" {
		cfg.Parser.HeaderAnchor = "supplier"
	}
	if cfg.Parser.HeaderScanLimit == 0 {
		cfg.Parser.HeaderScanLimit = 20
	}
	if cfg.Parser.DefaultHeaderRow == nil {
		row := 10
		cfg.Parser.DefaultHeaderRow = &row
	}
	if cfg.Parser.CSVDelimiter == "" {
		cfg.Parser.CSVDelimiter = ","
	}
	if cfg.Suggestions.DeleteRowErrorThreshold == 0 {
		cfg.Suggestions.DeleteRowErrorThreshold = 5
	}
	if cfg.Suggestions.WhitespaceLimit == 0 {
		cfg.Suggestions.WhitespaceLimit = 10
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "./watson.db"
	}
	if cfg.InputDir == "" {
		cfg.InputDir = "./input"
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./output"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
}

// applyEnv overlays WATSON_* environment variables.
func applyEnv(cfg *MainConfig) {
	if v := os.Getenv("WATSON_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("WATSON_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("WATSON_INPUT_DIR"); v != "" {
		cfg.InputDir = v
	}
	if v := os.Getenv("WATSON_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("WATSON_HEADER_ANCHOR"); v != "" {
		cfg.Parser.HeaderAnchor = v
	}
	if v := os.Getenv("WATSON_USER_NAME"); v != "" {
		cfg.User.Name = v
	}
	if v := os.Getenv("WATSON_USER_EMAIL"); v != "" {
		cfg.User.Email = v
	}
}

// validate checks value ranges after defaults are applied.
func validate(cfg *MainConfig) error {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, cfg.LogLevel)
	}
	if cfg.Parser.HeaderScanLimit < 0 {
		return fmt.Errorf("%w: header_scan_limit must not be negative", ErrInvalidConfig)
	}
	if *cfg.Parser.DefaultHeaderRow < 0 {
		return fmt.Errorf("%w: default_header_row must not be negative", ErrInvalidConfig)
	}
	if len([]rune(cfg.Parser.CSVDelimiter)) != 1 {
		return fmt.Errorf("%w: csv_delimiter must be a single character", ErrInvalidConfig)
	}
	if cfg.Suggestions.DeleteRowErrorThreshold < 1 {
		return fmt.Errorf("%w: delete_row_error_threshold must be at least 1", ErrInvalidConfig)
	}
	if cfg.Suggestions.WhitespaceLimit < 0 {
		return fmt.Errorf("%w: whitespace_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
