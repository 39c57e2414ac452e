package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMainConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "supplier", cfg.Parser.HeaderAnchor)
	assert.Equal(t, 20, cfg.Parser.HeaderScanLimit)
	require.NotNil(t, cfg.Parser.DefaultHeaderRow)
	assert.Equal(t, 10, *cfg.Parser.DefaultHeaderRow)
	assert.Equal(t, 5, cfg.Suggestions.DeleteRowErrorThreshold)
	assert.Equal(t, 10, cfg.Suggestions.WhitespaceLimit)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMainConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
parser:
  header_anchor: vendor
  default_header_row: 4
suggestions:
  whitespace_limit: 3
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "vendor", cfg.Parser.HeaderAnchor)
	assert.Equal(t, 4, *cfg.Parser.DefaultHeaderRow)
	assert.Equal(t, 20, cfg.Parser.HeaderScanLimit)
	assert.Equal(t, 3, cfg.Suggestions.WhitespaceLimit)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMainConfigEnvOverride(t *testing.T) {
	t.Setenv("WATSON_STORE_PATH", ":memory:")
	t.Setenv("WATSON_LOG_LEVEL", "warn")

	cfg, err := LoadMainConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.Store.Path)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadMainConfigRejectsBadLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\n"), 0o644))

	_, err := LoadMainConfig(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("WATSON_OUTPUT_DIR=/tmp/watson-out\n"), 0o644))
	t.Setenv("WATSON_OUTPUT_DIR", "")
	os.Unsetenv("WATSON_OUTPUT_DIR")

	require.NoError(t, LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")))

	cfg, err := LoadMainConfig(filepath.Join(dir, "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/watson-out", cfg.OutputDir)
}

func TestLoadEnvFilesRejectsMalformedFile(t *testing.T) {
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("NOT-VALID=1\n"), 0o644))

	err := LoadEnvFiles(envPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), envPath)
}

func TestLoadMainConfigHeaderRowZero(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parser:\n  default_header_row: 0\n"), 0o644))

	cfg, err := LoadMainConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.Parser.DefaultHeaderRow)
	assert.Equal(t, 0, *cfg.Parser.DefaultHeaderRow)
}

func TestLoadMainConfigRejectsNegativeHeaderRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("parser:\n  default_header_row: -2\n"), 0o644))

	_, err := LoadMainConfig(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
