package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/config"
	"github.com/ginjaninja78/watson-validator/internal/session"
	"github.com/ginjaninja78/watson-validator/internal/store"
	"github.com/ginjaninja78/watson-validator/internal/suggestions"
	"github.com/ginjaninja78/watson-validator/internal/xlsxparser"
)

// sessionOptions maps the main configuration onto session options. sink may
// be nil.
func sessionOptions(c *config.MainConfig, l *zap.Logger, sink activity.Sink) session.Options {
	opts := session.Options{
		Parser: xlsxparser.Options{
			HeaderAnchor:     c.Parser.HeaderAnchor,
			HeaderScanLimit:  c.Parser.HeaderScanLimit,
			DefaultHeaderRow: c.Parser.DefaultHeaderRow,
			CSVDelimiter:     c.Parser.CSVDelimiter,
		},
		Suggestions: suggestions.Options{
			DeleteRowErrorThreshold: c.Suggestions.DeleteRowErrorThreshold,
			WhitespaceLimit:         c.Suggestions.WhitespaceLimit,
		},
		Activity: activity.Options{Sink: sink},
		Logger:   l,
	}
	if c.User.Name != "" || c.User.Email != "" {
		opts.Activity.User = &activity.User{Name: c.User.Name, Email: c.User.Email}
	}
	return opts
}

// importFile opens path and imports it into s under its base name.
func importFile(ctx context.Context, s *session.Session, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return s.Import(ctx, f, filepath.Base(path))
}

// openStore opens the configured SQLite store.
func openStore() (*store.SQLiteStore, error) {
	db, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", cfg.Store.Path, err)
	}
	logger.Debug("store opened", zap.String("path", cfg.Store.Path))
	return db, nil
}
