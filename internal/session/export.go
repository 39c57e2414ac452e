package session

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/exporter"
	"github.com/ginjaninja78/watson-validator/internal/store"
)

// =============================================================================
// OUTPUTS
// =============================================================================

// ExportExcel writes the corrected records as an xlsx workbook and logs the
// export under name.
func (s *Session) ExportExcel(w io.Writer, name string) error {
	if s.generation == 0 {
		return ErrNoReport
	}
	if err := exporter.WriteData(w, s.records, s.headers); err != nil {
		return fmt.Errorf("failed to export %s: %w", name, err)
	}
	_, err := s.log.Record(activity.ActionExportExcel,
		fmt.Sprintf("Export %d rows to %q", len(s.records), name),
		activity.Details{FileName: name, RowCount: len(s.records)}, nil)
	return err
}

// ExportReport writes the validation report workbook and logs it under name.
func (s *Session) ExportReport(w io.Writer, name string) error {
	if s.generation == 0 {
		return ErrNoReport
	}
	s.refresh()
	if err := exporter.WriteReport(w, s.records, s.headers, s.result.Findings, s.opts.Now()); err != nil {
		return fmt.Errorf("failed to export %s: %w", name, err)
	}
	errs, warns := s.result.Counts()
	_, err := s.log.Record(activity.ActionExportReport,
		fmt.Sprintf("Export validation report to %q", name),
		activity.Details{FileName: name, RowCount: len(s.records), ErrorCount: errs, WarningCount: warns}, nil)
	return err
}

// SaveCloud hands the current records to saver and logs the id it returns.
func (s *Session) SaveCloud(ctx context.Context, saver CloudSaver) (string, error) {
	if s.generation == 0 {
		return "", ErrNoReport
	}
	id, err := saver.SaveExport(ctx, store.Export{
		FileName: s.fileName,
		Meta:     s.meta,
		Headers:  exporter.ExportHeaders(s.headers),
		Records:  s.Records(),
		Summary:  s.result.Summary,
	})
	if err != nil {
		return "", fmt.Errorf("failed to save to cloud: %w", err)
	}
	s.logger.Info("saved export", zap.String("id", id), zap.Int("rows", len(s.records)))

	_, err = s.log.Record(activity.ActionSaveCloud,
		fmt.Sprintf("Save %d rows to cloud", len(s.records)),
		activity.Details{FileName: s.fileName, RowCount: len(s.records), ExportID: id}, nil)
	return id, err
}
