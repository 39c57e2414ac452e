// =============================================================================
// Watson Report Validator - Editing Session
// =============================================================================
//
// A Session owns one editing cycle over one imported report: the headers and
// metadata, the current records, their findings and suggestions, and the
// activity log. Nothing is shared between sessions.
//
// MUTATION CYCLE:
//   Every mutating operation follows the same steps:
//   1. Change the records.
//   2. Record one activity entry carrying an inverse closure.
//   3. Recompute findings and suggestions from the new records.
//
//   Findings and suggestions are never patched incrementally. Inverse
//   closures locate rows by original row index, so they still work after
//   other rows were deleted.
//
// =============================================================================

package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/logging"
	"github.com/ginjaninja78/watson-validator/internal/records"
	"github.com/ginjaninja78/watson-validator/internal/store"
	"github.com/ginjaninja78/watson-validator/internal/suggestions"
	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/validation"
	"github.com/ginjaninja78/watson-validator/internal/xlsxparser"
)

var (
	ErrNoReport      = errors.New("no report imported")
	ErrRowRange      = errors.New("row index out of range")
	ErrColumnRange   = errors.New("column index out of range")
	ErrUnknownColumn = errors.New("unknown column")

	// ErrRowGone is returned by an inverse whose row no longer exists.
	ErrRowGone = errors.New("row no longer exists")

	// ErrReimported is returned by an inverse recorded before the current
	// report was imported.
	ErrReimported = errors.New("entry belongs to an earlier import")
)

// CloudSaver persists the current record set and returns an opaque id.
type CloudSaver interface {
	SaveExport(ctx context.Context, exp store.Export) (string, error)
}

// Options configures a Session.
type Options struct {
	Parser      xlsxparser.Options
	Suggestions suggestions.Options

	// Activity configures the session's log. Its Logger defaults to Logger.
	Activity activity.Options

	// Now stamps report exports. Default: time.Now
	Now func() time.Time

	Logger *zap.Logger
}

// Session is one editing session. It is not safe for concurrent use.
type Session struct {
	opts      Options
	logger    *zap.Logger
	validator *validation.Validator
	engine    *suggestions.Engine
	log       *activity.Log

	fileName string
	headers  []string
	meta     types.ReportMeta
	records  []types.Record
	result   validation.Result
	groups   []suggestions.Group
	applied  map[string]bool

	// generation increments on every import
	generation int
}

// New creates an empty session.
func New(opts Options) *Session {
	opts.Logger = logging.OrNop(opts.Logger)
	if opts.Activity.Logger == nil {
		opts.Activity.Logger = opts.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		opts:      opts,
		logger:    opts.Logger,
		validator: validation.NewValidator(),
		engine:    suggestions.NewEngine(opts.Suggestions),
		log:       activity.New(opts.Activity),
		applied:   make(map[string]bool),
	}
}

// =============================================================================
// READ ACCESS
// =============================================================================

// FileName returns the name of the imported file.
func (s *Session) FileName() string { return s.fileName }

// Headers returns a copy of the report headers.
func (s *Session) Headers() []string { return append([]string(nil), s.headers...) }

// Meta returns the report metadata.
func (s *Session) Meta() types.ReportMeta { return s.meta }

// Records returns a deep copy of the current records.
func (s *Session) Records() []types.Record { return types.CloneRecords(s.records) }

// Findings returns the current validation findings.
func (s *Session) Findings() []validation.Finding {
	return append([]validation.Finding(nil), s.result.Findings...)
}

// Summary returns the current validation summary.
func (s *Session) Summary() validation.Summary { return s.result.Summary }

// Groups returns the current suggestion groups. Applied ids are excluded.
func (s *Session) Groups() []suggestions.Group { return s.groups }

// SuggestionSummary counts the current suggestions.
func (s *Session) SuggestionSummary() suggestions.Summary { return suggestions.Summarize(s.groups) }

// Log returns the session's activity log.
func (s *Session) Log() *activity.Log { return s.log }

// =============================================================================
// IMPORT
// =============================================================================

// Import reads and parses a report, replacing the current records. A fatal
// parse error leaves the session unchanged.
func (s *Session) Import(ctx context.Context, r io.Reader, fileName string) error {
	report, err := xlsxparser.ParseReader(ctx, r, fileName, s.opts.Parser)
	if err != nil {
		return err
	}

	s.generation++
	s.fileName = fileName
	s.headers = report.Headers
	s.meta = report.Meta
	s.records = records.Project(report.Headers, report.DataRows)
	s.applied = make(map[string]bool)

	s.logger.Info("imported report",
		zap.String("file", fileName),
		zap.Int("header_row", report.HeaderRow),
		zap.Bool("anchor_found", report.AnchorFound),
		zap.Int("rows", len(s.records)))

	if _, err := s.log.Record(activity.ActionImportExcel,
		fmt.Sprintf("Import file %q", fileName),
		activity.Details{FileName: fileName, RowCount: len(s.records)}, nil); err != nil {
		return err
	}
	s.refresh()
	return nil
}

// refresh recomputes findings and suggestions from the current records.
func (s *Session) refresh() {
	s.result = s.validator.Validate(s.records, s.headers)
	s.groups = suggestions.Filter(s.engine.Generate(s.records, s.headers, s.result.Findings), s.applied)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate recomputes and returns the validation result and logs the run.
func (s *Session) Validate() (validation.Result, error) {
	if s.generation == 0 {
		return validation.Result{}, ErrNoReport
	}
	s.refresh()
	errs, warns := s.result.Counts()
	_, err := s.log.Record(activity.ActionValidate,
		fmt.Sprintf("Validate %d rows: %d errors, %d warnings", len(s.records), errs, warns),
		activity.Details{RowCount: len(s.records), ErrorCount: errs, WarningCount: warns}, nil)
	return s.result, err
}

// =============================================================================
// UNDO
// =============================================================================

// Undo reverts a logged entry. It returns false when the log rejects the
// undo or the inverse cannot be applied; nothing changes in that case. A
// batch inverse that fails part way is rolled back to the state before the
// undo.
func (s *Session) Undo(entryID string) bool {
	recs, applied := types.CloneRecords(s.records), maps.Clone(s.applied)
	if s.generation > 0 {
		defer s.refresh()
	}
	if _, err := s.log.Undo(entryID); err != nil {
		s.records, s.applied = recs, applied
		s.logger.Debug("undo rejected", zap.String("entry", entryID), zap.Error(err))
		return false
	}
	return true
}

// guard wraps an inverse so that it refuses to run after a re-import.
func (s *Session) guard(inverse activity.Inverse) activity.Inverse {
	gen := s.generation
	return func() error {
		if s.generation != gen {
			return ErrReimported
		}
		return inverse()
	}
}

// locate returns the current position of a row by original index.
func (s *Session) locate(originalRowIndex int) (int, error) {
	idx := records.IndexOf(s.records, originalRowIndex)
	if idx < 0 {
		return -1, fmt.Errorf("%w: original row %d", ErrRowGone, originalRowIndex)
	}
	return idx, nil
}

// rowCells returns the row at idx in header order.
func (s *Session) rowCells(idx int) []types.Cell { return records.Row(s.records[idx], s.headers) }

// setRow replaces the row at idx with cells in header order.
func (s *Session) setRow(idx int, cells []types.Cell) {
	rec := s.records[idx].Clone()
	records.SetRow(&rec, s.headers, cells)
	s.records[idx] = rec
}

// setCell replaces one cell of the row at idx.
func (s *Session) setCell(idx int, column string, c types.Cell) {
	rec := s.records[idx].Clone()
	rec.Set(column, c)
	s.records[idx] = rec
}

// restoreRow is an inverse that puts a row's cells back.
func (s *Session) restoreRow(originalRowIndex int, cells []types.Cell) activity.Inverse {
	return s.guard(func() error {
		idx, err := s.locate(originalRowIndex)
		if err != nil {
			return err
		}
		s.setRow(idx, cells)
		return nil
	})
}

// restoreCell is an inverse that puts one cell back.
func (s *Session) restoreCell(originalRowIndex int, column string, c types.Cell) activity.Inverse {
	return s.guard(func() error {
		idx, err := s.locate(originalRowIndex)
		if err != nil {
			return err
		}
		s.setCell(idx, column, c)
		return nil
	})
}

// reinsert is an inverse that restores a deleted record at its original
// position.
func (s *Session) reinsert(rec types.Record) activity.Inverse {
	return s.guard(func() error {
		if records.IndexOf(s.records, rec.OriginalRowIndex) >= 0 {
			return fmt.Errorf("original row %d is already present", rec.OriginalRowIndex)
		}
		s.records = records.InsertOrdered(s.records, rec.Clone())
		return nil
	})
}
