// =============================================================================
// Watson Report Validator - SQLite Store
// =============================================================================
//
// This module is the persistence collaborator of an editing session. It keeps
// saved exports ("save to cloud") and a mirror of the activity log in a local
// SQLite database.
//
// TABLES:
//   exports   - one row per saved record set, keyed by a generated uuid
//   activity  - one row per activity entry, upserted when an entry changes
//
// =============================================================================

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/validation"
)

// ErrNotFound is returned when a saved export does not exist.
var ErrNotFound = errors.New("not found")

// DefaultActivityLimit is how many entries ListActivity returns when no
// limit is given.
const DefaultActivityLimit = 100

// Export is one saved record set.
type Export struct {
	ID        string             `json:"id"`
	FileName  string             `json:"fileName"`
	Meta      types.ReportMeta   `json:"meta"`
	Headers   []string           `json:"headers"`
	Records   []types.Record     `json:"records"`
	Summary   validation.Summary `json:"summary"`
	CreatedAt time.Time          `json:"createdAt"`
}

var _ activity.Sink = (*SQLiteStore)(nil)

// SQLiteStore persists exports and activity entries.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a :memory: database lives on a single connection
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	exportsTable := `
	CREATE TABLE IF NOT EXISTS exports (
		id TEXT PRIMARY KEY,
		file_name TEXT NOT NULL,
		meta_json TEXT NOT NULL,
		headers_json TEXT NOT NULL,
		records_json TEXT NOT NULL,
		summary_json TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		created_at TEXT NOT NULL
	);
	`

	activityTable := `
	CREATE TABLE IF NOT EXISTS activity (
		id TEXT PRIMARY KEY,
		seq INTEGER NOT NULL,
		action TEXT NOT NULL,
		description TEXT NOT NULL,
		details_json TEXT NOT NULL,
		user_json TEXT,
		can_undo INTEGER NOT NULL,
		undone INTEGER NOT NULL,
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_action ON activity(action);
	`

	for _, table := range []string{exportsTable, activityTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// =============================================================================
// EXPORTS
// =============================================================================

// SaveExport stores a record set and returns its generated id.
func (s *SQLiteStore) SaveExport(ctx context.Context, exp Export) (string, error) {
	id := uuid.NewString()
	created := s.now().UTC()

	meta, err := json.Marshal(exp.Meta)
	if err != nil {
		return "", fmt.Errorf("failed to encode meta: %w", err)
	}
	headers, err := json.Marshal(exp.Headers)
	if err != nil {
		return "", fmt.Errorf("failed to encode headers: %w", err)
	}
	recs, err := json.Marshal(exp.Records)
	if err != nil {
		return "", fmt.Errorf("failed to encode records: %w", err)
	}
	summary, err := json.Marshal(exp.Summary)
	if err != nil {
		return "", fmt.Errorf("failed to encode summary: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exports (id, file_name, meta_json, headers_json, records_json, summary_json, row_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, exp.FileName, string(meta), string(headers), string(recs), string(summary), len(exp.Records),
		created.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("failed to save export: %w", err)
	}
	return id, nil
}

// GetExport loads a saved record set.
func (s *SQLiteStore) GetExport(ctx context.Context, id string) (*Export, error) {
	var (
		exp                              Export
		meta, headers, recs, summary, ts string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, file_name, meta_json, headers_json, records_json, summary_json, created_at
		 FROM exports WHERE id = ?`, id).
		Scan(&exp.ID, &exp.FileName, &meta, &headers, &recs, &summary, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("export %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load export: %w", err)
	}

	for _, part := range []struct {
		raw  string
		into interface{}
	}{
		{meta, &exp.Meta},
		{headers, &exp.Headers},
		{recs, &exp.Records},
		{summary, &exp.Summary},
	} {
		if err := json.Unmarshal([]byte(part.raw), part.into); err != nil {
			return nil, fmt.Errorf("failed to decode export %s: %w", id, err)
		}
	}
	if exp.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
		return nil, fmt.Errorf("failed to decode export %s: %w", id, err)
	}
	return &exp, nil
}

// =============================================================================
// ACTIVITY
// =============================================================================

// SaveActivity inserts an entry, or updates it when it already exists.
func (s *SQLiteStore) SaveActivity(e activity.Entry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("failed to encode details: %w", err)
	}
	var user sql.NullString
	if e.User != nil {
		b, err := json.Marshal(e.User)
		if err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
		user = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.Exec(
		`INSERT INTO activity (id, seq, action, description, details_json, user_json, can_undo, undone, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET undone = excluded.undone, details_json = excluded.details_json`,
		e.ID, e.Seq, string(e.Action), e.Description, string(details), user,
		e.CanUndo, e.Undone, e.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save activity %s: %w", e.ID, err)
	}
	return nil
}

// ListActivity returns the most recent entries, newest first.
func (s *SQLiteStore) ListActivity(ctx context.Context, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seq, action, description, details_json, user_json, can_undo, undone, timestamp
		 FROM activity ORDER BY rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity: %w", err)
	}
	defer rows.Close()

	var out []activity.Entry
	for rows.Next() {
		var (
			e           activity.Entry
			action      string
			details, ts string
			user        sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Seq, &action, &e.Description, &details, &user, &e.CanUndo, &e.Undone, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		e.Action = activity.Action(action)
		if err := json.Unmarshal([]byte(details), &e.Details); err != nil {
			return nil, fmt.Errorf("failed to decode activity %s: %w", e.ID, err)
		}
		if user.Valid {
			e.User = &activity.User{}
			if err := json.Unmarshal([]byte(user.String), e.User); err != nil {
				return nil, fmt.Errorf("failed to decode activity %s: %w", e.ID, err)
			}
		}
		if e.Timestamp, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to decode activity %s: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ClearActivity removes every persisted activity entry.
func (s *SQLiteStore) ClearActivity(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM activity`); err != nil {
		return fmt.Errorf("failed to clear activity: %w", err)
	}
	return nil
}
