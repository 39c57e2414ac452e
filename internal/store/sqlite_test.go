package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/validation"
)

func openMemory(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveAndGetExport(t *testing.T) {
	s := openMemory(t)
	s.now = func() time.Time { return time.Date(2026, 1, 26, 8, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	exp := Export{
		FileName: "report.xlsx",
		Meta:     types.ReportMeta{ReportName: types.StringPtr("Daily Sales")},
		Headers:  []string{"Supplier", "Qty"},
		Records: []types.Record{
			{OriginalRowIndex: 0, Fields: map[string]types.Cell{"Supplier": types.Text("00017"), "Qty": types.Number(6)}},
			{OriginalRowIndex: 2, Fields: map[string]types.Cell{"Supplier": types.Text("S2"), "Qty": types.Blank()}},
		},
		Summary: validation.Summary{TotalRows: 2, ValidRows: 1, ErrorRows: 1},
	}

	id, err := s.SaveExport(ctx, exp)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got, err := s.GetExport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Daily Sales", *got.Meta.ReportName)
	assert.Nil(t, got.Meta.ReportParameters)
	assert.Equal(t, exp.Summary, got.Summary)
	assert.True(t, got.CreatedAt.Equal(s.now()))
	if diff := cmp.Diff(exp.Records, got.Records); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestGetExportNotFound(t *testing.T) {
	s := openMemory(t)
	_, err := s.GetExport(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestActivityMirror(t *testing.T) {
	s := openMemory(t)
	log := activity.New(activity.Options{Sink: s, User: &activity.User{Name: "Nok"}})

	imp, err := log.Record(activity.ActionImportExcel, "Import", activity.Details{FileName: "report.xlsx", RowCount: 2}, nil)
	require.NoError(t, err)
	edit, err := log.Record(activity.ActionEditCell, "Edit", activity.Details{
		RowIndex:   activity.IntPtr(0),
		ColumnName: "Qty",
		OldValue:   activity.CellPtr(types.Number(6)),
		NewValue:   activity.CellPtr(types.Text("seven")),
	}, func() error { return nil })
	require.NoError(t, err)
	_, err = log.Undo(edit.ID)
	require.NoError(t, err)

	entries, err := s.ListActivity(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, activity.ActionUndo, entries[0].Action)
	assert.Equal(t, edit.ID, entries[0].Details.UndoOf)

	assert.Equal(t, edit.ID, entries[1].ID)
	assert.True(t, entries[1].Undone)
	assert.True(t, entries[1].CanUndo)
	assert.Equal(t, 0, *entries[1].Details.RowIndex)
	assert.Equal(t, "seven", entries[1].Details.NewValue.String())
	assert.Equal(t, 6.0, entries[1].Details.OldValue.Num)

	assert.Equal(t, imp.ID, entries[2].ID)
	assert.Equal(t, "Nok", entries[2].User.Name)
	assert.Equal(t, "report.xlsx", entries[2].Details.FileName)
	assert.True(t, entries[2].Timestamp.Equal(imp.Timestamp))

	limited, err := s.ListActivity(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	require.NoError(t, s.ClearActivity(context.Background()))
	entries, err = s.ListActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "watson.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	_, err = s.ListActivity(context.Background(), 0)
	assert.NoError(t, err)
}
