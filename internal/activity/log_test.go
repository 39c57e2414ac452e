package activity

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

func newTestLog(sink Sink) *Log {
	n := 0
	clock := time.Date(2026, 1, 26, 9, 0, 0, 0, time.UTC)
	return New(Options{
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
		NewID: func() string {
			n++
			return fmt.Sprintf("e%d", n)
		},
		User: &User{Name: "Nok", Email: "nok@example.com"},
		Sink: sink,
	})
}

func TestRecordAssignsUndoFromAction(t *testing.T) {
	l := newTestLog(nil)

	imp, err := l.Record(ActionImportExcel, "Import report.xlsx", Details{FileName: "report.xlsx", RowCount: 3}, nil)
	require.NoError(t, err)
	assert.False(t, imp.CanUndo)
	assert.Equal(t, "e1", imp.ID)
	assert.Equal(t, 1, imp.Seq)
	assert.Equal(t, "Nok", imp.User.Name)

	edit, err := l.Record(ActionEditCell, "Edit", Details{}, func() error { return nil })
	require.NoError(t, err)
	assert.True(t, edit.CanUndo)
	assert.True(t, edit.Timestamp.After(imp.Timestamp))

	_, err = l.Record(ActionDeleteRow, "Delete", Details{}, nil)
	assert.True(t, errors.Is(err, ErrNoInverse))
	assert.Equal(t, 2, l.Len())
}

func TestUndoRoundTrip(t *testing.T) {
	l := newTestLog(nil)
	value := types.Text("A")

	value = types.Text("B")
	edit, err := l.Record(ActionEditCell, "Edit row 1", Details{
		RowIndex:   IntPtr(0),
		ColumnName: "Store",
		OldValue:   CellPtr(types.Text("A")),
		NewValue:   CellPtr(types.Text("B")),
	}, func() error {
		value = types.Text("A")
		return nil
	})
	require.NoError(t, err)
	before := l.Len()

	undo, err := l.Undo(edit.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", value.String())
	assert.Equal(t, ActionUndo, undo.Action)
	assert.Equal(t, edit.ID, undo.Details.UndoOf)
	assert.False(t, undo.CanUndo)
	assert.Equal(t, before+1, l.Len())

	got, ok := l.Get(edit.ID)
	require.True(t, ok)
	assert.True(t, got.Undone)
}

func TestUndoRejections(t *testing.T) {
	l := newTestLog(nil)
	v, _ := l.Record(ActionValidate, "Validate", Details{ErrorCount: 2}, nil)
	e, _ := l.Record(ActionEditCell, "Edit", Details{}, func() error { return nil })
	failing, _ := l.Record(ActionClearCell, "Clear", Details{}, func() error { return errors.New("row gone") })

	_, err := l.Undo("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = l.Undo(v.ID)
	assert.True(t, errors.Is(err, ErrNotUndoable))

	_, err = l.Undo(e.ID)
	require.NoError(t, err)
	n := l.Len()
	_, err = l.Undo(e.ID)
	assert.True(t, errors.Is(err, ErrAlreadyUndone))
	assert.Equal(t, n, l.Len())

	_, err = l.Undo(failing.ID)
	require.Error(t, err)
	got, _ := l.Get(failing.ID)
	assert.False(t, got.Undone)
	assert.Equal(t, n, l.Len())
}

func TestQueryAndSummary(t *testing.T) {
	l := newTestLog(nil)
	noop := func() error { return nil }
	_, _ = l.Record(ActionImportExcel, "import", Details{}, nil)
	_, _ = l.Record(ActionImportPriceList, "pricelist", Details{}, nil)
	edit, _ := l.Record(ActionEditCell, "edit", Details{}, noop)
	_, _ = l.Record(ActionClearCell, "clear", Details{}, noop)
	_, _ = l.Record(ActionShiftRowLeft, "shift row", Details{}, noop)
	_, _ = l.Record(ActionShiftColRight, "shift col", Details{}, noop)
	_, _ = l.Record(ActionExportExcel, "export", Details{}, nil)
	_, err := l.Undo(edit.ID)
	require.NoError(t, err)

	actions := func(es []Entry) []Action {
		out := make([]Action, len(es))
		for i, e := range es {
			out[i] = e.Action
		}
		return out
	}

	tests := []struct {
		filter Filter
		want   []Action
	}{
		{Filter{Class: ClassEdits}, []Action{ActionEditCell, ActionClearCell}},
		{Filter{Class: ClassImports}, []Action{ActionImportExcel, ActionImportPriceList}},
		{Filter{Class: ClassShifts}, []Action{ActionShiftRowLeft, ActionShiftColRight}},
		{Filter{Class: ClassUndoable}, []Action{ActionClearCell, ActionShiftRowLeft, ActionShiftColRight}},
		{Filter{Actions: []Action{ActionExportExcel, ActionUndo}}, []Action{ActionExportExcel, ActionUndo}},
		{Filter{Class: ClassEdits, Actions: []Action{ActionClearCell}}, []Action{ActionClearCell}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, actions(l.Query(tt.filter))); diff != "" {
			t.Errorf("Query(%+v) mismatch (-want +got):\n%s", tt.filter, diff)
		}
	}

	assert.Equal(t, Summary{TotalActions: 8, Edits: 2, Imports: 2, Shifts: 2, Undoable: 3}, l.Summary())
	assert.Len(t, l.Entries(), 8)
}

func TestClear(t *testing.T) {
	l := newTestLog(nil)
	e, _ := l.Record(ActionEditCell, "edit", Details{}, func() error { return nil })
	l.Clear()

	assert.Equal(t, 0, l.Len())
	_, err := l.Undo(e.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

type memorySink struct {
	saved []Entry
	err   error
}

func (m *memorySink) SaveActivity(e Entry) error {
	m.saved = append(m.saved, e)
	return m.err
}

func TestSinkMirrorsEntries(t *testing.T) {
	sink := &memorySink{}
	l := newTestLog(sink)
	e, _ := l.Record(ActionEditCell, "edit", Details{}, func() error { return nil })
	_, err := l.Undo(e.ID)
	require.NoError(t, err)

	// record, undone update, undo entry
	require.Len(t, sink.saved, 3)
	assert.False(t, sink.saved[0].Undone)
	assert.True(t, sink.saved[1].Undone)
	assert.Equal(t, ActionUndo, sink.saved[2].Action)
}

func TestSinkFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	l := New(Options{Sink: &memorySink{err: errors.New("disk full")}, Logger: zap.New(core)})

	_, err := l.Record(ActionValidate, "validate", Details{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Len())
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "failed to persist activity entry", logs.All()[0].Message)
}

func TestUndoableByDefault(t *testing.T) {
	tests := []struct {
		action Action
		want   bool
	}{
		{ActionEditCell, true},
		{ActionDeleteRow, true},
		{ActionShiftColLeft, true},
		{ActionAutoFix, true},
		{ActionValidate, false},
		{ActionExportExcel, false},
		{ActionImportExcel, false},
		{ActionSaveCloud, false},
		{ActionUndo, false},
	}
	for _, tt := range tests {
		if got := UndoableByDefault(tt.action); got != tt.want {
			t.Errorf("UndoableByDefault(%q) = %v, want %v", tt.action, got, tt.want)
		}
	}
}
