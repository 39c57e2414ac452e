package session

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/store"
	"github.com/ginjaninja78/watson-validator/internal/suggestions"
	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/xlsxparser"
)

const reportCSV = `Report Name,Daily Invoice
Supplier,Supplier Name,Invoice No.,Currency,Store,Date,Item Code,Item Description,Qty,GP%,Total Cost Exclusive,VAT %
100234,Acme Trading,INV-001,THB,S01,05/01/2026,00017,Widget,6,22.5,120.5,7%
100234,Acme Trading  ,INV-002,THB,S01,05/01/2026,00018,Gadget,2,10,50,7%
100234,Acme Trading,INV-003,THB,,05/01/2026,00019,Gizmo,3,10,75,7%
`

const trimID = "1:trim-whitespace:Supplier Name"

func newImported(t *testing.T, opts Options) *Session {
	t.Helper()
	s := New(opts)
	require.NoError(t, s.Import(context.Background(), strings.NewReader(reportCSV), "report.csv"))
	return s
}

func lastEntry(s *Session) activity.Entry {
	entries := s.Log().Entries()
	return entries[len(entries)-1]
}

func TestImport(t *testing.T) {
	s := newImported(t, Options{})

	assert.Equal(t, "report.csv", s.FileName())
	assert.Len(t, s.Headers(), 12)
	require.NotNil(t, s.Meta().ReportName)
	assert.Equal(t, "Daily Invoice", *s.Meta().ReportName)

	recs := s.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, 2, recs[2].OriginalRowIndex)

	assert.Equal(t, 1, s.Log().Len())
	e := lastEntry(s)
	assert.Equal(t, activity.ActionImportExcel, e.Action)
	assert.Equal(t, 3, e.Details.RowCount)
	assert.False(t, e.CanUndo)

	assert.Equal(t, 3, s.Summary().TotalRows)
	assert.Equal(t, 2, s.Summary().ValidRows)
	assert.Equal(t, 1, s.Summary().ErrorRows)
	assert.False(t, s.Summary().IsValid)
}

func TestImportFailureLeavesStateUntouched(t *testing.T) {
	s := newImported(t, Options{})

	err := s.Import(context.Background(), strings.NewReader(""), "empty.csv")
	require.Error(t, err)
	assert.True(t, errors.Is(err, xlsxparser.ErrEmptyWorkbook))

	assert.Equal(t, "report.csv", s.FileName())
	assert.Len(t, s.Records(), 3)
	assert.Equal(t, 1, s.Log().Len())
}

func TestOperationsBeforeImport(t *testing.T) {
	s := New(Options{})
	assert.True(t, errors.Is(s.EditCell(0, "Store", types.Text("x")), ErrNoReport))
	_, err := s.Validate()
	assert.True(t, errors.Is(err, ErrNoReport))
	assert.False(t, s.ApplySuggestion(trimID))
	assert.Equal(t, 0, s.ApplyAllAuto())
	assert.Equal(t, 0, s.Log().Len())
}

func TestEditUndoRoundTrip(t *testing.T) {
	s := newImported(t, Options{})

	require.NoError(t, s.EditCell(0, "Store", types.Text("B")))
	assert.Equal(t, "B", s.Records()[0].Get("Store").String())
	edit := lastEntry(s)
	assert.Equal(t, activity.ActionEditCell, edit.Action)
	assert.Equal(t, "S01", edit.Details.OldValue.String())
	assert.Equal(t, "B", edit.Details.NewValue.String())

	n := s.Log().Len()
	require.True(t, s.Undo(edit.ID))
	assert.Equal(t, "S01", s.Records()[0].Get("Store").String())
	assert.Equal(t, n+1, s.Log().Len())

	got, _ := s.Log().Get(edit.ID)
	assert.True(t, got.Undone)
	assert.Equal(t, activity.ActionUndo, lastEntry(s).Action)
	assert.Equal(t, edit.ID, lastEntry(s).Details.UndoOf)

	// second undo is rejected
	assert.False(t, s.Undo(edit.ID))
	assert.Equal(t, n+1, s.Log().Len())
}

func TestEditValidation(t *testing.T) {
	s := newImported(t, Options{})
	assert.True(t, errors.Is(s.EditCell(9, "Store", types.Text("x")), ErrRowRange))
	assert.True(t, errors.Is(s.EditCell(0, "Nope", types.Text("x")), ErrUnknownColumn))
	assert.True(t, errors.Is(s.ShiftColumnLeft(12), ErrColumnRange))
	assert.Equal(t, 1, s.Log().Len())
}

func TestUndoNonUndoable(t *testing.T) {
	s := newImported(t, Options{})
	_, err := s.Validate()
	require.NoError(t, err)
	v := lastEntry(s)

	n := s.Log().Len()
	assert.False(t, s.Undo(v.ID))
	assert.False(t, s.Undo("missing"))
	assert.Equal(t, n, s.Log().Len())
}

func TestFailedBatchUndoRollsBack(t *testing.T) {
	const twoRows = `Supplier,Supplier Name,Invoice No.,Currency,Store,Date,Item Code,Item Description,Qty,GP%,Total Cost Exclusive,VAT %
100234,Acme  ,INV-001,THB,S01,05/01/2026,00017,Widget,6,22.5,120.5,7%
100235,Beta  ,INV-002,THB,S01,05/01/2026,00018,Gadget,2,10,50,7%
`
	s := New(Options{})
	require.NoError(t, s.Import(context.Background(), strings.NewReader(twoRows), "two.csv"))

	require.Equal(t, 2, s.ApplyAllAuto())
	batch := lastEntry(s)
	require.NoError(t, s.DeleteRow(0))
	del := lastEntry(s)
	n := s.Log().Len()

	// row 0 is gone, so the batch inverse fails part way
	assert.False(t, s.Undo(batch.ID))
	assert.Equal(t, n, s.Log().Len())
	got, _ := s.Log().Get(batch.ID)
	assert.False(t, got.Undone)

	recs := s.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "Beta", recs[0].Get("Supplier Name").String())
	_, visible := suggestions.Find(s.Groups(), "1:trim-whitespace:Supplier Name")
	assert.False(t, visible)
	assert.True(t, s.Summary().IsValid)

	// once the row is back the batch undoes cleanly
	require.True(t, s.Undo(del.ID))
	require.True(t, s.Undo(batch.ID))
	recs = s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "Acme  ", recs[0].Get("Supplier Name").String())
	assert.Equal(t, "Beta  ", recs[1].Get("Supplier Name").String())
	_, visible = suggestions.Find(s.Groups(), "1:trim-whitespace:Supplier Name")
	assert.True(t, visible)
}

func TestClearCellRecomputesFindings(t *testing.T) {
	s := newImported(t, Options{})
	require.NoError(t, s.ClearCell(0, "Invoice No."))

	assert.Equal(t, activity.ActionClearCell, lastEntry(s).Action)
	assert.Equal(t, 2, s.Summary().ErrorRows)
}

func TestDeleteRowAndUndo(t *testing.T) {
	s := newImported(t, Options{})

	require.NoError(t, s.DeleteRow(1))
	recs := s.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].OriginalRowIndex)
	assert.Equal(t, 2, recs[1].OriginalRowIndex)

	require.True(t, s.Undo(lastEntry(s).ID))
	recs = s.Records()
	require.Len(t, recs, 3)
	assert.Equal(t, 1, recs[1].OriginalRowIndex)
	assert.Equal(t, "INV-002", recs[1].Get("Invoice No.").String())
}

func TestApplySuggestion(t *testing.T) {
	s := newImported(t, Options{})
	_, ok := suggestions.Find(s.Groups(), trimID)
	require.True(t, ok)

	n := s.Log().Len()
	require.True(t, s.ApplySuggestion(trimID))
	assert.Equal(t, "Acme Trading", s.Records()[1].Get("Supplier Name").String())
	assert.Equal(t, n+1, s.Log().Len())

	e := lastEntry(s)
	assert.Equal(t, activity.ActionEditCell, e.Action)
	assert.Equal(t, []string{trimID}, e.Details.SuggestionIDs)
	assert.True(t, e.CanUndo)

	_, ok = suggestions.Find(s.Groups(), trimID)
	assert.False(t, ok)

	// idempotent
	assert.False(t, s.ApplySuggestion(trimID))
	assert.Equal(t, n+1, s.Log().Len())

	// undo brings the value and the suggestion back
	require.True(t, s.Undo(e.ID))
	assert.Equal(t, "Acme Trading  ", s.Records()[1].Get("Supplier Name").String())
	_, ok = suggestions.Find(s.Groups(), trimID)
	assert.True(t, ok)
}

func TestApplyStaleSuggestionIsNoOp(t *testing.T) {
	s := newImported(t, Options{})
	require.NoError(t, s.DeleteRow(1))

	n := s.Log().Len()
	assert.False(t, s.ApplySuggestion(trimID))
	assert.False(t, s.ApplySuggestion("no-such-id"))
	assert.Equal(t, n, s.Log().Len())
	assert.Len(t, s.Records(), 2)
}

func TestApplyAllAuto(t *testing.T) {
	s := newImported(t, Options{})

	assert.Equal(t, 1, s.ApplyAllAuto())
	e := lastEntry(s)
	assert.Equal(t, activity.ActionAutoFix, e.Action)
	assert.Equal(t, 1, e.Details.FixedCount)
	assert.Equal(t, []string{trimID}, e.Details.SuggestionIDs)

	// manual suggestions remain
	assert.Equal(t, 0, s.SuggestionSummary().Auto)
	assert.Greater(t, s.SuggestionSummary().Manual, 0)

	n := s.Log().Len()
	assert.Equal(t, 0, s.ApplyAllAuto())
	assert.Equal(t, n, s.Log().Len())

	require.True(t, s.Undo(e.ID))
	assert.Equal(t, "Acme Trading  ", s.Records()[1].Get("Supplier Name").String())
}

func TestApplyGroup(t *testing.T) {
	s := newImported(t, Options{})

	assert.Equal(t, 1, s.ApplyGroup(suggestions.CategoryBlankRequired))
	assert.Equal(t, "S01", s.Records()[2].Get("Store").String())
	assert.True(t, s.Summary().IsValid)
	assert.Equal(t, activity.ActionAutoFix, lastEntry(s).Action)

	assert.Equal(t, 0, s.ApplyGroup("No such group"))
}

func TestShiftColumnAndUndo(t *testing.T) {
	s := newImported(t, Options{})
	before := s.Records()

	require.NoError(t, s.ShiftColumnRight(4))
	recs := s.Records()
	for _, r := range recs {
		assert.True(t, r.Get("Store").IsBlank())
	}
	assert.Equal(t, "S01", recs[0].Get("Date").String())
	assert.Equal(t, "Shift column \"Store\" right", lastEntry(s).Description)
	assert.True(t, lastEntry(s).Action.IsShift())

	require.True(t, s.Undo(lastEntry(s).ID))
	assert.Equal(t, before, s.Records())
}

func TestShiftRowLeftAndUndo(t *testing.T) {
	s := newImported(t, Options{})

	require.NoError(t, s.ShiftRowLeft(2, 4))
	row := s.Records()[2]
	assert.Equal(t, "05/01/2026", row.Get("Store").String())
	assert.True(t, row.Get("VAT %").IsBlank())
	assert.Equal(t, activity.ActionShiftRowLeft, lastEntry(s).Action)

	require.True(t, s.Undo(lastEntry(s).ID))
	assert.True(t, s.Records()[2].Get("Store").IsBlank())
	assert.Equal(t, "7%", s.Records()[2].Get("VAT %").String())

	require.NoError(t, s.ShiftRowRight(0, 11))
	assert.True(t, s.Records()[0].Get("VAT %").IsBlank())
}

func TestUndoAfterReimportIsRejected(t *testing.T) {
	s := newImported(t, Options{})
	require.NoError(t, s.EditCell(0, "Store", types.Text("B")))
	edit := lastEntry(s)

	require.NoError(t, s.Import(context.Background(), strings.NewReader(reportCSV), "report.csv"))
	n := s.Log().Len()
	assert.False(t, s.Undo(edit.ID))
	assert.Equal(t, n, s.Log().Len())
	assert.Equal(t, "S01", s.Records()[0].Get("Store").String())
}

func TestExports(t *testing.T) {
	s := newImported(t, Options{})

	var data bytes.Buffer
	require.NoError(t, s.ExportExcel(&data, "corrected.xlsx"))
	assert.Equal(t, activity.ActionExportExcel, lastEntry(s).Action)
	assert.Equal(t, "corrected.xlsx", lastEntry(s).Details.FileName)

	f, err := excelize.OpenReader(&data)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Data")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	var report bytes.Buffer
	require.NoError(t, s.ExportReport(&report, "report.xlsx"))
	e := lastEntry(s)
	assert.Equal(t, activity.ActionExportReport, e.Action)
	assert.Equal(t, 1, e.Details.ErrorCount)
	assert.False(t, e.CanUndo)
}

func TestSaveCloud(t *testing.T) {
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()

	s := newImported(t, Options{Activity: activity.Options{Sink: db}})
	id, err := s.SaveCloud(context.Background(), db)
	require.NoError(t, err)

	e := lastEntry(s)
	assert.Equal(t, activity.ActionSaveCloud, e.Action)
	assert.Equal(t, id, e.Details.ExportID)

	exp, err := db.GetExport(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "report.csv", exp.FileName)
	assert.Len(t, exp.Records, 3)
	assert.Equal(t, s.Summary(), exp.Summary)

	mirrored, err := db.ListActivity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, mirrored, s.Log().Len())
}

type failingSaver struct{}

func (failingSaver) SaveExport(context.Context, store.Export) (string, error) {
	return "", errors.New("offline")
}

func TestSaveCloudFailureLogsNothing(t *testing.T) {
	s := newImported(t, Options{})
	_, err := s.SaveCloud(context.Background(), failingSaver{})
	require.Error(t, err)
	assert.Equal(t, 1, s.Log().Len())
}
