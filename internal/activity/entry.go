// =============================================================================
// Watson Report Validator - Activity Log
// =============================================================================
//
// This module records every mutating action taken during an editing session
// (import, manual edit, suggestion apply, bulk apply, export, cloud save) as
// an entry in an append-only log.
//
// UNDO:
//   Undo never removes an entry. The original entry is marked undone and a
//   new "undo" entry referencing it is appended, so every undo grows the log
//   by exactly one. Reverting is done by an inverse function captured when
//   the entry was recorded; the log never replays history.
//
// FILTERS:
//   | Filter   | Matches                              |
//   |----------|--------------------------------------|
//   | all      | every entry                          |
//   | edits    | edit-cell, clear-cell                |
//   | imports  | import-excel, import-pricelist       |
//   | shifts   | any action prefixed "shift-"         |
//   | undoable | canUndo and not yet undone           |
//
// =============================================================================

package activity

import (
	"strings"
	"time"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// ACTION TYPES
// =============================================================================

// Action is the closed set of logged action types.
type Action string

const (
	ActionImportExcel     Action = "import-excel"
	ActionImportPriceList Action = "import-pricelist"
	ActionEditCell        Action = "edit-cell"
	ActionClearCell       Action = "clear-cell"
	ActionDeleteRow       Action = "delete-row"
	ActionShiftRowLeft    Action = "shift-row-left"
	ActionShiftRowRight   Action = "shift-row-right"
	ActionShiftColLeft    Action = "shift-col-left"
	ActionShiftColRight   Action = "shift-col-right"
	ActionAutoFix         Action = "auto-fix"
	ActionValidate        Action = "validate"
	ActionExportExcel     Action = "export-excel"
	ActionExportReport    Action = "export-report"
	ActionSaveCloud       Action = "save-cloud"
	ActionUndo            Action = "undo"

	// ActionRedo is reserved; the log never produces it.
	ActionRedo Action = "redo"
)

// UndoableByDefault reports whether entries of an action type can be undone.
func UndoableByDefault(a Action) bool {
	switch a {
	case ActionEditCell, ActionClearCell, ActionDeleteRow,
		ActionShiftRowLeft, ActionShiftRowRight,
		ActionShiftColLeft, ActionShiftColRight,
		ActionAutoFix:
		return true
	}
	return false
}

// IsShift reports whether the action is one of the shift actions.
func (a Action) IsShift() bool { return strings.HasPrefix(string(a), "shift-") }

// =============================================================================
// ENTRIES
// =============================================================================

// User identifies who performed an action.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Details is the action-specific payload. Only the fields relevant to the
// action are set.
type Details struct {
	// imports
	FileName string `json:"fileName,omitempty"`
	RowCount int    `json:"rowCount,omitempty"`

	// cloud save
	ExportID string `json:"exportId,omitempty"`

	// cell edits
	RowIndex   *int        `json:"rowIndex,omitempty"`
	ColumnName string      `json:"columnName,omitempty"`
	OldValue   *types.Cell `json:"oldValue,omitempty"`
	NewValue   *types.Cell `json:"newValue,omitempty"`

	// shifts
	ColumnIndex  *int `json:"colIndex,omitempty"`
	AffectedRows int  `json:"affectedRows,omitempty"`

	// validation
	ErrorCount   int `json:"errorCount,omitempty"`
	WarningCount int `json:"warningCount,omitempty"`

	// suggestion applies
	FixedCount    int      `json:"fixedCount,omitempty"`
	SuggestionIDs []string `json:"suggestionIds,omitempty"`

	// UndoOf is the id of the entry an undo entry reverted.
	UndoOf string `json:"undoOf,omitempty"`
}

// Entry is one logged action.
type Entry struct {
	ID          string    `json:"id"`
	Seq         int       `json:"seq"`
	Action      Action    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
	Details     Details   `json:"details"`
	User        *User     `json:"user,omitempty"`
	CanUndo     bool      `json:"canUndo"`
	Undone      bool      `json:"undone"`
}

// Undoable reports whether the entry can still be undone.
func (e Entry) Undoable() bool { return e.CanUndo && !e.Undone }

// IntPtr returns a pointer to i, for the optional index fields of Details.
func IntPtr(i int) *int { return &i }

// CellPtr returns a pointer to a copy of c.
func CellPtr(c types.Cell) *types.Cell { return &c }
