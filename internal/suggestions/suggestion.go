// =============================================================================
// Watson Report Validator - Fix-Suggestion Engine
// =============================================================================
//
// This module inspects the current records and their validation findings and
// proposes repairs. Suggestions are plain data: the engine applies one by
// interpreting its type against the current record set, so a suggestion can
// be stored, listed, filtered and re-checked without carrying closures.
//
// SEVERITY:
//   - auto:        safe to include in one-click bulk apply
//   - manual:      needs explicit per-item confirmation
//   - destructive: needs explicit confirmation, never bulk-applied
//
// IDENTITY:
//   Every suggestion id is "<originalRowIndex>:<type>:<column>". The same
//   anomaly on the same row always yields the same id, so an id that has
//   already been applied can be filtered out after regeneration.
//
// CATEGORIES (in output order):
//   | Category              | Icon | Types                          |
//   |-----------------------|------|--------------------------------|
//   | Column drift          | ↔️   | shift-left, shift-right        |
//   | Whitespace            | ✂️   | trim-whitespace                |
//   | Blank required fields | 📝   | copy-from-above                |
//   | Number format         | 🔢   | other                          |
//   | Junk cells            | 🗑️   | delete-cell                    |
//   | Broken rows           | 🚫   | delete-row                     |
//
// =============================================================================

package suggestions

import (
	"fmt"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// SUGGESTION TYPES
// =============================================================================

// Type is the repair a suggestion performs.
type Type string

const (
	TypeShiftLeft     Type = "shift-left"
	TypeShiftRight    Type = "shift-right"
	TypeDeleteCell    Type = "delete-cell"
	TypeDeleteRow     Type = "delete-row"
	TypeCopyFromAbove Type = "copy-from-above"
	TypeTrimSpace     Type = "trim-whitespace"
	TypeOther         Type = "other"
)

// ActionFor maps a suggestion type to the activity action logged when a
// single suggestion of that type is applied.
func ActionFor(t Type) activity.Action {
	switch t {
	case TypeShiftLeft:
		return activity.ActionShiftRowLeft
	case TypeShiftRight:
		return activity.ActionShiftRowRight
	case TypeDeleteRow:
		return activity.ActionDeleteRow
	case TypeDeleteCell:
		return activity.ActionClearCell
	}
	return activity.ActionEditCell
}

// Severity governs the default treatment of a suggestion.
type Severity string

const (
	SeverityAuto        Severity = "auto"
	SeverityManual      Severity = "manual"
	SeverityDestructive Severity = "destructive"
)

// Category labels.
const (
	CategoryColumnDrift   = "Column drift"
	CategoryWhitespace    = "Whitespace"
	CategoryBlankRequired = "Blank required fields"
	CategoryNumberFormat  = "Number format"
	CategoryJunkCells     = "Junk cells"
	CategoryBrokenRows    = "Broken rows"
)

var categoryOrder = []string{
	CategoryColumnDrift,
	CategoryWhitespace,
	CategoryBlankRequired,
	CategoryNumberFormat,
	CategoryJunkCells,
	CategoryBrokenRows,
}

var categoryIcons = map[string]string{
	CategoryColumnDrift:   "↔️",
	CategoryWhitespace:    "✂️",
	CategoryBlankRequired: "📝",
	CategoryNumberFormat:  "🔢",
	CategoryJunkCells:     "🗑️",
	CategoryBrokenRows:    "🚫",
}

// Icon returns the display glyph for a category.
func Icon(category string) string { return categoryIcons[category] }

// Preview shows the target cell before and after a cell-level repair. Row
// shifts preview the affected cells joined with " | ".
type Preview struct {
	Before types.Cell `json:"before"`
	After  types.Cell `json:"after"`
}

// Suggestion is one proposed repair.
type Suggestion struct {
	ID          string   `json:"id"`
	Type        Type     `json:"type"`
	Severity    Severity `json:"severity"`
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`

	// RowIndex is the record's position when the suggestion was generated.
	RowIndex int `json:"rowIndex"`

	// OriginalRowIndex locates the record at apply time.
	OriginalRowIndex int `json:"originalRowIndex"`

	// ColumnName and ColumnIndex are the target cell, or the first column of
	// a row shift. Both are empty for delete-row.
	ColumnName  string `json:"columnName,omitempty"`
	ColumnIndex int    `json:"columnIndex"`

	Preview *Preview `json:"preview,omitempty"`

	// Snapshot is the record's row in header order at generation time. Row
	// level repairs refuse to apply once the row has changed.
	Snapshot []types.Cell `json:"-"`
}

// MakeID builds the stable suggestion id.
func MakeID(originalRowIndex int, t Type, column string) string {
	return fmt.Sprintf("%d:%s:%s", originalRowIndex, t, column)
}

// RowLevel reports whether the suggestion rewrites or removes a whole row.
func (s Suggestion) RowLevel() bool {
	switch s.Type {
	case TypeShiftLeft, TypeShiftRight, TypeDeleteRow:
		return true
	}
	return false
}

// Group is one category of suggestions.
type Group struct {
	Category    string       `json:"category"`
	Icon        string       `json:"icon"`
	Suggestions []Suggestion `json:"suggestions"`
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary counts suggestions by severity.
type Summary struct {
	Total       int `json:"total"`
	Auto        int `json:"auto"`
	Manual      int `json:"manual"`
	Destructive int `json:"destructive"`
}

// Summarize counts the suggestions in groups.
func Summarize(groups []Group) Summary {
	var s Summary
	for _, g := range groups {
		for _, sg := range g.Suggestions {
			s.Total++
			switch sg.Severity {
			case SeverityAuto:
				s.Auto++
			case SeverityManual:
				s.Manual++
			case SeverityDestructive:
				s.Destructive++
			}
		}
	}
	return s
}

// Flatten returns every suggestion in group order.
func Flatten(groups []Group) []Suggestion {
	var out []Suggestion
	for _, g := range groups {
		out = append(out, g.Suggestions...)
	}
	return out
}

// Find returns the suggestion with the given id.
func Find(groups []Group, id string) (Suggestion, bool) {
	for _, g := range groups {
		for _, s := range g.Suggestions {
			if s.ID == id {
				return s, true
			}
		}
	}
	return Suggestion{}, false
}

// Filter drops suggestions whose id is in skip, and any group left empty.
func Filter(groups []Group, skip map[string]bool) []Group {
	if len(skip) == 0 {
		return groups
	}
	var out []Group
	for _, g := range groups {
		kept := Group{Category: g.Category, Icon: g.Icon}
		for _, s := range g.Suggestions {
			if !skip[s.ID] {
				kept.Suggestions = append(kept.Suggestions, s)
			}
		}
		if len(kept.Suggestions) > 0 {
			out = append(out, kept)
		}
	}
	return out
}
