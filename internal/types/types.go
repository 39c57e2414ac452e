// =============================================================================
// Watson Report Validator - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - xlsxparser (grid reading, header and metadata extraction)
//   - records    (row projection)
//   - validation, suggestions, session, exporter
//
// CELL MODEL:
//   A cell is blank, text, or a number. Spreadsheet readers frequently hand
//   back numbers for columns that "should" be text (item codes, store codes)
//   and text for columns that "should" be numbers, so the kind is kept
//   rather than flattened into a string.
//
// =============================================================================

package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// CELL
// =============================================================================

// CellKind identifies the kind of value held by a Cell.
type CellKind int

const (
	// KindBlank is an absent value.
	KindBlank CellKind = iota

	// KindText is a string value.
	KindText

	// KindNumber is a numeric value.
	KindNumber
)

// Date serial window used when rendering numbers. Numbers in this range are
// spreadsheet day serials for roughly 2009 through 2036.
const (
	dateSerialMin = 40000
	dateSerialMax = 50000
)

// Cell is a single spreadsheet value.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
}

// Text returns a text cell.
func Text(s string) Cell { return Cell{Kind: KindText, Str: s} }

// Number returns a numeric cell.
func Number(f float64) Cell { return Cell{Kind: KindNumber, Num: f} }

// Blank returns an absent cell.
func Blank() Cell { return Cell{} }

// IsBlank reports whether the cell is absent or holds text that trims to empty.
func (c Cell) IsBlank() bool {
	switch c.Kind {
	case KindBlank:
		return true
	case KindText:
		return strings.TrimSpace(c.Str) == ""
	}
	return false
}

// IsText reports whether the cell holds a string value.
func (c Cell) IsText() bool { return c.Kind == KindText }

// IsNumber reports whether the cell holds a numeric value.
func (c Cell) IsNumber() bool { return c.Kind == KindNumber }

// String returns the raw textual form of the cell. Numbers are rendered in
// shortest decimal form and blanks as "".
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Str
	case KindNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	}
	return ""
}

// Display returns the cell formatted for human display.
//
// Numbers in the date-serial window are shown as M/D/YYYY. Everything else is
// shown as String() would.
func (c Cell) Display() string {
	if c.Kind == KindNumber && c.Num > dateSerialMin && c.Num < dateSerialMax {
		return SerialToTime(c.Num).Format("1/2/2006")
	}
	return c.String()
}

// Equal reports whether two cells hold the same kind and value. Two blank
// cells are always equal.
func (c Cell) Equal(o Cell) bool {
	if c.Kind != o.Kind {
		return false
	}
	switch c.Kind {
	case KindText:
		return c.Str == o.Str
	case KindNumber:
		return c.Num == o.Num
	}
	return true
}

// MarshalJSON encodes blanks as null, text as a JSON string and numbers as a
// JSON number.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindText:
		return json.Marshal(c.Str)
	case KindNumber:
		return json.Marshal(c.Num)
	}
	return []byte("null"), nil
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("failed to decode cell: %w", err)
	}
	switch t := v.(type) {
	case nil:
		*c = Blank()
	case string:
		*c = Text(t)
	case float64:
		*c = Number(t)
	default:
		return fmt.Errorf("unsupported cell value %T", v)
	}
	return nil
}

// Grid is an ordered sequence of rows read from the first sheet of a workbook.
// Rows may be ragged.
type Grid [][]Cell

// At returns the cell at (row, col), or a blank cell when out of range.
func (g Grid) At(row, col int) Cell {
	if row < 0 || row >= len(g) || col < 0 || col >= len(g[row]) {
		return Blank()
	}
	return g[row][col]
}

// =============================================================================
// RECORD
// =============================================================================

// Record is one data row keyed by column name.
//
// Column order is not stored here; it comes from the header list the record
// was projected against.
type Record struct {
	// OriginalRowIndex is the 0-based position of the row in the retained
	// data-row sequence at import time. It never changes, even after other
	// rows are deleted.
	OriginalRowIndex int `json:"_rowIndex"`

	// Fields holds one cell per header.
	Fields map[string]Cell `json:"fields"`
}

// Get returns the cell for a column, or a blank cell if the column is absent.
func (r Record) Get(column string) Cell {
	if r.Fields == nil {
		return Blank()
	}
	return r.Fields[column]
}

// Set stores a cell under a column name.
func (r *Record) Set(column string, c Cell) {
	if r.Fields == nil {
		r.Fields = make(map[string]Cell)
	}
	r.Fields[column] = c
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := Record{OriginalRowIndex: r.OriginalRowIndex, Fields: make(map[string]Cell, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// CloneRecords deep-copies a record slice.
func CloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// =============================================================================
// REPORT METADATA
// =============================================================================

// ReportMeta is the metadata block that sits above the header row of a
// vendor report. Each field is nil when the label was not found.
type ReportMeta struct {
	ReportName       *string `json:"reportName,omitempty"`
	ReportRunAt      *string `json:"reportRunDateTime,omitempty"`
	ReportParameters *string `json:"reportParameters,omitempty"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
