// Package records projects parsed report rows into column-keyed records.
package records

import (
	"github.com/ginjaninja78/watson-validator/internal/types"
)

// Project zips each data row against headers. Cells past the end of a short
// row are blank; cells past the last header are dropped. OriginalRowIndex is
// the position in dataRows and is never renumbered afterwards.
func Project(headers []string, dataRows types.Grid) []types.Record {
	out := make([]types.Record, 0, len(dataRows))
	for i, row := range dataRows {
		rec := types.Record{OriginalRowIndex: i, Fields: make(map[string]types.Cell, len(headers))}
		for col, h := range headers {
			if col < len(row) {
				rec.Fields[h] = row[col]
			} else {
				rec.Fields[h] = types.Blank()
			}
		}
		out = append(out, rec)
	}
	return out
}

// IndexOf returns the current position of the record with the given original
// row index, or -1.
func IndexOf(recs []types.Record, originalRowIndex int) int {
	for i, r := range recs {
		if r.OriginalRowIndex == originalRowIndex {
			return i
		}
	}
	return -1
}

// Row returns a record's cells in header order.
func Row(rec types.Record, headers []string) []types.Cell {
	out := make([]types.Cell, len(headers))
	for i, h := range headers {
		out[i] = rec.Get(h)
	}
	return out
}

// SetRow writes cells back into a record in header order. Missing trailing
// cells become blank.
func SetRow(rec *types.Record, headers []string, cells []types.Cell) {
	for i, h := range headers {
		if i < len(cells) {
			rec.Set(h, cells[i])
		} else {
			rec.Set(h, types.Blank())
		}
	}
}

// Insert places rec at position pos, clamped to the slice bounds.
func Insert(recs []types.Record, pos int, rec types.Record) []types.Record {
	if pos < 0 {
		pos = 0
	}
	if pos > len(recs) {
		pos = len(recs)
	}
	recs = append(recs, types.Record{})
	copy(recs[pos+1:], recs[pos:])
	recs[pos] = rec
	return recs
}

// InsertOrdered places rec before the first record with a larger original
// row index. Used to restore deleted rows.
func InsertOrdered(recs []types.Record, rec types.Record) []types.Record {
	pos := len(recs)
	for i, r := range recs {
		if r.OriginalRowIndex > rec.OriginalRowIndex {
			pos = i
			break
		}
	}
	return Insert(recs, pos, rec)
}

// =============================================================================
// ROW SHIFTS
// =============================================================================

// CollapseLeft packs the non-blank cells at or after start to the left,
// keeping their order, and blanks the tail.
func CollapseLeft(cells []types.Cell, start int) []types.Cell {
	out := append([]types.Cell(nil), cells...)
	if start < 0 || start >= len(out) {
		return out
	}
	var kept []types.Cell
	for _, c := range out[start:] {
		if !c.IsBlank() {
			kept = append(kept, c)
		}
	}
	for i := start; i < len(out); i++ {
		if j := i - start; j < len(kept) {
			out[i] = kept[j]
		} else {
			out[i] = types.Blank()
		}
	}
	return out
}

// ShiftRight moves every cell at or after start one position right and blanks
// start. The last cell is dropped.
func ShiftRight(cells []types.Cell, start int) []types.Cell {
	out := append([]types.Cell(nil), cells...)
	if start < 0 || start >= len(out) {
		return out
	}
	for i := len(out) - 1; i > start; i-- {
		out[i] = out[i-1]
	}
	out[start] = types.Blank()
	return out
}

// ShiftLeft moves every cell after start one position left, overwriting
// start, and blanks the last cell.
func ShiftLeft(cells []types.Cell, start int) []types.Cell {
	out := append([]types.Cell(nil), cells...)
	if start < 0 || start >= len(out) {
		return out
	}
	for i := start; i < len(out)-1; i++ {
		out[i] = out[i+1]
	}
	out[len(out)-1] = types.Blank()
	return out
}
