package suggestions

import (
	"errors"
	"fmt"

	"github.com/ginjaninja78/watson-validator/internal/records"
	"github.com/ginjaninja78/watson-validator/internal/types"
)

var (
	// ErrStale is returned when the target of a suggestion no longer looks
	// the way it did when the suggestion was generated.
	ErrStale = errors.New("suggestion is stale")

	// ErrUnknownType is returned for a suggestion type Apply does not handle.
	ErrUnknownType = errors.New("unknown suggestion type")
)

// Apply performs a suggestion against the current records and returns the
// new record slice. The input slice and its records are not modified.
//
// The target row is located by original row index. Cell repairs require the
// target cell to still hold the preview's before value; row repairs require
// the whole row to match the snapshot taken at generation time. Otherwise
// ErrStale is returned and nothing changes.
func (e *Engine) Apply(recs []types.Record, headers []string, s Suggestion) ([]types.Record, error) {
	idx := records.IndexOf(recs, s.OriginalRowIndex)
	if idx < 0 {
		return nil, fmt.Errorf("%w: row %d no longer exists", ErrStale, s.OriginalRowIndex)
	}
	current := records.Row(recs[idx], headers)

	if s.RowLevel() {
		if !sameRow(current, s.Snapshot) {
			return nil, fmt.Errorf("%w: row %d has changed", ErrStale, s.OriginalRowIndex)
		}
	} else {
		if s.ColumnIndex < 0 || s.ColumnIndex >= len(headers) || s.Preview == nil {
			return nil, fmt.Errorf("%w: suggestion %s has no target cell", ErrStale, s.ID)
		}
		if !current[s.ColumnIndex].Equal(s.Preview.Before) {
			return nil, fmt.Errorf("%w: %s in row %d has changed", ErrStale, s.ColumnName, s.OriginalRowIndex)
		}
	}

	out := make([]types.Record, len(recs))
	copy(out, recs)

	if s.Type == TypeDeleteRow {
		return append(out[:idx], out[idx+1:]...), nil
	}

	var next []types.Cell
	switch s.Type {
	case TypeShiftLeft:
		next = ShiftLeftBy(current, s.ColumnIndex, gapWidth(current, s.ColumnIndex))
	case TypeShiftRight:
		next = records.ShiftRight(current, s.ColumnIndex)
	case TypeDeleteCell, TypeTrimSpace, TypeCopyFromAbove, TypeOther:
		next = append([]types.Cell(nil), current...)
		next[s.ColumnIndex] = s.Preview.After
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, s.Type)
	}

	rec := out[idx].Clone()
	records.SetRow(&rec, headers, next)
	out[idx] = rec
	return out, nil
}

func sameRow(a, b []types.Cell) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
