package session

import (
	"fmt"

	"github.com/ginjaninja78/watson-validator/internal/activity"
	"github.com/ginjaninja78/watson-validator/internal/records"
	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// MANUAL EDITS
// =============================================================================
// Row and column positions are current positions in the record list and the
// header list.

func (s *Session) checkRow(row int) error {
	if s.generation == 0 {
		return ErrNoReport
	}
	if row < 0 || row >= len(s.records) {
		return fmt.Errorf("%w: %d of %d", ErrRowRange, row, len(s.records))
	}
	return nil
}

func (s *Session) checkColumnIndex(col int) error {
	if s.generation == 0 {
		return ErrNoReport
	}
	if col < 0 || col >= len(s.headers) {
		return fmt.Errorf("%w: %d of %d", ErrColumnRange, col, len(s.headers))
	}
	return nil
}

func (s *Session) checkColumn(column string) error {
	for _, h := range s.headers {
		if h == column {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownColumn, column)
}

// EditCell sets one cell.
func (s *Session) EditCell(row int, column string, value types.Cell) error {
	return s.writeCell(activity.ActionEditCell, row, column, value)
}

// ClearCell blanks one cell.
func (s *Session) ClearCell(row int, column string) error {
	return s.writeCell(activity.ActionClearCell, row, column, types.Blank())
}

func (s *Session) writeCell(action activity.Action, row int, column string, value types.Cell) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if err := s.checkColumn(column); err != nil {
		return err
	}

	orig := s.records[row].OriginalRowIndex
	old := s.records[row].Get(column)
	s.setCell(row, column, value)

	verb := "Edit"
	if action == activity.ActionClearCell {
		verb = "Clear"
	}
	_, err := s.log.Record(action,
		fmt.Sprintf("%s row %d, column %q", verb, row+1, column),
		activity.Details{
			RowIndex:   activity.IntPtr(row),
			ColumnName: column,
			OldValue:   activity.CellPtr(old),
			NewValue:   activity.CellPtr(value),
		},
		s.restoreCell(orig, column, old))
	s.refresh()
	return err
}

// DeleteRow removes a record. Its original row index is never reused.
func (s *Session) DeleteRow(row int) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	removed := s.records[row].Clone()
	s.records = append(s.records[:row:row], s.records[row+1:]...)

	_, err := s.log.Record(activity.ActionDeleteRow,
		fmt.Sprintf("Delete row %d", row+1),
		activity.Details{RowIndex: activity.IntPtr(row), AffectedRows: 1},
		s.reinsert(removed))
	s.refresh()
	return err
}

// ShiftRowLeft packs the non-blank cells of a row, from startCol onwards,
// to the left.
func (s *Session) ShiftRowLeft(row, startCol int) error {
	return s.shiftRow(activity.ActionShiftRowLeft, row, startCol, records.CollapseLeft)
}

// ShiftRowRight moves the cells of a row, from startCol onwards, one place
// right. The last cell is dropped.
func (s *Session) ShiftRowRight(row, startCol int) error {
	return s.shiftRow(activity.ActionShiftRowRight, row, startCol, records.ShiftRight)
}

func (s *Session) shiftRow(action activity.Action, row, startCol int, shift func([]types.Cell, int) []types.Cell) error {
	if err := s.checkRow(row); err != nil {
		return err
	}
	if err := s.checkColumnIndex(startCol); err != nil {
		return err
	}

	orig := s.records[row].OriginalRowIndex
	before := s.rowCells(row)
	s.setRow(row, shift(before, startCol))

	dir := "left"
	if action == activity.ActionShiftRowRight {
		dir = "right"
	}
	_, err := s.log.Record(action,
		fmt.Sprintf("Shift row %d %s from %q", row+1, dir, s.headers[startCol]),
		activity.Details{RowIndex: activity.IntPtr(row), ColumnIndex: activity.IntPtr(startCol), AffectedRows: 1},
		s.restoreRow(orig, before))
	s.refresh()
	return err
}

// ShiftColumnLeft moves every row's cells after col one place left,
// overwriting col and blanking the last column.
func (s *Session) ShiftColumnLeft(col int) error {
	return s.shiftColumn(activity.ActionShiftColLeft, col, records.ShiftLeft)
}

// ShiftColumnRight moves every row's cells from col onwards one place right,
// blanking col and dropping the last column.
func (s *Session) ShiftColumnRight(col int) error {
	return s.shiftColumn(activity.ActionShiftColRight, col, records.ShiftRight)
}

func (s *Session) shiftColumn(action activity.Action, col int, shift func([]types.Cell, int) []types.Cell) error {
	if err := s.checkColumnIndex(col); err != nil {
		return err
	}

	before := make(map[int][]types.Cell, len(s.records))
	for i := range s.records {
		cells := s.rowCells(i)
		before[s.records[i].OriginalRowIndex] = cells
		s.setRow(i, shift(cells, col))
	}

	dir := "left"
	if action == activity.ActionShiftColRight {
		dir = "right"
	}
	_, err := s.log.Record(action,
		fmt.Sprintf("Shift column %q %s", s.headers[col], dir),
		activity.Details{ColumnIndex: activity.IntPtr(col), ColumnName: s.headers[col], AffectedRows: len(before)},
		s.guard(func() error {
			// rows deleted since the shift stay deleted
			for orig, cells := range before {
				if idx := records.IndexOf(s.records, orig); idx >= 0 {
					s.setRow(idx, cells)
				}
			}
			return nil
		}))
	s.refresh()
	return err
}
