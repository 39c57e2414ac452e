package xlsxparser

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadableFile is returned when the byte stream is not a workbook or
	// CSV export that can be decoded.
	ErrUnreadableFile = errors.New("unreadable spreadsheet")

	// ErrEmptyWorkbook is returned when the first sheet holds no rows.
	ErrEmptyWorkbook = errors.New("workbook has no rows")

	// ErrNoHeaderRow is returned when neither the anchor search nor the
	// fallback row yields a header row inside the grid.
	ErrNoHeaderRow = errors.New("no header row found")
)

// ParseError marks a fatal import failure. Stage names the step that failed
// ("read" or "parse").
type ParseError struct {
	Stage string
	File  string
	Err   error
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
