// =============================================================================
// Watson Report Validator - Grid Reader
// =============================================================================
//
// This module turns an uploaded spreadsheet byte stream into a Grid: the
// first sheet as rows of typed cells. Three encodings are accepted:
//
//   | Extension           | Library       | Notes                          |
//   |---------------------|---------------|--------------------------------|
//   | .xlsx .xlsm .xltx   | excelize      | raw values, typed by cell type |
//   | .xls                | extrame/xls   | legacy BIFF exports            |
//   | .csv                | csvparser     | all non-empty fields are text  |
//
// When the extension is missing or unknown, the leading bytes decide: a zip
// header means xlsx, an OLE2 header means xls, anything else is read as CSV.
//
// The whole stream is read in one go. Reports are bounded in size, so there
// is no streaming parse; the read is the only blocking step of an import.
//
// =============================================================================

package xlsxparser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/watson-validator/internal/csvparser"
	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// FORMAT DETECTION
// =============================================================================

// Format identifies the encoding of an uploaded file.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// DetectFormat picks the reader for a file from its name, falling back to the
// leading bytes of its content.
func DetectFormat(fileName string, head []byte) Format {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm", ".xltx":
		return FormatXLSX
	case ".xls":
		return FormatXLS
	case ".csv", ".txt":
		return FormatCSV
	}
	switch {
	case bytes.HasPrefix(head, zipMagic):
		return FormatXLSX
	case bytes.HasPrefix(head, oleMagic):
		return FormatXLS
	}
	return FormatCSV
}

// =============================================================================
// READER
// =============================================================================

// ReaderOptions holds settings for ReadGrid.
type ReaderOptions struct {
	// CSVDelimiter is passed to the CSV reader. Default: ","
	CSVDelimiter string
}

// ReadGrid reads the first sheet of an uploaded file.
//
// PARAMETERS:
//   - ctx: Cancels the read. Checked before and after the stream is drained.
//   - r: The uploaded bytes.
//   - fileName: Used for format detection and error messages.
//   - opts: Reader settings.
//
// RETURNS:
//   - The first sheet as a Grid.
//   - A *ParseError wrapping ErrUnreadableFile or ErrEmptyWorkbook.
func ReadGrid(ctx context.Context, r io.Reader, fileName string, opts ReaderOptions) (types.Grid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &ParseError{Stage: "read", File: fileName, Err: fmt.Errorf("%w: %v", ErrUnreadableFile, err)}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &ParseError{Stage: "read", File: fileName, Err: ErrEmptyWorkbook}
	}

	var grid types.Grid
	switch DetectFormat(fileName, data) {
	case FormatXLSX:
		grid, err = readXLSX(data)
	case FormatXLS:
		grid, err = readXLS(data)
	default:
		delim := opts.CSVDelimiter
		if delim == "" {
			delim = ","
		}
		grid, err = csvparser.ReadGrid(bytes.NewReader(data), delim)
		if errors.Is(err, csvparser.ErrEmpty) {
			err = ErrEmptyWorkbook
		}
	}
	if err != nil {
		return nil, &ParseError{Stage: "read", File: fileName, Err: err}
	}
	if len(grid) == 0 {
		return nil, &ParseError{Stage: "read", File: fileName, Err: ErrEmptyWorkbook}
	}
	return grid, nil
}

// readXLSX reads the first sheet of an OOXML workbook.
//
// Raw cell values are requested so that date-formatted cells come back as
// day serials. The stored cell type decides whether a value is text: shared
// and inline strings stay text even when they look numeric (item codes with
// leading zeros, store codes).
func readXLSX(data []byte) (types.Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from %s: %w", sheet, err)
	}

	grid := make(types.Grid, len(rows))
	for i, row := range rows {
		cells := make([]types.Cell, len(row))
		for j, raw := range row {
			if raw == "" {
				cells[j] = types.Blank()
				continue
			}
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				cells[j] = types.Text(raw)
				continue
			}
			kind, err := f.GetCellType(sheet, name)
			if err != nil {
				kind = excelize.CellTypeUnset
			}
			cells[j] = xlsxCell(raw, kind)
		}
		grid[i] = cells
	}
	return grid, nil
}

func xlsxCell(raw string, kind excelize.CellType) types.Cell {
	switch kind {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeBool, excelize.CellTypeError:
		return types.Text(raw)
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return types.Number(f)
	}
	return types.Text(raw)
}

// readXLS reads the first sheet of a legacy BIFF workbook.
func readXLS(data []byte) (types.Grid, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyWorkbook
	}

	var grid types.Grid
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]types.Cell, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			if j < row.FirstCol() {
				cells[j] = types.Blank()
				continue
			}
			cells[j] = cellFromString(row.Col(j))
		}
		grid = append(grid, cells)
	}
	return trimTrailingEmptyRows(grid), nil
}

var leadingZeroInt = regexp.MustCompile(`^0\d+$`)

// cellFromString types a formatted string value from a reader that does not
// expose cell types. Integers with a leading zero stay text so codes keep
// their padding.
func cellFromString(s string) types.Cell {
	if s == "" {
		return types.Blank()
	}
	trimmed := strings.TrimSpace(s)
	if trimmed != s || leadingZeroInt.MatchString(s) {
		return types.Text(s)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return types.Number(f)
	}
	return types.Text(s)
}

func trimTrailingEmptyRows(grid types.Grid) types.Grid {
	end := len(grid)
	for end > 0 && len(grid[end-1]) == 0 {
		end--
	}
	return grid[:end]
}
