// =============================================================================
// Watson Report Validator - Report Parser
// =============================================================================
//
// Vendor reports do not start at A1. A banner of metadata lines sits above
// the column headers and its length varies between report runs:
//
//   | Row | Column A            | Column B                |
//   |-----|---------------------|-------------------------|
//   | 0   | Report Name         | Supplier Invoice Detail |
//   | 1   | Report Run DateTime | 46048.63 (date serial)  |
//   | 2   | Report Parameters   | ---------               |
//   | 3   |                     | 100234                  |
//   | ... |                     |                         |
//   | k   | Supplier | Supplier Name | Invoice No. | ...  |
//   | k+1 | data rows ...                                 |
//
// PARSING STEPS:
//   1. Find the header row: the first row within the scan limit holding a
//      text cell that contains the anchor ("supplier"), else the default row.
//   2. Extract metadata from the rows strictly above the header row.
//   3. Build the header list, substituting "Column N" for blank headers so
//      the header list keeps the raw row's length.
//   4. Keep every row below the header that has at least one non-blank cell.
//
// =============================================================================

package xlsxparser

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// OPTIONS AND RESULT
// =============================================================================

// Options holds the header detection settings.
type Options struct {
	// HeaderAnchor is matched case-insensitively against text cells.
	// Default: "supplier"
	HeaderAnchor string

	// HeaderScanLimit bounds the anchor search. Default: 20
	HeaderScanLimit int

	// DefaultHeaderRow is the 0-based fallback header row. Nil takes the
	// default of 10; use HeaderRow to set an explicit row, including 0.
	DefaultHeaderRow *int

	// CSVDelimiter is used when the input is a CSV export.
	CSVDelimiter string
}

// DefaultOptions returns the settings used for the Watson report family.
func DefaultOptions() Options {
	return Options{HeaderAnchor: "supplier", HeaderScanLimit: 20, DefaultHeaderRow: HeaderRow(10), CSVDelimiter: ","}
}

// HeaderRow returns a pointer for Options.DefaultHeaderRow.
func HeaderRow(n int) *int { return &n }

// fallbackRow is only called on options that went through withDefaults.
func (o Options) fallbackRow() int { return *o.DefaultHeaderRow }

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.HeaderAnchor == "" {
		o.HeaderAnchor = d.HeaderAnchor
	}
	if o.HeaderScanLimit <= 0 {
		o.HeaderScanLimit = d.HeaderScanLimit
	}
	if o.DefaultHeaderRow == nil || *o.DefaultHeaderRow < 0 {
		o.DefaultHeaderRow = d.DefaultHeaderRow
	}
	if o.CSVDelimiter == "" {
		o.CSVDelimiter = d.CSVDelimiter
	}
	return o
}

// ParsedReport is the result of parsing one report grid.
type ParsedReport struct {
	// Headers has one entry per cell of the header row.
	Headers []string

	// DataRows are the non-blank rows below the header, in grid order.
	DataRows types.Grid

	// Meta is the banner metadata.
	Meta types.ReportMeta

	// HeaderRow is the 0-based grid row the headers were taken from.
	HeaderRow int

	// AnchorFound is false when the fallback row was used.
	AnchorFound bool
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ParseReader reads the first sheet of r and parses it as a report.
func ParseReader(ctx context.Context, r io.Reader, fileName string, opts Options) (*ParsedReport, error) {
	opts = opts.withDefaults()
	grid, err := ReadGrid(ctx, r, fileName, ReaderOptions{CSVDelimiter: opts.CSVDelimiter})
	if err != nil {
		return nil, err
	}
	parsed, err := Parse(grid, opts)
	if err != nil {
		return nil, &ParseError{Stage: "parse", File: fileName, Err: err}
	}
	return parsed, nil
}

// Parse locates the header row of a grid and splits it into headers, data
// rows and metadata.
//
// PARAMETERS:
//   - grid: The first sheet of the report.
//   - opts: Header detection settings. An empty anchor or a non-positive
//     scan limit takes the default.
//
// RETURNS:
//   - The parsed report.
//   - ErrEmptyWorkbook for an empty grid, or ErrNoHeaderRow when the
//     resolved header row lies beyond the last grid row.
func Parse(grid types.Grid, opts Options) (*ParsedReport, error) {
	opts = opts.withDefaults()
	if len(grid) == 0 {
		return nil, ErrEmptyWorkbook
	}

	headerRow, found := FindHeaderRow(grid, opts.HeaderAnchor, opts.HeaderScanLimit, opts.fallbackRow())
	if headerRow >= len(grid) {
		return nil, fmt.Errorf("%w: fallback row %d is past the last row %d", ErrNoHeaderRow, headerRow+1, len(grid))
	}

	out := &ParsedReport{
		Headers:     BuildHeaders(grid[headerRow]),
		Meta:        ExtractMeta(grid, headerRow),
		HeaderRow:   headerRow,
		AnchorFound: found,
	}
	for _, row := range grid[headerRow+1:] {
		if isRowBlank(row) {
			continue
		}
		out.DataRows = append(out.DataRows, row)
	}
	return out, nil
}

// FindHeaderRow returns the first row within limit holding a text cell that
// contains anchor, case-insensitively. When no row matches, it returns
// fallback and false.
func FindHeaderRow(grid types.Grid, anchor string, limit, fallback int) (int, bool) {
	anchor = strings.ToLower(anchor)
	n := limit
	if len(grid) < n {
		n = len(grid)
	}
	for i := 0; i < n; i++ {
		for _, c := range grid[i] {
			if c.IsText() && strings.Contains(strings.ToLower(c.Str), anchor) {
				return i, true
			}
		}
	}
	return fallback, false
}

// BuildHeaders returns trimmed header names, one per cell. Blank cells and a
// literal numeric zero become "Column N" (1-based).
func BuildHeaders(row []types.Cell) []string {
	headers := make([]string, len(row))
	for i, c := range row {
		if c.IsBlank() || (c.IsNumber() && c.Num == 0) {
			headers[i] = fmt.Sprintf("Column %d", i+1)
			continue
		}
		headers[i] = strings.TrimSpace(c.String())
	}
	return headers
}

func isRowBlank(row []types.Cell) bool {
	for _, c := range row {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// =============================================================================
// METADATA EXTRACTION
// =============================================================================

var paramCode = regexp.MustCompile(`^[0-9A-Za-z\-_]+$`)

// ExtractMeta scans the rows above headerRow for the report name, run
// datetime and parameters labels in column A.
func ExtractMeta(grid types.Grid, headerRow int) types.ReportMeta {
	var meta types.ReportMeta
	if headerRow > len(grid) {
		headerRow = len(grid)
	}

	for i := 0; i < headerRow; i++ {
		label := strings.ToLower(strings.TrimSpace(grid.At(i, 0).String()))
		second := strings.TrimSpace(grid.At(i, 1).String())

		switch {
		case strings.Contains(label, "report name"):
			if second != "" {
				meta.ReportName = types.StringPtr(second)
			} else {
				meta.ReportName = nil
			}

		case strings.Contains(label, "report run") || strings.Contains(label, "date time"):
			raw := grid.At(i, 1)
			if raw.Kind == types.KindBlank {
				raw = firstNonEmpty(grid[i], 1)
			}
			if v, ok := formatRunDateTime(raw); ok {
				meta.ReportRunAt = types.StringPtr(v)
			}

		case strings.Contains(label, "report parameters"):
			if second != "" && !isSeparator(second) {
				meta.ReportParameters = types.StringPtr(second)
				continue
			}
			if v, ok := lookAheadParameter(grid, i+1, headerRow); ok {
				meta.ReportParameters = types.StringPtr(v)
			}
		}
	}
	return meta
}

// lookAheadParameter searches rows [from, to) for a parameter code, testing
// column B before column A on each row.
func lookAheadParameter(grid types.Grid, from, to int) (string, bool) {
	for j := from; j < to; j++ {
		for _, col := range []int{1, 0} {
			v := strings.TrimSpace(grid.At(j, col).String())
			if v == "" || isSeparator(v) {
				continue
			}
			if paramCode.MatchString(v) {
				return v, true
			}
		}
	}
	return "", false
}

func firstNonEmpty(row []types.Cell, start int) types.Cell {
	for c := start; c < len(row); c++ {
		v := row[c]
		if !v.IsBlank() && !strings.HasPrefix(v.String(), "---") {
			return v
		}
	}
	return types.Blank()
}

// formatRunDateTime renders a run-datetime cell. Day serials become
// DD/MM/YYYY HH:MM:SS; text passes through trimmed.
func formatRunDateTime(c types.Cell) (string, bool) {
	switch c.Kind {
	case types.KindNumber:
		t := types.SerialToTime(c.Num)
		if t.IsZero() {
			return c.String(), true
		}
		return t.Format("02/01/2006 15:04:05"), true
	case types.KindText:
		s := strings.TrimSpace(c.Str)
		return s, s != ""
	}
	return "", false
}

func isSeparator(s string) bool { return strings.HasPrefix(s, "---") }
