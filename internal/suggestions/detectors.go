package suggestions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/watson-validator/internal/records"
	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/validation"
)

// =============================================================================
// ENGINE
// =============================================================================

// Options holds the detector thresholds.
type Options struct {
	// DeleteRowErrorThreshold is the error count at which a row is proposed
	// for deletion. Default: 5
	DeleteRowErrorThreshold int

	// WhitespaceLimit caps the whitespace group. Default: 10
	WhitespaceLimit int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{DeleteRowErrorThreshold: 5, WhitespaceLimit: 10}
}

// Engine generates and applies fix suggestions.
type Engine struct {
	opts  Options
	rules []validation.KeyedRule
}

// NewEngine creates an Engine. Non-positive options take defaults.
func NewEngine(opts Options) *Engine {
	d := DefaultOptions()
	if opts.DeleteRowErrorThreshold <= 0 {
		opts.DeleteRowErrorThreshold = d.DeleteRowErrorThreshold
	}
	if opts.WhitespaceLimit <= 0 {
		opts.WhitespaceLimit = d.WhitespaceLimit
	}
	return &Engine{opts: opts, rules: validation.DefaultRules}
}

// Generate runs every detector over the current records and groups the
// results by category. Groups without suggestions are omitted. When two
// detectors produce the same id, the first one wins.
//
// PARAMETERS:
//   - recs: The current records, in display order.
//   - headers: The report headers.
//   - findings: The validation findings for recs.
//
// RETURNS:
//   - The non-empty groups in fixed category order.
func (e *Engine) Generate(recs []types.Record, headers []string, findings []validation.Finding) []Group {
	ruleTypes, required := e.columnRules(headers)
	rows := make([][]types.Cell, len(recs))
	for i, r := range recs {
		rows[i] = records.Row(r, headers)
	}

	var all []Suggestion
	all = append(all, e.detectColumnDrift(recs, rows, headers, ruleTypes, required)...)
	all = append(all, e.detectWhitespace(recs, rows, headers)...)
	all = append(all, e.detectCopyFromAbove(recs, rows, headers, findings)...)
	all = append(all, e.detectNumberFormat(recs, rows, headers, ruleTypes)...)
	all = append(all, e.detectJunk(recs, rows, headers)...)
	all = append(all, e.detectBrokenRows(recs, rows, findings)...)

	seen := make(map[string]bool, len(all))
	byCategory := make(map[string][]Suggestion)
	for _, s := range all {
		if seen[s.ID] {
			continue
		}
		seen[s.ID] = true
		byCategory[s.Category] = append(byCategory[s.Category], s)
	}

	var groups []Group
	for _, cat := range categoryOrder {
		list := byCategory[cat]
		if len(list) == 0 {
			continue
		}
		if cat == CategoryWhitespace && len(list) > e.opts.WhitespaceLimit {
			list = list[:e.opts.WhitespaceLimit]
		}
		groups = append(groups, Group{Category: cat, Icon: Icon(cat), Suggestions: list})
	}
	return groups
}

// columnRules resolves each header to its rule type, or "" when the header
// has no rule, and to whether the column is required.
func (e *Engine) columnRules(headers []string) ([]validation.ValueType, []bool) {
	typs := make([]validation.ValueType, len(headers))
	required := make([]bool, len(headers))
	for i, h := range headers {
		if rule, ok := validation.ResolveRule(e.rules, h); ok {
			typs[i] = rule.Type
			required[i] = rule.Required
		}
	}
	return typs, required
}

// =============================================================================
// COLUMN DRIFT
// =============================================================================

// detectColumnDrift finds rows whose values have slid sideways.
//
//  1. Interior gap: a blank run that starts at a required column and sits
//     between two non-blank cells. Blank optional columns are normal and do
//     not count. The fix shifts the rest of the row left by the width of the
//     run; it is auto when the shift reduces the number of values that do
//     not fit their column, manual otherwise.
//  2. Leading drift: a blank typed cell whose right neighbour holds a value
//     of the wrong type for its own column but the right type for this one
//     (manual shift-left).
//  3. Trailing drift: a value that does not fit its column but fits the one
//     to its right, with a blank last column to absorb the shift (manual
//     shift-right).
func (e *Engine) detectColumnDrift(recs []types.Record, rows [][]types.Cell, headers []string, colTypes []validation.ValueType, required []bool) []Suggestion {
	var out []Suggestion
	for i, row := range rows {
		rec := recs[i]
		if gap := firstInteriorGap(row, required); gap >= 0 {
			after := ShiftLeftBy(row, gap, gapWidth(row, gap))
			severity := SeverityManual
			if misfits(after, colTypes) < misfits(row, colTypes) {
				severity = SeverityAuto
			}
			out = append(out, Suggestion{
				ID:               MakeID(rec.OriginalRowIndex, TypeShiftLeft, headers[gap]),
				Type:             TypeShiftLeft,
				Severity:         severity,
				Category:         CategoryColumnDrift,
				Title:            fmt.Sprintf("Shift row %d left", i+1),
				Description:      fmt.Sprintf("Row %d has %d empty column(s) in the middle of its data", i+1, gapWidth(row, gap)),
				RowIndex:         i,
				OriginalRowIndex: rec.OriginalRowIndex,
				ColumnName:       headers[gap],
				ColumnIndex:      gap,
				Preview:          rowPreview(row, after, gap),
				Snapshot:         row,
			})
			continue
		}

		if col := leadingDrift(row, colTypes); col >= 0 {
			after := records.ShiftLeft(row, col)
			out = append(out, Suggestion{
				ID:               MakeID(rec.OriginalRowIndex, TypeShiftLeft, headers[col]),
				Type:             TypeShiftLeft,
				Severity:         SeverityManual,
				Category:         CategoryColumnDrift,
				Title:            fmt.Sprintf("Shift row %d left", i+1),
				Description:      fmt.Sprintf("%s is empty and %s holds a value that belongs in it", headers[col], headers[col+1]),
				RowIndex:         i,
				OriginalRowIndex: rec.OriginalRowIndex,
				ColumnName:       headers[col],
				ColumnIndex:      col,
				Preview:          rowPreview(row, after, col),
				Snapshot:         row,
			})
			continue
		}

		if col := trailingDrift(row, colTypes); col >= 0 {
			after := records.ShiftRight(row, col)
			out = append(out, Suggestion{
				ID:               MakeID(rec.OriginalRowIndex, TypeShiftRight, headers[col]),
				Type:             TypeShiftRight,
				Severity:         SeverityManual,
				Category:         CategoryColumnDrift,
				Title:            fmt.Sprintf("Shift row %d right", i+1),
				Description:      fmt.Sprintf("%s holds %q, which looks like a %s value", headers[col], row[col].Display(), headers[col+1]),
				RowIndex:         i,
				OriginalRowIndex: rec.OriginalRowIndex,
				ColumnName:       headers[col],
				ColumnIndex:      col,
				Preview:          rowPreview(row, after, col),
				Snapshot:         row,
			})
		}
	}
	return out
}

// firstInteriorGap returns the start of the first blank run that begins at a
// required column and has non-blank cells on both sides, or -1.
func firstInteriorGap(row []types.Cell, required []bool) int {
	seen := false
	for i := 0; i < len(row); i++ {
		if !row[i].IsBlank() {
			seen = true
			continue
		}
		if !seen || !required[i] || (i > 0 && row[i-1].IsBlank()) {
			continue
		}
		if end := i + gapWidth(row, i); end < len(row) {
			return i
		}
		return -1
	}
	return -1
}

// misfits counts non-blank cells that do not fit their column type.
func misfits(row []types.Cell, colTypes []validation.ValueType) int {
	n := 0
	for i, c := range row {
		if colTypes[i] != "" && !c.IsBlank() && !validation.Fits(c, colTypes[i]) {
			n++
		}
	}
	return n
}

func gapWidth(row []types.Cell, start int) int {
	n := 0
	for i := start; i < len(row) && row[i].IsBlank(); i++ {
		n++
	}
	return n
}

// ShiftLeftBy moves the cells after position start left by n places,
// overwriting start and blanking the vacated tail.
func ShiftLeftBy(row []types.Cell, start, n int) []types.Cell {
	out := append([]types.Cell(nil), row...)
	for k := 0; k < n; k++ {
		out = records.ShiftLeft(out, start)
	}
	return out
}

// leadingDrift returns the first typed blank column whose right neighbour is
// non-blank, does not fit its own column type and fits this column's type.
// Only number and date columns can be misfit.
func leadingDrift(row []types.Cell, colTypes []validation.ValueType) int {
	for i := 0; i+1 < len(row); i++ {
		if colTypes[i] == "" || !row[i].IsBlank() {
			continue
		}
		next := row[i+1]
		if next.IsBlank() || colTypes[i+1] == "" {
			continue
		}
		if !validation.Fits(next, colTypes[i+1]) && validation.Fits(next, colTypes[i]) {
			return i
		}
	}
	return -1
}

// trailingDrift returns the first typed non-blank column whose value does not
// fit its own type but fits the next column's type, when the last column is
// blank.
func trailingDrift(row []types.Cell, colTypes []validation.ValueType) int {
	if len(row) < 2 || !row[len(row)-1].IsBlank() {
		return -1
	}
	for i := 0; i+1 < len(row); i++ {
		c := row[i]
		if colTypes[i] == "" || colTypes[i+1] == "" || c.IsBlank() {
			continue
		}
		if !validation.Fits(c, colTypes[i]) && validation.Fits(c, colTypes[i+1]) {
			return i
		}
	}
	return -1
}

func rowPreview(before, after []types.Cell, from int) *Preview {
	return &Preview{Before: types.Text(joinCells(before[from:])), After: types.Text(joinCells(after[from:]))}
}

func joinCells(cells []types.Cell) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.Display()
	}
	return strings.Join(parts, " | ")
}

// =============================================================================
// WHITESPACE
// =============================================================================

var runOfSpace = regexp.MustCompile(`\s+`)

// NormalizeSpace trims s and collapses internal whitespace runs to one space.
func NormalizeSpace(s string) string {
	return runOfSpace.ReplaceAllString(strings.TrimSpace(s), " ")
}

func (e *Engine) detectWhitespace(recs []types.Record, rows [][]types.Cell, headers []string) []Suggestion {
	var out []Suggestion
	for i, row := range rows {
		for col, c := range row {
			if !c.IsText() {
				continue
			}
			norm := NormalizeSpace(c.Str)
			if norm == c.Str || norm == "" {
				continue
			}
			out = append(out, Suggestion{
				ID:               MakeID(recs[i].OriginalRowIndex, TypeTrimSpace, headers[col]),
				Type:             TypeTrimSpace,
				Severity:         SeverityAuto,
				Category:         CategoryWhitespace,
				Title:            "Trim whitespace",
				Description:      fmt.Sprintf("%s, row %d", headers[col], i+1),
				RowIndex:         i,
				OriginalRowIndex: recs[i].OriginalRowIndex,
				ColumnName:       headers[col],
				ColumnIndex:      col,
				Preview:          &Preview{Before: c, After: types.Text(norm)},
			})
		}
	}
	return out
}

// =============================================================================
// BLANK REQUIRED FIELDS
// =============================================================================

// detectCopyFromAbove proposes filling a blank required cell from the row
// above when both rows share the same blank/non-blank pattern everywhere
// else and the cell above holds a value.
func (e *Engine) detectCopyFromAbove(recs []types.Record, rows [][]types.Cell, headers []string, findings []validation.Finding) []Suggestion {
	var out []Suggestion
	for _, f := range findings {
		if f.Check != validation.CheckRequired || f.RowIndex <= 0 || f.RowIndex >= len(rows) {
			continue
		}
		row, above := rows[f.RowIndex], rows[f.RowIndex-1]
		col := f.ColumnIndex
		if col < 0 || col >= len(row) || above[col].IsBlank() {
			continue
		}
		if !samePatternExcept(row, above, col) {
			continue
		}
		rec := recs[f.RowIndex]
		out = append(out, Suggestion{
			ID:               MakeID(rec.OriginalRowIndex, TypeCopyFromAbove, f.ColumnName),
			Type:             TypeCopyFromAbove,
			Severity:         SeverityManual,
			Category:         CategoryBlankRequired,
			Title:            "Copy from row above",
			Description:      fmt.Sprintf("%s is empty; copy it from row %d", f.ColumnName, f.RowIndex),
			RowIndex:         f.RowIndex,
			OriginalRowIndex: rec.OriginalRowIndex,
			ColumnName:       f.ColumnName,
			ColumnIndex:      col,
			Preview:          &Preview{Before: row[col], After: above[col]},
		})
	}
	return out
}

func samePatternExcept(a, b []types.Cell, skip int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if i == skip {
			continue
		}
		if a[i].IsBlank() != b[i].IsBlank() {
			return false
		}
	}
	return true
}

// =============================================================================
// NUMBER FORMAT
// =============================================================================

var numberNoise = strings.NewReplacer(",", "", " ", "", "\u00a0", "", "฿", "", "$", "")

// detectNumberFormat finds text in number columns that parses once thousands
// separators and currency marks are removed.
func (e *Engine) detectNumberFormat(recs []types.Record, rows [][]types.Cell, headers []string, colTypes []validation.ValueType) []Suggestion {
	var out []Suggestion
	for i, row := range rows {
		for col, c := range row {
			if colTypes[col] != validation.TypeNumber || !c.IsText() || c.IsBlank() {
				continue
			}
			if _, ok := validation.ParseNumber(c); ok {
				continue
			}
			cleaned := numberNoise.Replace(c.Str)
			n, ok := validation.ParseNumber(types.Text(cleaned))
			if !ok {
				continue
			}
			out = append(out, Suggestion{
				ID:               MakeID(recs[i].OriginalRowIndex, TypeOther, headers[col]),
				Type:             TypeOther,
				Severity:         SeverityManual,
				Category:         CategoryNumberFormat,
				Title:            "Normalise number",
				Description:      fmt.Sprintf("%s, row %d: %q reads as %s", headers[col], i+1, c.Str, types.Number(n).String()),
				RowIndex:         i,
				OriginalRowIndex: recs[i].OriginalRowIndex,
				ColumnName:       headers[col],
				ColumnIndex:      col,
				Preview:          &Preview{Before: c, After: types.Number(n)},
			})
		}
	}
	return out
}

// =============================================================================
// JUNK CELLS
// =============================================================================

var junkPattern = regexp.MustCompile(`^[\s\-_#*.]+$`)

// IsJunk reports whether a cell holds only separator characters.
func IsJunk(c types.Cell) bool {
	s := strings.TrimSpace(c.String())
	return s != "" && junkPattern.MatchString(s)
}

func (e *Engine) detectJunk(recs []types.Record, rows [][]types.Cell, headers []string) []Suggestion {
	var out []Suggestion
	for i, row := range rows {
		for col, c := range row {
			if !IsJunk(c) {
				continue
			}
			out = append(out, Suggestion{
				ID:               MakeID(recs[i].OriginalRowIndex, TypeDeleteCell, headers[col]),
				Type:             TypeDeleteCell,
				Severity:         SeverityAuto,
				Category:         CategoryJunkCells,
				Title:            "Clear junk value",
				Description:      fmt.Sprintf("%s, row %d: %q", headers[col], i+1, strings.TrimSpace(c.String())),
				RowIndex:         i,
				OriginalRowIndex: recs[i].OriginalRowIndex,
				ColumnName:       headers[col],
				ColumnIndex:      col,
				Preview:          &Preview{Before: c, After: types.Blank()},
			})
		}
	}
	return out
}

// =============================================================================
// BROKEN ROWS
// =============================================================================

func (e *Engine) detectBrokenRows(recs []types.Record, rows [][]types.Cell, findings []validation.Finding) []Suggestion {
	counts := make(map[int]int)
	for _, f := range findings {
		if f.Severity == validation.SeverityError {
			counts[f.RowIndex]++
		}
	}

	var out []Suggestion
	for i := range recs {
		n := counts[i]
		if n < e.opts.DeleteRowErrorThreshold {
			continue
		}
		out = append(out, Suggestion{
			ID:               MakeID(recs[i].OriginalRowIndex, TypeDeleteRow, ""),
			Type:             TypeDeleteRow,
			Severity:         SeverityDestructive,
			Category:         CategoryBrokenRows,
			Title:            fmt.Sprintf("Delete row %d", i+1),
			Description:      fmt.Sprintf("Row %d has %d errors and is probably not a data row", i+1, n),
			RowIndex:         i,
			OriginalRowIndex: recs[i].OriginalRowIndex,
			ColumnIndex:      -1,
			Snapshot:         rows[i],
		})
	}
	return out
}
