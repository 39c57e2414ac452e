// =============================================================================
// Watson Report Validator - Excel Exporter
// =============================================================================
//
// This module renders the corrected records and the validation report as
// xlsx workbooks. It only reads the records, headers and findings it is
// given; it never changes them.
//
// CORRECTED DATA WORKBOOK:
//   Data      - header row, then one row per record in header order.
//               Column widths fit the longest value (+2), capped at 50.
//
// VALIDATION REPORT WORKBOOK:
//   Summary   - title, generation time, row and error counts
//   Errors    - Row | Column | Error Message, one line per error finding
//   Data      - the records plus a "Has Error" YES/NO column
//
// =============================================================================

package exporter

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/watson-validator/internal/types"
	"github.com/ginjaninja78/watson-validator/internal/validation"
)

// Sheet names.
const (
	SheetData    = "Data"
	SheetSummary = "Summary"
	SheetErrors  = "Errors"
)

const maxColWidth = 50

// internalColumns are calculation columns that are never exported.
var internalColumns = map[string]bool{
	"Expected Price": true,
	"Price Match":    true,
	"Period Start":   true,
	"Matched Period": true,
	"Std Qty":        true,
	"Promo Qty":      true,
	"Calc Amt":       true,
	"Diff":           true,
	"Confidence":     true,
	"PL Name":        true,
	"PL Remark":      true,
	"PL Full Price":  true,
	"PL Comm Price":  true,
	"Total Comm":     true,
	"Calc Log":       true,
}

// ExportHeaders drops internal calculation columns from headers.
func ExportHeaders(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if !internalColumns[h] {
			out = append(out, h)
		}
	}
	return out
}

// =============================================================================
// CORRECTED DATA
// =============================================================================

// WriteData writes the corrected records as a single-sheet workbook.
//
// PARAMETERS:
//   - w: Destination for the xlsx bytes.
//   - recs: The records, in display order.
//   - headers: The column order. Internal columns are dropped.
//
// RETURNS:
//   - An error if the workbook cannot be built or written.
func WriteData(w io.Writer, recs []types.Record, headers []string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("failed to create data sheet: %w", err)
	}
	cols := ExportHeaders(headers)
	if err := writeTable(f, SheetData, cols, recordRows(recs, cols)); err != nil {
		return err
	}
	if err := fitColumns(f, SheetData, cols, recs); err != nil {
		return err
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION REPORT
// =============================================================================

// ReportCounts are the figures shown on the Summary sheet.
type ReportCounts struct {
	TotalRows     int
	RowsWithError int
	TotalErrors   int
	TotalWarnings int
}

// CountReport derives the Summary sheet figures from the findings.
func CountReport(recs []types.Record, findings []validation.Finding) ReportCounts {
	c := ReportCounts{TotalRows: len(recs)}
	rows := make(map[int]bool)
	for _, f := range findings {
		if f.Severity != validation.SeverityError {
			c.TotalWarnings++
			continue
		}
		c.TotalErrors++
		rows[f.RowIndex] = true
	}
	c.RowsWithError = len(rows)
	return c
}

// WriteReport writes the three-sheet validation report.
func WriteReport(w io.Writer, recs []types.Record, headers []string, findings []validation.Finding, generated time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	for _, name := range []string{SheetErrors, SheetData} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create %s sheet: %w", name, err)
		}
	}

	counts := CountReport(recs, findings)
	summary := [][]interface{}{
		{"Validation Report"},
		{"Generated:", generated.Format("02/01/2006 15:04:05")},
		{""},
		{"Total Rows:", counts.TotalRows},
		{"Rows with Errors:", counts.RowsWithError},
		{"Total Errors:", counts.TotalErrors},
		{"Total Warnings:", counts.TotalWarnings},
	}
	if err := writeRows(f, SheetSummary, 1, summary); err != nil {
		return err
	}

	var errRows [][]interface{}
	errorRows := make(map[int]bool)
	for _, fd := range findings {
		if fd.Severity != validation.SeverityError {
			continue
		}
		errorRows[fd.RowIndex] = true
		errRows = append(errRows, []interface{}{fd.RowIndex + 1, fd.ColumnName, fd.Message})
	}
	if err := writeTable(f, SheetErrors, []string{"Row", "Column", "Error Message"}, errRows); err != nil {
		return err
	}
	for col, width := range map[string]float64{"A": 8, "B": 25, "C": 50} {
		if err := f.SetColWidth(SheetErrors, col, col, width); err != nil {
			return fmt.Errorf("failed to size errors sheet: %w", err)
		}
	}

	cols := ExportHeaders(headers)
	dataRows := recordRows(recs, cols)
	for i := range dataRows {
		flag := "NO"
		if errorRows[i] {
			flag = "YES"
		}
		dataRows[i] = append(dataRows[i], flag)
	}
	if err := writeTable(f, SheetData, append(append([]string(nil), cols...), "Has Error"), dataRows); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func recordRows(recs []types.Record, cols []string) [][]interface{} {
	rows := make([][]interface{}, len(recs))
	for i, rec := range recs {
		row := make([]interface{}, len(cols))
		for j, h := range cols {
			row[j] = cellValue(rec.Get(h))
		}
		rows[i] = row
	}
	return rows
}

func cellValue(c types.Cell) interface{} {
	switch c.Kind {
	case types.KindNumber:
		return c.Num
	case types.KindText:
		return c.Str
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, headers []string, rows [][]interface{}) error {
	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = h
	}
	if err := writeRows(f, sheet, 1, [][]interface{}{head}); err != nil {
		return err
	}
	return writeRows(f, sheet, 2, rows)
}

func writeRows(f *excelize.File, sheet string, firstRow int, rows [][]interface{}) error {
	for i, row := range rows {
		for j, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(j+1, firstRow+i)
			if err != nil {
				return fmt.Errorf("failed to address cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}

func fitColumns(f *excelize.File, sheet string, cols []string, recs []types.Record) error {
	for j, h := range cols {
		width := utf8.RuneCountInString(h)
		for _, rec := range recs {
			if c := rec.Get(h); !c.IsBlank() {
				if n := utf8.RuneCountInString(c.String()); n > width {
					width = n
				}
			}
		}
		width += 2
		if width > maxColWidth {
			width = maxColWidth
		}
		name, err := excelize.ColumnNumberToName(j + 1)
		if err != nil {
			return fmt.Errorf("failed to address column: %w", err)
		}
		if err := f.SetColWidth(sheet, name, name, float64(width)); err != nil {
			return fmt.Errorf("failed to size column %s: %w", name, err)
		}
	}
	return nil
}
