// =============================================================================
// Watson Report Validator - Validation Engine
// =============================================================================
//
// This module applies the column rule table to every record and produces a
// flat, ordered list of findings plus aggregate row counts.
//
// VALIDATION STRATEGY (per cell, for columns that resolve to a rule):
//   1. Required: a blank value in a required column is an error. No further
//      checks run for that cell.
//   2. Type: a text value in a number column that does not parse is an error.
//   3. Custom: the column's validator runs on every non-blank value. Its
//      findings are always warnings; they flag values for human review and
//      never block export.
//
// Negative quantities and negative cost totals are returns and are never
// flagged.
//
// ORDERING:
//   Findings are ordered by row, then by header position, then by check
//   (type before custom).
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// FINDINGS
// =============================================================================

// Severity is the weight of a finding.
type Severity string

const (
	// SeverityError blocks "ready to export".
	SeverityError Severity = "error"

	// SeverityWarning is informational.
	SeverityWarning Severity = "warning"
)

// Check names the step that raised a finding.
type Check string

const (
	CheckRequired Check = "required"
	CheckType     Check = "type"
	CheckCustom   Check = "custom"
)

// Finding is one validation result for one cell.
type Finding struct {
	// RowIndex is the record's current position in the record list.
	RowIndex int `json:"rowIndex"`

	// OriginalRowIndex is the record's import-time index.
	OriginalRowIndex int `json:"originalRowIndex"`

	ColumnName  string     `json:"columnName"`
	ColumnIndex int        `json:"columnIndex"`
	Message     string     `json:"message"`
	Severity    Severity   `json:"severity"`
	Check       Check      `json:"check"`
	Value       types.Cell `json:"currentValue"`
}

// String formats a finding for logs and the CLI.
func (f Finding) String() string {
	return fmt.Sprintf("[%s] row %d, column '%s': %s (value: '%s')",
		strings.ToUpper(string(f.Severity)),
		f.RowIndex+1,
		f.ColumnName,
		f.Message,
		f.Value.Display(),
	)
}

// Summary aggregates findings by row.
type Summary struct {
	// IsValid is true when no finding has error severity.
	IsValid bool `json:"isValid"`

	TotalRows int `json:"totalRows"`

	// ValidRows counts rows without any finding.
	ValidRows int `json:"validRows"`

	// ErrorRows counts rows holding at least one error.
	ErrorRows int `json:"errorRows"`

	// WarningRows counts rows holding at least one warning. A row with both
	// counts here and in ErrorRows.
	WarningRows int `json:"warningRows"`
}

// Result is the output of a validation run.
type Result struct {
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
}

// Counts returns the number of error and warning findings.
func (r Result) Counts() (errs, warns int) {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator applies a rule table to records.
type Validator struct {
	rules []KeyedRule
}

// NewValidator creates a Validator over the default rule table.
func NewValidator() *Validator {
	return &Validator{rules: DefaultRules}
}

// NewValidatorWithRules creates a Validator over a custom rule table.
func NewValidatorWithRules(rules []KeyedRule) *Validator {
	return &Validator{rules: rules}
}

// Validate checks records against the default rule table.
func Validate(recs []types.Record, headers []string) Result {
	return NewValidator().Validate(recs, headers)
}

// Validate checks every cell of every record whose header resolves to a rule.
//
// PARAMETERS:
//   - recs: The current records, in display order.
//   - headers: The report headers, in column order.
//
// RETURNS:
//   - The ordered findings and the row summary.
func (v *Validator) Validate(recs []types.Record, headers []string) Result {
	// Rule resolution depends only on the headers.
	resolved := make([]*ColumnRule, len(headers))
	for i, h := range headers {
		if rule, ok := ResolveRule(v.rules, h); ok {
			r := rule
			resolved[i] = &r
		}
	}

	var findings []Finding
	for rowIndex, rec := range recs {
		for colIndex, header := range headers {
			rule := resolved[colIndex]
			if rule == nil {
				continue
			}
			findings = append(findings, checkCell(rowIndex, rec, colIndex, header, rule)...)
		}
	}

	return Result{Findings: findings, Summary: Summarize(findings, len(recs))}
}

func checkCell(rowIndex int, rec types.Record, colIndex int, header string, rule *ColumnRule) []Finding {
	value := rec.Get(header)
	base := Finding{
		RowIndex:         rowIndex,
		OriginalRowIndex: rec.OriginalRowIndex,
		ColumnName:       header,
		ColumnIndex:      colIndex,
		Value:            value,
	}

	blank := value.IsBlank() || strings.TrimSpace(value.Display()) == ""
	if blank {
		if !rule.Required {
			return nil
		}
		f := base
		f.Message = fmt.Sprintf("%s must not be blank", header)
		f.Severity = SeverityError
		f.Check = CheckRequired
		return []Finding{f}
	}

	var out []Finding
	if rule.Type == TypeNumber && value.IsText() {
		if _, ok := ParseNumber(value); !ok {
			f := base
			f.Message = fmt.Sprintf("%s must be a number", header)
			f.Severity = SeverityError
			f.Check = CheckType
			out = append(out, f)
		}
	}
	if rule.Validate != nil {
		if msg := rule.Validate(value); msg != "" {
			f := base
			f.Message = msg
			f.Severity = SeverityWarning
			f.Check = CheckCustom
			out = append(out, f)
		}
	}
	return out
}

// Summarize computes row counts from findings.
func Summarize(findings []Finding, totalRows int) Summary {
	flagged := make(map[int]bool)
	errRows := make(map[int]bool)
	warnRows := make(map[int]bool)
	for _, f := range findings {
		flagged[f.RowIndex] = true
		switch f.Severity {
		case SeverityError:
			errRows[f.RowIndex] = true
		case SeverityWarning:
			warnRows[f.RowIndex] = true
		}
	}
	return Summary{
		IsValid:     len(errRows) == 0,
		TotalRows:   totalRows,
		ValidRows:   totalRows - len(flagged),
		ErrorRows:   len(errRows),
		WarningRows: len(warnRows),
	}
}

// =============================================================================
// READ HELPERS
// =============================================================================

// RowFindings returns the findings for one row position.
func RowFindings(findings []Finding, rowIndex int) []Finding {
	var out []Finding
	for _, f := range findings {
		if f.RowIndex == rowIndex {
			out = append(out, f)
		}
	}
	return out
}

// CellFinding returns the first finding for a cell.
func CellFinding(findings []Finding, rowIndex int, column string) (Finding, bool) {
	for _, f := range findings {
		if f.RowIndex == rowIndex && f.ColumnName == column {
			return f, true
		}
	}
	return Finding{}, false
}

// FormatFindings formats findings as a numbered list.
func FormatFindings(findings []Finding) string {
	if len(findings) == 0 {
		return "No validation findings."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d finding(s):\n\n", len(findings)))
	for i, f := range findings {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, f.String()))
	}
	return builder.String()
}
