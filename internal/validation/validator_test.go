package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

var reportHeaders = []string{
	"Supplier", "Supplier Name", "Invoice No.", "Currency", "Store", "Date",
	"Item Code", "Item Description", "Qty", "GP%", "Total Cost Exclusive", "VAT %",
}

// validRecord returns a record that passes every rule.
func validRecord(idx int) types.Record {
	return types.Record{OriginalRowIndex: idx, Fields: map[string]types.Cell{
		"Supplier":             types.Text("100234"),
		"Supplier Name":        types.Text("Acme Trading"),
		"Invoice No.":          types.Text("INV-001"),
		"Currency":             types.Text("THB"),
		"Store":                types.Text("256 - Patong Phuket"),
		"Date":                 types.Text("05/01/2026"),
		"Item Code":            types.Text("00017"),
		"Item Description":     types.Text("Widget"),
		"Qty":                  types.Number(6),
		"GP%":                  types.Number(22.5),
		"Total Cost Exclusive": types.Number(120.5),
		"VAT %":                types.Text("7%"),
	}}
}

func TestValidateCleanRecord(t *testing.T) {
	res := Validate([]types.Record{validRecord(0)}, reportHeaders)
	assert.Empty(t, res.Findings)
	assert.Equal(t, Summary{IsValid: true, TotalRows: 1, ValidRows: 1}, res.Summary)
}

func TestRequiredShortCircuit(t *testing.T) {
	tests := []struct {
		name  string
		value types.Cell
	}{
		{"absent", types.Blank()},
		{"empty", types.Text("")},
		{"whitespace", types.Text("   ")},
	}
	for _, tt := range tests {
		rec := validRecord(0)
		rec.Set("Qty", tt.value)

		res := Validate([]types.Record{rec}, reportHeaders)
		require.Len(t, res.Findings, 1, tt.name)
		f := res.Findings[0]
		assert.Equal(t, "Qty", f.ColumnName, tt.name)
		assert.Equal(t, SeverityError, f.Severity, tt.name)
		assert.Equal(t, CheckRequired, f.Check, tt.name)
		assert.Equal(t, 8, f.ColumnIndex, tt.name)
	}
}

func TestNumberTypeCheck(t *testing.T) {
	rec := validRecord(0)
	rec.Set("GP%", types.Text("abc"))

	res := Validate([]types.Record{rec}, reportHeaders)
	require.Len(t, res.Findings, 2)
	assert.Equal(t, CheckType, res.Findings[0].Check)
	assert.Equal(t, SeverityError, res.Findings[0].Severity)
	assert.Equal(t, CheckCustom, res.Findings[1].Check)
	assert.Equal(t, SeverityWarning, res.Findings[1].Severity)
	assert.False(t, res.Summary.IsValid)
}

func TestNumericTextPasses(t *testing.T) {
	rec := validRecord(0)
	rec.Set("Qty", types.Text(" 12 "))
	res := Validate([]types.Record{rec}, reportHeaders)
	assert.Empty(t, res.Findings)
}

func TestNegativeValuesAreNotFlagged(t *testing.T) {
	rec := validRecord(0)
	rec.Set("Qty", types.Number(-5))
	rec.Set("Total Cost Exclusive", types.Number(-120.50))

	res := Validate([]types.Record{rec}, reportHeaders)
	assert.Empty(t, res.Findings)

	rec.Set("Qty", types.Text("-5"))
	rec.Set("Total Cost Exclusive", types.Text("-120.50"))
	res = Validate([]types.Record{rec}, reportHeaders)
	assert.Empty(t, res.Findings)
}

func TestCustomValidatorsAreWarnings(t *testing.T) {
	tests := []struct {
		column string
		value  types.Cell
		msg    string
	}{
		{"Currency", types.Text("USD"), "Currency must be THB"},
		{"Date", types.Text("not-a-date"), "Date has an unrecognised format"},
		{"Qty", types.Number(0), "Qty must not be 0"},
		{"Qty", types.Text("0"), "Qty must not be 0"},
	}
	for _, tt := range tests {
		rec := validRecord(0)
		rec.Set(tt.column, tt.value)

		res := Validate([]types.Record{rec}, reportHeaders)
		require.Len(t, res.Findings, 1, tt.column)
		assert.Equal(t, SeverityWarning, res.Findings[0].Severity, tt.column)
		assert.Equal(t, tt.msg, res.Findings[0].Message, tt.column)
		assert.True(t, res.Summary.IsValid, tt.column)
		assert.Equal(t, 1, res.Summary.WarningRows, tt.column)
		assert.Equal(t, 0, res.Summary.ValidRows, tt.column)
	}
}

func TestCurrencyAcceptsCode2(t *testing.T) {
	for _, v := range []types.Cell{types.Text(" thb "), types.Text("2"), types.Number(2)} {
		rec := validRecord(0)
		rec.Set("Currency", v)
		if res := Validate([]types.Record{rec}, reportHeaders); len(res.Findings) != 0 {
			t.Errorf("Currency %q: findings = %v, want none", v.String(), res.Findings)
		}
	}
}

func TestIsValidDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"05-JAN-26", true},
		{"2026-01-05", true},
		{"5/1/2026", true},
		{"05.01.2026", true},
		{"20260105", true},
		{"260105", true},
		{"2026-01-05T10:00", true},
		{"5/1/2569", true},
		{"January 5, 2026", true},
		{"05 January 2026", true},
		{"05/JAN/2026", true},
		{"2026/1/5", true},
		{"not-a-date", false},
		{"", false},
		{"2026-1", false},
	}
	for _, tt := range tests {
		if got := IsValidDate(tt.in); got != tt.want {
			t.Errorf("IsValidDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestDateSerialPasses(t *testing.T) {
	rec := validRecord(0)
	rec.Set("Date", types.Number(46027))
	res := Validate([]types.Record{rec}, reportHeaders)
	assert.Empty(t, res.Findings)
}

func TestResolveRule(t *testing.T) {
	tests := []struct {
		header   string
		found    bool
		required bool
		typ      ValueType
	}{
		{"Supplier Name", true, true, TypeText},
		{"supplier code", true, true, TypeText},
		{"Invoice Date", true, true, TypeDate},
		{"qty", true, true, TypeNumber},
		{"Address 2", true, false, TypeText},
		{"Column 7", false, false, ""},
	}
	for _, tt := range tests {
		rule, ok := ResolveRule(DefaultRules, tt.header)
		if ok != tt.found {
			t.Errorf("ResolveRule(%q) found = %v, want %v", tt.header, ok, tt.found)
			continue
		}
		if rule.Required != tt.required || rule.Type != tt.typ {
			t.Errorf("ResolveRule(%q) = {%v %v}, want {%v %v}", tt.header, rule.Required, rule.Type, tt.required, tt.typ)
		}
	}
}

func TestResolveRuleFirstMatchWins(t *testing.T) {
	rules := []KeyedRule{
		{"Date", ColumnRule{Type: TypeDate}},
		{"Report Date", ColumnRule{Type: TypeText}},
	}
	rule, ok := ResolveRule(rules, "report date")
	require.True(t, ok)
	assert.Equal(t, TypeDate, rule.Type)

	rule, ok = ResolveRule(rules, "Report Date")
	require.True(t, ok)
	assert.Equal(t, TypeText, rule.Type)
}

func TestSummaryInvariant(t *testing.T) {
	recs := []types.Record{validRecord(0), validRecord(1), validRecord(2), validRecord(3)}
	recs[1].Set("Supplier", types.Blank())
	recs[1].Set("Currency", types.Text("USD"))
	recs[2].Set("Currency", types.Text("EUR"))
	recs[3].Set("Qty", types.Text("x"))

	res := Validate(recs, reportHeaders)
	s := res.Summary

	distinct := map[int]bool{}
	for _, f := range res.Findings {
		distinct[f.RowIndex] = true
	}
	assert.Equal(t, s.TotalRows-len(distinct), s.ValidRows)
	assert.Equal(t, 4, s.TotalRows)
	assert.Equal(t, 1, s.ValidRows)
	assert.Equal(t, 2, s.ErrorRows)
	assert.Equal(t, 3, s.WarningRows)
	assert.False(t, s.IsValid)
}

func TestFindingHelpers(t *testing.T) {
	recs := []types.Record{validRecord(0), validRecord(1)}
	recs[1].Set("Store", types.Blank())
	res := Validate(recs, reportHeaders)

	assert.Empty(t, RowFindings(res.Findings, 0))
	assert.Len(t, RowFindings(res.Findings, 1), 1)
	f, ok := CellFinding(res.Findings, 1, "Store")
	require.True(t, ok)
	assert.Equal(t, 1, f.OriginalRowIndex)
	assert.Contains(t, FormatFindings(res.Findings), "Store must not be blank")
	assert.Equal(t, "No validation findings.", FormatFindings(nil))
}
