package validation

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/watson-validator/internal/types"
)

// =============================================================================
// COLUMN RULES
// =============================================================================

// ValueType is the expected kind of a column's values.
type ValueType string

const (
	TypeText   ValueType = "text"
	TypeNumber ValueType = "number"
	TypeDate   ValueType = "date"
)

// CustomValidatorFunc inspects a non-blank cell and returns a message when
// the value should be flagged for review, or "" when it passes.
type CustomValidatorFunc func(c types.Cell) string

// ColumnRule describes how one report column is checked.
type ColumnRule struct {
	Required bool
	Type     ValueType
	Validate CustomValidatorFunc
}

// KeyedRule pairs a canonical column name with its rule.
type KeyedRule struct {
	Key  string
	Rule ColumnRule
}

// DefaultRules is the rule table for the supplier invoice report family.
// Order matters: substring resolution returns the first matching key.
var DefaultRules = []KeyedRule{
	{"Supplier", ColumnRule{Required: true, Type: TypeText}},
	{"Supplier Name", ColumnRule{Required: true, Type: TypeText}},
	{"Address 1", ColumnRule{Type: TypeText}},
	{"Address 2", ColumnRule{Type: TypeText}},
	{"Address 3", ColumnRule{Type: TypeText}},
	{"Contact Name", ColumnRule{Type: TypeText}},
	{"Contact Phone/Fax", ColumnRule{Type: TypeText}},
	{"Invoice No.", ColumnRule{Required: true, Type: TypeText, Validate: nonEmpty("Invoice No.")}},
	{"Currency", ColumnRule{Required: true, Type: TypeText, Validate: validateCurrency}},
	{"Store", ColumnRule{Required: true, Type: TypeText, Validate: nonEmpty("Store")}},
	{"Date", ColumnRule{Required: true, Type: TypeDate, Validate: validateDate}},
	{"Item Code", ColumnRule{Required: true, Type: TypeText, Validate: nonEmpty("Item Code")}},
	{"Item Description", ColumnRule{Required: true, Type: TypeText}},
	{"Qty", ColumnRule{Required: true, Type: TypeNumber, Validate: validateQty}},
	{"GP%", ColumnRule{Required: true, Type: TypeNumber, Validate: numeric("GP%")}},
	{"Total Cost Exclusive", ColumnRule{Required: true, Type: TypeNumber, Validate: numeric("Total Cost Exclusive")}},
	{"VAT %", ColumnRule{Required: true, Type: TypeText}},
}

// ResolveRule finds the rule for a report header: an exact key match first,
// then the first key that contains the header or is contained by it,
// ignoring case.
func ResolveRule(rules []KeyedRule, header string) (ColumnRule, bool) {
	for _, kr := range rules {
		if kr.Key == header {
			return kr.Rule, true
		}
	}
	h := strings.ToLower(header)
	for _, kr := range rules {
		k := strings.ToLower(kr.Key)
		if strings.Contains(h, k) || strings.Contains(k, h) {
			return kr.Rule, true
		}
	}
	return ColumnRule{}, false
}

// =============================================================================
// VALUE CHECKS
// =============================================================================

// ParseNumber parses the textual form of a cell the way a loose numeric
// conversion would: surrounding whitespace is ignored, NaN and infinities
// are rejected.
func ParseNumber(c types.Cell) (float64, bool) {
	if c.IsNumber() {
		return c.Num, true
	}
	s := strings.TrimSpace(c.String())
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Fits reports whether a non-blank cell is acceptable for a value type.
// Text accepts anything, numbers must parse, dates must match a known shape.
func Fits(c types.Cell, t ValueType) bool {
	switch t {
	case TypeNumber:
		_, ok := ParseNumber(c)
		return ok
	case TypeDate:
		return IsValidDate(c.Display())
	}
	return true
}

func nonEmpty(label string) CustomValidatorFunc {
	return func(c types.Cell) string {
		if strings.TrimSpace(c.String()) == "" {
			return fmt.Sprintf("%s must not be blank", label)
		}
		return ""
	}
}

func numeric(label string) CustomValidatorFunc {
	return func(c types.Cell) string {
		if _, ok := ParseNumber(c); !ok {
			return fmt.Sprintf("%s must be a number", label)
		}
		return ""
	}
}

// validateQty flags non-numeric and zero quantities. Negative quantities are
// returns and pass. A numeric 0 is flagged the same as the text "0", where
// the web editor let a numeric 0 through unchecked.
func validateQty(c types.Cell) string {
	n, ok := ParseNumber(c)
	if !ok {
		return "Qty must be a number"
	}
	if n == 0 {
		return "Qty must not be 0"
	}
	return ""
}

func validateCurrency(c types.Cell) string {
	s := strings.ToUpper(strings.TrimSpace(c.String()))
	if s != "THB" && s != "2" {
		return "Currency must be THB"
	}
	return ""
}

func validateDate(c types.Cell) string {
	s := strings.TrimSpace(c.Display())
	if s == "" {
		return "Date must not be blank"
	}
	if !IsValidDate(s) {
		return "Date has an unrecognised format"
	}
	return ""
}

// datePatterns are the accepted textual date shapes. Any single match passes.
var datePatterns = []*regexp.Regexp{
	// slash
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/\d{2,4}$`),
	regexp.MustCompile(`^\d{4}/\d{1,2}/\d{1,2}$`),
	// dash
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-\d{2,4}$`),
	regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`),
	regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`),
	// month name
	regexp.MustCompile(`^\d{1,2}-[A-Za-z]{3}-\d{2,4}$`),
	regexp.MustCompile(`^\d{1,2}/[A-Za-z]{3}/\d{2,4}$`),
	regexp.MustCompile(`^\d{1,2}\s+[A-Za-z]{3,9}\s+\d{2,4}$`),
	regexp.MustCompile(`^[A-Za-z]{3,9}\s+\d{1,2},?\s+\d{2,4}$`),
	// dot
	regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2,4}$`),
	regexp.MustCompile(`^\d{4}\.\d{1,2}\.\d{1,2}$`),
	// compact
	regexp.MustCompile(`^\d{8}$`),
	regexp.MustCompile(`^\d{6}$`),
	// ISO with time
	regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T`),
	// Buddhist era
	regexp.MustCompile(`^\d{1,2}/\d{1,2}/25\d{2}$`),
	regexp.MustCompile(`^\d{1,2}-\d{1,2}-25\d{2}$`),
}

// IsValidDate reports whether s, trimmed, matches any accepted date shape.
func IsValidDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, p := range datePatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
