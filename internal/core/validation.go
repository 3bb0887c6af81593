package core

// validation.go provides row-level validation against a schema.
//
// Validation happens in two passes:
//  1. Required pass: every required field must be present and non-blank
//  2. Format pass: each present value is checked against its field's rules
//
// Schemas with ShortCircuitRequired stop after the first pass when it fails,
// so an empty row yields "missing" messages instead of a cascade of format
// complaints about empty strings. Other schemas run both passes and report
// everything.

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/csvintake/internal/schema"
)

// NormalizedRow maps canonical field names to cleaned values.
type NormalizedRow map[string]string

// ValidationResult is the outcome of validating one row.
type ValidationResult struct {
	Errors []string      // "Row {n}: {message}", in discovery order
	Row    NormalizedRow // Set only when Errors is empty
}

// Valid reports whether the row passed every rule.
func (r ValidationResult) Valid() bool { return len(r.Errors) == 0 }

// RowValidator validates candidate rows for one schema.
type RowValidator struct {
	schema schema.Schema
}

// NewRowValidator creates a validator for s.
func NewRowValidator(s schema.Schema) *RowValidator {
	return &RowValidator{schema: s}
}

// Validate checks values (canonical name to raw value; absent keys are
// missing fields) for the given row number.
func (v *RowValidator) Validate(row int, values map[string]string) ValidationResult {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf("Row %d: ", row)+fmt.Sprintf(format, args...))
	}

	clean := make(NormalizedRow, len(v.schema.Fields))
	for _, f := range v.schema.Fields {
		clean[f.Name] = strings.TrimSpace(values[f.Name])
	}

	for _, f := range v.schema.Fields {
		if f.Has(schema.RuleRequired) && clean[f.Name] == "" {
			fail("Missing required field '%s'", f.Name)
		}
	}
	if len(errs) > 0 && v.schema.ShortCircuitRequired {
		return ValidationResult{Errors: errs}
	}

	for _, f := range v.schema.Fields {
		value := clean[f.Name]
		if value == "" {
			continue
		}

		for _, rule := range f.Rules {
			switch rule.Kind {
			case schema.RuleEmail:
				if !strings.Contains(value, "@") {
					fail("%s must contain '@' symbol", f.Title())
				}
			case schema.RuleDigits:
				if !IsDigits(value) {
					fail("%s must contain only digits", f.Title())
				}
			case schema.RuleMinLength:
				if utf8.RuneCountInString(value) < rule.MinLength {
					fail("%s must be at least %d characters", f.Title(), rule.MinLength)
				}
			case schema.RuleDecimal:
				d, ok := ParseAmount(value)
				if !ok {
					fail("Invalid %s '%s' - must be a positive number", f.Name, value)
					continue
				}
				clean[f.Name] = CanonicalAmount(d)
			case schema.RuleEnum:
				canonical, ok := matchEnum(value, rule.Allowed)
				if !ok {
					fail("Invalid %s '%s' - must be %s", f.Name, value, quoteOr(rule.Allowed))
					continue
				}
				clean[f.Name] = canonical
			case schema.RuleDate:
				if _, ok := ParseISODate(value); !ok {
					fail("Invalid date '%s' - must be in YYYY-MM-DD format", value)
				}
			}
		}
	}

	if len(errs) > 0 {
		return ValidationResult{Errors: errs}
	}
	return ValidationResult{Row: clean}
}

// matchEnum returns the allowed spelling equal to value ignoring case.
func matchEnum(value string, allowed []string) (string, bool) {
	for _, a := range allowed {
		if strings.EqualFold(a, value) {
			return a, true
		}
	}
	return "", false
}

// quoteOr renders ["Credit", "Debit"] as "'Credit' or 'Debit'".
func quoteOr(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + v + "'"
	}
	if len(quoted) <= 1 {
		return strings.Join(quoted, "")
	}
	return strings.Join(quoted[:len(quoted)-1], ", ") + " or " + quoted[len(quoted)-1]
}
