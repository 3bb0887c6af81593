// Package schema declares the canonical record layouts accepted by the intake
// parser: which fields a file must carry, how each field is validated, and
// which header spellings are accepted for it.
package schema

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// RuleKind identifies a per-field validation rule.
type RuleKind int

const (
	RuleRequired RuleKind = iota
	RuleEmail
	RuleDigits
	RuleMinLength
	RuleDecimal
	RuleEnum
	RuleDate
)

// Rule is a single validation rule attached to a field.
type Rule struct {
	Kind      RuleKind
	MinLength int      // RuleMinLength only
	Allowed   []string // RuleEnum only; canonical spellings
}

// Required returns a rule rejecting absent or blank values.
func Required() Rule { return Rule{Kind: RuleRequired} }

// Email returns a rule requiring an '@' in present values.
func Email() Rule { return Rule{Kind: RuleEmail} }

// Digits returns a rule requiring present values to be all ASCII digits.
func Digits() Rule { return Rule{Kind: RuleDigits} }

// MinLength returns a rule requiring at least k characters after trimming.
func MinLength(k int) Rule { return Rule{Kind: RuleMinLength, MinLength: k} }

// Decimal returns a rule requiring a non-negative base-10 decimal.
func Decimal() Rule { return Rule{Kind: RuleDecimal} }

// Enum returns a case-insensitive membership rule. Matching values are
// rewritten to the spelling given here.
func Enum(allowed ...string) Rule { return Rule{Kind: RuleEnum, Allowed: allowed} }

// Date returns a rule requiring a zero-padded YYYY-MM-DD date.
func Date() Rule { return Rule{Kind: RuleDate} }

// Field describes one canonical column.
type Field struct {
	Name    string   // Canonical name, used as the output key
	Label   string   // Display name for messages (derived from Name if empty)
	Aliases []string // Header fragments tried in priority order by fuzzy matching
	Rules   []Rule
}

// Title returns the display label for the field.
// "mobile_number" becomes "Mobile Number" when no Label is set.
func (f Field) Title() string {
	if f.Label != "" {
		return f.Label
	}
	return cases.Title(language.English).String(strings.ReplaceAll(f.Name, "_", " "))
}

// Has reports whether the field carries a rule of the given kind.
func (f Field) Has(kind RuleKind) bool {
	for _, r := range f.Rules {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// MatchMode selects how file headers are resolved to canonical fields.
type MatchMode int

const (
	// MatchStrict requires headers to equal canonical names exactly (case-sensitive).
	MatchStrict MatchMode = iota
	// MatchFuzzy tries case-insensitive exact, substring, then alias matching.
	MatchFuzzy
)

func (m MatchMode) String() string {
	if m == MatchFuzzy {
		return "fuzzy"
	}
	return "strict"
}

// SuccessPolicy decides the report's success flag once the header resolved.
type SuccessPolicy int

const (
	// SuccessIfResolved reports success whenever the header resolved,
	// regardless of row errors.
	SuccessIfResolved SuccessPolicy = iota
	// FailOnRowErrors reports failure whenever any row error exists. Valid
	// rows are still returned.
	FailOnRowErrors
)

func (p SuccessPolicy) String() string {
	if p == FailOnRowErrors {
		return "fail_on_row_errors"
	}
	return "success_if_resolved"
}

// Schema is a declarative description of one record layout.
type Schema struct {
	Key    string // Registry key: "transactions"
	Label  string // Display name: "Financial Transactions"
	Fields []Field

	Match  MatchMode
	Policy SuccessPolicy

	// ShortCircuitRequired skips format rules for a row once any required
	// field is missing.
	ShortCircuitRequired bool

	// SkipBlankRows drops records whose every field is empty without
	// reporting them.
	SkipBlankRows bool
}

// FieldNames returns canonical field names in declared order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}
