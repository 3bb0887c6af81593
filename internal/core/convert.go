package core

// convert.go provides the value parsers behind the format rules.
//
// Amounts are parsed with exact decimal arithmetic so currency values never
// pick up binary floating-point artifacts. Dates are accepted only in the
// zero-padded ISO layout.

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a plain base-10 number.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Amount bounds follow the PostgreSQL NUMERIC column limits.
const (
	maxAmountScale         = 16383
	maxAmountIntegerDigits = 131072
)

// ISODateLayout is the only accepted date layout.
const ISODateLayout = "2006-01-02"

// ParseAmount parses a non-negative decimal amount.
// Returns false for empty, malformed, or negative input, and for values
// whose scale or integer part exceeds what a NUMERIC column can hold.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if d.IsNegative() {
		return decimal.Decimal{}, false
	}
	if !withinNumericRange(d) {
		return decimal.Decimal{}, false
	}
	return d, true
}

// withinNumericRange checks the exponent before anything renders the value,
// since rendering 1e400000000 in plain notation never finishes.
func withinNumericRange(d decimal.Decimal) bool {
	exp := int64(d.Exponent())
	if -exp > maxAmountScale {
		return false
	}
	return int64(d.NumDigits())+exp <= maxAmountIntegerDigits
}

// CanonicalAmount renders an amount in plain notation, keeping the scale
// the value was written with: "100.50" stays "100.50", "1e3" becomes "1000".
func CanonicalAmount(d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 0 {
		places = 0
	}
	return d.StringFixed(places)
}

// ParseISODate parses a YYYY-MM-DD date. Month and day must be zero padded.
func ParseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(ISODateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// IsDigits reports whether s is non-empty and made only of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
