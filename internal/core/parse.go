package core

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/JonMunkholm/csvintake/internal/schema"
)

// Report is the aggregate result of parsing one file.
// It is the JSON body printed by the CLI and returned by the HTTP API.
type Report struct {
	Success bool            `json:"success"`
	Error   *string         `json:"error"`
	Data    []NormalizedRow `json:"data"`
	Errors  []string        `json:"errors"`
}

// FailureReport builds the report for a fatal error: no data, no row errors.
func FailureReport(err error) Report {
	msg := err.Error()
	return Report{
		Success: false,
		Error:   &msg,
		Data:    []NormalizedRow{},
		Errors:  []string{},
	}
}

// Parser validates files against one schema.
type Parser struct {
	schema   schema.Schema
	matchers []Matcher
	logger   *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithMatchers replaces the header matchers implied by the schema's match mode.
func WithMatchers(m ...Matcher) Option {
	return func(p *Parser) { p.matchers = m }
}

// WithLogger sets the logger used for parse diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// NewParser creates a parser for s.
func NewParser(s schema.Schema, opts ...Option) *Parser {
	p := &Parser{
		schema:   s,
		matchers: MatchersFor(s.Match),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads and validates the file at path. The format is chosen from
// the extension. Every outcome, fatal or not, is expressed in the report.
func (p *Parser) ParseFile(path string) Report {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return p.fail(&FileNotFoundError{Path: path})
		}
		return p.fail(&ReadError{Err: err})
	}
	defer f.Close()

	return p.Parse(f, FormatFromName(path))
}

// Parse reads and validates r in the given format.
func (p *Parser) Parse(r io.Reader, format Format) Report {
	table, err := ReadTable(r, format)
	if err != nil {
		return p.fail(err)
	}
	return p.ParseTable(table)
}

// ParseTable validates an already loaded table.
func (p *Parser) ParseTable(table Table) Report {
	mapping, err := MapColumns(table.Header, p.schema, p.matchers)
	if err != nil {
		return p.fail(err)
	}

	validator := NewRowValidator(p.schema)
	report := Report{
		Data:   []NormalizedRow{},
		Errors: []string{},
	}
	skipped := 0

	for _, rec := range table.Records {
		values := make(map[string]string, len(mapping))
		for name, h := range mapping {
			if h.Pos < len(rec.Fields) {
				values[name] = rec.Fields[h.Pos]
			}
		}

		if p.schema.SkipBlankRows && allEmpty(rec.Fields) {
			skipped++
			continue
		}

		result := validator.Validate(rec.Row, values)
		if !result.Valid() {
			report.Errors = append(report.Errors, result.Errors...)
			continue
		}
		report.Data = append(report.Data, result.Row)
	}

	report.Success = true
	if p.schema.Policy == schema.FailOnRowErrors && len(report.Errors) > 0 {
		msg := fmt.Sprintf("Validation failed for %d issues", len(report.Errors))
		report.Success = false
		report.Error = &msg
	}

	p.logger.Debug("parse complete",
		"schema", p.schema.Key,
		"records", len(table.Records),
		"valid", len(report.Data),
		"row_errors", len(report.Errors),
		"skipped", skipped,
	)
	return report
}

func (p *Parser) fail(err error) Report {
	p.logger.Debug("parse failed", "schema", p.schema.Key, "code", ErrorCode(err), "error", err)
	return FailureReport(err)
}

// allEmpty reports whether every field is the empty string. Whitespace-only
// rows are not empty and go through validation.
func allEmpty(fields []string) bool {
	for _, f := range fields {
		if f != "" {
			return false
		}
	}
	return true
}
