// Package core provides the validation and normalization logic for intake files.
//
// This package is independent of any CLI or transport layer. It can be used by
// the command-line tool, the HTTP API, the database importer, or tests without
// modification.
//
// # Flow
//
// A parse is a single synchronous pass over a file held in memory:
//
//  1. [ReadTable] loads CSV (or .xlsx) into a header and numbered records
//  2. [MapColumns] resolves each canonical field to a header
//  3. [RowValidator] checks every record and produces a [NormalizedRow]
//  4. The [Report] collects valid rows and "Row {n}: {message}" strings
//
// [Parser] wires these steps together for one [schema.Schema]:
//
//	p := core.NewParser(schema.TransactionSchema())
//	report := p.ParseFile("statement.csv")
//
// # Header Matching
//
// Matching is a pluggable list of [Matcher] functions tried in priority order.
// Strict schemas use [StrictMatchers]; fuzzy schemas use [FuzzyMatchers]
// (case-insensitive exact, substring, then alias). [WithMatchers] swaps the
// policy without touching validation.
//
// # Error Handling
//
// Fatal errors (missing file, empty file, unresolvable columns, read or
// decode failures) abort the parse and produce a report with empty data and
// errors. Each has a support code, see [ErrorCode]. Row errors never abort.
package core
