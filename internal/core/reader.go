package core

// reader.go loads an input file into memory as a header plus numbered records.
//
// Two formats are supported:
//   - Comma-delimited UTF-8 text with standard double-quote quoting
//   - Excel workbooks (.xlsx), first sheet only
//
// Record numbers are the line (or sheet row) where the record starts, so a
// message like "Row 7" points at what the user sees in an editor, blank lines
// included.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// utf8BOM is the byte order mark Excel prepends to "CSV UTF-8" exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies the container of an input file.
type Format int

const (
	FormatCSV Format = iota
	FormatXLSX
)

// FormatFromName picks the format from a file name's extension.
// Anything that is not .xlsx is read as CSV.
func FormatFromName(name string) Format {
	if strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Record is one data record and the row number it starts on.
type Record struct {
	Row    int
	Fields []string
}

// Table is a fully loaded input file.
type Table struct {
	Header  []string
	Records []Record
}

// ReadTable loads r in the given format.
// Returns *EmptyFileError when no header row exists and *ReadError for any
// other read or decode failure.
func ReadTable(r io.Reader, format Format) (Table, error) {
	if format == FormatXLSX {
		return readXLSX(r)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, &ReadError{Err: err}
	}
	return readCSV(data)
}

// SkipBOM strips a leading UTF-8 byte order mark.
func SkipBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// checkUTF8 returns an error locating the first invalid UTF-8 sequence.
func checkUTF8(data []byte) error {
	if utf8.Valid(data) {
		return nil
	}
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("invalid UTF-8 byte 0x%02x at offset %d", data[i], i)
		}
		i += size
	}
	return errors.New("invalid UTF-8")
}

func readCSV(data []byte) (Table, error) {
	data = SkipBOM(data)
	if err := checkUTF8(data); err != nil {
		return Table{}, &ReadError{Err: err}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // Short and long rows are handled by the mapper
	reader.LazyQuotes = true

	var table Table
	headerSeen := false

	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, &ReadError{Err: err}
		}

		if !headerSeen {
			if allBlank(fields) {
				return Table{}, &EmptyFileError{}
			}
			table.Header = fields
			headerSeen = true
			continue
		}

		line, _ := reader.FieldPos(0)
		table.Records = append(table.Records, Record{Row: line, Fields: fields})
	}

	if !headerSeen {
		return Table{}, &EmptyFileError{}
	}
	return table, nil
}

func readXLSX(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, &ReadError{Err: fmt.Errorf("failed to open Excel file: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, &EmptyFileError{}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, &ReadError{Err: fmt.Errorf("failed to read rows: %w", err)}
	}

	// Leading empty rows are skipped when locating the header, as with CSV.
	start := 0
	for start < len(rows) && allBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return Table{}, &EmptyFileError{}
	}

	table := Table{Header: rows[start]}
	for i := start + 1; i < len(rows); i++ {
		if len(rows[i]) == 0 {
			continue
		}
		table.Records = append(table.Records, Record{Row: i + 1, Fields: rows[i]})
	}
	return table, nil
}

// allBlank reports whether every field is empty after trimming.
func allBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
