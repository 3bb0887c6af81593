package core

// errors.go defines the fatal parse errors and their support codes.
//
// Fatal errors abort a parse before any row output is produced:
//
//	FILE001 - File not found: the input path does not resolve
//	FILE002 - Empty file: no header row was detected
//	FILE003 - Read error: the file could not be read or decoded
//	VAL004  - Missing columns: a canonical field matched no header
//
// Row-level problems are not errors in the Go sense. They are collected as
// "Row {n}: {message}" strings in the report and never abort a parse.

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for errors.Is checks.
var (
	ErrFileNotFound   = errors.New("file not found")
	ErrEmptyFile      = errors.New("empty or invalid file")
	ErrMissingColumns = errors.New("missing required columns")
	ErrRead           = errors.New("read error")
)

// FileNotFoundError reports an input path that does not resolve.
type FileNotFoundError struct {
	Path string
}

func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("CSV file not found at path: %s", e.Path)
}

func (e *FileNotFoundError) Is(target error) bool { return target == ErrFileNotFound }

// EmptyFileError reports a file with no header row.
type EmptyFileError struct{}

func (e *EmptyFileError) Error() string { return "CSV file appears to be empty or invalid" }

func (e *EmptyFileError) Is(target error) bool { return target == ErrEmptyFile }

// MissingColumnsError lists canonical fields that matched no header.
type MissingColumnsError struct {
	Missing   []string // Canonical names, in schema order
	Available []string // Headers as they appear in the file
}

func (e *MissingColumnsError) Error() string {
	msg := fmt.Sprintf("Missing required columns: %s", strings.Join(e.Missing, ", "))
	if len(e.Available) > 0 {
		msg += fmt.Sprintf(". Available columns: %s", strings.Join(e.Available, ", "))
	}
	return msg
}

func (e *MissingColumnsError) Is(target error) bool { return target == ErrMissingColumns }

// ReadError wraps any other failure while reading or decoding the input.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("CSV parsing error: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

func (e *ReadError) Is(target error) bool { return target == ErrRead }

// ErrorCode returns the support code for a fatal parse error.
// Unknown errors map to ERR000; nil maps to "".
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFileNotFound):
		return "FILE001"
	case errors.Is(err, ErrEmptyFile):
		return "FILE002"
	case errors.Is(err, ErrRead):
		return "FILE003"
	case errors.Is(err, ErrMissingColumns):
		return "VAL004"
	default:
		return "ERR000"
	}
}
