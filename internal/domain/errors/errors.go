// Package errors defines the error taxonomy shared by every layer of the store.
// All of them are returned as values; none of them terminates the process.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// TableNotFoundError is returned when a command names a table that does not exist
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' not found", e.Table)
}

// DuplicateTableError is returned by CREATE TABLE when the name is taken
type DuplicateTableError struct {
	Table string
}

func (e *DuplicateTableError) Error() string {
	return fmt.Sprintf("table '%s' already exists", e.Table)
}

// SchemaViolationError represents a row missing columns required by its table
type SchemaViolationError struct {
	Table   string   // table name
	Missing []string // required columns absent from the row
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("row missing required columns for table '%s': %s",
		e.Table, strings.Join(e.Missing, ", "))
}

// SyntaxError is returned when a command does not match the grammar
type SyntaxError struct {
	Reason string // human-readable explanation
	Near   string // offending token literal, empty at end of input
}

func (e *SyntaxError) Error() string {
	if e.Near == "" {
		return fmt.Sprintf("invalid syntax: %s", e.Reason)
	}
	return fmt.Sprintf("invalid syntax: %s near '%s'", e.Reason, e.Near)
}

// UnknownCommandError is returned when the leading keyword is not a command
type UnknownCommandError struct {
	Keyword string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command '%s'", e.Keyword)
}

// CorruptDataError is returned when snapshot bytes do not decode to a valid database
type CorruptDataError struct {
	Path   string // snapshot location, empty when decoding from memory
	Reason string
	Err    error
}

func (e *CorruptDataError) Error() string {
	var b strings.Builder
	b.WriteString("corrupt snapshot")
	if e.Path != "" {
		fmt.Fprintf(&b, " '%s'", e.Path)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *CorruptDataError) Unwrap() error {
	return e.Err
}

// MissingFileError is returned when no snapshot exists at the location
type MissingFileError struct {
	Path string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("snapshot file '%s' not found", e.Path)
}

// IOError wraps an operating system failure while reading or writing a snapshot
type IOError struct {
	Op   string // "read", "write", "sync", "rename"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("i/o failure during %s of '%s': %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Corrupt is a shorthand for building a CorruptDataError without a path
func Corrupt(format string, args ...interface{}) *CorruptDataError {
	return &CorruptDataError{Reason: fmt.Sprintf(format, args...)}
}

// Code maps an error chain to a stable snake_case identifier used for
// log fields and metric labels
func Code(err error) string {
	if err == nil {
		return "ok"
	}
	var (
		notFound  *TableNotFoundError
		duplicate *DuplicateTableError
		schema    *SchemaViolationError
		syntax    *SyntaxError
		unknown   *UnknownCommandError
		corrupt   *CorruptDataError
		missing   *MissingFileError
		ioErr     *IOError
	)
	switch {
	case stderrors.As(err, &notFound):
		return "table_not_found"
	case stderrors.As(err, &duplicate):
		return "duplicate_table"
	case stderrors.As(err, &schema):
		return "schema_violation"
	case stderrors.As(err, &syntax):
		return "invalid_syntax"
	case stderrors.As(err, &unknown):
		return "unknown_command"
	case stderrors.As(err, &corrupt):
		return "corrupt_data"
	case stderrors.As(err, &missing):
		return "missing_file"
	case stderrors.As(err, &ioErr):
		return "io_failure"
	default:
		return "internal"
	}
}
