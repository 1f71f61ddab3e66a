package sqlengine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOpen is returned by operations on a Connection that has not been
	// opened, or has been closed.
	ErrNotOpen = errors.New("sqlengine: connection is not open")

	// ErrAlreadyOpen is returned by Open on a Connection that is already open.
	ErrAlreadyOpen = errors.New("sqlengine: connection is already open")
)

// ErrorCode categorizes engine failures.
type ErrorCode string

const (
	// CodeOpenFailed indicates the native open failed, or an import image
	// could not be loaded.
	CodeOpenFailed ErrorCode = "OPEN_FAILED"

	// CodePrepareFailed indicates malformed SQL, a schema mismatch, or a
	// parameter that could not be bound.
	CodePrepareFailed ErrorCode = "PREPARE_FAILED"

	// CodeExecuteFailed indicates a step failed, or a statement passed to
	// Execute produced a row.
	CodeExecuteFailed ErrorCode = "EXECUTE_FAILED"

	// CodeQueryFailed wraps a prepare or execute failure hit while draining
	// query results.
	CodeQueryFailed ErrorCode = "QUERY_FAILED"

	// CodeSerializeFailed indicates the engine could not export its database.
	CodeSerializeFailed ErrorCode = "SERIALIZE_FAILED"
)

// Error is a structured engine failure.
//
// Diagnostic is the engine's own error text, preserved verbatim so callers
// can show it to users. Err is the underlying cause.
type Error struct {
	// Code identifies the failure category.
	Code ErrorCode

	// Statement is the SQL being run, if any.
	Statement string

	// Diagnostic is the native engine's last error message.
	Diagnostic string

	// Err is the wrapped cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	if e.Statement != "" {
		msg += fmt.Sprintf(" (sql=%q)", e.Statement)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, stmt Statement, cause error) *Error {
	e := &Error{Code: code, Statement: string(stmt), Err: cause}
	if cause != nil {
		e.Diagnostic = cause.Error()
	}
	return e
}

// wrapQuery converts a prepare or execute failure into a QUERY_FAILED error
// that keeps the original diagnostic. Other errors pass through unchanged.
func wrapQuery(stmt Statement, err error) error {
	var e *Error
	if !errors.As(err, &e) || e.Code == CodeQueryFailed {
		return err
	}
	return &Error{
		Code:       CodeQueryFailed,
		Statement:  string(stmt),
		Diagnostic: e.Diagnostic,
		Err:        err,
	}
}

// hasCode walks the chain of *Error values looking for code.
func hasCode(err error, code ErrorCode) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Err
	}
	return false
}

// IsOpenError reports whether err is, or wraps, an OPEN_FAILED error.
func IsOpenError(err error) bool { return hasCode(err, CodeOpenFailed) }

// IsPrepareError reports whether err is, or wraps, a PREPARE_FAILED error.
func IsPrepareError(err error) bool { return hasCode(err, CodePrepareFailed) }

// IsExecuteError reports whether err is, or wraps, an EXECUTE_FAILED error.
func IsExecuteError(err error) bool { return hasCode(err, CodeExecuteFailed) }

// IsQueryError reports whether err is, or wraps, a QUERY_FAILED error.
func IsQueryError(err error) bool { return hasCode(err, CodeQueryFailed) }

// Diagnostic returns the engine diagnostic carried by err, or "".
func Diagnostic(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Diagnostic
	}
	return ""
}
