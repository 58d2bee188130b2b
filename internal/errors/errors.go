// Package errors is the slatewise error taxonomy. Every store, engine
// and gatherer failure is an *Error so the CLI and the HTTP layer can
// branch on Type without string matching.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"runtime"
	"strings"
)

// ErrorType is the category of an error
type ErrorType int

const (
	// ErrorTypeConfig: missing provider, key or storage settings
	ErrorTypeConfig ErrorType = iota
	// ErrorTypeValidation: bad input such as an unknown pick side or a relevance above 1
	ErrorTypeValidation
	// ErrorTypeNotFound: a game, slate, framework or evidence row does not exist
	ErrorTypeNotFound
	// ErrorTypeDatabase: sqlite/postgres failures
	ErrorTypeDatabase
	// ErrorTypeExternal: LLM provider or research failures
	ErrorTypeExternal
	// ErrorTypeInternal: anything unclassified
	ErrorTypeInternal
)

var typeNames = map[ErrorType]string{
	ErrorTypeConfig:     "CONFIG",
	ErrorTypeValidation: "VALIDATION",
	ErrorTypeNotFound:   "NOT_FOUND",
	ErrorTypeDatabase:   "DATABASE",
	ErrorTypeExternal:   "EXTERNAL",
	ErrorTypeInternal:   "INTERNAL",
}

func (t ErrorType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// HTTPStatus is the response code the API uses for this category
func (t ErrorType) HTTPStatus() int {
	switch t {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeConfig:
		return http.StatusServiceUnavailable
	case ErrorTypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Severity says how far a failure propagates
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "LOW"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityHigh:
		return "HIGH"
	case SeverityCritical:
		return "CRITICAL"
	}
	return "UNKNOWN"
}

// Error is a categorized error with an optional cause
type Error struct {
	Type       ErrorType
	Severity   Severity
	Message    string
	Cause      error
	StackTrace string
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Type, so
// errors.Is(err, storage.ErrNotFound) is a category check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e.Type == t.Type
}

// DetailedString is the multi-line form logged for 5xx responses
func (e *Error) DetailedString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] %s\n", e.Severity, e.Type, e.Message)
	if e.Cause != nil {
		fmt.Fprintf(&sb, "Caused by: %v\n", e.Cause)
	}
	if e.StackTrace != "" {
		fmt.Fprintf(&sb, "Stack trace:\n%s", e.StackTrace)
	}
	return sb.String()
}

func captureStackTrace(skip int) string {
	pcs := make([]uintptr, 10)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		f, more := frames.Next()
		fmt.Fprintf(&sb, "  %s:%d %s\n", f.File, f.Line, f.Function)
		if !more {
			break
		}
	}
	return sb.String()
}

// New creates an error with a stack trace rooted at the caller
func New(errType ErrorType, severity Severity, message string) *Error {
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		StackTrace: captureStackTrace(3),
	}
}

// Wrap returns nil for a nil err
func Wrap(err error, errType ErrorType, severity Severity, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:       errType,
		Severity:   severity,
		Message:    message,
		Cause:      err,
		StackTrace: captureStackTrace(3),
	}
}

func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, SeverityCritical, message)
}

func ConfigErrorf(format string, args ...any) *Error {
	return New(ErrorTypeConfig, SeverityCritical, fmt.Sprintf(format, args...))
}

func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, SeverityHigh, message)
}

func ValidationErrorf(format string, args ...any) *Error {
	return New(ErrorTypeValidation, SeverityHigh, fmt.Sprintf(format, args...))
}

func NotFound(message string) *Error {
	return New(ErrorTypeNotFound, SeverityHigh, message)
}

func NotFoundf(format string, args ...any) *Error {
	return New(ErrorTypeNotFound, SeverityHigh, fmt.Sprintf(format, args...))
}

// DatabaseError wraps a driver error
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, SeverityCritical, message)
}

// ExternalError wraps an LLM or research failure
func ExternalError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExternal, SeverityMedium, message)
}

// GetType returns the Type of the first *Error in the chain.
// Plain errors count as internal.
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

func IsNotFound(err error) bool {
	return err != nil && GetType(err) == ErrorTypeNotFound
}

func IsValidation(err error) bool {
	return err != nil && GetType(err) == ErrorTypeValidation
}
