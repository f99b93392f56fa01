// Package errors provides structured error types and exit codes for automatest.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Process exit codes.
const (
	ExitSuccess          = 0 // Success
	ExitRuntimeError     = 1 // Runtime error (runner failed, a collection did not pass, etc.)
	ExitConfigError      = 2 // Configuration error (invalid config, missing SMTP settings, etc.)
	ExitEnvironmentError = 3 // Environment error (runner not installed, login failed, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindNotFound
	KindValidation
	KindEnvironment
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindEnvironment:
		return "environment"
	default:
		return "runtime"
	}
}

// AutomatestError is the base error type for automatest.
type AutomatestError struct {
	Kind       ErrorKind
	Message    string
	Project    string // Project name if applicable
	Collection string // Collection name if applicable
	Cause      error  // Underlying error
}

func (e *AutomatestError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Project != "" && e.Collection != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Project, e.Collection, msg)
	}
	if e.Project != "" {
		return fmt.Sprintf("[%s] %s", e.Project, msg)
	}
	return msg
}

func (e *AutomatestError) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *AutomatestError) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *AutomatestError {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *AutomatestError {
	return Config(fmt.Sprintf(format, args...))
}

// Validation creates a validation error.
func Validation(message string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindValidation,
		Message: message,
	}
}

// Environment creates a new environment error.
func Environment(message string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *AutomatestError {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// WrapKind wraps an error with the given kind.
func WrapKind(kind ErrorKind, err error, message string) *AutomatestError {
	return &AutomatestError{
		Kind:    kind,
		Message: message,
		Cause:   err,
	}
}

// CollectionError attributes cause to one project collection. The kind of
// an AutomatestError cause is kept.
func CollectionError(project, collection string, cause error) *AutomatestError {
	e := &AutomatestError{
		Kind:       KindRuntime,
		Project:    project,
		Collection: collection,
		Message:    "run failed",
		Cause:      cause,
	}
	var ae *AutomatestError
	if stderrors.As(cause, &ae) {
		e.Kind = ae.Kind
	}
	return e
}

// NotFound creates a not found error.
func NotFound(what, name string) *AutomatestError {
	return &AutomatestError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, name),
	}
}

// IsKind reports whether err carries an AutomatestError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var ae *AutomatestError
	return stderrors.As(err, &ae) && ae.Kind == kind
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ae *AutomatestError
	if stderrors.As(err, &ae) {
		return ae.ExitCode()
	}
	return ExitRuntimeError
}
