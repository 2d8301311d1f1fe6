package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig Category = "config"
	CategoryRecord Category = "record"
	CategoryServer Category = "server"
	CategoryCLI    Category = "cli"
)

// GestureError is a structured error with an optional file, a hint, and the
// underlying cause.
type GestureError struct {
	// Code is a unique error identifier (e.g., "G101").
	Code string

	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation, usually naming the offending value.
	Detail string

	// File is the config or trace file involved, if any.
	File string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *GestureError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = e.Code + ": " + msg
	}
	if e.File != "" {
		msg = e.File + ": " + msg
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *GestureError) Unwrap() error {
	return e.Wrapped
}

// WithFile records the file the error refers to.
func (e *GestureError) WithFile(path string) *GestureError {
	e.File = path
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *GestureError) WithDetail(d string) *GestureError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted explanation to the error.
func (e *GestureError) WithDetailf(format string, args ...any) *GestureError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// WithSuggestion replaces the registered hint.
func (e *GestureError) WithSuggestion(s string) *GestureError {
	e.Suggestion = s
	return e
}

// Wrap wraps another error.
func (e *GestureError) Wrap(err error) *GestureError {
	e.Wrapped = err
	return e
}

// New creates a GestureError from a registered error code.
func New(code string) *GestureError {
	template, ok := registry[code]
	if !ok {
		return &GestureError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &GestureError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Suggestion: template.Suggestion,
	}
}

// Newf creates an uncoded GestureError with a formatted message.
func Newf(category Category, format string, args ...any) *GestureError {
	return &GestureError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a GestureError, wrapping it under code when it is
// not one already.
func FromError(err error, code string) *GestureError {
	if err == nil {
		return nil
	}
	var ge *GestureError
	if errors.As(err, &ge) {
		return ge
	}
	return New(code).Wrap(err)
}

// HasCode reports whether err or any error it wraps is a GestureError with
// the given code.
func HasCode(err error, code string) bool {
	for err != nil {
		if ge, ok := err.(*GestureError); ok && ge.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
