// Package errors gives every failure in nadir a machine-readable code.
//
// Codes are grouped into categories so that callers can react to a whole
// class of failures at once. The HTTP API maps categories to status codes
// and the CLI maps them to exit codes:
//
//   - [CategoryRequest]: the caller asked for something unusable (bad GSD,
//     unknown backend, missing file)
//   - [CategoryScene]: the request is well-formed but the scene cannot be
//     imaged as asked (degenerate bounds, an all-zero rectangle in strict
//     mode)
//   - [CategoryExternal]: a collaborator such as Blender failed
//   - [CategoryInternal]: everything else
//
// # Usage
//
//	if gsd <= 0 {
//	    return errors.New(errors.ErrCodeInvalidArgument, "gsd must be positive, got %g", gsd)
//	}
//
//	if err := cmd.Run(); err != nil {
//	    return errors.Wrap(errors.ErrCodeBackend, err, "blender exited")
//	}
//
//	if errors.Is(err, errors.ErrCodeAmbiguousRegion) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code. Codes are stable; the HTTP API
// returns them verbatim.
type Code string

const (
	// Camera fitting
	ErrCodeInvalidArgument Code = "INVALID_ARGUMENT"
	ErrCodeAmbiguousRegion Code = "AMBIGUOUS_REGION"
	ErrCodeMissingGeometry Code = "MISSING_GEOMETRY"

	// Requests, scene files and job files
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPath    Code = "INVALID_PATH"
	ErrCodeInvalidFormat  Code = "INVALID_FORMAT"
	ErrCodeInvalidBackend Code = "INVALID_BACKEND"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"

	// Render backends
	ErrCodeBackend Code = "BACKEND_ERROR"

	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Category groups codes by who has to act on them.
type Category int

const (
	CategoryInternal Category = iota
	CategoryRequest
	CategoryScene
	CategoryExternal
)

var categories = map[Code]Category{
	ErrCodeInvalidArgument: CategoryRequest,
	ErrCodeInvalidInput:    CategoryRequest,
	ErrCodeInvalidPath:     CategoryRequest,
	ErrCodeInvalidFormat:   CategoryRequest,
	ErrCodeInvalidBackend:  CategoryRequest,
	ErrCodeInvalidConfig:   CategoryRequest,
	ErrCodeFileNotFound:    CategoryRequest,
	ErrCodeAmbiguousRegion: CategoryScene,
	ErrCodeMissingGeometry: CategoryScene,
	ErrCodeBackend:         CategoryExternal,
}

// Category returns the category of c. Unknown codes are internal.
func (c Code) Category() Category {
	return categories[c]
}

func (c Category) String() string {
	switch c {
	case CategoryRequest:
		return "request"
	case CategoryScene:
		return "scene"
	case CategoryExternal:
		return "external"
	}
	return "internal"
}

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New returns an error with code and a formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap is like New but keeps cause in the chain.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	e := New(code, format, args...)
	e.Cause = cause
	return e
}

// find returns the outermost *Error in err's chain.
func find(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	e, ok := find(err)
	return ok && e.Code == code
}

// GetCode returns the code of the outermost *Error in err's chain, or ""
// if there is none.
func GetCode(err error) Code {
	if e, ok := find(err); ok {
		return e.Code
	}
	return ""
}

// CategoryOf returns the category of err. Errors without a code are
// internal.
func CategoryOf(err error) Category {
	return GetCode(err).Category()
}

// UserMessage returns the message of the outermost *Error without its
// code prefix, or err.Error() for uncoded errors.
func UserMessage(err error) string {
	if e, ok := find(err); ok {
		return e.Message
	}
	return err.Error()
}
