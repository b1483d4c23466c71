package spec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes errors for clearer handling and messaging.
type ErrorCode string

const (
	// FormatError: the input text is not well-formed YAML or JSON.
	FormatError ErrorCode = "FormatError"
	// ValidationError: the decoded structure fails the minimal contract.
	ValidationError ErrorCode = "ValidationError"
	// StateError: an accessor was used before any document was loaded.
	StateError ErrorCode = "StateError"
	// ConflictError: two routes claim the same method and path.
	ConflictError ErrorCode = "ConflictError"
	InputError    ErrorCode = "InputError"
	NetworkError  ErrorCode = "NetworkError"
)

// ErrNotFound is returned when a path or operation is not declared.
var ErrNotFound = errors.New("not found")

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Field       string // dotted field name for validation failures, e.g. "info.title"
	Location    string // file path or URL
	JSONPointer string // e.g. "#/info/title"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// IsCode reports whether err carries a SpecError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var se *SpecError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func errNoDocument() error {
	return &SpecError{Code: StateError, Message: "no document loaded"}
}

func missingField(field, pointer string) error {
	return &SpecError{
		Code:        ValidationError,
		Message:     fmt.Sprintf("spec: missing required field %q", field),
		Field:       field,
		JSONPointer: pointer,
	}
}
