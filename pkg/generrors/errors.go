// Package generrors holds the error taxonomy of the generator.
//
// Every fatal condition has a sentinel for quick errors.Is checks and a typed
// error carrying the details for errors.As:
//
//	bundle, err := svc.GenerateFromConfig(cfg, "")
//	var refErr *generrors.MalformedReferenceError
//	if errors.As(err, &refErr) {
//	    fmt.Println("bad $ref:", refErr.Ref)
//	}
package generrors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
)

// Sentinel errors for use with errors.Is().
var (
	// ErrInput indicates a missing or invalid user input (paths, flags, license file).
	ErrInput = errors.New("input error")

	// ErrNotFound indicates the contract file does not exist.
	ErrNotFound = errors.New("contract not found")

	// ErrUnsupportedExtension indicates the contract file is not .yaml, .yml or .json.
	ErrUnsupportedExtension = errors.New("unsupported contract extension")

	// ErrMalformedDocument indicates the contract could not be parsed.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrSchemaValidation indicates the contract does not have the expected surface shape.
	ErrSchemaValidation = errors.New("schema validation error")

	// ErrMalformedReference indicates a $ref that points outside the document or nowhere.
	ErrMalformedReference = errors.New("malformed reference")

	// ErrUnsupportedSchemaShape indicates a structurally broken schema.
	ErrUnsupportedSchemaShape = errors.New("unsupported schema shape")

	// ErrDuplicateTypeName indicates two different schemas produced the same declaration name.
	ErrDuplicateTypeName = errors.New("duplicate type name")

	// ErrPartialWrite indicates the writer failed after writing some files.
	ErrPartialWrite = errors.New("partial write")

	// ErrMissingOperationID indicates an operation without operationId when one is required.
	ErrMissingOperationID = errors.New("missing operation id")
)

// InputKind distinguishes the flavours of InputError.
type InputKind int

const (
	// InputInvalid is a generic invalid input.
	InputInvalid InputKind = iota
	// InputMissing means a required path was not provided.
	InputMissing
	// InputNotFound means the path does not exist.
	InputNotFound
	// InputUnsupportedExtension means the file extension is not accepted.
	InputUnsupportedExtension
	// InputLicense means the license header file could not be read.
	InputLicense
)

// InputError reports a problem with what the user handed to the generator.
type InputError struct {
	Kind    InputKind
	Path    string
	Message string
	Cause   error
}

// Error returns a human-readable error message.
func (e *InputError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "input error"
	}
	if e.Kind == InputNotFound || e.Kind == InputUnsupportedExtension {
		msg += ": " + e.Path
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *InputError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *InputError) Is(target error) bool {
	switch target {
	case ErrInput:
		return true
	case ErrNotFound:
		return e.Kind == InputNotFound
	case ErrUnsupportedExtension:
		return e.Kind == InputUnsupportedExtension
	}
	return false
}

// MalformedDocumentError represents a contract that is not well-formed YAML/JSON
// or that repeats a key within one mapping.
type MalformedDocumentError struct {
	Path    string
	Line    int
	Column  int
	Message string
	Cause   error
}

// Error returns a human-readable error message.
func (e *MalformedDocumentError) Error() string {
	msg := "malformed document"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Line > 0 {
		msg += fmt.Sprintf(" at line %d", e.Line)
		if e.Column > 0 {
			msg += fmt.Sprintf(", column %d", e.Column)
		}
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MalformedDocumentError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MalformedDocumentError) Is(target error) bool {
	return target == ErrMalformedDocument
}

// SchemaValidationError collects every surface-level problem found in a contract.
type SchemaValidationError struct {
	Path     string
	Problems []string
}

// Error returns a human-readable error message.
func (e *SchemaValidationError) Error() string {
	msg := "invalid AsyncAPI contract"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if len(e.Problems) > 0 {
		msg += ": " + strings.Join(e.Problems, "; ")
	}
	return msg
}

// Is reports whether target matches this error type.
func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// MalformedReferenceError represents a $ref that cannot be resolved inside the document.
type MalformedReferenceError struct {
	// Ref is the reference string as written
	Ref string
	// From is the document path holding the reference
	From string
	// Reason explains why the reference is unusable
	Reason string
	Cause  error
}

// Error returns a human-readable error message.
func (e *MalformedReferenceError) Error() string {
	msg := "malformed reference"
	if e.Ref != "" {
		msg += " " + fmt.Sprintf("%q", e.Ref)
	}
	if e.From != "" {
		msg += " at " + e.From
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *MalformedReferenceError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *MalformedReferenceError) Is(target error) bool {
	return target == ErrMalformedReference
}

// UnsupportedSchemaShapeError represents a schema that is structurally broken,
// as opposed to one using unknown vocabulary.
type UnsupportedSchemaShapeError struct {
	// ID is the document path of the offending schema
	ID     string
	Reason string
}

// Error returns a human-readable error message.
func (e *UnsupportedSchemaShapeError) Error() string {
	return fmt.Sprintf("unsupported schema shape at %s: %s", e.ID, e.Reason)
}

// Is reports whether target matches this error type.
func (e *UnsupportedSchemaShapeError) Is(target error) bool {
	return target == ErrUnsupportedSchemaShape
}

// DuplicateTypeNameError represents two declarations with the same name but different origins.
type DuplicateTypeNameError struct {
	Name     string
	Existing string
	Incoming string
}

// Error returns a human-readable error message.
func (e *DuplicateTypeNameError) Error() string {
	return fmt.Sprintf("duplicate type name %q: declared by %s and %s", e.Name, e.Existing, e.Incoming)
}

// Is reports whether target matches this error type.
func (e *DuplicateTypeNameError) Is(target error) bool {
	return target == ErrDuplicateTypeName
}

// PartialWriteError reports an I/O failure in the middle of writing a bundle.
// Files listed in Written remain on disk.
type PartialWriteError struct {
	Written []string
	Failed  string
	Cause   error
}

// Error returns a human-readable error message.
func (e *PartialWriteError) Error() string {
	msg := fmt.Sprintf("failed to write %s", e.Failed)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if len(e.Written) > 0 {
		msg += fmt.Sprintf(" (already written: %s)", strings.Join(e.Written, ", "))
	}
	return msg
}

// Unwrap returns the underlying cause for error chaining.
func (e *PartialWriteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error type.
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// MissingOperationIDError is raised in service mode when operation ids are required.
type MissingOperationIDError struct {
	Path      string
	Direction string
}

// Error returns a human-readable error message.
func (e *MissingOperationIDError) Error() string {
	return fmt.Sprintf("operation at %s (%s) has no operationId", e.Path, e.Direction)
}

// Is reports whether target matches this error type.
func (e *MissingOperationIDError) Is(target error) bool {
	return target == ErrMissingOperationID
}
