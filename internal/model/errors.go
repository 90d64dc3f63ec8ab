package model

import "fmt"

// Client-facing error messages.
const (
	MsgNameRequired      = "Item name is required"
	MsgInvalidItemID     = "Invalid item ID format"
	MsgItemNotFound      = "Item not found"
	MsgInvalidPagination = "Page and pageSize must be positive integers"
)

// Request errors. Compare with errors.Is, classify with errors.As.
var (
	ErrNameRequired      = NewValidationError(MsgNameRequired)
	ErrInvalidIDFormat   = NewValidationError(MsgInvalidItemID)
	ErrInvalidPagination = NewValidationError(MsgInvalidPagination)
	ErrItemNotFound      = NewNotFoundError(MsgItemNotFound)
)

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Message string
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{Message: msg}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports a lookup that matched no record.
type NotFoundError struct {
	Message string
}

// NewNotFoundError creates a NotFoundError with the given message.
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{Message: msg}
}

func (e *NotFoundError) Error() string {
	return e.Message
}

// StorageError wraps a failure to read or write the item collection.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
