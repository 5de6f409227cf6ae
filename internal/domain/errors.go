package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches one of these with errors.Is.
var (
	ErrValidation             = errors.New("validation failed")
	ErrNotFound               = errors.New("not found")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrConflict               = errors.New("conflict")
	ErrTransactionFailed      = errors.New("transaction failed")
	ErrConcurrentModification = errors.New("concurrent modification")
)

// ValidationError reports malformed input
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError creates a ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports a missing resource. Resources owned by another
// shopkeeper are reported the same way.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// InsufficientStockError carries the product that could not cover a deduction
type InsufficientStockError struct {
	ProductID string
	SKU       string
	Name      string
	Available int64
	Requested int64
}

func (e *InsufficientStockError) Error() string {
	label := e.Name
	if label == "" {
		label = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", label, e.Available, e.Requested)
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// NewInsufficientStockError creates an InsufficientStockError for p
func NewInsufficientStockError(p *Product, requested int64) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: p.ID,
		SKU:       p.SKU,
		Name:      p.Name,
		Available: p.Quantity,
		Requested: requested,
	}
}

// ConflictError reports a uniqueness violation
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.Field, e.Value)
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// NewConflictError creates a ConflictError
func NewConflictError(field, value string) *ConflictError {
	return &ConflictError{Field: field, Value: value}
}

// TransactionFailure wraps an infrastructure error raised inside a unit of
// work after it was rolled back. Callers may retry the whole operation.
type TransactionFailure struct {
	Op  string
	Err error
}

func (e *TransactionFailure) Error() string {
	return fmt.Sprintf("%s: transaction failed: %v", e.Op, e.Err)
}

func (e *TransactionFailure) Unwrap() error { return e.Err }

func (e *TransactionFailure) Is(target error) bool { return target == ErrTransactionFailed }

// IsBusinessError reports whether err is one of the domain's own errors, as
// opposed to an infrastructure failure.
func IsBusinessError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrTransactionFailed)
}

// IsRetryable reports whether the operation may succeed if repeated
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
