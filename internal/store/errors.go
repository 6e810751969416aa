package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g., a client with the same username).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a unit of work fails to begin,
	// commit, or roll back.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrNoSession is returned when data access is attempted from a context
	// that has no unit-of-work session bound. It signals a programming error
	// and is never retried.
	ErrNoSession = errors.New("no session bound to context")

	// ErrSessionClosed is returned when a closed session is used.
	ErrSessionClosed = errors.New("session is closed")

	// ErrClientNotFound indicates that the requested client does not exist in the store.
	ErrClientNotFound = fmt.Errorf("%w: client", ErrNotFound)

	// ErrCommercialNotFound indicates that the requested commercial does not exist in the store.
	ErrCommercialNotFound = fmt.Errorf("%w: commercial", ErrNotFound)

	// ErrInvoiceNotFound indicates that the requested invoice does not exist in the store.
	ErrInvoiceNotFound = fmt.Errorf("%w: invoice", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
// Entity-specific errors wrap ErrNotFound, so a single check covers them.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StoreError is a custom error type for store-specific errors with additional context.
type StoreError struct {
	Entity    string // The entity type (e.g., "client", "invoice")
	Operation string // The operation that failed (e.g., "find_all", "count")
	Message   string // Error message
	Err       error  // Original error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf(
			"%s operation on %s failed: %s: %v",
			e.Operation,
			e.Entity,
			e.Message,
			e.Err,
		)
	}
	return fmt.Sprintf("%s operation on %s failed: %s", e.Operation, e.Entity, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError with the given entity, operation, message, and wrapped error.
func NewStoreError(entity, operation, message string, err error) *StoreError {
	return &StoreError{
		Entity:    entity,
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
