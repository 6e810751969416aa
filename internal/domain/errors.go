package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidInvoiceStatus is returned when an invoice status is not valid.
	ErrInvalidInvoiceStatus = errors.New("invalid invoice status")

	// ErrNegativeAmount is returned when a monetary amount is below zero.
	ErrNegativeAmount = errors.New("amount cannot be negative")
)
