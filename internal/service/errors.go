package service

import "errors"

// Common service errors
var (
	// ErrPermissionDenied is returned when a user doesn't have permission for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidState is returned when a lifecycle transition is not allowed
	// from the order's current status
	ErrInvalidState = errors.New("invalid state transition")

	// ErrConcurrentModification is returned when another request changed the
	// order's status between read and write
	ErrConcurrentModification = errors.New("purchase order was modified concurrently")

	// ErrNotDraft is returned when an edit or delete targets an order that has
	// left the draft state
	ErrNotDraft = errors.New("purchase order is not in draft state")

	// ErrAlreadyInvoiced is returned when invoice generation targets an order
	// that already has an invoice
	ErrAlreadyInvoiced = errors.New("purchase order already has an invoice")

	// ErrHasAuditHistory is returned when deletion targets an order with audit
	// trail entries
	ErrHasAuditHistory = errors.New("purchase order has audit history and cannot be deleted")

	// ErrNotification is returned when recording a finance notification fails
	ErrNotification = errors.New("finance notification failed")

	// ErrInvoiceGeneration is returned when an approval committed but the
	// invoice step failed. The order stays approved and GenerateInvoice is
	// the retry path.
	ErrInvoiceGeneration = errors.New("invoice generation failed")
)
