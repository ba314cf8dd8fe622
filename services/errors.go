package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"invoicing-backend/billing"
)

var (
	// ErrInvoiceNotFound is returned when no live invoice has the requested id.
	ErrInvoiceNotFound = errors.New("invoice not found")

	// ErrPaymentNotFound is returned when no payment has the requested id.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrTerminalInvoice is returned when a payment is recorded against a
	// cancelled or refunded invoice.
	ErrTerminalInvoice = errors.New("invoice is closed for payments")

	ErrUserExists         = errors.New("username or email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled       = errors.New("user account is disabled")

	// ErrSweepInProgress is returned when an overdue sweep is already running.
	ErrSweepInProgress = errors.New("overdue sweep already running")

	ErrInvalidTransition = billing.ErrInvalidTransition
)

// InvalidPaymentError rejects a payment amount before it reaches the
// status engine.
type InvalidPaymentError struct {
	InvoiceID uuid.UUID
	Amount    decimal.Decimal
	Remaining decimal.Decimal
	Reason    string
}

func (e *InvalidPaymentError) Error() string {
	return fmt.Sprintf("invalid payment of %s for invoice %s: %s",
		billing.FormatAmount(e.Amount), e.InvoiceID, e.Reason)
}

// Message is safe to show to API clients.
func (e *InvalidPaymentError) Message() string {
	return e.Reason
}

func newExceedsBalanceError(invoiceID uuid.UUID, amount, remaining decimal.Decimal) *InvalidPaymentError {
	reason := fmt.Sprintf("Payment amount (%s) exceeds the remaining invoice amount (%s)",
		billing.FormatAmount(amount), billing.FormatAmount(remaining))
	if !remaining.IsPositive() {
		reason = "Invoice is already fully paid"
	}
	return &InvalidPaymentError{
		InvoiceID: invoiceID,
		Amount:    amount,
		Remaining: remaining,
		Reason:    reason,
	}
}

// ValidationError represents errors in invoice or payment data validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
