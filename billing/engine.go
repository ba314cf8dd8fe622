package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Facts are the inputs needed to derive an invoice's status.
type Facts struct {
	Amount        decimal.Decimal
	TotalPaid     decimal.Decimal
	DueDate       time.Time
	Today         time.Time
	CurrentStatus PaymentStatus
}

// Engine derives the payment status of an invoice from its financial facts.
// It has no side effects; callers persist the result when Changed is true.
type Engine struct {
	// SplitPartialOverdue maps partial payments on a past-due invoice to
	// PARTIALLY_PAID_OVERDUE instead of PARTIALLY_PAID.
	SplitPartialOverdue bool
}

func NewEngine(splitPartialOverdue bool) *Engine {
	return &Engine{SplitPartialOverdue: splitPartialOverdue}
}

// Reconcile returns the status that should hold for f and whether it differs
// from f.CurrentStatus. CANCELLED and REFUNDED are returned untouched.
func (e *Engine) Reconcile(f Facts) (PaymentStatus, bool) {
	if f.CurrentStatus.IsTerminal() {
		return f.CurrentStatus, false
	}

	overdue := DateBefore(f.DueDate, f.Today)

	var next PaymentStatus
	switch {
	case f.TotalPaid.IsZero():
		if overdue {
			next = StatusOverdue
		} else {
			next = StatusPending
		}
	case f.TotalPaid.GreaterThanOrEqual(f.Amount):
		next = StatusPaid
	default:
		if overdue && e.SplitPartialOverdue {
			next = StatusPartiallyPaidOverdue
		} else {
			next = StatusPartiallyPaid
		}
	}

	return next, next != f.CurrentStatus
}

// InitialStatus is the status of a newly created invoice with no payments.
func (e *Engine) InitialStatus(amount decimal.Decimal, dueDate, today time.Time) PaymentStatus {
	status, _ := e.Reconcile(Facts{
		Amount:        amount,
		TotalPaid:     decimal.Zero,
		DueDate:       dueDate,
		Today:         today,
		CurrentStatus: StatusPending,
	})
	return status
}

// DateBefore compares calendar dates, ignoring the time of day. Each value
// is read in its own location.
func DateBefore(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay < by
	}
	if am != bm {
		return am < bm
	}
	return ad < bd
}
