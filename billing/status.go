// Package billing holds the invoice payment-status rules shared by every
// mutation path: the reconciliation engine, manual transitions and money helpers.
package billing

import (
	"fmt"
	"strings"
)

type PaymentStatus string

const (
	StatusPending              PaymentStatus = "PENDING"
	StatusPartiallyPaid        PaymentStatus = "PARTIALLY_PAID"
	StatusPartiallyPaidOverdue PaymentStatus = "PARTIALLY_PAID_OVERDUE"
	StatusOverdue              PaymentStatus = "OVERDUE"
	StatusPaid                 PaymentStatus = "PAID"
	StatusCancelled            PaymentStatus = "CANCELLED"
	StatusRefunded             PaymentStatus = "REFUNDED"
)

var allStatuses = []PaymentStatus{
	StatusPending,
	StatusPartiallyPaid,
	StatusPartiallyPaidOverdue,
	StatusOverdue,
	StatusPaid,
	StatusCancelled,
	StatusRefunded,
}

// Statuses returns every known status in declaration order.
func Statuses() []PaymentStatus {
	out := make([]PaymentStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsTerminal reports whether only a manual action may enter or leave s.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusCancelled || s == StatusRefunded
}

// IsOverdue reports whether s is one of the past-due statuses.
func (s PaymentStatus) IsOverdue() bool {
	return s == StatusOverdue || s == StatusPartiallyPaidOverdue
}

func (s PaymentStatus) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s PaymentStatus) String() string {
	return string(s)
}

// ParseStatus accepts any casing ("paid", "Partially_Paid").
func ParseStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
	return s, nil
}
