package services

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"invoicing-backend/billing"
	"invoicing-backend/models"
)

// Helpers shared by every mutation path. All of them take the transaction
// handle so that locking, summing and the status write happen atomically.

// lockInvoice loads the invoice row with FOR UPDATE so concurrent mutations
// of the same invoice are serialized.
func lockInvoice(tx *gorm.DB, id uuid.UUID, includeArchived bool) (*models.Invoice, error) {
	q := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id)
	if !includeArchived {
		q = q.Where("deleted = ?", false)
	}

	var invoice models.Invoice
	if err := q.First(&invoice).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// totalPaid recomputes the paid total from every persisted payment.
func totalPaid(tx *gorm.DB, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var payments []models.Payment
	if err := tx.Select("amount").Where("invoice_id = ?", invoiceID).Find(&payments).Error; err != nil {
		return decimal.Zero, err
	}

	amounts := make([]decimal.Decimal, len(payments))
	for i, p := range payments {
		amounts[i] = p.Amount
	}
	return billing.Sum(amounts...), nil
}

// paidByInvoice sums payments for many invoices in one query.
func paidByInvoice(tx *gorm.DB, invoiceIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal, len(invoiceIDs))
	if len(invoiceIDs) == 0 {
		return out, nil
	}

	var payments []models.Payment
	if err := tx.Select("invoice_id", "amount").Where("invoice_id IN ?", invoiceIDs).Find(&payments).Error; err != nil {
		return nil, err
	}
	for _, p := range payments {
		out[p.InvoiceID] = out[p.InvoiceID].Add(p.Amount)
	}
	return out, nil
}

// reconcile runs the engine for invoice and persists the new status when it
// changed. invoice.Status is updated in place.
func reconcile(tx *gorm.DB, engine *billing.Engine, invoice *models.Invoice, paid decimal.Decimal, today time.Time) (bool, error) {
	next, changed := engine.Reconcile(billing.Facts{
		Amount:        invoice.Amount,
		TotalPaid:     paid,
		DueDate:       invoice.DueDate,
		Today:         today,
		CurrentStatus: invoice.Status,
	})
	if !changed {
		return false, nil
	}

	if err := tx.Model(invoice).Update("status", next).Error; err != nil {
		return false, err
	}
	invoice.Status = next
	return true, nil
}
