package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invoicing-backend/billing"
	"invoicing-backend/logger"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

type PaymentInput struct {
	InvoiceID     uuid.UUID
	Amount        decimal.Decimal
	PaymentDate   time.Time
	PaymentMethod models.PaymentMethod
	Notes         string
}

// PaymentResult is a recorded or deleted payment and the invoice state
// after the engine ran.
type PaymentResult struct {
	Payment models.Payment
	Invoice InvoiceView
}

type PaymentService struct {
	db     *gorm.DB
	engine *billing.Engine
	now    func() time.Time
	log    zerolog.Logger
}

func NewPaymentService(db *gorm.DB, engine *billing.Engine) *PaymentService {
	return &PaymentService{
		db:     db,
		engine: engine,
		now:    time.Now,
		log:    logger.WithComponent("payments"),
	}
}

// Record stores a payment and reconciles the invoice status in the same
// transaction. Amounts above the remaining balance are rejected.
func (s *PaymentService) Record(ctx context.Context, in PaymentInput, recordedBy *uuid.UUID) (*PaymentResult, error) {
	amount := billing.RoundAmount(in.Amount)
	if !amount.IsPositive() {
		return nil, &InvalidPaymentError{
			InvoiceID: in.InvoiceID,
			Amount:    amount,
			Reason:    "Payment amount must be greater than 0",
		}
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = models.PaymentMethodOther
	}
	if in.PaymentDate.IsZero() {
		in.PaymentDate = s.now()
	}

	var result *PaymentResult
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, in.InvoiceID, false)
		if err != nil {
			return err
		}
		if invoice.Status.IsTerminal() {
			return ErrTerminalInvoice
		}

		paid, err := totalPaid(tx, invoice.ID)
		if err != nil {
			return err
		}
		remaining := billing.Remaining(invoice.Amount, paid)
		if amount.GreaterThan(remaining) {
			return newExceedsBalanceError(invoice.ID, amount, remaining)
		}

		payment := models.Payment{
			InvoiceID:        invoice.ID,
			Amount:           amount,
			PaymentDate:      in.PaymentDate,
			PaymentMethod:    in.PaymentMethod,
			Notes:            in.Notes,
			RecordedByUserID: recordedBy,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		paid = paid.Add(amount)
		from := invoice.Status
		changed, err := reconcile(tx, s.engine, invoice, paid, utils.DateOnly(s.now()))
		if err != nil {
			return err
		}

		event := s.log.Info().
			Str("payment_id", payment.ID.String()).
			Str("invoice_id", invoice.ID.String()).
			Str("amount", billing.FormatAmount(amount)).
			Str("total_paid", billing.FormatAmount(paid))
		if changed {
			event = event.Str("from", from.String()).Str("to", invoice.Status.String())
		}
		event.Msg("payment recorded")

		result = &PaymentResult{Payment: payment, Invoice: *newInvoiceView(*invoice, paid)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes a payment and lets the engine move the invoice back to the
// status its remaining payments imply.
func (s *PaymentService) Delete(ctx context.Context, paymentID uuid.UUID) (*PaymentResult, error) {
	var result *PaymentResult
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		var payment models.Payment
		if err := tx.Where("id = ?", paymentID).First(&payment).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		invoice, err := lockInvoice(tx, payment.InvoiceID, true)
		if err != nil {
			return err
		}

		if err := tx.Delete(&models.Payment{}, "id = ?", payment.ID).Error; err != nil {
			return err
		}

		paid, err := totalPaid(tx, invoice.ID)
		if err != nil {
			return err
		}
		from := invoice.Status
		changed, err := reconcile(tx, s.engine, invoice, paid, utils.DateOnly(s.now()))
		if err != nil {
			return err
		}

		event := s.log.Info().
			Str("payment_id", payment.ID.String()).
			Str("invoice_id", invoice.ID.String()).
			Str("total_paid", billing.FormatAmount(paid))
		if changed {
			event = event.Str("from", from.String()).Str("to", invoice.Status.String())
		}
		event.Msg("payment deleted")

		result = &PaymentResult{Payment: payment, Invoice: *newInvoiceView(*invoice, paid)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *PaymentService) Get(ctx context.Context, id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// ListByInvoice returns the payments of a live invoice, oldest first.
func (s *PaymentService) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]models.Payment, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Invoice{}).Where("id = ? AND deleted = ?", invoiceID, false).Count(&count).Error; err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, ErrInvoiceNotFound
	}

	var payments []models.Payment
	err := db.Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC, created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
