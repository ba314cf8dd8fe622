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

// InvoiceInput carries the editable fields of an invoice.
type InvoiceInput struct {
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	IssueDate     time.Time
	DueDate       time.Time
	Amount        decimal.Decimal
	Description   string
}

// InvoiceView is an invoice together with its derived payment totals.
type InvoiceView struct {
	models.Invoice
	AmountPaid decimal.Decimal
	Balance    decimal.Decimal
}

type DashboardSummary struct {
	TotalInvoices      int64
	StatusCounts       map[billing.PaymentStatus]int64
	TotalOutstanding   decimal.Decimal
	TotalCollected     decimal.Decimal
	CollectedThisMonth decimal.Decimal
}

type InvoiceService struct {
	db     *gorm.DB
	engine *billing.Engine
	now    func() time.Time
	log    zerolog.Logger
}

func NewInvoiceService(db *gorm.DB, engine *billing.Engine) *InvoiceService {
	return &InvoiceService{
		db:     db,
		engine: engine,
		now:    time.Now,
		log:    logger.WithComponent("invoices"),
	}
}

func (s *InvoiceService) today() time.Time {
	return utils.DateOnly(s.now())
}

func (s *InvoiceService) normalize(in *InvoiceInput) error {
	in.Amount = billing.RoundAmount(in.Amount)
	if !in.Amount.IsPositive() {
		return NewValidationError("amount", "Amount must be greater than 0")
	}
	if in.IssueDate.IsZero() {
		in.IssueDate = s.now()
	}
	if in.DueDate.IsZero() {
		return NewValidationError("dueDate", "Due date is required")
	}
	in.IssueDate = utils.DateOnly(in.IssueDate)
	in.DueDate = utils.DateOnly(in.DueDate)
	if billing.DateBefore(in.DueDate, in.IssueDate) {
		return NewValidationError("dueDate", "Due date cannot be before the issue date")
	}
	return nil
}

// Create stores a new invoice. Its status is derived from the due date since
// no payments exist yet.
func (s *InvoiceService) Create(ctx context.Context, in InvoiceInput, createdBy *uuid.UUID) (*InvoiceView, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	invoice := models.Invoice{
		InvoiceNumber:   models.NewInvoiceNumber(),
		CustomerName:    in.CustomerName,
		CustomerEmail:   in.CustomerEmail,
		CustomerPhone:   in.CustomerPhone,
		IssueDate:       in.IssueDate,
		DueDate:         in.DueDate,
		Amount:          in.Amount,
		Status:          s.engine.InitialStatus(in.Amount, in.DueDate, s.today()),
		Description:     in.Description,
		CreatedByUserID: createdBy,
	}

	if err := s.db.WithContext(ctx).Create(&invoice).Error; err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Str("invoice_number", invoice.InvoiceNumber).
		Str("amount", billing.FormatAmount(invoice.Amount)).
		Str("status", invoice.Status.String()).
		Msg("invoice created")

	return &InvoiceView{Invoice: invoice, AmountPaid: decimal.Zero, Balance: invoice.Amount}, nil
}

// Update replaces the editable fields and re-derives the status, since the
// amount or due date may have changed.
func (s *InvoiceService) Update(ctx context.Context, id uuid.UUID, in InvoiceInput) (*InvoiceView, error) {
	if err := s.normalize(&in); err != nil {
		return nil, err
	}

	var view *InvoiceView
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, id, false)
		if err != nil {
			return err
		}

		paid, err := totalPaid(tx, id)
		if err != nil {
			return err
		}
		if in.Amount.LessThan(paid) {
			return NewValidationError("amount",
				"Amount cannot be less than the total already paid ("+billing.FormatAmount(paid)+")")
		}

		invoice.CustomerName = in.CustomerName
		invoice.CustomerEmail = in.CustomerEmail
		invoice.CustomerPhone = in.CustomerPhone
		invoice.IssueDate = in.IssueDate
		invoice.DueDate = in.DueDate
		invoice.Amount = in.Amount
		invoice.Description = in.Description

		next, _ := s.engine.Reconcile(billing.Facts{
			Amount:        invoice.Amount,
			TotalPaid:     paid,
			DueDate:       invoice.DueDate,
			Today:         s.today(),
			CurrentStatus: invoice.Status,
		})
		invoice.Status = next

		if err := tx.Save(invoice).Error; err != nil {
			return err
		}

		view = newInvoiceView(*invoice, paid)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("invoice_id", id.String()).Str("status", view.Status.String()).Msg("invoice updated")
	return view, nil
}

// ChangeStatus applies a manual cancel, refund or reopen. Reopening hands
// the invoice back to the engine so it lands on the status its payments
// and due date imply.
func (s *InvoiceService) ChangeStatus(ctx context.Context, id uuid.UUID, target billing.PaymentStatus) (*InvoiceView, error) {
	trigger, err := billing.TriggerFor(target)
	if err != nil {
		return nil, err
	}

	var view *InvoiceView
	err = inTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, id, false)
		if err != nil {
			return err
		}
		paid, err := totalPaid(tx, id)
		if err != nil {
			return err
		}

		if invoice.Status == target && target.IsTerminal() {
			view = newInvoiceView(*invoice, paid)
			return nil
		}

		from := invoice.Status
		next, err := billing.ApplyManual(ctx, from, trigger)
		if err != nil {
			return err
		}
		invoice.Status = next

		if trigger == billing.TriggerReopen {
			invoice.Status, _ = s.engine.Reconcile(billing.Facts{
				Amount:        invoice.Amount,
				TotalPaid:     paid,
				DueDate:       invoice.DueDate,
				Today:         s.today(),
				CurrentStatus: next,
			})
		}

		if err := tx.Model(invoice).Update("status", invoice.Status).Error; err != nil {
			return err
		}

		s.log.Info().
			Str("invoice_id", id.String()).
			Str("from", from.String()).
			Str("to", invoice.Status.String()).
			Msg("invoice status changed manually")

		view = newInvoiceView(*invoice, paid)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Delete removes the invoice with its payments and notification logs.
func (s *InvoiceService) Delete(ctx context.Context, id uuid.UUID) error {
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		if _, err := lockInvoice(tx, id, true); err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.Payment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.NotificationLog{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Invoice{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("invoice_id", id.String()).Msg("invoice deleted")
	return nil
}

// Archive hides the invoice from listings while keeping it and its payments.
func (s *InvoiceService) Archive(ctx context.Context, id uuid.UUID) error {
	err := inTx(ctx, s.db, func(tx *gorm.DB) error {
		invoice, err := lockInvoice(tx, id, false)
		if err != nil {
			return err
		}
		return tx.Model(invoice).Update("deleted", true).Error
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("invoice_id", id.String()).Msg("invoice archived")
	return nil
}

func (s *InvoiceService) Get(ctx context.Context, id uuid.UUID) (*InvoiceView, error) {
	var invoice models.Invoice
	err := s.db.WithContext(ctx).Where("id = ? AND deleted = ?", id, false).First(&invoice).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	paid, err := totalPaid(s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return newInvoiceView(invoice, paid), nil
}

// List returns live invoices, newest first, optionally filtered by status.
func (s *InvoiceService) List(ctx context.Context, status *billing.PaymentStatus) ([]InvoiceView, error) {
	q := s.db.WithContext(ctx).Where("deleted = ?", false)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var invoices []models.Invoice
	if err := q.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return s.views(ctx, invoices)
}

// Overdue returns invoices whose stored status is overdue, oldest due first.
func (s *InvoiceService) Overdue(ctx context.Context) ([]InvoiceView, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("deleted = ? AND status IN ?", false, statusStrings(billing.StatusOverdue, billing.StatusPartiallyPaidOverdue)).
		Order("due_date ASC").
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return s.views(ctx, invoices)
}

// TotalOutstanding sums the balance of every invoice still expecting money.
func (s *InvoiceService) TotalOutstanding(ctx context.Context) (decimal.Decimal, error) {
	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Where("deleted = ? AND status NOT IN ?", false, statusStrings(closedStatuses...)).
		Find(&invoices).Error
	if err != nil {
		return decimal.Zero, err
	}

	views, err := s.views(ctx, invoices)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, v := range views {
		total = total.Add(v.Balance)
	}
	return total, nil
}

func (s *InvoiceService) Dashboard(ctx context.Context) (*DashboardSummary, error) {
	db := s.db.WithContext(ctx)

	var rows []struct {
		Status billing.PaymentStatus
		Count  int64
	}
	err := db.Model(&models.Invoice{}).
		Select("status, COUNT(*) AS count").
		Where("deleted = ?", false).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := &DashboardSummary{StatusCounts: make(map[billing.PaymentStatus]int64)}
	for _, st := range billing.Statuses() {
		summary.StatusCounts[st] = 0
	}
	for _, r := range rows {
		summary.StatusCounts[r.Status] = r.Count
		summary.TotalInvoices += r.Count
	}

	if summary.TotalOutstanding, err = s.TotalOutstanding(ctx); err != nil {
		return nil, err
	}

	var payments []models.Payment
	if err := db.Select("amount", "payment_date").Find(&payments).Error; err != nil {
		return nil, err
	}

	now := s.now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	summary.TotalCollected = decimal.Zero
	summary.CollectedThisMonth = decimal.Zero
	for _, p := range payments {
		summary.TotalCollected = summary.TotalCollected.Add(p.Amount)
		if !p.PaymentDate.Before(firstOfMonth) {
			summary.CollectedThisMonth = summary.CollectedThisMonth.Add(p.Amount)
		}
	}
	return summary, nil
}

func (s *InvoiceService) views(ctx context.Context, invoices []models.Invoice) ([]InvoiceView, error) {
	ids := make([]uuid.UUID, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}

	paid, err := paidByInvoice(s.db.WithContext(ctx), ids)
	if err != nil {
		return nil, err
	}

	views := make([]InvoiceView, len(invoices))
	for i, inv := range invoices {
		views[i] = *newInvoiceView(inv, paid[inv.ID])
	}
	return views, nil
}

func newInvoiceView(invoice models.Invoice, paid decimal.Decimal) *InvoiceView {
	balance := billing.Remaining(invoice.Amount, paid)
	if invoice.Status.IsTerminal() {
		balance = decimal.Zero
	}
	return &InvoiceView{Invoice: invoice, AmountPaid: paid, Balance: balance}
}

// closedStatuses never receive payments and are skipped by the overdue sweep.
var closedStatuses = []billing.PaymentStatus{
	billing.StatusPaid,
	billing.StatusCancelled,
	billing.StatusRefunded,
}

func statusStrings(statuses ...billing.PaymentStatus) []string {
	out := make([]string, len(statuses))
	for i, st := range statuses {
		out[i] = string(st)
	}
	return out
}
