package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"invoicing-backend/billing"
	"invoicing-backend/logger"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

// Transition is one status change made by a sweep.
type Transition struct {
	InvoiceID uuid.UUID
	From      billing.PaymentStatus
	To        billing.PaymentStatus
}

type SweepResult struct {
	Scanned     int
	Transitions []Transition
}

// OverdueSweeper moves past-due invoices into their overdue statuses. Each
// invoice is reconciled in its own transaction so one failure does not
// roll back the others.
type OverdueSweeper struct {
	db       *gorm.DB
	engine   *billing.Engine
	notifier Notifier
	now      func() time.Time
	log      zerolog.Logger

	running sync.Mutex
	cron    *cron.Cron
}

func NewOverdueSweeper(db *gorm.DB, engine *billing.Engine, notifier Notifier) *OverdueSweeper {
	return &OverdueSweeper{
		db:       db,
		engine:   engine,
		notifier: notifier,
		now:      time.Now,
		log:      logger.WithComponent("overdue-sweep"),
	}
}

// Start schedules Run on the given cron expression. Overlapping runs are skipped.
func (s *OverdueSweeper) Start(schedule string) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Run(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("overdue sweep finished with errors")
			sentry.CaptureException(err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	s.cron = c
	s.log.Info().Str("schedule", schedule).Msg("overdue sweep scheduled")
	return nil
}

// Stop halts the scheduler and waits for a running sweep to finish.
func (s *OverdueSweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}

// Run reconciles every open invoice whose due date has passed.
func (s *OverdueSweeper) Run(ctx context.Context) (*SweepResult, error) {
	if !s.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer s.running.Unlock()

	start := time.Now()
	today := utils.DateOnly(s.now())

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("due_date < ? AND status NOT IN ? AND deleted = ?", today, statusStrings(closedStatuses...), false).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("select past-due invoices: %w", err)
	}

	result := &SweepResult{Scanned: len(ids)}
	var errs *multierror.Error

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = multierror.Append(errs, err)
			break
		}

		transition, invoice, err := s.sweepOne(ctx, id, today)
		if errors.Is(err, ErrInvoiceNotFound) {
			continue
		}
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("invoice %s: %w", id, err))
			continue
		}
		if transition == nil {
			continue
		}

		result.Transitions = append(result.Transitions, *transition)
		if s.notifier != nil && transition.To.IsOverdue() {
			balance := billing.Remaining(invoice.Amount, invoice.AmountPaid)
			if err := s.notifier.NotifyOverdue(ctx, invoice.Invoice, balance); err != nil {
				s.log.Warn().Err(err).Str("invoice_id", id.String()).Msg("overdue notice not delivered")
			}
		}
	}

	s.log.Info().
		Int("scanned", result.Scanned).
		Int("updated", len(result.Transitions)).
		Dur("duration", time.Since(start)).
		Msg("overdue sweep completed")

	return result, errs.ErrorOrNil()
}

func (s *OverdueSweeper) sweepOne(ctx context.Context, id uuid.UUID, today time.Time) (*Transition, *InvoiceView, error) {
	var transition *Transition
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

		from := invoice.Status
		changed, err := reconcile(tx, s.engine, invoice, paid, today)
		if err != nil || !changed {
			return err
		}

		transition = &Transition{InvoiceID: id, From: from, To: invoice.Status}
		view = newInvoiceView(*invoice, paid)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return transition, view, nil
}
