package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/billing"
	"invoicing-backend/models"
)

type notice struct {
	invoice models.Invoice
	balance decimal.Decimal
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []notice
	err     error
}

func (n *recordingNotifier) NotifyOverdue(_ context.Context, invoice models.Invoice, balance decimal.Decimal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{invoice: invoice, balance: balance})
	return n.err
}

func newSweeper(f *fixture, notifier Notifier, daysLater int) *OverdueSweeper {
	s := NewOverdueSweeper(f.db, f.engine, notifier)
	s.now = func() time.Time { return testNow.AddDate(0, 0, daysLater) }
	return s
}

func TestOverdueSweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.createInvoice(t, "100", 1)
	partial := f.createInvoice(t, "100", 2)
	f.pay(t, partial, "25")
	paid := f.createInvoice(t, "50", 1)
	f.pay(t, paid, "50")
	cancelled := f.createInvoice(t, "70", 1)
	_, err := f.invoices.ChangeStatus(ctx, cancelled.ID, billing.StatusCancelled)
	require.NoError(t, err)
	notYetDue := f.createInvoice(t, "100", 10)
	archived := f.createInvoice(t, "100", 1)
	require.NoError(t, f.invoices.Archive(ctx, archived.ID))

	notifier := &recordingNotifier{}
	sweeper := newSweeper(f, notifier, 5)

	result, err := sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	require.Len(t, result.Transitions, 2)

	transitions := map[string]Transition{}
	for _, tr := range result.Transitions {
		transitions[tr.InvoiceID.String()] = tr
	}
	assert.Equal(t, Transition{InvoiceID: pending.ID, From: billing.StatusPending, To: billing.StatusOverdue},
		transitions[pending.ID.String()])
	assert.Equal(t, Transition{InvoiceID: partial.ID, From: billing.StatusPartiallyPaid, To: billing.StatusPartiallyPaidOverdue},
		transitions[partial.ID.String()])

	assert.Equal(t, billing.StatusOverdue, f.storedStatus(t, pending))
	assert.Equal(t, billing.StatusPartiallyPaidOverdue, f.storedStatus(t, partial))
	assert.Equal(t, billing.StatusPaid, f.storedStatus(t, paid))
	assert.Equal(t, billing.StatusCancelled, f.storedStatus(t, cancelled))
	assert.Equal(t, billing.StatusPending, f.storedStatus(t, notYetDue))
	assert.Equal(t, billing.StatusPending, f.storedStatus(t, archived))

	require.Len(t, notifier.notices, 2)
	for _, n := range notifier.notices {
		if n.invoice.ID == partial.ID {
			assertAmount(t, "75", n.balance)
		} else {
			assertAmount(t, "100", n.balance)
		}
	}

	// a second run finds the same invoices but has nothing to change
	result, err = sweeper.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Empty(t, result.Transitions)
	assert.Len(t, notifier.notices, 2)
}

func TestOverdueSweepIgnoresNotifierErrors(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, "100", 1)

	notifier := &recordingNotifier{err: errors.New("smtp down")}
	result, err := newSweeper(f, notifier, 3).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Transitions, 1)
	assert.Equal(t, billing.StatusOverdue, f.storedStatus(t, invoice))
}

func TestOverdueSweepWithoutNotifier(t *testing.T) {
	f := newFixture(t)

	f.createInvoice(t, "100", 1)

	result, err := newSweeper(f, nil, 3).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, result.Transitions, 1)
}

func TestOverdueSweepRejectsOverlappingRuns(t *testing.T) {
	f := newFixture(t)
	sweeper := newSweeper(f, nil, 0)

	sweeper.running.Lock()
	_, err := sweeper.Run(context.Background())
	sweeper.running.Unlock()
	assert.ErrorIs(t, err, ErrSweepInProgress)

	_, err = sweeper.Run(context.Background())
	assert.NoError(t, err)
}

func TestOverdueSweepStopsOnCancelledContext(t *testing.T) {
	f := newFixture(t)

	f.createInvoice(t, "100", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSweeper(f, nil, 3).Run(ctx)
	assert.Error(t, err)
}

func TestOverdueSweepSchedule(t *testing.T) {
	f := newFixture(t)
	sweeper := newSweeper(f, nil, 0)

	assert.Error(t, sweeper.Start("not a schedule"))

	require.NoError(t, sweeper.Start("@every 1h"))
	sweeper.Stop()
}
