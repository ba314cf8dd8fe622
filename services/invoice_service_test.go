package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/billing"
	"invoicing-backend/models"
)

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func TestCreateInvoiceInitialStatus(t *testing.T) {
	f := newFixture(t)

	future := f.createInvoice(t, "100", 10)
	assert.Equal(t, billing.StatusPending, future.Status)
	assertAmount(t, "100", future.Balance)
	assert.Regexp(t, `^INV-[0-9A-F]{8}$`, future.InvoiceNumber)

	dueToday := f.createInvoice(t, "100", 0)
	assert.Equal(t, billing.StatusPending, dueToday.Status)

	pastDue := f.createInvoice(t, "100", -1)
	assert.Equal(t, billing.StatusOverdue, pastDue.Status)
}

func TestCreateInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		in    InvoiceInput
		field string
	}{
		{
			name:  "zero amount",
			in:    InvoiceInput{CustomerName: "A", DueDate: day(5), Amount: decimal.Zero},
			field: "amount",
		},
		{
			name:  "rounds to zero",
			in:    InvoiceInput{CustomerName: "A", DueDate: day(5), Amount: dec("0.004")},
			field: "amount",
		},
		{
			name:  "missing due date",
			in:    InvoiceInput{CustomerName: "A", Amount: dec("10")},
			field: "dueDate",
		},
		{
			name:  "due before issue",
			in:    InvoiceInput{CustomerName: "A", IssueDate: day(0), DueDate: day(-1), Amount: dec("10")},
			field: "dueDate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.invoices.Create(ctx, tt.in, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestCreateInvoiceRoundsAmount(t *testing.T) {
	f := newFixture(t)

	view := f.createInvoice(t, "100.005", 5)
	assertAmount(t, "100.01", view.Amount)
}

func TestUpdateInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", 10)
	f.pay(t, invoice, "100")
	assert.Equal(t, billing.StatusPaid, f.storedStatus(t, invoice))

	t.Run("amount below paid is rejected", func(t *testing.T) {
		_, err := f.invoices.Update(ctx, invoice.ID, InvoiceInput{
			CustomerName:  "Acme Ltd",
			CustomerEmail: "billing@acme.test",
			IssueDate:     day(-30),
			DueDate:       day(10),
			Amount:        dec("99.99"),
		})
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "amount", verr.Field)
		assert.Equal(t, billing.StatusPaid, f.storedStatus(t, invoice))
	})

	t.Run("raising the amount reopens the balance", func(t *testing.T) {
		view, err := f.invoices.Update(ctx, invoice.ID, InvoiceInput{
			CustomerName:  "Acme Holdings",
			CustomerEmail: "billing@acme.test",
			IssueDate:     day(-30),
			DueDate:       day(10),
			Amount:        dec("150"),
		})
		require.NoError(t, err)
		assert.Equal(t, billing.StatusPartiallyPaid, view.Status)
		assert.Equal(t, "Acme Holdings", view.CustomerName)
		assertAmount(t, "50", view.Balance)
	})

	t.Run("moving the due date into the past", func(t *testing.T) {
		view, err := f.invoices.Update(ctx, invoice.ID, InvoiceInput{
			CustomerName:  "Acme Holdings",
			CustomerEmail: "billing@acme.test",
			IssueDate:     day(-30),
			DueDate:       day(-2),
			Amount:        dec("150"),
		})
		require.NoError(t, err)
		assert.Equal(t, billing.StatusPartiallyPaidOverdue, view.Status)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.invoices.Update(ctx, uuid.New(), InvoiceInput{DueDate: day(1), Amount: dec("1")})
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	})
}

func TestChangeStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("cancel then reopen", func(t *testing.T) {
		invoice := f.createInvoice(t, "100", -3)
		require.Equal(t, billing.StatusOverdue, invoice.Status)

		view, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusCancelled, view.Status)
		assert.True(t, view.Balance.IsZero())

		_, err = f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("10")}, nil)
		assert.ErrorIs(t, err, ErrTerminalInvoice)

		view, err = f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusPending)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusOverdue, view.Status, "reopen lands on the derived status")
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		invoice := f.createInvoice(t, "100", 5)

		_, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusCancelled)
		require.NoError(t, err)
		view, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusCancelled, view.Status)
	})

	t.Run("refund a paid invoice", func(t *testing.T) {
		invoice := f.createInvoice(t, "80", 5)
		f.pay(t, invoice, "80")

		view, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusRefunded)
		require.NoError(t, err)
		assert.Equal(t, billing.StatusRefunded, view.Status)
		assertAmount(t, "80", view.AmountPaid)
	})

	t.Run("invalid transitions", func(t *testing.T) {
		invoice := f.createInvoice(t, "100", 5)

		_, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusRefunded)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		_, err = f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusPaid)
		assert.ErrorIs(t, err, ErrInvalidTransition)

		assert.Equal(t, billing.StatusPending, f.storedStatus(t, invoice))
	})
}

func TestDeleteInvoiceRemovesPaymentsAndLogs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", 5)
	other := f.createInvoice(t, "50", 5)
	result := f.pay(t, invoice, "25")
	for _, id := range []uuid.UUID{invoice.ID, other.ID} {
		require.NoError(t, f.db.Create(&models.NotificationLog{
			InvoiceID: id,
			Type:      "overdue",
			Channel:   "email",
			Status:    "sent",
			SentAt:    testNow,
		}).Error)
	}

	require.NoError(t, f.invoices.Delete(ctx, invoice.ID))

	_, err := f.invoices.Get(ctx, invoice.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	_, err = f.payments.Get(ctx, result.Payment.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	var logs int64
	require.NoError(t, f.db.Model(&models.NotificationLog{}).Where("invoice_id = ?", invoice.ID).Count(&logs).Error)
	assert.Zero(t, logs)
	require.NoError(t, f.db.Model(&models.NotificationLog{}).Where("invoice_id = ?", other.ID).Count(&logs).Error)
	assert.Equal(t, int64(1), logs)

	assert.ErrorIs(t, f.invoices.Delete(ctx, invoice.ID), ErrInvoiceNotFound)
}

func TestArchiveHidesInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	kept := f.createInvoice(t, "10", 5)
	archived := f.createInvoice(t, "20", 5)
	f.pay(t, archived, "5")

	require.NoError(t, f.invoices.Archive(ctx, archived.ID))

	_, err := f.invoices.Get(ctx, archived.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
	_, err = f.payments.ListByInvoice(ctx, archived.ID)
	assert.ErrorIs(t, err, ErrInvoiceNotFound)

	list, err := f.invoices.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, kept.ID, list[0].ID)

	var payments int64
	require.NoError(t, f.db.Model(&models.Payment{}).Where("invoice_id = ?", archived.ID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments, "archiving keeps payments")

	assert.ErrorIs(t, f.invoices.Archive(ctx, archived.ID), ErrInvoiceNotFound)
}

func TestListAndOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending := f.createInvoice(t, "100", 5)
	overdueOld := f.createInvoice(t, "100", -10)
	overdueNew := f.createInvoice(t, "100", -2)
	partial := f.createInvoice(t, "100", -5)
	f.pay(t, partial, "40")

	status := billing.StatusPending
	list, err := f.invoices.List(ctx, &status)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	overdue, err := f.invoices.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 3)
	assert.Equal(t, overdueOld.ID, overdue[0].ID)
	assert.Equal(t, partial.ID, overdue[1].ID)
	assert.Equal(t, billing.StatusPartiallyPaidOverdue, overdue[1].Status)
	assertAmount(t, "60", overdue[1].Balance)
	assert.Equal(t, overdueNew.ID, overdue[2].ID)
}

func TestTotalOutstandingAndDashboard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.createInvoice(t, "100", 5)

	partial := f.createInvoice(t, "200", 5)
	f.pay(t, partial, "50.50")

	paid := f.createInvoice(t, "30", 5)
	f.pay(t, paid, "30")

	cancelled := f.createInvoice(t, "999", 5)
	_, err := f.invoices.ChangeStatus(ctx, cancelled.ID, billing.StatusCancelled)
	require.NoError(t, err)

	archived := f.createInvoice(t, "500", 5)
	require.NoError(t, f.invoices.Archive(ctx, archived.ID))

	// a payment dated last month counts towards the total only
	_, err = f.payments.Record(ctx, PaymentInput{
		InvoiceID:   partial.ID,
		Amount:      dec("10"),
		PaymentDate: day(-30),
	}, nil)
	require.NoError(t, err)

	total, err := f.invoices.TotalOutstanding(ctx)
	require.NoError(t, err)
	assertAmount(t, "239.50", total)

	summary, err := f.invoices.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), summary.TotalInvoices)
	assert.Equal(t, int64(1), summary.StatusCounts[billing.StatusPending])
	assert.Equal(t, int64(1), summary.StatusCounts[billing.StatusPartiallyPaid])
	assert.Equal(t, int64(1), summary.StatusCounts[billing.StatusPaid])
	assert.Equal(t, int64(1), summary.StatusCounts[billing.StatusCancelled])
	assert.Equal(t, int64(0), summary.StatusCounts[billing.StatusOverdue])
	assertAmount(t, "239.50", summary.TotalOutstanding)
	assertAmount(t, "90.50", summary.TotalCollected)
	assertAmount(t, "80.50", summary.CollectedThisMonth)
}
