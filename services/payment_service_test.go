package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoicing-backend/billing"
	"invoicing-backend/models"
)

func TestRecordPaymentMovesStatus(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, "100", 10)

	first := f.pay(t, invoice, "40")
	assert.Equal(t, billing.StatusPartiallyPaid, first.Invoice.Status)
	assertAmount(t, "40", first.Invoice.AmountPaid)
	assertAmount(t, "60", first.Invoice.Balance)
	assert.Equal(t, models.PaymentMethodBankTransfer, first.Payment.PaymentMethod)
	assert.Equal(t, testNow, first.Payment.PaymentDate)

	second := f.pay(t, invoice, "60")
	assert.Equal(t, billing.StatusPaid, second.Invoice.Status)
	assert.True(t, second.Invoice.Balance.IsZero())
	assert.Equal(t, billing.StatusPaid, f.storedStatus(t, invoice))
}

func TestRecordPaymentOnOverdueInvoice(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, "100", -1)

	result := f.pay(t, invoice, "30")
	assert.Equal(t, billing.StatusPartiallyPaidOverdue, result.Invoice.Status)

	result = f.pay(t, invoice, "70")
	assert.Equal(t, billing.StatusPaid, result.Invoice.Status)
}

func TestRecordPaymentWithoutPartialOverdueSplit(t *testing.T) {
	f := newFixture(t)
	f.payments.engine = billing.NewEngine(false)

	invoice := f.createInvoice(t, "100", -1)

	result := f.pay(t, invoice, "30")
	assert.Equal(t, billing.StatusPartiallyPaid, result.Invoice.Status)
}

func TestConcurrentPaymentsCannotOverpay(t *testing.T) {
	f := newFixture(t)

	invoice := f.createInvoice(t, "100", 10)

	const workers = 5
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.payments.Record(context.Background(), PaymentInput{
				InvoiceID: invoice.ID,
				Amount:    dec("60"),
			}, nil)
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
			continue
		}
		var invalid *InvalidPaymentError
		assert.True(t, errors.As(err, &invalid), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, accepted)

	view, err := f.invoices.Get(context.Background(), invoice.ID)
	require.NoError(t, err)
	assertAmount(t, "60", view.AmountPaid)
	assert.Equal(t, billing.StatusPartiallyPaid, view.Status)

	payments, err := f.payments.ListByInvoice(context.Background(), invoice.ID)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestRecordPaymentRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", 10)
	f.pay(t, invoice, "75")

	t.Run("exceeds balance", func(t *testing.T) {
		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("25.01")}, nil)

		var perr *InvalidPaymentError
		require.ErrorAs(t, err, &perr)
		assertAmount(t, "25", perr.Remaining)
		assert.Contains(t, perr.Message(), "25.00")
	})

	t.Run("zero", func(t *testing.T) {
		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("0.001")}, nil)

		var perr *InvalidPaymentError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("negative", func(t *testing.T) {
		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("-5")}, nil)

		var perr *InvalidPaymentError
		require.ErrorAs(t, err, &perr)
	})

	t.Run("unknown invoice", func(t *testing.T) {
		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: uuid.New(), Amount: dec("5")}, nil)
		assert.ErrorIs(t, err, ErrInvoiceNotFound)
	})

	t.Run("fully paid", func(t *testing.T) {
		f.pay(t, invoice, "25")

		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("1")}, nil)

		var perr *InvalidPaymentError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "Invoice is already fully paid", perr.Message())
	})

	t.Run("refunded", func(t *testing.T) {
		f.forceStatus(t, invoice, billing.StatusRefunded)

		_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("1")}, nil)
		assert.ErrorIs(t, err, ErrTerminalInvoice)
	})

	var count int64
	require.NoError(t, f.db.Model(&models.Payment{}).Where("invoice_id = ?", invoice.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestRecordPaymentDefaults(t *testing.T) {
	f := newFixture(t)
	recorder := uuid.New()

	invoice := f.createInvoice(t, "10", 10)
	result, err := f.payments.Record(context.Background(), PaymentInput{
		InvoiceID: invoice.ID,
		Amount:    dec("2.345"),
		Notes:     "cheque 1001",
	}, &recorder)
	require.NoError(t, err)

	assert.Equal(t, models.PaymentMethodOther, result.Payment.PaymentMethod)
	assertAmount(t, "2.35", result.Payment.Amount)
	require.NotNil(t, result.Payment.RecordedByUserID)
	assert.Equal(t, recorder, *result.Payment.RecordedByUserID)
}

func TestDeletePaymentReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", -1)
	first := f.pay(t, invoice, "40")
	second := f.pay(t, invoice, "60")
	require.Equal(t, billing.StatusPaid, second.Invoice.Status)

	result, err := f.payments.Delete(ctx, second.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusPartiallyPaidOverdue, result.Invoice.Status)
	assertAmount(t, "60", result.Invoice.Balance)

	result, err = f.payments.Delete(ctx, first.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusOverdue, result.Invoice.Status)
	assert.True(t, result.Invoice.AmountPaid.IsZero())

	_, err = f.payments.Delete(ctx, first.Payment.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestDeletePaymentOnCancelledInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", 5)
	payment := f.pay(t, invoice, "10")
	_, err := f.invoices.ChangeStatus(ctx, invoice.ID, billing.StatusCancelled)
	require.NoError(t, err)

	result, err := f.payments.Delete(ctx, payment.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.StatusCancelled, result.Invoice.Status)
}

func TestListPaymentsByInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	invoice := f.createInvoice(t, "100", 5)
	_, err := f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("10"), PaymentDate: day(-1)}, nil)
	require.NoError(t, err)
	_, err = f.payments.Record(ctx, PaymentInput{InvoiceID: invoice.ID, Amount: dec("20"), PaymentDate: day(-3)}, nil)
	require.NoError(t, err)

	payments, err := f.payments.ListByInvoice(ctx, invoice.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assertAmount(t, "20", payments[0].Amount)
	assertAmount(t, "10", payments[1].Amount)

	_, err = f.payments.ListByInvoice(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrInvoiceNotFound)
}
