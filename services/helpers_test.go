package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"invoicing-backend/billing"
	"invoicing-backend/models"
	"invoicing-backend/utils"
)

func init() {
	utils.BcryptCost = 4
}

// testNow is a fixed mid-day instant so date arithmetic never straddles midnight.
var testNow = time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(offset int) time.Time {
	return utils.DateOnly(testNow).AddDate(0, 0, offset)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

type fixture struct {
	db       *gorm.DB
	engine   *billing.Engine
	invoices *InvoiceService
	payments *PaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	engine := billing.NewEngine(true)

	invoices := NewInvoiceService(db, engine)
	invoices.now = clock
	payments := NewPaymentService(db, engine)
	payments.now = clock

	return &fixture{db: db, engine: engine, invoices: invoices, payments: payments}
}

func (f *fixture) createInvoice(t *testing.T, amount string, dueOffset int) *InvoiceView {
	t.Helper()

	view, err := f.invoices.Create(context.Background(), InvoiceInput{
		CustomerName:  "Acme Ltd",
		CustomerEmail: "billing@acme.test",
		CustomerPhone: "+15550100",
		IssueDate:     day(-30),
		DueDate:       day(dueOffset),
		Amount:        dec(amount),
	}, nil)
	require.NoError(t, err)
	return view
}

func (f *fixture) pay(t *testing.T, invoice *InvoiceView, amount string) *PaymentResult {
	t.Helper()

	result, err := f.payments.Record(context.Background(), PaymentInput{
		InvoiceID:     invoice.ID,
		Amount:        dec(amount),
		PaymentMethod: models.PaymentMethodBankTransfer,
	}, nil)
	require.NoError(t, err)
	return result
}

// forceStatus writes a status directly, bypassing every service rule.
func (f *fixture) forceStatus(t *testing.T, invoice *InvoiceView, status billing.PaymentStatus) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Invoice{}).Where("id = ?", invoice.ID).Update("status", status).Error)
}

func (f *fixture) storedStatus(t *testing.T, invoice *InvoiceView) billing.PaymentStatus {
	t.Helper()

	var stored models.Invoice
	require.NoError(t, f.db.Where("id = ?", invoice.ID).First(&stored).Error)
	return stored.Status
}
