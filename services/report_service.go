package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invoicing-backend/models"
)

// PeriodCollection compares collected payments in a period with the one
// before it.
type PeriodCollection struct {
	Start     time.Time
	End       time.Time
	Collected decimal.Decimal
	Previous  decimal.Decimal
	Growth    decimal.Decimal
}

type MethodCollection struct {
	Method    models.PaymentMethod
	Count     int
	Collected decimal.Decimal
}

type CustomerCollection struct {
	CustomerName  string
	CustomerEmail string
	Invoices      int
	Paid          decimal.Decimal
}

type CollectionsReport struct {
	Month        PeriodCollection
	Quarter      PeriodCollection
	Year         PeriodCollection
	ByMethod     []MethodCollection
	TopCustomers []CustomerCollection
}

// ReportService aggregates collected payments. Sums are computed from the
// payment rows so every driver yields identical decimal results.
type ReportService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db, now: time.Now}
}

func (s *ReportService) Collections(ctx context.Context, topN int) (*CollectionsReport, error) {
	now := s.now()
	year, month, _ := now.Date()
	loc := now.Location()

	firstOfMonth := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	quarterStart := getQuarterStart(now)
	firstOfYear := time.Date(year, 1, 1, 0, 0, 0, 0, loc)

	// one query covering the previous year onwards serves every period
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("payment_date >= ?", firstOfYear.AddDate(-1, 0, 0)).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	report := &CollectionsReport{
		Month:   collectPeriod(payments, firstOfMonth, firstOfMonth.AddDate(0, 1, 0), firstOfMonth.AddDate(0, -1, 0)),
		Quarter: collectPeriod(payments, quarterStart, quarterStart.AddDate(0, 3, 0), quarterStart.AddDate(0, -3, 0)),
		Year:    collectPeriod(payments, firstOfYear, firstOfYear.AddDate(1, 0, 0), firstOfYear.AddDate(-1, 0, 0)),
	}

	byMethod := make(map[models.PaymentMethod]*MethodCollection)
	for _, p := range payments {
		if p.PaymentDate.Before(firstOfYear) {
			continue
		}
		m, ok := byMethod[p.PaymentMethod]
		if !ok {
			m = &MethodCollection{Method: p.PaymentMethod, Collected: decimal.Zero}
			byMethod[p.PaymentMethod] = m
		}
		m.Count++
		m.Collected = m.Collected.Add(p.Amount)
	}
	for _, m := range byMethod {
		report.ByMethod = append(report.ByMethod, *m)
	}
	sort.Slice(report.ByMethod, func(i, j int) bool {
		return report.ByMethod[i].Collected.GreaterThan(report.ByMethod[j].Collected)
	})

	if report.TopCustomers, err = s.topCustomers(ctx, payments, firstOfYear, topN); err != nil {
		return nil, err
	}
	return report, nil
}

func (s *ReportService) topCustomers(ctx context.Context, payments []models.Payment, since time.Time, limit int) ([]CustomerCollection, error) {
	paid := make(map[uuid.UUID]decimal.Decimal)
	for _, p := range payments {
		if p.PaymentDate.Before(since) {
			continue
		}
		paid[p.InvoiceID] = paid[p.InvoiceID].Add(p.Amount)
	}
	if len(paid) == 0 {
		return nil, nil
	}

	ids := make([]uuid.UUID, 0, len(paid))
	for id := range paid {
		ids = append(ids, id)
	}

	var invoices []models.Invoice
	err := s.db.WithContext(ctx).
		Select("id", "customer_name", "customer_email").
		Where("id IN ?", ids).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}

	byCustomer := make(map[string]*CustomerCollection)
	for _, inv := range invoices {
		c, ok := byCustomer[inv.CustomerEmail]
		if !ok {
			c = &CustomerCollection{CustomerName: inv.CustomerName, CustomerEmail: inv.CustomerEmail, Paid: decimal.Zero}
			byCustomer[inv.CustomerEmail] = c
		}
		c.Invoices++
		c.Paid = c.Paid.Add(paid[inv.ID])
	}

	out := make([]CustomerCollection, 0, len(byCustomer))
	for _, c := range byCustomer {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Paid.Equal(out[j].Paid) {
			return out[i].CustomerEmail < out[j].CustomerEmail
		}
		return out[i].Paid.GreaterThan(out[j].Paid)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// collectPeriod sums payments in [start, end) and in the equally long
// period starting at prevStart.
func collectPeriod(payments []models.Payment, start, end, prevStart time.Time) PeriodCollection {
	pc := PeriodCollection{Start: start, End: end, Collected: decimal.Zero, Previous: decimal.Zero}
	for _, p := range payments {
		switch {
		case !p.PaymentDate.Before(start) && p.PaymentDate.Before(end):
			pc.Collected = pc.Collected.Add(p.Amount)
		case !p.PaymentDate.Before(prevStart) && p.PaymentDate.Before(start):
			pc.Previous = pc.Previous.Add(p.Amount)
		}
	}
	pc.Growth = calculateGrowthPercentage(pc.Collected, pc.Previous)
	return pc
}

func getQuarterStart(date time.Time) time.Time {
	quarter := (int(date.Month())-1)/3 + 1
	startMonth := time.Month((quarter-1)*3 + 1)
	return time.Date(date.Year(), startMonth, 1, 0, 0, 0, 0, date.Location())
}

func calculateGrowthPercentage(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		if current.IsZero() {
			return decimal.Zero
		}
		return decimal.NewFromInt(100)
	}
	return current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(2)
}
