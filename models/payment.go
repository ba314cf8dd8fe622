package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentMethodDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCheck        PaymentMethod = "CHECK"
	PaymentMethodPayPal       PaymentMethod = "PAYPAL"
	PaymentMethodOther        PaymentMethod = "OTHER"
)

var paymentMethods = map[PaymentMethod]bool{
	PaymentMethodCash:         true,
	PaymentMethodCreditCard:   true,
	PaymentMethodDebitCard:    true,
	PaymentMethodBankTransfer: true,
	PaymentMethodCheck:        true,
	PaymentMethodPayPal:       true,
	PaymentMethodOther:        true,
}

func ParsePaymentMethod(raw string) (PaymentMethod, bool) {
	m := PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	return m, paymentMethods[m]
}

type Payment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	InvoiceID uuid.UUID `gorm:"type:uuid;index;not null"`

	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentDate   time.Time       `gorm:"not null"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(20);not null"`
	Notes         string          `gorm:"size:100"`

	RecordedByUserID *uuid.UUID `gorm:"type:uuid"`

	CreatedAt time.Time
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
