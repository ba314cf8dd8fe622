package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"invoicing-backend/billing"
)

type Invoice struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	InvoiceNumber string `gorm:"size:50;uniqueIndex;not null"`
	CustomerName  string `gorm:"size:100;not null"`
	CustomerEmail string `gorm:"size:100;not null"`
	CustomerPhone string `gorm:"size:20"`

	IssueDate time.Time `gorm:"type:date;not null"`
	DueDate   time.Time `gorm:"type:date;not null;index"`

	Amount decimal.Decimal       `gorm:"type:decimal(12,2);not null"`
	Status billing.PaymentStatus `gorm:"type:varchar(30);not null;index"`

	Description string `gorm:"type:text"`
	Deleted     bool   `gorm:"not null;default:false;index"`

	CreatedByUserID *uuid.UUID `gorm:"type:uuid;index"`

	Payments []Payment `gorm:"foreignKey:InvoiceID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}

// NewInvoiceNumber returns a new "INV-XXXXXXXX" identifier.
func NewInvoiceNumber() string {
	id := uuid.New()
	return "INV-" + strings.ToUpper(id.String()[:8])
}
