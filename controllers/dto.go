package controllers

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/billing"
	"invoicing-backend/models"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

// InvoiceInput defines the expected JSON structure for creating or updating
// an invoice. Amounts may be sent as JSON numbers or strings.
type InvoiceInput struct {
	CustomerName  string      `json:"customerName" binding:"required,max=100,customername"`
	CustomerEmail string      `json:"customerEmail" binding:"required,email,max=100"`
	CustomerPhone string      `json:"customerPhone" binding:"omitempty,max=20,phone"`
	IssueDate     string      `json:"issueDate" binding:"omitempty,datetime=2006-01-02"`
	DueDate       string      `json:"dueDate" binding:"required,datetime=2006-01-02"`
	Amount        json.Number `json:"amount" binding:"required,money"`
	Description   string      `json:"description" binding:"max=1000"`
}

type StatusInput struct {
	Status string `json:"status" binding:"required"`
}

type PaymentInput struct {
	InvoiceID     string      `json:"invoiceId" binding:"required,uuid"`
	Amount        json.Number `json:"amount" binding:"required,money"`
	PaymentDate   *time.Time  `json:"paymentDate"`
	PaymentMethod string      `json:"paymentMethod" binding:"omitempty,max=20"`
	Notes         string      `json:"notes" binding:"max=100"`
}

type SignupInput struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type SigninInput struct {
	Username string `json:"username" binding:"required"` // username or email
	Password string `json:"password" binding:"required"`
}

type InvoiceResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceNumber string    `json:"invoiceNumber"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	IssueDate     string    `json:"issueDate"`
	DueDate       string    `json:"dueDate"`
	Amount        string    `json:"amount"`
	AmountPaid    string    `json:"amountPaid"`
	Balance       string    `json:"balance"`
	Status        string    `json:"status"`
	DaysOverdue   int       `json:"daysOverdue,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type PaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	InvoiceID     uuid.UUID `json:"invoiceId"`
	Amount        string    `json:"amount"`
	PaymentDate   time.Time `json:"paymentDate"`
	PaymentMethod string    `json:"paymentMethod"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

type PaymentResultResponse struct {
	Payment PaymentResponse `json:"payment"`
	Invoice InvoiceResponse `json:"invoice"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func toInvoiceResponse(v services.InvoiceView) InvoiceResponse {
	resp := InvoiceResponse{
		ID:            v.ID,
		InvoiceNumber: v.InvoiceNumber,
		CustomerName:  v.CustomerName,
		CustomerEmail: v.CustomerEmail,
		CustomerPhone: v.CustomerPhone,
		IssueDate:     v.IssueDate.Format(utils.DateLayout),
		DueDate:       v.DueDate.Format(utils.DateLayout),
		Amount:        billing.FormatAmount(v.Amount),
		AmountPaid:    billing.FormatAmount(v.AmountPaid),
		Balance:       billing.FormatAmount(v.Balance),
		Status:        v.Status.String(),
		Description:   v.Description,
		CreatedAt:     v.CreatedAt,
		UpdatedAt:     v.UpdatedAt,
	}
	if v.Status.IsOverdue() {
		resp.DaysOverdue = utils.DaysBetween(v.DueDate, utils.DateOnly(time.Now()))
	}
	return resp
}

func toInvoiceResponses(views []services.InvoiceView) []InvoiceResponse {
	out := make([]InvoiceResponse, len(views))
	for i, v := range views {
		out[i] = toInvoiceResponse(v)
	}
	return out
}

func toPaymentResponse(p models.Payment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		Amount:        billing.FormatAmount(p.Amount),
		PaymentDate:   p.PaymentDate,
		PaymentMethod: string(p.PaymentMethod),
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt,
	}
}

func toUserResponse(u models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		LastLogin: u.LastLogin,
	}
}

// currentUserID returns the authenticated user's id, or nil when the token
// subject is not a uuid.
func currentUserID(c *gin.Context) *uuid.UUID {
	id, err := uuid.Parse(c.GetString(utils.ContextUserID))
	if err != nil {
		return nil
	}
	return &id
}
