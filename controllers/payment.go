package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/billing"
	"invoicing-backend/models"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

type PaymentController struct {
	payments *services.PaymentService
}

func NewPaymentController(payments *services.PaymentService) *PaymentController {
	return &PaymentController{payments: payments}
}

// RecordPayment stores a payment against an invoice
func (pc *PaymentController) RecordPayment(c *gin.Context) {
	var input PaymentInput
	if !bindJSON(c, &input) {
		return
	}

	invoiceID, err := uuid.Parse(input.InvoiceID)
	if err != nil {
		utils.RespondWithFieldErrors(c, map[string][]string{"invoiceId": {"Invalid invoice ID format"}})
		return
	}
	amount, err := billing.ParseAmount(input.Amount.String())
	if err != nil {
		utils.RespondWithFieldErrors(c, map[string][]string{"amount": {"Amount must be a decimal number"}})
		return
	}

	in := services.PaymentInput{
		InvoiceID: invoiceID,
		Amount:    amount,
		Notes:     input.Notes,
	}
	if input.PaymentMethod != "" {
		method, ok := models.ParsePaymentMethod(input.PaymentMethod)
		if !ok {
			utils.RespondWithFieldErrors(c, map[string][]string{"paymentMethod": {"Unknown payment method " + input.PaymentMethod}})
			return
		}
		in.PaymentMethod = method
	}
	if input.PaymentDate != nil {
		in.PaymentDate = *input.PaymentDate
	}

	result, err := pc.payments.Record(c.Request.Context(), in, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, PaymentResultResponse{
		Payment: toPaymentResponse(result.Payment),
		Invoice: toInvoiceResponse(result.Invoice),
	})
}

func (pc *PaymentController) GetPayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	payment, err := pc.payments.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toPaymentResponse(*payment))
}

func (pc *PaymentController) GetInvoicePayments(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "invoiceId", "invoice")
	if !ok {
		return
	}

	payments, err := pc.payments.ListByInvoice(c.Request.Context(), invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = toPaymentResponse(p)
	}
	c.JSON(http.StatusOK, out)
}

// DeletePayment removes a payment; the invoice status follows
func (pc *PaymentController) DeletePayment(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "payment")
	if !ok {
		return
	}

	result, err := pc.payments.Delete(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, PaymentResultResponse{
		Payment: toPaymentResponse(result.Payment),
		Invoice: toInvoiceResponse(result.Invoice),
	})
}
