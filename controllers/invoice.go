// controllers/invoice.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicing-backend/billing"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

type InvoiceController struct {
	invoices *services.InvoiceService
}

func NewInvoiceController(invoices *services.InvoiceService) *InvoiceController {
	return &InvoiceController{invoices: invoices}
}

func (ic *InvoiceController) parseInput(c *gin.Context) (services.InvoiceInput, bool) {
	var input InvoiceInput
	if !bindJSON(c, &input) {
		return services.InvoiceInput{}, false
	}

	amount, err := billing.ParseAmount(input.Amount.String())
	if err != nil {
		utils.RespondWithFieldErrors(c, map[string][]string{"amount": {"Amount must be a decimal number"}})
		return services.InvoiceInput{}, false
	}
	dueDate, err := utils.ParseDate(input.DueDate)
	if err != nil {
		utils.RespondWithFieldErrors(c, map[string][]string{"dueDate": {err.Error()}})
		return services.InvoiceInput{}, false
	}

	out := services.InvoiceInput{
		CustomerName:  input.CustomerName,
		CustomerEmail: input.CustomerEmail,
		CustomerPhone: input.CustomerPhone,
		DueDate:       dueDate,
		Amount:        amount,
		Description:   input.Description,
	}
	if input.IssueDate != "" {
		if out.IssueDate, err = utils.ParseDate(input.IssueDate); err != nil {
			utils.RespondWithFieldErrors(c, map[string][]string{"issueDate": {err.Error()}})
			return services.InvoiceInput{}, false
		}
	}
	return out, true
}

// CreateInvoice creates a new invoice
func (ic *InvoiceController) CreateInvoice(c *gin.Context) {
	input, ok := ic.parseInput(c)
	if !ok {
		return
	}

	view, err := ic.invoices.Create(c.Request.Context(), input, currentUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toInvoiceResponse(*view))
}

// GetInvoices lists invoices, optionally filtered by ?status=
func (ic *InvoiceController) GetInvoices(c *gin.Context) {
	var filter *billing.PaymentStatus
	if raw := c.Query("status"); raw != "" {
		status, err := billing.ParseStatus(raw)
		if err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid status: "+raw)
			return
		}
		filter = &status
	}

	views, err := ic.invoices.List(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponses(views))
}

func (ic *InvoiceController) GetInvoicesByStatus(c *gin.Context) {
	status, err := billing.ParseStatus(c.Param("status"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid status: "+c.Param("status"))
		return
	}

	views, err := ic.invoices.List(c.Request.Context(), &status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponses(views))
}

func (ic *InvoiceController) GetOverdueInvoices(c *gin.Context) {
	views, err := ic.invoices.Overdue(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponses(views))
}

func (ic *InvoiceController) GetTotalOutstanding(c *gin.Context) {
	total, err := ic.invoices.TotalOutstanding(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"totalOutstanding": billing.FormatAmount(total)})
}

// GetInvoice retrieves a specific invoice by ID
func (ic *InvoiceController) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	view, err := ic.invoices.Get(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(*view))
}

// UpdateInvoice updates an existing invoice
func (ic *InvoiceController) UpdateInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}
	input, ok := ic.parseInput(c)
	if !ok {
		return
	}

	view, err := ic.invoices.Update(c.Request.Context(), id, input)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(*view))
}

// UpdateInvoiceStatus cancels, refunds or reopens an invoice.
func (ic *InvoiceController) UpdateInvoiceStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	var input StatusInput
	if !bindJSON(c, &input) {
		return
	}
	target, err := billing.ParseStatus(input.Status)
	if err != nil {
		utils.RespondWithFieldErrors(c, map[string][]string{"status": {"Unknown status " + input.Status}})
		return
	}

	view, err := ic.invoices.ChangeStatus(c.Request.Context(), id, target)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, toInvoiceResponse(*view))
}

// DeleteInvoice deletes an invoice together with its payments
func (ic *InvoiceController) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	if err := ic.invoices.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice deleted successfully"})
}

// ArchiveInvoice hides an invoice from listings and keeps its payments.
func (ic *InvoiceController) ArchiveInvoice(c *gin.Context) {
	id, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	if err := ic.invoices.Archive(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Invoice archived successfully"})
}
