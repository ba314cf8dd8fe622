package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoicing-backend/billing"
	"invoicing-backend/services"
)

type DashboardOverview struct {
	TotalInvoices      int64             `json:"totalInvoices"`
	StatusCounts       map[string]int64  `json:"statusCounts"`
	TotalOutstanding   string            `json:"totalOutstanding"`
	TotalCollected     string            `json:"totalCollected"`
	CollectedThisMonth string            `json:"collectedThisMonth"`
	OverdueInvoices    []InvoiceResponse `json:"overdueInvoices"`
}

type DashboardController struct {
	invoices *services.InvoiceService
}

func NewDashboardController(invoices *services.InvoiceService) *DashboardController {
	return &DashboardController{invoices: invoices}
}

// maxDashboardOverdue caps the overdue list shown on the dashboard.
const maxDashboardOverdue = 5

func (dc *DashboardController) GetDashboardOverview(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := dc.invoices.Dashboard(ctx)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	overdue, err := dc.invoices.Overdue(ctx)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if len(overdue) > maxDashboardOverdue {
		overdue = overdue[:maxDashboardOverdue]
	}

	counts := make(map[string]int64, len(summary.StatusCounts))
	for status, n := range summary.StatusCounts {
		counts[status.String()] = n
	}

	c.JSON(http.StatusOK, DashboardOverview{
		TotalInvoices:      summary.TotalInvoices,
		StatusCounts:       counts,
		TotalOutstanding:   billing.FormatAmount(summary.TotalOutstanding),
		TotalCollected:     billing.FormatAmount(summary.TotalCollected),
		CollectedThisMonth: billing.FormatAmount(summary.CollectedThisMonth),
		OverdueInvoices:    toInvoiceResponses(overdue),
	})
}
