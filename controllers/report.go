// controllers/report.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"invoicing-backend/billing"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

// ReportController handles all reporting functions
type ReportController struct {
	reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{reports: reports}
}

type PeriodSummary struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	Collected string `json:"collected"`
	Previous  string `json:"previous"`
	Growth    string `json:"growth"`
}

type MethodSummary struct {
	Method    string `json:"method"`
	Count     int    `json:"count"`
	Collected string `json:"collected"`
}

type CustomerSummary struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Invoices int    `json:"invoices"`
	Paid     string `json:"paid"`
}

// CollectionsSummary represents the collections report
type CollectionsSummary struct {
	Month        PeriodSummary     `json:"month"`
	Quarter      PeriodSummary     `json:"quarter"`
	Year         PeriodSummary     `json:"year"`
	ByMethod     []MethodSummary   `json:"byMethod"`
	TopCustomers []CustomerSummary `json:"topCustomers"`
}

const defaultTopCustomers = 4

// GetCollectionsReport returns collected totals per period, method and customer
func (rc *ReportController) GetCollectionsReport(c *gin.Context) {
	top := defaultTopCustomers
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			utils.RespondWithError(c, http.StatusBadRequest, "top must be between 1 and 100")
			return
		}
		top = n
	}

	report, err := rc.reports.Collections(c.Request.Context(), top)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	summary := CollectionsSummary{
		Month:        toPeriodSummary(report.Month),
		Quarter:      toPeriodSummary(report.Quarter),
		Year:         toPeriodSummary(report.Year),
		ByMethod:     make([]MethodSummary, 0, len(report.ByMethod)),
		TopCustomers: make([]CustomerSummary, 0, len(report.TopCustomers)),
	}
	for _, m := range report.ByMethod {
		summary.ByMethod = append(summary.ByMethod, MethodSummary{
			Method:    string(m.Method),
			Count:     m.Count,
			Collected: billing.FormatAmount(m.Collected),
		})
	}
	for _, cc := range report.TopCustomers {
		summary.TopCustomers = append(summary.TopCustomers, CustomerSummary{
			Name:     cc.CustomerName,
			Email:    cc.CustomerEmail,
			Invoices: cc.Invoices,
			Paid:     billing.FormatAmount(cc.Paid),
		})
	}

	c.JSON(http.StatusOK, summary)
}

func toPeriodSummary(p services.PeriodCollection) PeriodSummary {
	return PeriodSummary{
		Start:     p.Start.Format(utils.DateLayout),
		End:       p.End.Add(-time.Nanosecond).Format(utils.DateLayout),
		Collected: billing.FormatAmount(p.Collected),
		Previous:  billing.FormatAmount(p.Previous),
		Growth:    p.Growth.StringFixed(2),
	}
}
