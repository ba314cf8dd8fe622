package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/logger"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

// handleServiceError maps domain errors to client errors. Anything else is a
// 500 whose cause is attached to the context for logging and Sentry, never
// to the response body.
func handleServiceError(c *gin.Context, err error) {
	var invalidPayment *services.InvalidPaymentError
	var validation *services.ValidationError

	switch {
	case errors.As(err, &validation):
		utils.RespondWithFieldErrors(c, map[string][]string{validation.Field: {validation.Message}})
	case errors.As(err, &invalidPayment):
		log := logger.WithComponent("payments")
		log.Warn().
			Str("invoice_id", invalidPayment.InvoiceID.String()).
			Str("amount", invalidPayment.Amount.StringFixed(2)).
			Str("remaining", invalidPayment.Remaining.StringFixed(2)).
			Msg("payment rejected")
		utils.RespondWithError(c, http.StatusBadRequest, invalidPayment.Message())
	case errors.Is(err, services.ErrInvoiceNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
	case errors.Is(err, services.ErrPaymentNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
	case errors.Is(err, services.ErrUserNotFound):
		utils.RespondWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, services.ErrTerminalInvoice):
		utils.RespondWithError(c, http.StatusConflict, "Cannot record a payment for a cancelled or refunded invoice")
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrUserExists):
		utils.RespondWithError(c, http.StatusConflict, "Username or email already registered")
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrUserDisabled):
		utils.RespondWithError(c, http.StatusForbidden, "Account is disabled")
	case errors.Is(err, services.ErrSweepInProgress):
		utils.RespondWithError(c, http.StatusConflict, "Overdue sweep already running")
	default:
		_ = c.Error(err)
		log := logger.WithComponent("http")
		log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		utils.RespondWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}

// bindJSON binds the request body and reports validation failures by field.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		if fields, ok := utils.FieldErrors(err); ok {
			utils.RespondWithFieldErrors(c, fields)
		} else {
			utils.RespondWithError(c, http.StatusBadRequest, "Malformed request body")
		}
		return false
	}
	return true
}

func parseIDParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid "+label+" ID format")
		return uuid.Nil, false
	}
	return id, true
}
