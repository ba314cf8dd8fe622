// controllers/reminder.go
package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"invoicing-backend/services"
)

type NotificationLogResponse struct {
	ID           uuid.UUID `json:"id"`
	Channel      string    `json:"channel"`
	Recipient    string    `json:"recipient"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	SentAt       time.Time `json:"sentAt"`
}

type TransitionResponse struct {
	InvoiceID uuid.UUID `json:"invoiceId"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// ReminderController exposes overdue notices and the overdue sweep.
type ReminderController struct {
	sweeper       *services.OverdueSweeper
	notifications *services.NotificationService
}

func NewReminderController(sweeper *services.OverdueSweeper, notifications *services.NotificationService) *ReminderController {
	return &ReminderController{sweeper: sweeper, notifications: notifications}
}

// GetNotificationLogs lists the overdue notices sent for an invoice
func (rc *ReminderController) GetNotificationLogs(c *gin.Context) {
	invoiceID, ok := parseIDParam(c, "id", "invoice")
	if !ok {
		return
	}

	logs, err := rc.notifications.NotificationLogs(c.Request.Context(), invoiceID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	out := make([]NotificationLogResponse, len(logs))
	for i, l := range logs {
		out[i] = NotificationLogResponse{
			ID:           l.ID,
			Channel:      l.Channel,
			Recipient:    l.Recipient,
			Type:         l.Type,
			Status:       l.Status,
			ErrorMessage: l.ErrorMessage,
			SentAt:       l.SentAt,
		}
	}
	c.JSON(http.StatusOK, out)
}

// RunOverdueSweep runs the overdue sweep now instead of waiting for the schedule
func (rc *ReminderController) RunOverdueSweep(c *gin.Context) {
	result, err := rc.sweeper.Run(c.Request.Context())
	if err != nil && result == nil {
		handleServiceError(c, err)
		return
	}

	transitions := make([]TransitionResponse, len(result.Transitions))
	for i, t := range result.Transitions {
		transitions[i] = TransitionResponse{InvoiceID: t.InvoiceID, From: t.From.String(), To: t.To.String()}
	}

	body := gin.H{
		"scanned":     result.Scanned,
		"updated":     len(result.Transitions),
		"transitions": transitions,
	}
	if err != nil {
		// partial failure: the successful transitions are already committed
		_ = c.Error(err)
		body["errors"] = true
	}
	c.JSON(http.StatusOK, body)
}
