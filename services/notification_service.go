// services/notification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"gorm.io/gorm"

	"invoicing-backend/billing"
	"invoicing-backend/logger"
	"invoicing-backend/models"
)

// Notifier is told about invoices that just became overdue.
type Notifier interface {
	NotifyOverdue(ctx context.Context, invoice models.Invoice, balance decimal.Decimal) error
}

// Sender delivers one message over a single channel.
type Sender interface {
	Channel() string
	Recipient(invoice models.Invoice) string
	Send(ctx context.Context, to, subject, body string) error
}

type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
		from: from,
	}
}

func (s *TwilioSender) Channel() string { return "sms" }

func (s *TwilioSender) Recipient(invoice models.Invoice) string {
	return invoice.CustomerPhone
}

func (s *TwilioSender) Send(_ context.Context, to, _, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.client.Api.CreateMessage(params)
	if err != nil {
		return err
	}
	if resp.Sid == nil {
		return fmt.Errorf("twilio returned no message sid")
	}
	return nil
}

type SendGridSender struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridSender(apiKey, fromName, fromEmail string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromEmail),
	}
}

func (s *SendGridSender) Channel() string { return "email" }

func (s *SendGridSender) Recipient(invoice models.Invoice) string {
	return invoice.CustomerEmail
}

func (s *SendGridSender) Send(_ context.Context, to, subject, body string) error {
	message := mail.NewSingleEmail(s.from, subject, mail.NewEmail("", to), body, "")

	resp, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// NotificationService fans an overdue notice out to every configured sender
// and records each attempt in notification_logs.
type NotificationService struct {
	db      *gorm.DB
	senders []Sender
	now     func() time.Time
	log     zerolog.Logger
}

func NewNotificationService(db *gorm.DB, senders ...Sender) *NotificationService {
	return &NotificationService{
		db:      db,
		senders: senders,
		now:     time.Now,
		log:     logger.WithComponent("notifications"),
	}
}

func overdueMessage(invoice models.Invoice, balance decimal.Decimal) (string, string) {
	subject := fmt.Sprintf("Invoice %s is overdue", invoice.InvoiceNumber)
	body := fmt.Sprintf("Dear %s, invoice %s was due on %s. The outstanding balance is %s.",
		invoice.CustomerName,
		invoice.InvoiceNumber,
		invoice.DueDate.Format("2006-01-02"),
		billing.FormatAmount(balance))
	return subject, body
}

func (s *NotificationService) NotifyOverdue(ctx context.Context, invoice models.Invoice, balance decimal.Decimal) error {
	subject, body := overdueMessage(invoice, balance)

	var result *multierror.Error
	for _, sender := range s.senders {
		to := sender.Recipient(invoice)
		if to == "" {
			continue
		}

		status := "sent"
		errorMsg := ""
		if err := sender.Send(ctx, to, subject, body); err != nil {
			s.log.Error().Err(err).
				Str("invoice_id", invoice.ID.String()).
				Str("channel", sender.Channel()).
				Msg("failed to send overdue notice")
			status = "failed"
			errorMsg = err.Error()
			result = multierror.Append(result, fmt.Errorf("%s: %w", sender.Channel(), err))
		} else {
			s.log.Info().
				Str("invoice_id", invoice.ID.String()).
				Str("channel", sender.Channel()).
				Msg("overdue notice sent")
		}

		entry := models.NotificationLog{
			InvoiceID:    invoice.ID,
			Type:         "overdue",
			Recipient:    to,
			Message:      body,
			Status:       status,
			ErrorMessage: errorMsg,
			Channel:      sender.Channel(),
			SentAt:       s.now(),
		}
		if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
			s.log.Error().Err(err).Str("invoice_id", invoice.ID.String()).Msg("failed to log notification")
		}
	}
	return result.ErrorOrNil()
}

// NotificationLogs returns the notices sent for an invoice, newest first.
func (s *NotificationService) NotificationLogs(ctx context.Context, invoiceID uuid.UUID) ([]models.NotificationLog, error) {
	var logs []models.NotificationLog
	err := s.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("sent_at DESC").
		Find(&logs).Error
	return logs, err
}
