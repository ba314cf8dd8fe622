package cmd

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"invoicing-backend/billing"
	"invoicing-backend/config"
	"invoicing-backend/logger"
	"invoicing-backend/models"
	"invoicing-backend/routes"
	"invoicing-backend/security"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

// application holds everything the subcommands share.
type application struct {
	cfg  *config.Config
	db   *gorm.DB
	deps routes.Dependencies
}

// newApplication loads configuration, connects the database, migrates the
// schema and wires every service.
func newApplication(ctx context.Context) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := config.ConnectDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	engine := billing.NewEngine(cfg.StatusSplitPartialOverdue)

	var senders []services.Sender
	if cfg.TwilioEnabled() {
		senders = append(senders, services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber))
	}
	if cfg.SendGridEnabled() {
		senders = append(senders, services.NewSendGridSender(cfg.SendGridAPIKey, cfg.SendGridFromName, cfg.SendGridFromEmail))
	}
	notifications := services.NewNotificationService(db, senders...)

	var store security.CounterStore = security.NewMemoryCounterStore()
	if cfg.CounterStore == "database" {
		store = security.NewGormCounterStore(db)
	}

	users := services.NewUserService(db, utils.TokenConfig{
		Secret: cfg.JWTSecret,
		Expiry: time.Duration(cfg.JWTExpiryHours) * time.Hour,
	})

	created, err := users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin user: %w", err)
	}
	if created {
		log := logger.WithComponent("bootstrap")
		log.Info().Str("username", cfg.AdminUsername).Msg("default admin created")
	}

	return &application{
		cfg: cfg,
		db:  db,
		deps: routes.Dependencies{
			Config:        cfg,
			DB:            db,
			Invoices:      services.NewInvoiceService(db, engine),
			Payments:      services.NewPaymentService(db, engine),
			Users:         users,
			Reports:       services.NewReportService(db),
			Notifications: notifications,
			Sweeper:       services.NewOverdueSweeper(db, engine, notifications),
			LoginAttempts: security.NewLoginAttemptService(store, cfg.LoginMaxAttempts, time.Duration(cfg.LoginBlockMinutes)*time.Minute),
			RateLimiter:   security.NewTokenBucketLimiter(cfg.RateLimitPerMinute),
		},
	}, nil
}

func (a *application) close() {
	if sqlDB, err := a.db.DB(); err == nil {
		sqlDB.Close()
	}
}
