package routes

import (
	"net/http"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"invoicing-backend/config"
	"invoicing-backend/controllers"
	"invoicing-backend/models"
	"invoicing-backend/security"
	"invoicing-backend/services"
	"invoicing-backend/utils"
)

// Dependencies are the services the router wires into controllers.
type Dependencies struct {
	Config        *config.Config
	DB            *gorm.DB
	Invoices      *services.InvoiceService
	Payments      *services.PaymentService
	Users         *services.UserService
	Reports       *services.ReportService
	Notifications *services.NotificationService
	Sweeper       *services.OverdueSweeper
	LoginAttempts *security.LoginAttemptService
	RateLimiter   security.RateLimiter
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	r.Use(gin.Recovery())
	if cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
		r.Use(reportServerErrors())
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(security.SecurityHeaders())
	r.Use(security.RequestValidation())
	r.Use(config.PerformanceLogger())
	r.Use(security.RateLimit(deps.RateLimiter))

	health := controllers.NewHealthController(deps.DB)
	r.GET("/health", health.Health)

	authController := controllers.NewAuthController(deps.Users, deps.LoginAttempts)
	invoiceController := controllers.NewInvoiceController(deps.Invoices)
	paymentController := controllers.NewPaymentController(deps.Payments)
	dashboardController := controllers.NewDashboardController(deps.Invoices)
	reportController := controllers.NewReportController(deps.Reports)
	reminderController := controllers.NewReminderController(deps.Sweeper, deps.Notifications)

	requireAuth := utils.AuthMiddleware(cfg.JWTSecret)
	staff := utils.RequireRole(models.RoleModerator, models.RoleAdmin)
	admin := utils.RequireRole(models.RoleAdmin)

	auth := r.Group("/api/auth")
	{
		auth.POST("/signup", authController.Register)
		auth.POST("/signin", security.LoginThrottle(deps.LoginAttempts), authController.Login)

		auth.Use(requireAuth)
		auth.GET("/me", authController.Me)
		auth.PUT("/me", authController.UpdateProfile)
	}

	api := r.Group("/api")
	api.Use(requireAuth)
	{
		// Invoice routes
		invoices := api.Group("/invoices")
		{
			invoices.GET("", invoiceController.GetInvoices)
			invoices.GET("/overdue", invoiceController.GetOverdueInvoices)
			invoices.GET("/total-outstanding", invoiceController.GetTotalOutstanding)
			invoices.GET("/status/:status", invoiceController.GetInvoicesByStatus)
			invoices.GET("/:id", invoiceController.GetInvoice)
			invoices.GET("/:id/notifications", reminderController.GetNotificationLogs)
			invoices.POST("", staff, invoiceController.CreateInvoice)
			invoices.PUT("/:id", staff, invoiceController.UpdateInvoice)
			invoices.PATCH("/:id/status", admin, invoiceController.UpdateInvoiceStatus)
			invoices.POST("/:id/archive", admin, invoiceController.ArchiveInvoice)
			invoices.DELETE("/:id", admin, invoiceController.DeleteInvoice)
		}

		// Payment routes
		payments := api.Group("/payments")
		{
			payments.GET("/invoice/:invoiceId", paymentController.GetInvoicePayments)
			payments.GET("/:id", paymentController.GetPayment)
			payments.POST("", staff, paymentController.RecordPayment)
			payments.DELETE("/:id", staff, paymentController.DeletePayment)
		}

		api.GET("/dashboard", dashboardController.GetDashboardOverview)
		api.GET("/reports/collections", reportController.GetCollectionsReport)
		api.POST("/admin/overdue-sweep", admin, reminderController.RunOverdueSweep)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.RespondWithError(c, http.StatusNotFound, "Resource not found")
	})

	return r
}

// reportServerErrors sends errors attached to 5xx responses to Sentry.
func reportServerErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.WithScope(func(scope *sentry.Scope) {
				scope.SetLevel(sentry.LevelError)
				scope.SetTag("path", c.FullPath())
				for _, e := range c.Errors {
					hub.CaptureException(e.Err)
				}
			})
		}
	}
}
