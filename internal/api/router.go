package api

import (
	"net/http"

	"github.com/convowin/convowin/internal/api/cron"
	v1 "github.com/convowin/convowin/internal/api/v1"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/rest/middleware"
	"github.com/convowin/convowin/internal/types"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Health      *v1.HealthHandler
	Billing     *v1.BillingHandler
	RateCard    *v1.RateCardHandler
	BillingPlan *v1.BillingPlanHandler
	Usage       *v1.UsageHandler
	Invoice     *v1.InvoiceHandler

	// Cron jobs
	CronUsage   *cron.UsageHandler
	CronInvoice *cron.InvoiceHandler

	// Metrics serves the prometheus scrape endpoint
	Metrics http.Handler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	if cfg.Logging.Level != types.LogLevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger),
	)

	router.GET("/health", handlers.Health.Health)
	router.POST("/health", handlers.Health.Health)
	if handlers.Metrics != nil {
		router.GET("/metrics", gin.WrapH(handlers.Metrics))
	}

	v1Router := router.Group("/v1")
	{
		messages := v1Router.Group("/messages")
		{
			messages.POST("/charge", handlers.Billing.ChargeMessage)
		}

		rateCards := v1Router.Group("/rate-cards")
		{
			rateCards.PUT("", handlers.RateCard.UpsertEntry)
			rateCards.GET("", handlers.RateCard.ListEntries)
			rateCards.GET("/effective", handlers.RateCard.GetEffectiveRate)
			rateCards.POST("/upload/base", handlers.RateCard.UploadBaseRates)
			rateCards.POST("/upload/tiers", handlers.RateCard.UploadVolumeTiers)
		}

		tenants := v1Router.Group("/tenants/:tenant_id")
		tenants.Use(middleware.TenantContextMiddleware)
		{
			tenants.PUT("/billing-plan", handlers.BillingPlan.UpsertBillingPlan)
			tenants.GET("/billing-plan", handlers.BillingPlan.GetBillingPlan)
			tenants.GET("/usage", handlers.Usage.GetUsageSummary)
			tenants.GET("/limits/:check", handlers.Usage.CheckLimit)
			tenants.PUT("/resources", handlers.Usage.SetResources)
			tenants.POST("/campaigns", handlers.Usage.RecordCampaign)
			tenants.GET("/invoices", handlers.Invoice.ListTenantInvoices)
		}

		invoices := v1Router.Group("/invoices")
		{
			invoices.GET("/:id", handlers.Invoice.GetInvoice)
			invoices.POST("/:id/status", handlers.Invoice.UpdateInvoiceStatus)
		}

		// Cron routes
		cronGroup := v1Router.Group("/cron")
		{
			cronUsage := cronGroup.Group("/usage")
			{
				cronUsage.POST("/daily-reset", handlers.CronUsage.ResetDailyUsage)
				cronUsage.POST("/monthly-reset", handlers.CronUsage.ResetMonthlyUsage)
			}

			cronInvoices := cronGroup.Group("/invoices")
			{
				cronInvoices.POST("/generate", handlers.CronInvoice.GenerateInvoices)
				cronInvoices.POST("/mark-overdue", handlers.CronInvoice.MarkOverdueInvoices)
			}
		}
	}

	return router
}
