package main

import (
	"context"
	"net/http"
	"time"

	"github.com/convowin/convowin/internal/api"
	"github.com/convowin/convowin/internal/api/cron"
	v1 "github.com/convowin/convowin/internal/api/v1"
	"github.com/convowin/convowin/internal/cache"
	"github.com/convowin/convowin/internal/clock"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/convowin/convowin/internal/region"
	"github.com/convowin/convowin/internal/repository"
	"github.com/convowin/convowin/internal/scheduler"
	"github.com/convowin/convowin/internal/service"
	"github.com/convowin/convowin/internal/types"
	"github.com/convowin/convowin/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	opts = append(opts,
		fx.WithLogger(func(log *logger.Logger) fxevent.Logger {
			return log.GetFxLogger()
		}),
	)

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			provideMetrics,

			// Time and phone numbers
			clock.New,
			region.NewResolver,

			// Cache
			cache.Initialize,
		),
	)

	// Postgres or memory repositories
	opts = append(opts, repository.Module)

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewWindowService,
			service.NewRateCardService,
			service.NewCostService,
			service.NewUsageService,
			service.NewBillingService,
			service.NewBillingPlanService,
			service.NewInvoiceService,
			service.NewScheduledJobService,
		),
	)

	// API and in-process scheduler
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
			scheduler.NewTrigger,
		),
		fx.Invoke(
			// registers the custom tags before the first request
			validator.NewValidator,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideMetrics() *metrics.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

func provideHandlers(
	cfg *config.Configuration,
	logger *logger.Logger,
	clk clock.Clock,
	billingService service.BillingService,
	rateCardService service.RateCardService,
	billingPlanService service.BillingPlanService,
	usageService service.UsageService,
	invoiceService service.InvoiceService,
	jobService service.ScheduledJobService,
) api.Handlers {
	return api.Handlers{
		Health:      v1.NewHealthHandler(cfg, clk, logger),
		Billing:     v1.NewBillingHandler(billingService, logger),
		RateCard:    v1.NewRateCardHandler(rateCardService, clk, logger),
		BillingPlan: v1.NewBillingPlanHandler(billingPlanService, logger),
		Usage:       v1.NewUsageHandler(usageService, logger),
		Invoice:     v1.NewInvoiceHandler(invoiceService, logger),
		CronUsage:   cron.NewUsageHandler(jobService, logger),
		CronInvoice: cron.NewInvoiceHandler(jobService, logger),
		Metrics:     promhttp.Handler(),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	trigger *scheduler.Trigger,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		if cfg.Scheduler.Enabled {
			trigger.RegisterWithLifecycle(lc)
		}
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeScheduler:
		trigger.RegisterWithLifecycle(lc)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}
}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}
