package service

import (
	"github.com/convowin/convowin/internal/cache"
	"github.com/convowin/convowin/internal/clock"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	"github.com/convowin/convowin/internal/domain/ratecard"
	"github.com/convowin/convowin/internal/idempotency"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/region"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger      *logger.Logger
	Config      *config.Configuration
	DB          postgres.IClient
	Clock       clock.Clock
	Cache       cache.Cache
	Region      *region.Resolver
	Metrics     *metrics.Metrics
	Idempotency *idempotency.Generator

	// Repositories
	RateCardRepo    ratecard.Repository
	BillingPlanRepo billingplan.Repository
	ResourceRepo    billingplan.ResourceRepository
	InvoiceRepo     invoice.Repository
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	clk clock.Clock,
	c cache.Cache,
	resolver *region.Resolver,
	m *metrics.Metrics,
	rateCardRepo ratecard.Repository,
	billingPlanRepo billingplan.Repository,
	resourceRepo billingplan.ResourceRepository,
	invoiceRepo invoice.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:          logger,
		Config:          config,
		DB:              db,
		Clock:           clk,
		Cache:           c,
		Region:          resolver,
		Metrics:         m,
		Idempotency:     idempotency.NewGenerator(),
		RateCardRepo:    rateCardRepo,
		BillingPlanRepo: billingPlanRepo,
		ResourceRepo:    resourceRepo,
		InvoiceRepo:     invoiceRepo,
	}
}
