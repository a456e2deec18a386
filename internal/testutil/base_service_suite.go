package testutil

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/cache"
	"github.com/convowin/convowin/internal/clock"
	"github.com/convowin/convowin/internal/config"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	"github.com/convowin/convowin/internal/domain/ratecard"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/metrics"
	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/region"
	"github.com/convowin/convowin/internal/repository/memory"
	"github.com/convowin/convowin/internal/types"
	"github.com/convowin/convowin/internal/validator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository interfaces for testing
type Stores struct {
	RateCardRepo    ratecard.Repository
	BillingPlanRepo billingplan.Repository
	ResourceRepo    billingplan.ResourceRepository
	InvoiceRepo     invoice.Repository
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	stores  Stores
	db      postgres.IClient
	logger  *logger.Logger
	config  *config.Configuration
	clock   *clock.FakeClock
	cache   *cache.InMemoryCache
	metrics *metrics.Metrics
	region  *region.Resolver
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()
	s.logger = logger.NewNoopLogger()
	s.region = region.NewResolver()
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.config = config.GetDefaultConfig()
	s.clock = clock.NewFakeClock(time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC))
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.cache = cache.NewInMemoryCache(true, s.metrics)
	s.db = memory.NewTxClient()
	s.stores = Stores{
		RateCardRepo:    memory.NewRateCardRepository(),
		BillingPlanRepo: memory.NewBillingPlanRepository(),
		ResourceRepo:    memory.NewResourceRepository(),
		InvoiceRepo:     memory.NewInvoiceRepository(),
	}
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	_ = s.cache.Flush(s.ctx)
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration, tests may change it before building services
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

func (s *BaseServiceTestSuite) GetDB() postgres.IClient {
	return s.db
}

func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

func (s *BaseServiceTestSuite) GetClock() *clock.FakeClock {
	return s.clock
}

func (s *BaseServiceTestSuite) GetCache() *cache.InMemoryCache {
	return s.cache
}

func (s *BaseServiceTestSuite) GetMetrics() *metrics.Metrics {
	return s.metrics
}

func (s *BaseServiceTestSuite) GetRegion() *region.Resolver {
	return s.region
}

// Now is the fake clock's current time
func (s *BaseServiceTestSuite) Now() time.Time {
	return s.clock.Now()
}

// CreatePlan stores a plan for tenantID created at the current fake time,
// after letting mutate adjust it
func (s *BaseServiceTestSuite) CreatePlan(tenantID string, mutate func(p *billingplan.BillingPlan)) *billingplan.BillingPlan {
	plan := billingplan.New(tenantID, s.Now())
	plan.Currency = "USD"
	plan.MonthlyMessageLimit = 1000
	plan.BaseModel = types.GetDefaultBaseModel(s.ctx, s.Now())
	if mutate != nil {
		mutate(plan)
	}
	s.Require().NoError(s.stores.BillingPlanRepo.Create(s.ctx, plan))
	return plan
}

// CreateRate stores a rate card tier effective from effective
func (s *BaseServiceTestSuite) CreateRate(market string, category types.MessageCategory, start uint64, end *uint64, rate string, effective time.Time) *ratecard.Entry {
	e := &ratecard.Entry{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RATE_CARD_ENTRY),
		MarketOrRegion:  market,
		Currency:        "USD",
		Category:        category,
		VolumeTierStart: start,
		VolumeTierEnd:   end,
		Rate:            decimal.RequireFromString(rate),
		EffectiveDate:   types.StartOfDay(effective),
		BaseModel:       types.GetDefaultBaseModel(s.ctx, s.Now()),
	}
	s.Require().NoError(s.stores.RateCardRepo.Upsert(s.ctx, e))
	return e
}
