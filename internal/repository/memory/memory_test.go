package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	"github.com/convowin/convowin/internal/domain/ratecard"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type MemoryRepositorySuite struct {
	suite.Suite
	ctx   context.Context
	now   time.Time
	plans billingplan.Repository
}

func TestMemoryRepository(t *testing.T) {
	suite.Run(t, new(MemoryRepositorySuite))
}

func (s *MemoryRepositorySuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	s.plans = NewBillingPlanRepository()

	plan := billingplan.New("tenant_1", s.now)
	plan.Currency = "USD"
	plan.MonthlyMessageLimit = 1000
	s.Require().NoError(s.plans.Create(s.ctx, plan))
}

func (s *MemoryRepositorySuite) TestCreateTwiceFails() {
	plan := billingplan.New("tenant_1", s.now)
	plan.Currency = "USD"
	err := s.plans.Create(s.ctx, plan)
	s.True(ierr.IsAlreadyExists(err))
}

func (s *MemoryRepositorySuite) TestConcurrentIncrementsAreNotLost() {
	const callers = 50
	const perCaller = 20

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perCaller; j++ {
				s.NoError(s.plans.IncrementMessages(s.ctx, "tenant_1", 1))
				s.NoError(s.plans.AddCosts(s.ctx, "tenant_1", decimal.RequireFromString("0.01"), decimal.Zero))
			}
		}()
	}
	wg.Wait()

	plan, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Equal(uint64(callers*perCaller), plan.CurrentDayMessages)
	s.Equal(uint64(callers*perCaller), plan.CurrentMonth.Messages)
	s.True(decimal.NewFromInt(10).Equal(plan.CurrentMonth.MetaCost))
}

func (s *MemoryRepositorySuite) TestDailyResetHappensOnce() {
	s.Require().NoError(s.plans.IncrementMessages(s.ctx, "tenant_1", 7))
	nextDay := types.StartOfDay(s.now.AddDate(0, 0, 1))

	var winners int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			won, err := s.plans.ResetDailyIfStale(s.ctx, "tenant_1", nextDay)
			s.NoError(err)
			if won {
				atomic.AddInt32(&winners, 1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), winners)
	plan, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Zero(plan.CurrentDayMessages)
	s.Equal(uint64(7), plan.CurrentMonth.Messages)
	s.Equal(nextDay, plan.LastDailyReset)
}

func (s *MemoryRepositorySuite) TestMonthlyResetSnapshotsUsage() {
	s.Require().NoError(s.plans.IncrementMessages(s.ctx, "tenant_1", 3))
	s.Require().NoError(s.plans.IncrementCampaigns(s.ctx, "tenant_1", 2))
	position, err := s.plans.IncrementConversations(s.ctx, "tenant_1", types.MessageCategoryUtility)
	s.Require().NoError(err)
	s.Equal(uint64(1), position)

	april := types.StartOfMonth(s.now.AddDate(0, 1, 0))
	won, err := s.plans.ResetMonthlyIfStale(s.ctx, "tenant_1", april)
	s.Require().NoError(err)
	s.True(won)

	won, err = s.plans.ResetMonthlyIfStale(s.ctx, "tenant_1", april)
	s.Require().NoError(err)
	s.False(won)

	plan, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Zero(plan.CurrentMonth.Messages)

	march := types.BillingPeriodOf(s.now)
	usage, err := s.plans.GetPeriodUsage(s.ctx, "tenant_1", march)
	s.Require().NoError(err)
	s.Equal(march.Start(), usage.PeriodStart)
	s.Equal(uint64(3), usage.Messages)
	s.Equal(uint64(2), usage.Campaigns)
	s.Equal(uint64(1), usage.UtilityConversations)

	// nothing was counted in April yet, so no snapshot and zero usage
	usage, err = s.plans.GetPeriodUsage(s.ctx, "tenant_1", march.Next())
	s.Require().NoError(err)
	s.Zero(usage.Messages)
	s.True(usage.MetaCost.IsZero())
}

func (s *MemoryRepositorySuite) TestMonthlyResetKeepsEveryClosedMonth() {
	march := types.BillingPeriodOf(s.now)
	april, may := march.Next(), march.Next().Next()

	s.Require().NoError(s.plans.IncrementMessages(s.ctx, "tenant_1", 3))
	_, err := s.plans.ResetMonthlyIfStale(s.ctx, "tenant_1", april.Start())
	s.Require().NoError(err)

	s.Require().NoError(s.plans.IncrementMessages(s.ctx, "tenant_1", 5))
	_, err = s.plans.ResetMonthlyIfStale(s.ctx, "tenant_1", may.Start())
	s.Require().NoError(err)

	// March was never invoiced and survives April's rollover
	marchUsage, err := s.plans.GetPeriodUsage(s.ctx, "tenant_1", march)
	s.Require().NoError(err)
	s.Equal(uint64(3), marchUsage.Messages)

	aprilUsage, err := s.plans.GetPeriodUsage(s.ctx, "tenant_1", april)
	s.Require().NoError(err)
	s.Equal(uint64(5), aprilUsage.Messages)
}

func (s *MemoryRepositorySuite) TestRecordMessageCharge() {
	s.Require().NoError(s.plans.RecordMessageCharge(s.ctx, "tenant_1",
		decimal.RequireFromString("0.0080"), decimal.RequireFromString("0.001")))

	plan, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Equal(uint64(1), plan.CurrentDayMessages)
	s.Equal(uint64(1), plan.CurrentMonth.Messages)
	s.True(decimal.RequireFromString("0.0080").Equal(plan.CurrentMonth.MetaCost))
	s.True(decimal.RequireFromString("0.001").Equal(plan.CurrentMonth.PlatformFee))

	err = s.plans.RecordMessageCharge(s.ctx, "tenant_1", decimal.NewFromInt(-1), decimal.Zero)
	s.True(ierr.IsValidation(err))
	s.True(ierr.Is(s.plans.RecordMessageCharge(s.ctx, "nobody", decimal.Zero, decimal.Zero),
		billingplan.ErrConfigurationMissing))

	position, err := s.plans.IncrementConversations(s.ctx, "tenant_1", types.MessageCategoryService)
	s.Require().NoError(err)
	s.Zero(position)
}

func (s *MemoryRepositorySuite) TestMissingPlan() {
	err := s.plans.IncrementMessages(s.ctx, "nobody", 1)
	s.True(ierr.Is(err, billingplan.ErrConfigurationMissing))

	_, err = s.plans.ResetDailyIfStale(s.ctx, "nobody", s.now)
	s.True(ierr.Is(err, billingplan.ErrConfigurationMissing))
}

func (s *MemoryRepositorySuite) TestGetReturnsCopy() {
	plan, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	plan.CurrentMonth.Messages = 999

	again, err := s.plans.Get(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Zero(again.CurrentMonth.Messages)
}

func (s *MemoryRepositorySuite) TestRateCardUpsertKeepsID() {
	repo := NewRateCardRepository()
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := &ratecard.Entry{
		ID:             "rate_1",
		MarketOrRegion: "Brazil",
		Currency:       "USD",
		Category:       types.MessageCategoryMarketing,
		Rate:           decimal.RequireFromString("0.0625"),
		EffectiveDate:  day,
	}
	s.Require().NoError(repo.Upsert(s.ctx, entry))

	changed := *entry
	changed.ID = "rate_2"
	changed.Rate = decimal.RequireFromString("0.07")
	s.Require().NoError(repo.Upsert(s.ctx, &changed))

	got, err := repo.Get(s.ctx, entry.Key())
	s.Require().NoError(err)
	s.Equal("rate_1", got.ID)
	s.True(decimal.RequireFromString("0.07").Equal(got.Rate))
}

func (s *MemoryRepositorySuite) TestRateCardListEffectivePicksLatestSchedule() {
	repo := NewRateCardRepository()
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []*ratecard.Entry{
		{ID: "a", MarketOrRegion: "Brazil", Currency: "USD", Category: types.MessageCategoryMarketing, Rate: decimal.RequireFromString("0.0065"), EffectiveDate: jan, VolumeTierEnd: lo.ToPtr(uint64(250000))},
		{ID: "b", MarketOrRegion: "Brazil", Currency: "USD", Category: types.MessageCategoryMarketing, Rate: decimal.RequireFromString("0.0050"), EffectiveDate: jan, VolumeTierStart: 250001},
		{ID: "c", MarketOrRegion: "Brazil", Currency: "USD", Category: types.MessageCategoryMarketing, Rate: decimal.RequireFromString("0.0070"), EffectiveDate: mar},
	} {
		s.Require().NoError(repo.Upsert(s.ctx, e))
	}

	tiers, err := repo.ListEffective(s.ctx, "Brazil", types.MessageCategoryMarketing, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Len(tiers, 2)

	tiers, err = repo.ListEffective(s.ctx, "Brazil", types.MessageCategoryMarketing, mar)
	s.Require().NoError(err)
	s.Require().Len(tiers, 1)
	s.Equal("c", tiers[0].ID)

	tiers, err = repo.ListEffective(s.ctx, "Brazil", types.MessageCategoryMarketing, jan.AddDate(0, 0, -1))
	s.Require().NoError(err)
	s.Empty(tiers)
}

func (s *MemoryRepositorySuite) TestInvoiceUniquePerPeriod() {
	repo := NewInvoiceRepository()
	inv := &invoice.Invoice{
		ID:             "inv_1",
		TenantID:       "tenant_1",
		BillingPeriod:  "2026-02",
		IdempotencyKey: "key_1",
		Status:         types.InvoiceStatusPending,
		Items:          []*invoice.LineItem{{ID: "line_1", Position: 1}},
	}
	s.Require().NoError(repo.Create(s.ctx, inv))

	dup := *inv
	dup.ID = "inv_2"
	dup.IdempotencyKey = "key_2"
	err := repo.Create(s.ctx, &dup)
	s.True(ierr.Is(err, invoice.ErrDuplicateInvoice))

	got, err := repo.GetByIdempotencyKey(s.ctx, "key_1")
	s.Require().NoError(err)
	s.Len(got.Items, 1)

	listed, err := repo.List(s.ctx, &types.InvoiceFilter{TenantID: "tenant_1"})
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Empty(listed[0].Items)
}

func (s *MemoryRepositorySuite) TestInvoiceStatusCompareAndSet() {
	repo := NewInvoiceRepository()
	s.Require().NoError(repo.Create(s.ctx, &invoice.Invoice{
		ID:             "inv_1",
		TenantID:       "tenant_1",
		BillingPeriod:  "2026-02",
		IdempotencyKey: "key_1",
		Status:         types.InvoiceStatusPending,
	}))

	s.Require().NoError(repo.UpdateStatus(s.ctx, "inv_1", types.InvoiceStatusPending, types.InvoiceStatusPaid, s.now))
	err := repo.UpdateStatus(s.ctx, "inv_1", types.InvoiceStatusPending, types.InvoiceStatusCanceled, s.now)
	s.True(ierr.Is(err, invoice.ErrInvalidStatusTransition))

	got, err := repo.Get(s.ctx, "inv_1")
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, got.Status)
	s.Require().NotNil(got.PaidAt)
}

func (s *MemoryRepositorySuite) TestResourcesDefaultToZero() {
	repo := NewResourceRepository()
	res, err := repo.GetResources(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Zero(res.ActiveTemplates)

	s.Require().NoError(repo.SetResources(s.ctx, "tenant_1", &billingplan.Resources{ActiveTemplates: 4, ActiveFlows: 1}))
	res, err = repo.GetResources(s.ctx, "tenant_1")
	s.Require().NoError(err)
	s.Equal(uint64(4), res.ActiveTemplates)
}

func (s *MemoryRepositorySuite) TestTxClientJoinsNestedUnits() {
	tx := NewTxClient()
	calls := 0
	err := tx.WithTx(s.ctx, func(ctx context.Context) error {
		calls++
		return tx.WithTx(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
	})
	s.NoError(err)
	s.Equal(2, calls)
}
