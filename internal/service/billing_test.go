package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/testutil"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingService
}

func TestBillingService(t *testing.T) {
	suite.Run(t, new(BillingServiceSuite))
}

func (s *BillingServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.build()

	effective := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.CreateRate("Brazil", types.MessageCategoryMarketing, 0, lo.ToPtr(uint64(250000)), "0.0065", effective)
	s.CreateRate("Brazil", types.MessageCategoryMarketing, 250001, nil, "0.0050", effective)
	s.CreateRate("Brazil", types.MessageCategoryUtility, 0, nil, "0.0080", effective)
}

// build wires the services from the current config and stores
func (s *BillingServiceSuite) build() {
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	s.service = s.buildWith(params)
}

func (s *BillingServiceSuite) buildWith(params ServiceParams) BillingService {
	usage := NewUsageService(params)
	cost := NewCostService(params, NewWindowService(params), NewRateCardService(params))
	return NewBillingService(params, usage, cost)
}

func (s *BillingServiceSuite) charge(tenantID, recipient string, category types.MessageCategory) *dto.ChargeMessageResponse {
	resp, err := s.service.ChargeMessage(s.GetContext(), dto.ChargeMessageRequest{
		TenantID:  tenantID,
		Recipient: recipient,
		Category:  category,
	})
	s.Require().NoError(err)
	return resp
}

func (s *BillingServiceSuite) plan(tenantID string) *billingplan.BillingPlan {
	plan, err := s.GetStores().BillingPlanRepo.Get(s.GetContext(), tenantID)
	s.Require().NoError(err)
	return plan
}

func (s *BillingServiceSuite) TestChargeMessage_MissingPlan() {
	_, err := s.service.ChargeMessage(s.GetContext(), dto.ChargeMessageRequest{
		TenantID:  "tenant_unknown",
		Recipient: "5511999998888",
		Category:  types.MessageCategoryMarketing,
	})
	s.True(ierr.Is(err, billingplan.ErrConfigurationMissing))
	s.True(ierr.IsNotFound(err))
}

func (s *BillingServiceSuite) TestChargeMessage_Validation() {
	_, err := s.service.ChargeMessage(s.GetContext(), dto.ChargeMessageRequest{Recipient: "5511999998888"})
	s.True(ierr.IsValidation(err))
}

func (s *BillingServiceSuite) TestChargeMessage_BrazilRecipient() {
	s.CreatePlan("tenant_1", nil)

	resp := s.charge("tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.Equal("Brazil", resp.Market)
	s.Equal("BR", resp.CountryCode)
	s.True(resp.WindowOpened)
	s.True(decimal.RequireFromString("0.0065").Equal(resp.MetaCost))
	s.Equal("USD", resp.Currency)
}

func (s *BillingServiceSuite) TestChargeMessage_WindowDeduplicates() {
	s.CreatePlan("tenant_1", nil)

	first := s.charge("tenant_1", "+55 11 99999-8888", types.MessageCategoryUtility)
	second := s.charge("tenant_1", "5511999998888", types.MessageCategoryUtility)
	s.True(first.WindowOpened)
	s.False(second.WindowOpened)
	s.True(second.MetaCost.IsZero())

	// a different category has its own window
	other := s.charge("tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.True(other.WindowOpened)

	// and so does another tenant
	s.CreatePlan("tenant_2", nil)
	s.True(s.charge("tenant_2", "5511999998888", types.MessageCategoryUtility).WindowOpened)

	plan := s.plan("tenant_1")
	s.Equal(uint64(3), plan.CurrentMonth.Messages)
	s.Equal(uint64(1), plan.CurrentMonth.UtilityConversations)
	s.Equal(uint64(1), plan.CurrentMonth.MarketingConversations)
	s.True(decimal.RequireFromString("0.0145").Equal(plan.CurrentMonth.MetaCost), "got %s", plan.CurrentMonth.MetaCost)
}

func (s *BillingServiceSuite) TestChargeMessage_ChargedAgainAfterWindowExpires() {
	s.GetConfig().Billing.ConversationWindowTTL = 50 * time.Millisecond
	s.build()
	s.CreatePlan("tenant_1", nil)

	s.True(s.charge("tenant_1", "5511999998888", types.MessageCategoryUtility).WindowOpened)
	s.False(s.charge("tenant_1", "5511999998888", types.MessageCategoryUtility).WindowOpened)

	time.Sleep(100 * time.Millisecond)
	again := s.charge("tenant_1", "5511999998888", types.MessageCategoryUtility)
	s.True(again.WindowOpened)
	s.True(decimal.RequireFromString("0.0080").Equal(again.MetaCost))
}

func (s *BillingServiceSuite) TestChargeMessage_ConcurrentSendersChargeOnce() {
	s.CreatePlan("tenant_1", nil)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		opened int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp := s.charge("tenant_1", "5511999998888", types.MessageCategoryMarketing)
			if resp.WindowOpened {
				mu.Lock()
				opened++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, opened)
	plan := s.plan("tenant_1")
	s.Equal(uint64(20), plan.CurrentMonth.Messages)
	s.Equal(uint64(1), plan.CurrentMonth.MarketingConversations)
}

func (s *BillingServiceSuite) TestChargeMessage_ZeroOnMissingRate() {
	s.CreatePlan("tenant_1", func(p *billingplan.BillingPlan) {
		p.PlatformFeePerMessage = decimal.RequireFromString("0.001")
	})

	// no authentication rate for Brazil, and nothing at all for Kenya
	auth := s.charge("tenant_1", "5511999998888", types.MessageCategoryAuthentication)
	s.True(auth.WindowOpened)
	s.True(auth.MetaCost.IsZero())
	s.True(decimal.RequireFromString("0.001").Equal(auth.PlatformFee))

	kenya := s.charge("tenant_1", "254712345678", types.MessageCategoryMarketing)
	s.True(kenya.MetaCost.IsZero())

	s.Equal(uint64(1), s.plan("tenant_1").CurrentMonth.AuthenticationConversations)
}

func (s *BillingServiceSuite) TestChargeMessage_ServiceIsFree() {
	s.CreatePlan("tenant_1", nil)

	resp := s.charge("tenant_1", "5511999998888", types.MessageCategoryService)
	s.False(resp.WindowOpened)
	s.True(resp.MetaCost.IsZero())

	open, err := s.GetCache().Exists(s.GetContext(), windowKey("tenant_1", "5511999998888", types.MessageCategoryService))
	s.NoError(err)
	s.False(open)
	s.Equal(uint64(1), s.plan("tenant_1").CurrentMonth.Messages)
}

func (s *BillingServiceSuite) TestChargeMessage_PlatformFeeMarkup() {
	s.CreatePlan("tenant_1", func(p *billingplan.BillingPlan) {
		p.PlatformFeePerMessage = decimal.RequireFromString("0.001")
		p.MetaCostMarkupPct = decimal.RequireFromString("20")
	})

	resp := s.charge("tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.True(decimal.RequireFromString("0.0023").Equal(resp.PlatformFee), "got %s", resp.PlatformFee)

	plan := s.plan("tenant_1")
	s.True(decimal.RequireFromString("0.0023").Equal(plan.CurrentMonth.PlatformFee))
}

func (s *BillingServiceSuite) TestChargeMessage_VolumeTierFollowsMonthlyConversations() {
	s.CreatePlan("tenant_1", func(p *billingplan.BillingPlan) {
		p.CurrentMonth.MarketingConversations = 299999
	})

	resp := s.charge("tenant_1", "5511999998888", types.MessageCategoryMarketing)
	s.True(decimal.RequireFromString("0.0050").Equal(resp.MetaCost), "got %s", resp.MetaCost)
	s.Equal(uint64(300000), s.plan("tenant_1").CurrentMonth.MarketingConversations)
}

func (s *BillingServiceSuite) TestChargeMessage_CacheFailureCharges() {
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	params.Cache = brokenCache{}
	svc := s.buildWith(params)
	s.CreatePlan("tenant_1", nil)

	for i := 0; i < 2; i++ {
		resp, err := svc.ChargeMessage(s.GetContext(), dto.ChargeMessageRequest{
			TenantID:  "tenant_1",
			Recipient: "5511999998888",
			Category:  types.MessageCategoryUtility,
		})
		s.Require().NoError(err)
		s.True(resp.WindowOpened)
		s.True(decimal.RequireFromString("0.0080").Equal(resp.MetaCost))
	}
}

func (s *BillingServiceSuite) TestChargeMessage_RollsStaleCounters() {
	s.CreatePlan("tenant_1", nil)
	s.charge("tenant_1", "5511999998888", types.MessageCategoryUtility)

	s.GetClock().Set(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC))
	s.charge("tenant_1", "5511999998877", types.MessageCategoryUtility)

	plan := s.plan("tenant_1")
	s.Equal(uint64(1), plan.CurrentMonth.Messages)
	s.Equal(uint64(1), plan.CurrentDayMessages)
	s.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), plan.LastMonthlyReset)

	january, err := s.GetStores().BillingPlanRepo.GetPeriodUsage(s.GetContext(), "tenant_1",
		types.BillingPeriod{Year: 2026, Month: time.January})
	s.Require().NoError(err)
	s.Equal(uint64(1), january.Messages)
	s.Equal(uint64(1), january.UtilityConversations)
}

// flakyPlans fails the named write once and then behaves
type flakyPlans struct {
	billingplan.Repository
	failConversations bool
	failCharge        bool
}

var errWriteFailed = errors.New("write failed")

func (r *flakyPlans) IncrementConversations(ctx context.Context, tenantID string, category types.MessageCategory) (uint64, error) {
	if r.failConversations {
		r.failConversations = false
		return 0, ierr.WithError(errWriteFailed).Mark(ierr.ErrDatabase)
	}
	return r.Repository.IncrementConversations(ctx, tenantID, category)
}

func (r *flakyPlans) RecordMessageCharge(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if r.failCharge {
		r.failCharge = false
		return ierr.WithError(errWriteFailed).Mark(ierr.ErrDatabase)
	}
	return r.Repository.RecordMessageCharge(ctx, tenantID, metaCost, platformFee)
}

func (s *BillingServiceSuite) chargeWithFlakyPlans(plans *flakyPlans) {
	params := newTestServiceParams(&s.BaseServiceTestSuite)
	plans.Repository = params.BillingPlanRepo
	params.BillingPlanRepo = plans
	svc := s.buildWith(params)
	s.CreatePlan("tenant_1", nil)

	req := dto.ChargeMessageRequest{
		TenantID:  "tenant_1",
		Recipient: "5511999998888",
		Category:  types.MessageCategoryUtility,
	}
	_, err := svc.ChargeMessage(s.GetContext(), req)
	s.Require().Error(err)
	s.True(ierr.Is(err, errWriteFailed))

	resp, err := svc.ChargeMessage(s.GetContext(), req)
	s.Require().NoError(err)
	s.True(resp.WindowOpened)
	s.True(decimal.RequireFromString("0.0080").Equal(resp.MetaCost), "got %s", resp.MetaCost)

	plan := s.plan("tenant_1")
	s.Equal(uint64(1), plan.CurrentMonth.Messages)
	s.True(decimal.RequireFromString("0.0080").Equal(plan.CurrentMonth.MetaCost))

	// the window is open again after the successful retry
	resp, err = svc.ChargeMessage(s.GetContext(), req)
	s.Require().NoError(err)
	s.False(resp.WindowOpened)
	s.True(resp.MetaCost.IsZero())
}

func (s *BillingServiceSuite) TestChargeMessage_FailedConversationCountReleasesWindow() {
	s.chargeWithFlakyPlans(&flakyPlans{failConversations: true})
	s.Equal(uint64(1), s.plan("tenant_1").CurrentMonth.UtilityConversations)
}

func (s *BillingServiceSuite) TestChargeMessage_FailedRecordReleasesWindow() {
	s.chargeWithFlakyPlans(&flakyPlans{failCharge: true})
}
