package billingplan

import (
	"testing"
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingPlanSuite struct {
	suite.Suite
	now  time.Time
	plan *BillingPlan
}

func TestBillingPlan(t *testing.T) {
	suite.Run(t, new(BillingPlanSuite))
}

func (s *BillingPlanSuite) SetupTest() {
	s.now = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	s.plan = New("tenant_1", s.now)
	s.plan.Currency = "USD"
	s.plan.MonthlyMessageLimit = 100
}

func (s *BillingPlanSuite) TestNewSetsResetMarkers() {
	s.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), s.plan.LastDailyReset)
	s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), s.plan.LastMonthlyReset)
	s.NotEmpty(s.plan.ID)
	s.NoError(s.plan.Validate())
}

func (s *BillingPlanSuite) TestCanSendMessages() {
	tests := []struct {
		name       string
		month      uint64
		day        uint64
		dailyLimit *uint64
		n          uint64
		want       bool
	}{
		{name: "at monthly limit", month: 100, n: 1, want: false},
		{name: "one below monthly limit", month: 99, n: 1, want: true},
		{name: "batch crossing monthly limit", month: 95, n: 6, want: false},
		{name: "daily limit reached", month: 10, day: 5, dailyLimit: lo.ToPtr(uint64(5)), n: 1, want: false},
		{name: "under daily limit", month: 10, day: 4, dailyLimit: lo.ToPtr(uint64(5)), n: 1, want: true},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.plan.CurrentMonth.Messages = tt.month
			s.plan.CurrentDayMessages = tt.day
			s.plan.DailyMessageLimit = tt.dailyLimit
			s.Equal(tt.want, s.plan.CanSendMessages(tt.n))
		})
	}
}

func (s *BillingPlanSuite) TestOverageAllowsPastLimit() {
	s.plan.ActiveTemplateLimit = 2
	s.True(s.plan.CanCreateTemplate(1))
	s.False(s.plan.CanCreateTemplate(2))
	s.plan.PricePerExceededTemplate = decimal.RequireFromString("0.5")
	s.True(s.plan.CanCreateTemplate(10))

	s.plan.ActiveFlowLimit = 1
	s.False(s.plan.CanCreateFlow(1))
	s.plan.PricePerExceededFlow = decimal.RequireFromString("1")
	s.True(s.plan.CanCreateFlow(1))

	s.plan.MonthlyCampaignLimit = 3
	s.plan.CurrentMonth.Campaigns = 3
	s.False(s.plan.CanExecuteCampaign())
	s.plan.PricePerExceededCampaign = decimal.RequireFromString("2")
	s.True(s.plan.CanExecuteCampaign())
}

func (s *BillingPlanSuite) TestResetDaily() {
	s.plan.CurrentDayMessages = 42
	s.False(s.plan.ResetDaily(s.now.Add(time.Hour)))
	s.Equal(uint64(42), s.plan.CurrentDayMessages)

	tomorrow := s.now.Add(24 * time.Hour)
	s.True(s.plan.ResetDaily(tomorrow))
	s.Zero(s.plan.CurrentDayMessages)
	s.Equal(types.StartOfDay(tomorrow), s.plan.LastDailyReset)
	s.False(s.plan.ResetDaily(tomorrow))
}

func (s *BillingPlanSuite) TestResetMonthly() {
	s.plan.CurrentMonth = Usage{
		Messages:               50,
		Campaigns:              2,
		MetaCost:               decimal.RequireFromString("1.25"),
		PlatformFee:            decimal.RequireFromString("0.75"),
		MarketingConversations: 10,
	}

	february := time.Date(2026, 2, 1, 0, 0, 1, 0, time.UTC)
	s.True(s.plan.ResetMonthly(february))
	s.False(s.plan.ResetMonthly(february))

	s.Zero(s.plan.CurrentMonth.Messages)
	s.True(s.plan.CurrentMonth.MetaCost.IsZero())
	s.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), s.plan.LastMonthlyReset)
}

func (s *BillingPlanSuite) TestCloseMonth() {
	s.plan.CurrentMonth.Messages = 7
	s.plan.CurrentMonth.UtilityConversations = 2
	// a reset marker set mid month still closes the month it falls in
	s.plan.LastMonthlyReset = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

	closed := s.plan.CloseMonth()
	s.Equal(s.plan.TenantID, closed.TenantID)
	s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), closed.PeriodStart)
	s.Equal(types.BillingPeriod{Year: 2026, Month: time.January}, closed.Period())
	s.Equal(uint64(7), closed.Messages)
	s.Equal(uint64(2), closed.Conversations(types.MessageCategoryUtility))

	// the snapshot is a copy
	s.plan.ResetMonthly(time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC))
	s.Equal(uint64(7), closed.Messages)
	s.Zero(s.plan.CurrentMonth.Messages)
}

func (s *BillingPlanSuite) TestPlatformFee() {
	s.plan.PlatformFeePerMessage = decimal.RequireFromString("0.001")
	s.plan.MetaCostMarkupPct = decimal.RequireFromString("20")

	fee := s.plan.PlatformFee(decimal.RequireFromString("0.0065"))
	s.True(decimal.RequireFromString("0.0023").Equal(fee), "got %s", fee)

	s.True(s.plan.PlatformFeePerMessage.Equal(s.plan.PlatformFee(decimal.Zero)))
}

func (s *BillingPlanSuite) TestIsInvoiced() {
	january := types.BillingPeriodOf(s.now)
	s.False(s.plan.IsInvoiced(january))
	s.plan.LastInvoicedPeriod = lo.ToPtr("2026-01")
	s.True(s.plan.IsInvoiced(january))
	s.False(s.plan.IsInvoiced(january.Next()))
}

func (s *BillingPlanSuite) TestValidate() {
	s.plan.MonthlyFee = decimal.RequireFromString("-1")
	s.Error(s.plan.Validate())

	s.SetupTest()
	s.plan.Currency = "US"
	s.Error(s.plan.Validate())
}

func (s *BillingPlanSuite) TestUsageConversations() {
	var u Usage
	u.AddConversation(types.MessageCategoryUtility)
	u.AddConversation(types.MessageCategoryUtility)
	u.AddConversation(types.MessageCategoryService)
	s.Equal(uint64(2), u.Conversations(types.MessageCategoryUtility))
	s.Zero(u.Conversations(types.MessageCategoryMarketing))
	s.Zero(u.Conversations(types.MessageCategoryService))
}

func (s *BillingPlanSuite) TestRemainingAndExceeded() {
	s.Equal(uint64(3), Remaining(10, 7))
	s.Zero(Remaining(10, 12))
	s.Equal(uint64(2), Exceeded(12, 10))
	s.Zero(Exceeded(7, 10))
}
