package service

import (
	"testing"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/testutil"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BillingPlanServiceSuite struct {
	testutil.BaseServiceTestSuite
	service BillingPlanService
}

func TestBillingPlanService(t *testing.T) {
	suite.Run(t, new(BillingPlanServiceSuite))
}

func (s *BillingPlanServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewBillingPlanService(newTestServiceParams(&s.BaseServiceTestSuite))
}

func (s *BillingPlanServiceSuite) TestCreateThenUpdate() {
	ctx := s.GetContext()
	req := dto.UpsertBillingPlanRequest{
		MonthlyFee:          decimal.RequireFromString("99"),
		MonthlyMessageLimit: 10000,
		DailyMessageLimit:   lo.ToPtr(uint64(500)),
	}

	created, err := s.service.UpsertBillingPlan(ctx, "tenant_1", req)
	s.Require().NoError(err)
	s.Equal("USD", created.Currency)
	s.Equal(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), created.LastDailyReset)
	s.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), created.LastMonthlyReset)

	s.Require().NoError(s.GetStores().BillingPlanRepo.IncrementMessages(ctx, "tenant_1", 7))

	req.Currency = "brl"
	req.DailyMessageLimit = nil
	updated, err := s.service.UpsertBillingPlan(ctx, "tenant_1", req)
	s.Require().NoError(err)
	s.Equal(created.ID, updated.ID)
	s.Equal("BRL", updated.Currency)
	s.Nil(updated.DailyMessageLimit)
	s.Equal(uint64(7), updated.CurrentMonth.Messages)
}

func (s *BillingPlanServiceSuite) TestValidation() {
	_, err := s.service.UpsertBillingPlan(s.GetContext(), " ", dto.UpsertBillingPlanRequest{})
	s.True(ierr.IsValidation(err))

	_, err = s.service.UpsertBillingPlan(s.GetContext(), "tenant_1", dto.UpsertBillingPlanRequest{
		MonthlyFee: decimal.RequireFromString("-1"),
	})
	s.True(ierr.IsValidation(err))
}

func (s *BillingPlanServiceSuite) TestGetMissing() {
	_, err := s.service.GetBillingPlan(s.GetContext(), "tenant_1")
	s.True(ierr.Is(err, billingplan.ErrConfigurationMissing))
}
