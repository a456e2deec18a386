package invoice

import (
	"testing"
	"time"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type BuilderSuite struct {
	suite.Suite
	plan *billingplan.BillingPlan
}

func TestBuilder(t *testing.T) {
	suite.Run(t, new(BuilderSuite))
}

func (s *BuilderSuite) SetupTest() {
	s.plan = billingplan.New("tenant_1", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	s.plan.MonthlyFee = decimal.RequireFromString("49.90")
	s.plan.ActiveTemplateLimit = 5
	s.plan.PricePerExceededTemplate = decimal.RequireFromString("1.50")
	s.plan.ActiveFlowLimit = 2
	s.plan.PricePerExceededFlow = decimal.RequireFromString("3")
	s.plan.MonthlyCampaignLimit = 10
	s.plan.PricePerExceededCampaign = decimal.RequireFromString("0.25")
}

func (s *BuilderSuite) TestFixedItemsOnly() {
	usage := billingplan.Usage{
		MetaCost:    decimal.RequireFromString("12.3456"),
		PlatformFee: decimal.RequireFromString("2.10"),
		Campaigns:   10,
	}
	items := BuildLineItems(s.plan, usage, billingplan.Resources{ActiveTemplates: 5, ActiveFlows: 1})

	s.Require().Len(items, 3)
	s.Equal("Monthly subscription fee", items[0].Description)
	s.Equal("Meta conversation charges", items[1].Description)
	s.Equal("Platform fee", items[2].Description)
	for i, item := range items {
		s.Equal(i+1, item.Position)
	}
	s.True(decimal.RequireFromString("12.3456").Equal(items[1].TotalAmount))
}

func (s *BuilderSuite) TestOveragesInOrder() {
	usage := billingplan.Usage{
		MetaCost:    decimal.RequireFromString("1"),
		PlatformFee: decimal.RequireFromString("0.2"),
		Campaigns:   14,
	}
	items := BuildLineItems(s.plan, usage, billingplan.Resources{ActiveTemplates: 8, ActiveFlows: 4})

	s.Require().Len(items, 6)
	s.Contains(items[3].Description, "templates")
	s.True(decimal.NewFromInt(3).Equal(items[3].Quantity))
	s.True(decimal.RequireFromString("4.5").Equal(items[3].TotalAmount))

	s.Contains(items[4].Description, "flows")
	s.True(decimal.NewFromInt(6).Equal(items[4].TotalAmount))

	s.Contains(items[5].Description, "campaigns")
	s.True(decimal.NewFromInt(1).Equal(items[5].TotalAmount))

	inv := &Invoice{Items: items}
	// 49.90 + 1 + 0.2 + 4.5 + 6 + 1
	s.True(decimal.RequireFromString("62.6").Equal(inv.ItemsTotal()), "got %s", inv.ItemsTotal())
}

func (s *BuilderSuite) TestItemTotalIsUnitPriceTimesQuantity() {
	usage := billingplan.Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero, Campaigns: 11}
	for _, item := range BuildLineItems(s.plan, usage, billingplan.Resources{ActiveTemplates: 6}) {
		s.True(item.UnitPrice.Mul(item.Quantity).Equal(item.TotalAmount))
	}
}
