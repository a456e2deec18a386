package service

import (
	"sync"
	"testing"
	"time"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/testutil"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type InvoiceServiceSuite struct {
	testutil.BaseServiceTestSuite
	service InvoiceService
	january types.BillingPeriod
}

func TestInvoiceService(t *testing.T) {
	suite.Run(t, new(InvoiceServiceSuite))
}

func (s *InvoiceServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewInvoiceService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.january = types.BillingPeriod{Year: 2026, Month: time.January}
}

func (s *InvoiceServiceSuite) createBusyPlan(tenantID string) {
	s.CreatePlan(tenantID, func(p *billingplan.BillingPlan) {
		p.MonthlyFee = decimal.RequireFromString("49.90")
		p.ActiveTemplateLimit = 5
		p.PricePerExceededTemplate = decimal.RequireFromString("1.50")
		p.MonthlyCampaignLimit = 10
		p.PricePerExceededCampaign = decimal.RequireFromString("0.25")
		p.CurrentMonth.Messages = 1200
		p.CurrentMonth.Campaigns = 12
		p.CurrentMonth.MetaCost = decimal.RequireFromString("12.3456")
		p.CurrentMonth.PlatformFee = decimal.RequireFromString("2.10")
		p.CurrentDayMessages = 30
	})
	s.Require().NoError(s.GetStores().ResourceRepo.SetResources(s.GetContext(), tenantID,
		&billingplan.Resources{ActiveTemplates: 7}))
}

func (s *InvoiceServiceSuite) TestGenerateInvoice() {
	s.createBusyPlan("tenant_1")
	s.GetClock().Set(time.Date(2026, 2, 1, 0, 5, 0, 0, time.UTC))

	inv, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)

	s.Equal("2026-01", inv.BillingPeriod)
	s.Equal(types.InvoiceStatusPending, inv.Status)
	s.Contains(inv.InvoiceNumber, "INV-202601-")
	s.LessOrEqual(len(inv.InvoiceNumber), types.SHORT_ID_INVOICE_LENGTH)
	s.Equal(s.Now().AddDate(0, 0, 15), inv.DueDate)
	s.Equal("USD", inv.Currency)

	s.Require().Len(inv.Items, 5)
	s.Equal("Monthly subscription fee", inv.Items[0].Description)
	s.Contains(inv.Items[3].Description, "templates")
	s.Contains(inv.Items[4].Description, "campaigns")

	// 49.90 + 12.3456 + 2.10 + 2 * 1.50 + 2 * 0.25
	s.True(decimal.RequireFromString("67.8456").Equal(inv.TotalAmount), "got %s", inv.TotalAmount)
	sum := decimal.Zero
	for _, item := range inv.Items {
		sum = sum.Add(item.TotalAmount)
	}
	s.True(sum.Equal(inv.TotalAmount))

	plan, err := s.GetStores().BillingPlanRepo.Get(s.GetContext(), "tenant_1")
	s.Require().NoError(err)
	s.True(plan.IsInvoiced(s.january))
	s.Zero(plan.CurrentDayMessages)
	s.Zero(plan.CurrentMonth.Messages)

	closed, err := s.GetStores().BillingPlanRepo.GetPeriodUsage(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)
	s.Equal(uint64(1200), closed.Messages)
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceForMonthClosedTwoRolloversAgo() {
	s.CreatePlan("tenant_1", nil)
	s.CreateRate("Brazil", types.MessageCategoryUtility, 0, nil, "0.0080", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))

	params := newTestServiceParams(&s.BaseServiceTestSuite)
	billing := NewBillingService(params, NewUsageService(params),
		NewCostService(params, NewWindowService(params), NewRateCardService(params)))
	charge := func(recipient string) {
		_, err := billing.ChargeMessage(s.GetContext(), dto.ChargeMessageRequest{
			TenantID:  "tenant_1",
			Recipient: recipient,
			Category:  types.MessageCategoryUtility,
		})
		s.Require().NoError(err)
	}

	// January is never invoiced before March starts counting
	charge("5511999990001")
	s.GetClock().Set(time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC))
	charge("5511999990002")
	s.GetClock().Set(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	charge("5511999990003")

	inv, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)
	s.Equal("Meta conversation charges", inv.Items[1].Description)
	s.True(decimal.RequireFromString("0.0080").Equal(inv.Items[1].TotalAmount), "got %s", inv.Items[1].TotalAmount)

	feb, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january.Next())
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("0.0080").Equal(feb.Items[1].TotalAmount), "got %s", feb.Items[1].TotalAmount)
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceTwice() {
	s.createBusyPlan("tenant_1")
	s.GetClock().Set(time.Date(2026, 2, 1, 0, 5, 0, 0, time.UTC))

	first, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)

	_, err = s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.True(ierr.Is(err, invoice.ErrDuplicateInvoice))
	s.True(ierr.IsAlreadyExists(err))

	list, err := s.service.ListInvoices(s.GetContext(), &types.InvoiceFilter{TenantID: "tenant_1"})
	s.Require().NoError(err)
	s.Require().Len(list.Items, 1)
	s.Equal(first.ID, list.Items[0].ID)
}

func (s *InvoiceServiceSuite) TestConcurrentGenerationYieldsOneInvoice() {
	s.createBusyPlan("tenant_1")
	s.GetClock().Set(time.Date(2026, 2, 1, 0, 5, 0, 0, time.UTC))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		created   int
		duplicate int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
			} else if ierr.Is(err, invoice.ErrDuplicateInvoice) {
				duplicate++
			}
		}()
	}
	wg.Wait()

	s.Equal(1, created)
	s.Equal(9, duplicate)
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceAfterCountersRolled() {
	s.createBusyPlan("tenant_1")

	// a February message rolls January into the snapshot before the job runs
	s.GetClock().Set(time.Date(2026, 2, 1, 0, 1, 0, 0, time.UTC))
	usage := NewUsageService(newTestServiceParams(&s.BaseServiceTestSuite))
	s.Require().NoError(usage.RecordMessages(s.GetContext(), "tenant_1", 3))

	s.GetClock().Set(time.Date(2026, 2, 1, 1, 0, 0, 0, time.UTC))
	inv, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("67.8456").Equal(inv.TotalAmount), "got %s", inv.TotalAmount)

	plan, err := s.GetStores().BillingPlanRepo.Get(s.GetContext(), "tenant_1")
	s.Require().NoError(err)
	s.Equal(uint64(3), plan.CurrentMonth.Messages)
}

func (s *InvoiceServiceSuite) TestGenerateInvoicePeriodNotEnded() {
	s.createBusyPlan("tenant_1")

	_, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.True(ierr.Is(err, invoice.ErrPeriodNotEnded))
}

func (s *InvoiceServiceSuite) TestGenerateInvoiceNothingToInvoice() {
	s.GetClock().Set(time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC))
	s.CreatePlan("tenant_1", nil)

	_, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.True(ierr.Is(err, invoice.ErrNothingToInvoice))

	_, err = s.service.GenerateInvoice(s.GetContext(), "nobody", s.january)
	s.True(ierr.Is(err, billingplan.ErrConfigurationMissing))
}

func (s *InvoiceServiceSuite) TestUpdateInvoiceStatus() {
	s.createBusyPlan("tenant_1")
	s.GetClock().Set(time.Date(2026, 2, 1, 0, 5, 0, 0, time.UTC))
	inv, err := s.service.GenerateInvoice(s.GetContext(), "tenant_1", s.january)
	s.Require().NoError(err)

	paid, err := s.service.UpdateInvoiceStatus(s.GetContext(), inv.ID, dto.UpdateInvoiceStatusRequest{Status: types.InvoiceStatusPaid})
	s.Require().NoError(err)
	s.Equal(types.InvoiceStatusPaid, paid.Status)
	s.Require().NotNil(paid.PaidAt)

	_, err = s.service.UpdateInvoiceStatus(s.GetContext(), inv.ID, dto.UpdateInvoiceStatusRequest{Status: types.InvoiceStatusCanceled})
	s.True(ierr.Is(err, invoice.ErrInvalidStatusTransition))

	_, err = s.service.UpdateInvoiceStatus(s.GetContext(), inv.ID, dto.UpdateInvoiceStatusRequest{Status: "SETTLED"})
	s.True(ierr.IsValidation(err))

	_, err = s.service.GetInvoice(s.GetContext(), "inv_missing")
	s.True(ierr.IsNotFound(err))
}
