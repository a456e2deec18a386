package service

import (
	"context"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// UsageService owns the per-tenant usage counters and the limit checks on them.
// Every operation rolls stale daily and monthly counters first.
type UsageService interface {
	CanSendMessages(ctx context.Context, tenantID string, n uint64) (bool, error)
	CanCreateTemplate(ctx context.Context, tenantID string) (bool, error)
	CanCreateFlow(ctx context.Context, tenantID string) (bool, error)
	CanExecuteCampaign(ctx context.Context, tenantID string) (bool, error)

	RecordMessages(ctx context.Context, tenantID string, n uint64) error
	RecordCampaign(ctx context.Context, tenantID string, n uint64) error
	RecordCosts(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error
	SetResources(ctx context.Context, tenantID string, resources *billingplan.Resources) error

	// ResetDaily and ResetMonthly report whether this call performed the reset
	ResetDaily(ctx context.Context, tenantID string) (bool, error)
	ResetMonthly(ctx context.Context, tenantID string) (bool, error)

	// GetPlan returns the plan with stale counters rolled
	GetPlan(ctx context.Context, tenantID string) (*billingplan.BillingPlan, error)

	// GetUsageSummary is a read-only projection, nothing is written
	GetUsageSummary(ctx context.Context, tenantID string) (*dto.UsageSummaryResponse, error)
}

type usageService struct {
	ServiceParams
}

func NewUsageService(params ServiceParams) UsageService {
	return &usageService{ServiceParams: params}
}

func (s *usageService) GetPlan(ctx context.Context, tenantID string) (*billingplan.BillingPlan, error) {
	plan, err := s.BillingPlanRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.Clock.Now()
	if !plan.DailyResetDue(now) && !plan.MonthlyResetDue(now) {
		return plan, nil
	}

	if _, err := s.ResetDaily(ctx, tenantID); err != nil {
		return nil, err
	}
	if _, err := s.ResetMonthly(ctx, tenantID); err != nil {
		return nil, err
	}
	return s.BillingPlanRepo.Get(ctx, tenantID)
}

func (s *usageService) ResetDaily(ctx context.Context, tenantID string) (bool, error) {
	reset, err := s.BillingPlanRepo.ResetDailyIfStale(ctx, tenantID, types.StartOfDay(s.Clock.Now()))
	if err != nil {
		return false, err
	}
	if reset {
		s.Logger.WithContext(ctx).Debugw("daily usage reset", "tenant_id", tenantID)
	}
	return reset, nil
}

func (s *usageService) ResetMonthly(ctx context.Context, tenantID string) (bool, error) {
	reset, err := s.BillingPlanRepo.ResetMonthlyIfStale(ctx, tenantID, types.StartOfMonth(s.Clock.Now()))
	if err != nil {
		return false, err
	}
	if reset {
		s.Logger.WithContext(ctx).Infow("monthly usage rolled into previous period", "tenant_id", tenantID)
	}
	return reset, nil
}

func (s *usageService) CanSendMessages(ctx context.Context, tenantID string, n uint64) (bool, error) {
	plan, err := s.GetPlan(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return plan.CanSendMessages(n), nil
}

func (s *usageService) CanCreateTemplate(ctx context.Context, tenantID string) (bool, error) {
	plan, err := s.GetPlan(ctx, tenantID)
	if err != nil {
		return false, err
	}
	resources, err := s.ResourceRepo.GetResources(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return plan.CanCreateTemplate(resources.ActiveTemplates), nil
}

func (s *usageService) CanCreateFlow(ctx context.Context, tenantID string) (bool, error) {
	plan, err := s.GetPlan(ctx, tenantID)
	if err != nil {
		return false, err
	}
	resources, err := s.ResourceRepo.GetResources(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return plan.CanCreateFlow(resources.ActiveFlows), nil
}

func (s *usageService) CanExecuteCampaign(ctx context.Context, tenantID string) (bool, error) {
	plan, err := s.GetPlan(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return plan.CanExecuteCampaign(), nil
}

func (s *usageService) RecordMessages(ctx context.Context, tenantID string, n uint64) error {
	if _, err := s.GetPlan(ctx, tenantID); err != nil {
		return err
	}
	return s.BillingPlanRepo.IncrementMessages(ctx, tenantID, n)
}

func (s *usageService) RecordCampaign(ctx context.Context, tenantID string, n uint64) error {
	if _, err := s.GetPlan(ctx, tenantID); err != nil {
		return err
	}
	return s.BillingPlanRepo.IncrementCampaigns(ctx, tenantID, n)
}

func (s *usageService) RecordCosts(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if _, err := s.GetPlan(ctx, tenantID); err != nil {
		return err
	}
	return s.BillingPlanRepo.AddCosts(ctx, tenantID, metaCost, platformFee)
}

func (s *usageService) SetResources(ctx context.Context, tenantID string, resources *billingplan.Resources) error {
	if resources == nil {
		return ierr.NewError("resources are required").
			WithHint("Please provide active template and flow counts").
			Mark(ierr.ErrValidation)
	}
	// resources only make sense for a configured tenant
	if _, err := s.BillingPlanRepo.Get(ctx, tenantID); err != nil {
		return err
	}
	return s.ResourceRepo.SetResources(ctx, tenantID, resources)
}

func (s *usageService) GetUsageSummary(ctx context.Context, tenantID string) (*dto.UsageSummaryResponse, error) {
	plan, err := s.BillingPlanRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	resources, err := s.ResourceRepo.GetResources(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	// plan is our own copy, rolling it here stores nothing
	now := s.Clock.Now()
	plan.ApplyResets(now)

	usage := plan.CurrentMonth
	items := invoice.BuildLineItems(plan, usage, *resources)
	estimate := &invoice.Invoice{Items: items}

	summary := &dto.UsageSummaryResponse{
		TenantID:      tenantID,
		BillingPeriod: types.BillingPeriodOf(now).String(),
		Currency:      plan.Currency,
		Messages:      dto.NewLimitUsage(plan.MonthlyMessageLimit, usage.Messages),
		Campaigns:     dto.NewLimitUsage(plan.MonthlyCampaignLimit, usage.Campaigns),
		Templates:     dto.NewLimitUsage(plan.ActiveTemplateLimit, resources.ActiveTemplates),
		Flows:         dto.NewLimitUsage(plan.ActiveFlowLimit, resources.ActiveFlows),
		Conversations: dto.ConversationSummary{
			Marketing:      usage.MarketingConversations,
			Utility:        usage.UtilityConversations,
			Authentication: usage.AuthenticationConversations,
		},
		MetaCost:         usage.MetaCost,
		PlatformFee:      usage.PlatformFee,
		EstimatedCost:    estimate.ItemsTotal(),
		EstimatedItems:   dto.NewInvoiceItemResponses(items),
		LastDailyReset:   plan.LastDailyReset,
		LastMonthlyReset: plan.LastMonthlyReset,
	}
	if plan.DailyMessageLimit != nil {
		daily := dto.NewLimitUsage(*plan.DailyMessageLimit, plan.CurrentDayMessages)
		summary.DailyMessages = &daily
	}
	return summary, nil
}
