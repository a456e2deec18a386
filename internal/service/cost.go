package service

import (
	"context"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/ratecard"
	"github.com/convowin/convowin/internal/region"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// MessageEvent is a message about to be sent on behalf of a tenant
type MessageEvent struct {
	TenantID  string
	Recipient string
	Category  types.MessageCategory
}

// MetaCostResult is what Meta will bill for the message
type MetaCostResult struct {
	Amount       decimal.Decimal
	Region       region.Region
	WindowOpened bool
	// Rate is the tier that priced the conversation, nil when nothing was charged
	Rate *ratecard.Entry
}

// CostService prices individual messages
type CostService interface {
	// ComputeMetaCost charges a conversation only for the message that opens its window
	ComputeMetaCost(ctx context.Context, event MessageEvent) (*MetaCostResult, error)

	// ComputePlatformFee is the fixed per message fee plus the markup on metaCost
	ComputePlatformFee(metaCost decimal.Decimal, plan *billingplan.BillingPlan) decimal.Decimal

	// ReleaseWindow undoes the window a failed charge opened. Failures are logged.
	ReleaseWindow(ctx context.Context, event MessageEvent)
}

type costService struct {
	ServiceParams
	window   WindowService
	rateCard RateCardService
}

func NewCostService(params ServiceParams, window WindowService, rateCard RateCardService) CostService {
	return &costService{
		ServiceParams: params,
		window:        window,
		rateCard:      rateCard,
	}
}

func (s *costService) ComputeMetaCost(ctx context.Context, event MessageEvent) (*MetaCostResult, error) {
	result := &MetaCostResult{
		Amount: decimal.Zero,
		Region: s.Region.Resolve(event.Recipient),
	}
	if !event.Category.IsChargeable() {
		return result, nil
	}

	log := s.Logger.WithContext(ctx)

	opened, err := s.window.TryOpenWindow(ctx, event.TenantID, event.Recipient, event.Category)
	if err != nil {
		// an unknown window is charged
		log.Warnw("conversation window check failed, charging the message",
			"tenant_id", event.TenantID,
			"category", event.Category,
			"error", err)
		opened = true
	}
	if !opened {
		s.Metrics.WindowHit(event.Category)
		return result, nil
	}
	result.WindowOpened = true

	// the conversation's position among the tenant's conversations this month
	// picks the tier, read back from the increment itself
	volume, err := s.BillingPlanRepo.IncrementConversations(ctx, event.TenantID, event.Category)
	if err != nil {
		s.ReleaseWindow(ctx, event)
		return nil, err
	}

	rate, err := s.rateCard.FindEffectiveRate(ctx, result.Region.Market, event.Category, volume, s.Clock.Now())
	if err != nil {
		s.Metrics.RateMiss(result.Region.Market, event.Category)
		log.Warnw("no rate for conversation, charging zero",
			"tenant_id", event.TenantID,
			"market", result.Region.Market,
			"country_code", result.Region.CountryCode,
			"category", event.Category,
			"volume", volume,
			"error", err)
	} else {
		result.Rate = rate
		result.Amount = rate.Rate
	}

	s.Metrics.ConversationCharged(result.Region.Market, event.Category)
	return result, nil
}

func (s *costService) ComputePlatformFee(metaCost decimal.Decimal, plan *billingplan.BillingPlan) decimal.Decimal {
	return plan.PlatformFee(metaCost)
}

func (s *costService) ReleaseWindow(ctx context.Context, event MessageEvent) {
	if err := s.window.CloseWindow(ctx, event.TenantID, event.Recipient, event.Category); err != nil {
		s.Logger.WithContext(ctx).Errorw("failed to close conversation window after a failed charge",
			"tenant_id", event.TenantID,
			"category", event.Category,
			"error", err)
	}
}
