package service

import (
	"context"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/shopspring/decimal"
)

// BillingService turns message-send events into charges and accumulates them
type BillingService interface {
	// ChargeMessage prices one message and records it against the tenant's usage.
	// A tenant without a billing plan fails with billingplan.ErrConfigurationMissing.
	ChargeMessage(ctx context.Context, req dto.ChargeMessageRequest) (*dto.ChargeMessageResponse, error)
}

type billingService struct {
	ServiceParams
	usage UsageService
	cost  CostService
}

func NewBillingService(params ServiceParams, usage UsageService, cost CostService) BillingService {
	return &billingService{
		ServiceParams: params,
		usage:         usage,
		cost:          cost,
	}
}

func (s *billingService) ChargeMessage(ctx context.Context, req dto.ChargeMessageRequest) (*dto.ChargeMessageResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.usage.GetPlan(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}

	event := MessageEvent{
		TenantID:  req.TenantID,
		Recipient: req.Recipient,
		Category:  req.Category,
	}

	var meta *MetaCostResult
	var fee decimal.Decimal
	err = s.DB.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if meta, err = s.cost.ComputeMetaCost(ctx, event); err != nil {
			return err
		}
		fee = s.cost.ComputePlatformFee(meta.Amount, plan)
		return s.BillingPlanRepo.RecordMessageCharge(ctx, req.TenantID, meta.Amount, fee)
	})
	if err != nil {
		// nothing was recorded, so the window must not swallow the retry's charge
		if meta != nil && meta.WindowOpened {
			s.cost.ReleaseWindow(ctx, event)
		}
		return nil, err
	}

	s.Logger.WithContext(ctx).Debugw("message charged",
		"tenant_id", req.TenantID,
		"category", req.Category,
		"market", meta.Region.Market,
		"meta_cost", meta.Amount,
		"platform_fee", fee,
		"window_opened", meta.WindowOpened)

	return &dto.ChargeMessageResponse{
		TenantID:     req.TenantID,
		Recipient:    req.Recipient,
		Category:     req.Category,
		Market:       meta.Region.Market,
		CountryCode:  meta.Region.CountryCode,
		Currency:     plan.Currency,
		MetaCost:     meta.Amount,
		PlatformFee:  fee,
		WindowOpened: meta.WindowOpened,
	}, nil
}
