package service

import (
	"context"
	"strings"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
)

type BillingPlanService interface {
	// UpsertBillingPlan creates the tenant's plan or updates its terms. Counters
	// are never touched by an update.
	UpsertBillingPlan(ctx context.Context, tenantID string, req dto.UpsertBillingPlanRequest) (*dto.BillingPlanResponse, error)
	GetBillingPlan(ctx context.Context, tenantID string) (*dto.BillingPlanResponse, error)
}

type billingPlanService struct {
	ServiceParams
}

func NewBillingPlanService(params ServiceParams) BillingPlanService {
	return &billingPlanService{ServiceParams: params}
}

func (s *billingPlanService) UpsertBillingPlan(ctx context.Context, tenantID string, req dto.UpsertBillingPlanRequest) (*dto.BillingPlanResponse, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return nil, ierr.NewError("tenant id is required").
			WithHint("Please provide a tenant id").
			Mark(ierr.ErrValidation)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.BillingPlanRepo.Get(ctx, tenantID)
	switch {
	case err == nil:
		return s.update(ctx, existing, req)
	case !ierr.IsNotFound(err):
		return nil, err
	}

	now := s.Clock.Now()
	plan := billingplan.New(tenantID, now)
	plan.Currency = s.Config.Billing.DefaultCurrency
	plan.BaseModel = types.GetDefaultBaseModel(ctx, now)
	req.ApplyTo(plan)
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	if err := s.BillingPlanRepo.Create(ctx, plan); err != nil {
		if !ierr.IsAlreadyExists(err) {
			return nil, err
		}
		// created concurrently, apply the terms to that plan instead
		existing, err := s.BillingPlanRepo.Get(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		return s.update(ctx, existing, req)
	}

	s.Logger.WithContext(ctx).Infow("billing plan created",
		"tenant_id", tenantID,
		"plan_id", plan.ID,
		"currency", plan.Currency)
	return s.GetBillingPlan(ctx, tenantID)
}

func (s *billingPlanService) update(ctx context.Context, plan *billingplan.BillingPlan, req dto.UpsertBillingPlanRequest) (*dto.BillingPlanResponse, error) {
	req.ApplyTo(plan)
	plan.UpdatedAt = s.Clock.Now()
	plan.UpdatedBy = types.GetActor(ctx)
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if err := s.BillingPlanRepo.UpdateTerms(ctx, plan); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("billing plan updated", "tenant_id", plan.TenantID)
	return s.GetBillingPlan(ctx, plan.TenantID)
}

func (s *billingPlanService) GetBillingPlan(ctx context.Context, tenantID string) (*dto.BillingPlanResponse, error) {
	plan, err := s.BillingPlanRepo.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &dto.BillingPlanResponse{BillingPlan: plan}, nil
}
