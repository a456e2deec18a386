package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// planSlot guards one tenant's plan so counter updates of different tenants
// never wait on each other
type planSlot struct {
	mu   sync.Mutex
	plan *billingplan.BillingPlan
}

type billingPlanStore struct {
	mu    sync.RWMutex
	slots map[string]*planSlot

	// closed months, keyed by tenant and period. Written while holding the
	// tenant's slot lock, so lock order is slot then periodsMu.
	periodsMu sync.RWMutex
	periods   map[string]billingplan.PeriodUsage
}

// NewBillingPlanRepository creates an in-memory billing plan repository
func NewBillingPlanRepository() billingplan.Repository {
	return &billingPlanStore{
		slots:   make(map[string]*planSlot),
		periods: make(map[string]billingplan.PeriodUsage),
	}
}

func periodKey(tenantID string, period types.BillingPeriod) string {
	return tenantID + "|" + period.String()
}

func copyPlan(p *billingplan.BillingPlan) *billingplan.BillingPlan {
	c := *p
	if p.DailyMessageLimit != nil {
		c.DailyMessageLimit = lo.ToPtr(*p.DailyMessageLimit)
	}
	if p.LastInvoicedPeriod != nil {
		c.LastInvoicedPeriod = lo.ToPtr(*p.LastInvoicedPeriod)
	}
	return &c
}

func (s *billingPlanStore) slot(tenantID string) (*planSlot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[tenantID]
	if !ok {
		return nil, ierr.WithError(billingplan.ErrConfigurationMissing).
			WithHintf("Tenant %s has no billing plan", tenantID).
			Mark(ierr.ErrNotFound)
	}
	return slot, nil
}

// update runs fn on the tenant's plan under its lock
func (s *billingPlanStore) update(tenantID string, fn func(p *billingplan.BillingPlan) error) error {
	slot, err := s.slot(tenantID)
	if err != nil {
		return err
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return fn(slot.plan)
}

func (s *billingPlanStore) Create(ctx context.Context, plan *billingplan.BillingPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[plan.TenantID]; exists {
		return ierr.NewError("billing plan already exists").
			WithHintf("Tenant %s already has a billing plan", plan.TenantID).
			Mark(ierr.ErrAlreadyExists)
	}
	s.slots[plan.TenantID] = &planSlot{plan: copyPlan(plan)}
	return nil
}

func (s *billingPlanStore) Get(ctx context.Context, tenantID string) (*billingplan.BillingPlan, error) {
	var plan *billingplan.BillingPlan
	err := s.update(tenantID, func(p *billingplan.BillingPlan) error {
		plan = copyPlan(p)
		return nil
	})
	return plan, err
}

func (s *billingPlanStore) UpdateTerms(ctx context.Context, plan *billingplan.BillingPlan) error {
	return s.update(plan.TenantID, func(p *billingplan.BillingPlan) error {
		p.Currency = plan.Currency
		p.MonthlyFee = plan.MonthlyFee
		p.MonthlyMessageLimit = plan.MonthlyMessageLimit
		p.DailyMessageLimit = nil
		if plan.DailyMessageLimit != nil {
			p.DailyMessageLimit = lo.ToPtr(*plan.DailyMessageLimit)
		}
		p.PlatformFeePerMessage = plan.PlatformFeePerMessage
		p.MetaCostMarkupPct = plan.MetaCostMarkupPct
		p.ActiveTemplateLimit = plan.ActiveTemplateLimit
		p.PricePerExceededTemplate = plan.PricePerExceededTemplate
		p.ActiveFlowLimit = plan.ActiveFlowLimit
		p.PricePerExceededFlow = plan.PricePerExceededFlow
		p.MonthlyCampaignLimit = plan.MonthlyCampaignLimit
		p.PricePerExceededCampaign = plan.PricePerExceededCampaign
		p.UpdatedAt = plan.UpdatedAt
		p.UpdatedBy = plan.UpdatedBy
		return nil
	})
}

func (s *billingPlanStore) ListTenantIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := lo.Keys(s.slots)
	sort.Strings(ids)
	return ids, nil
}

func (s *billingPlanStore) ResetDailyIfStale(ctx context.Context, tenantID string, dayStart time.Time) (bool, error) {
	var reset bool
	err := s.update(tenantID, func(p *billingplan.BillingPlan) error {
		if !p.LastDailyReset.Before(dayStart) {
			return nil
		}
		p.CurrentDayMessages = 0
		p.LastDailyReset = dayStart
		reset = true
		return nil
	})
	return reset, err
}

func (s *billingPlanStore) ResetMonthlyIfStale(ctx context.Context, tenantID string, monthStart time.Time) (bool, error) {
	var reset bool
	err := s.update(tenantID, func(p *billingplan.BillingPlan) error {
		if !p.LastMonthlyReset.Before(monthStart) {
			return nil
		}
		if err := s.storePeriod(p.CloseMonth()); err != nil {
			return err
		}
		p.CurrentMonth = billingplan.Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero}
		p.LastMonthlyReset = monthStart
		reset = true
		return nil
	})
	return reset, err
}

// storePeriod refuses to replace a snapshot, the counters stay untouched then
func (s *billingPlanStore) storePeriod(closed *billingplan.PeriodUsage) error {
	s.periodsMu.Lock()
	defer s.periodsMu.Unlock()

	key := periodKey(closed.TenantID, closed.Period())
	if _, exists := s.periods[key]; exists {
		return ierr.NewError("usage period already closed").
			WithHintf("Usage of tenant %s for %s is already closed", closed.TenantID, closed.Period()).
			Mark(ierr.ErrAlreadyExists)
	}
	s.periods[key] = *closed
	return nil
}

func (s *billingPlanStore) GetPeriodUsage(ctx context.Context, tenantID string, period types.BillingPeriod) (*billingplan.PeriodUsage, error) {
	s.periodsMu.RLock()
	defer s.periodsMu.RUnlock()

	if closed, ok := s.periods[periodKey(tenantID, period)]; ok {
		return &closed, nil
	}
	return &billingplan.PeriodUsage{
		TenantID:    tenantID,
		PeriodStart: period.Start(),
		Usage:       billingplan.Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero},
	}, nil
}

func (s *billingPlanStore) IncrementMessages(ctx context.Context, tenantID string, n uint64) error {
	return s.update(tenantID, func(p *billingplan.BillingPlan) error {
		p.CurrentDayMessages += n
		p.CurrentMonth.Messages += n
		return nil
	})
}

func (s *billingPlanStore) IncrementCampaigns(ctx context.Context, tenantID string, n uint64) error {
	return s.update(tenantID, func(p *billingplan.BillingPlan) error {
		p.CurrentMonth.Campaigns += n
		return nil
	})
}

func (s *billingPlanStore) IncrementConversations(ctx context.Context, tenantID string, category types.MessageCategory) (uint64, error) {
	var position uint64
	err := s.update(tenantID, func(p *billingplan.BillingPlan) error {
		if !category.IsChargeable() {
			return nil
		}
		p.CurrentMonth.AddConversation(category)
		position = p.CurrentMonth.Conversations(category)
		return nil
	})
	return position, err
}

func (s *billingPlanStore) RecordMessageCharge(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if err := validateCosts(metaCost, platformFee); err != nil {
		return err
	}
	return s.update(tenantID, func(p *billingplan.BillingPlan) error {
		p.CurrentDayMessages++
		p.CurrentMonth.Messages++
		p.CurrentMonth.MetaCost = p.CurrentMonth.MetaCost.Add(metaCost)
		p.CurrentMonth.PlatformFee = p.CurrentMonth.PlatformFee.Add(platformFee)
		return nil
	})
}

func validateCosts(metaCost, platformFee decimal.Decimal) error {
	if metaCost.IsNegative() || platformFee.IsNegative() {
		return ierr.NewError("negative cost").
			WithHint("Costs added to usage must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (s *billingPlanStore) AddCosts(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if err := validateCosts(metaCost, platformFee); err != nil {
		return err
	}
	return s.update(tenantID, func(p *billingplan.BillingPlan) error {
		p.CurrentMonth.MetaCost = p.CurrentMonth.MetaCost.Add(metaCost)
		p.CurrentMonth.PlatformFee = p.CurrentMonth.PlatformFee.Add(platformFee)
		return nil
	})
}

func (s *billingPlanStore) MarkInvoiced(ctx context.Context, tenantID string, period types.BillingPeriod) error {
	return s.update(tenantID, func(p *billingplan.BillingPlan) error {
		p.LastInvoicedPeriod = lo.ToPtr(period.String())
		p.CurrentDayMessages = 0
		return nil
	})
}
