package billingplan

import (
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// DailyResetDue reports whether the daily counter belongs to an earlier day than now
func (p *BillingPlan) DailyResetDue(now time.Time) bool {
	return p.LastDailyReset.Before(types.StartOfDay(now))
}

// MonthlyResetDue reports whether the monthly counters belong to an earlier month than now
func (p *BillingPlan) MonthlyResetDue(now time.Time) bool {
	return p.LastMonthlyReset.Before(types.StartOfMonth(now))
}

// ResetDaily zeroes the daily counter if it is stale. It mirrors what the
// stores do atomically and is used for read-only projections.
func (p *BillingPlan) ResetDaily(now time.Time) bool {
	if !p.DailyResetDue(now) {
		return false
	}
	p.CurrentDayMessages = 0
	p.LastDailyReset = types.StartOfDay(now)
	return true
}

// CloseMonth snapshots the running monthly counters as the usage of the month
// they were counted in
func (p *BillingPlan) CloseMonth() *PeriodUsage {
	return &PeriodUsage{
		TenantID:    p.TenantID,
		PeriodStart: types.StartOfMonth(p.LastMonthlyReset),
		Usage:       p.CurrentMonth,
	}
}

// ResetMonthly zeroes stale monthly counters. Stores persist CloseMonth in the
// same step; here it only serves read-only projections.
func (p *BillingPlan) ResetMonthly(now time.Time) bool {
	if !p.MonthlyResetDue(now) {
		return false
	}
	p.CurrentMonth = Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero}
	p.LastMonthlyReset = types.StartOfMonth(now)
	return true
}

// ApplyResets runs both reset checks
func (p *BillingPlan) ApplyResets(now time.Time) {
	p.ResetDaily(now)
	p.ResetMonthly(now)
}

// IsInvoiced reports whether period has already been invoiced
func (p *BillingPlan) IsInvoiced(period types.BillingPeriod) bool {
	return p.LastInvoicedPeriod != nil && *p.LastInvoicedPeriod == period.String()
}

// CanSendMessages checks n more messages against the monthly and, when set,
// the daily limit. Counters must be reset before calling.
func (p *BillingPlan) CanSendMessages(n uint64) bool {
	if p.CurrentMonth.Messages+n > p.MonthlyMessageLimit {
		return false
	}
	if p.DailyMessageLimit != nil && p.CurrentDayMessages+n > *p.DailyMessageLimit {
		return false
	}
	return true
}

// CanCreateTemplate allows one more template while under the limit, or past
// it when the overage is priced
func (p *BillingPlan) CanCreateTemplate(active uint64) bool {
	return active < p.ActiveTemplateLimit || p.PricePerExceededTemplate.IsPositive()
}

// CanCreateFlow is CanCreateTemplate for flows
func (p *BillingPlan) CanCreateFlow(active uint64) bool {
	return active < p.ActiveFlowLimit || p.PricePerExceededFlow.IsPositive()
}

// CanExecuteCampaign is CanCreateTemplate for this month's campaigns
func (p *BillingPlan) CanExecuteCampaign() bool {
	return p.CurrentMonth.Campaigns < p.MonthlyCampaignLimit || p.PricePerExceededCampaign.IsPositive()
}

// PlatformFee is the fixed per message fee plus the markup on the Meta cost
func (p *BillingPlan) PlatformFee(metaCost decimal.Decimal) decimal.Decimal {
	markup := metaCost.Mul(p.MetaCostMarkupPct).Div(decimal.NewFromInt(100))
	return p.PlatformFeePerMessage.Add(markup)
}

// Remaining is limit minus used, floored at zero
func Remaining(limit, used uint64) uint64 {
	if used >= limit {
		return 0
	}
	return limit - used
}

// Exceeded is used minus limit, floored at zero
func Exceeded(used, limit uint64) uint64 {
	if used <= limit {
		return 0
	}
	return used - limit
}
