package billingplan

import (
	"time"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// BillingPlan is the single pricing and limits configuration of a tenant,
// together with its running usage counters
type BillingPlan struct {
	ID                       string          `json:"id"`
	TenantID                 string          `json:"tenant_id"`
	Currency                 string          `json:"currency"`
	MonthlyFee               decimal.Decimal `json:"monthly_fee"`
	MonthlyMessageLimit      uint64          `json:"monthly_message_limit"`
	DailyMessageLimit        *uint64         `json:"daily_message_limit,omitempty"`
	PlatformFeePerMessage    decimal.Decimal `json:"platform_fee_per_message"`
	MetaCostMarkupPct        decimal.Decimal `json:"meta_cost_markup_pct"`
	ActiveTemplateLimit      uint64          `json:"active_template_limit"`
	PricePerExceededTemplate decimal.Decimal `json:"price_per_exceeded_template"`
	ActiveFlowLimit          uint64          `json:"active_flow_limit"`
	PricePerExceededFlow     decimal.Decimal `json:"price_per_exceeded_flow"`
	MonthlyCampaignLimit     uint64          `json:"monthly_campaign_limit"`
	PricePerExceededCampaign decimal.Decimal `json:"price_per_exceeded_campaign"`

	CurrentDayMessages uint64 `json:"current_day_messages"`
	CurrentMonth       Usage  `json:"current_month"`

	LastDailyReset     time.Time `json:"last_daily_reset"`
	LastMonthlyReset   time.Time `json:"last_monthly_reset"`
	LastInvoicedPeriod *string   `json:"last_invoiced_period,omitempty"`
	types.BaseModel
}

// Usage is what a tenant consumed within one billing month
type Usage struct {
	Messages                    uint64          `json:"messages"`
	Campaigns                   uint64          `json:"campaigns"`
	MetaCost                    decimal.Decimal `json:"meta_cost"`
	PlatformFee                 decimal.Decimal `json:"platform_fee"`
	MarketingConversations      uint64          `json:"marketing_conversations"`
	UtilityConversations        uint64          `json:"utility_conversations"`
	AuthenticationConversations uint64          `json:"authentication_conversations"`
}

// PeriodUsage is the frozen usage of one closed billing month. Every monthly
// rollover writes one, so a month stays billable however many rollovers pass
// before it is invoiced.
type PeriodUsage struct {
	TenantID    string    `json:"tenant_id"`
	PeriodStart time.Time `json:"period_start"`
	Usage
}

// Period is the billing month the snapshot belongs to
func (u *PeriodUsage) Period() types.BillingPeriod {
	return types.BillingPeriodOf(u.PeriodStart)
}

// Resources are the long lived objects a tenant keeps active, reported by the
// template and flow services
type Resources struct {
	ActiveTemplates uint64 `json:"active_templates"`
	ActiveFlows     uint64 `json:"active_flows"`
}

// Conversations returns the monthly conversation count of a category
func (u Usage) Conversations(category types.MessageCategory) uint64 {
	switch category {
	case types.MessageCategoryMarketing:
		return u.MarketingConversations
	case types.MessageCategoryUtility:
		return u.UtilityConversations
	case types.MessageCategoryAuthentication:
		return u.AuthenticationConversations
	default:
		return 0
	}
}

// AddConversation bumps the counter of a chargeable category
func (u *Usage) AddConversation(category types.MessageCategory) {
	switch category {
	case types.MessageCategoryMarketing:
		u.MarketingConversations++
	case types.MessageCategoryUtility:
		u.UtilityConversations++
	case types.MessageCategoryAuthentication:
		u.AuthenticationConversations++
	}
}

// New builds a plan for a tenant with its reset markers at the start of the
// current day and month
func New(tenantID string, now time.Time) *BillingPlan {
	return &BillingPlan{
		ID:               types.GenerateUUIDWithPrefix(types.UUID_PREFIX_BILLING_PLAN),
		TenantID:         tenantID,
		LastDailyReset:   types.StartOfDay(now),
		LastMonthlyReset: types.StartOfMonth(now),
		CurrentMonth:     Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero},
	}
}

func (p *BillingPlan) TableName() string {
	return "billing_plans"
}

func (p *BillingPlan) Validate() error {
	if p.TenantID == "" {
		return ierr.NewError("tenant id is required").
			WithHint("Billing plans belong to a tenant").
			Mark(ierr.ErrValidation)
	}
	if len(p.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHintf("Currency %q must be a 3 letter ISO code", p.Currency).
			Mark(ierr.ErrValidation)
	}

	amounts := map[string]decimal.Decimal{
		"monthly_fee":                 p.MonthlyFee,
		"platform_fee_per_message":    p.PlatformFeePerMessage,
		"meta_cost_markup_pct":        p.MetaCostMarkupPct,
		"price_per_exceeded_template": p.PricePerExceededTemplate,
		"price_per_exceeded_flow":     p.PricePerExceededFlow,
		"price_per_exceeded_campaign": p.PricePerExceededCampaign,
	}
	for field, amount := range amounts {
		if amount.IsNegative() {
			return ierr.NewError("amount must not be negative").
				WithHintf("%s must be zero or a positive value", field).
				WithReportableDetails(map[string]interface{}{
					field: amount,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}
