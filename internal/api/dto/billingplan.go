package dto

import (
	"strings"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/validator"
	"github.com/shopspring/decimal"
)

// UpsertBillingPlanRequest is the flat field set of a tenant's billing plan.
// Counters are never set through it.
type UpsertBillingPlanRequest struct {
	Currency                 string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	MonthlyFee               decimal.Decimal `json:"monthly_fee" swaggertype:"string"`
	MonthlyMessageLimit      uint64          `json:"monthly_message_limit"`
	DailyMessageLimit        *uint64         `json:"daily_message_limit,omitempty"`
	PlatformFeePerMessage    decimal.Decimal `json:"platform_fee_per_message" swaggertype:"string"`
	MetaCostMarkupPct        decimal.Decimal `json:"meta_cost_markup_pct" swaggertype:"string"`
	ActiveTemplateLimit      uint64          `json:"active_template_limit"`
	PricePerExceededTemplate decimal.Decimal `json:"price_per_exceeded_template" swaggertype:"string"`
	ActiveFlowLimit          uint64          `json:"active_flow_limit"`
	PricePerExceededFlow     decimal.Decimal `json:"price_per_exceeded_flow" swaggertype:"string"`
	MonthlyCampaignLimit     uint64          `json:"monthly_campaign_limit"`
	PricePerExceededCampaign decimal.Decimal `json:"price_per_exceeded_campaign" swaggertype:"string"`
}

func (r *UpsertBillingPlanRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ApplyTo copies the terms onto plan. An empty currency keeps the plan's own.
func (r *UpsertBillingPlanRequest) ApplyTo(plan *billingplan.BillingPlan) {
	if r.Currency != "" {
		plan.Currency = strings.ToUpper(r.Currency)
	}
	plan.MonthlyFee = r.MonthlyFee
	plan.MonthlyMessageLimit = r.MonthlyMessageLimit
	plan.DailyMessageLimit = r.DailyMessageLimit
	plan.PlatformFeePerMessage = r.PlatformFeePerMessage
	plan.MetaCostMarkupPct = r.MetaCostMarkupPct
	plan.ActiveTemplateLimit = r.ActiveTemplateLimit
	plan.PricePerExceededTemplate = r.PricePerExceededTemplate
	plan.ActiveFlowLimit = r.ActiveFlowLimit
	plan.PricePerExceededFlow = r.PricePerExceededFlow
	plan.MonthlyCampaignLimit = r.MonthlyCampaignLimit
	plan.PricePerExceededCampaign = r.PricePerExceededCampaign
}

type BillingPlanResponse struct {
	*billingplan.BillingPlan
}
