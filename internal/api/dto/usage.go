package dto

import (
	"time"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/validator"
	"github.com/shopspring/decimal"
)

// LimitUsage is one limit with its consumption
type LimitUsage struct {
	Limit     uint64 `json:"limit"`
	Used      uint64 `json:"used"`
	Remaining uint64 `json:"remaining"`
	Exceeded  uint64 `json:"exceeded"`
}

// NewLimitUsage fills in the headroom of a limit
func NewLimitUsage(limit, used uint64) LimitUsage {
	return LimitUsage{
		Limit:     limit,
		Used:      used,
		Remaining: billingplan.Remaining(limit, used),
		Exceeded:  billingplan.Exceeded(used, limit),
	}
}

// UsageSummaryResponse is a read-only projection of a tenant's current period
type UsageSummaryResponse struct {
	TenantID      string              `json:"tenant_id"`
	BillingPeriod string              `json:"billing_period"`
	Currency      string              `json:"currency"`
	Messages      LimitUsage          `json:"messages"`
	DailyMessages *LimitUsage         `json:"daily_messages,omitempty"`
	Campaigns     LimitUsage          `json:"campaigns"`
	Templates     LimitUsage          `json:"templates"`
	Flows         LimitUsage          `json:"flows"`
	Conversations ConversationSummary `json:"conversations"`
	MetaCost      decimal.Decimal     `json:"meta_cost" swaggertype:"string"`
	PlatformFee   decimal.Decimal     `json:"platform_fee" swaggertype:"string"`

	// EstimatedCost is what the invoice would total if the period ended now
	EstimatedCost  decimal.Decimal        `json:"estimated_cost" swaggertype:"string"`
	EstimatedItems []*InvoiceItemResponse `json:"estimated_items"`

	LastDailyReset   time.Time `json:"last_daily_reset"`
	LastMonthlyReset time.Time `json:"last_monthly_reset"`
}

type ConversationSummary struct {
	Marketing      uint64 `json:"marketing"`
	Utility        uint64 `json:"utility"`
	Authentication uint64 `json:"authentication"`
}

// LimitCheckResponse answers a single limit check
type LimitCheckResponse struct {
	TenantID string `json:"tenant_id"`
	Check    string `json:"check"`
	Allowed  bool   `json:"allowed"`
}

// SetResourcesRequest reports the tenant's active templates and flows
type SetResourcesRequest struct {
	ActiveTemplates *uint64 `json:"active_templates" validate:"required"`
	ActiveFlows     *uint64 `json:"active_flows" validate:"required"`
}

func (r *SetResourcesRequest) Validate() error {
	return validator.ValidateRequest(r)
}

func (r *SetResourcesRequest) ToResources() *billingplan.Resources {
	return &billingplan.Resources{
		ActiveTemplates: *r.ActiveTemplates,
		ActiveFlows:     *r.ActiveFlows,
	}
}

// RecordCampaignRequest records executed campaigns
type RecordCampaignRequest struct {
	Count uint64 `json:"count" validate:"gte=1"`
}

func (r *RecordCampaignRequest) Validate() error {
	return validator.ValidateRequest(r)
}
