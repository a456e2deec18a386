package billingplan

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for billing plan persistence. Every counter
// operation is atomic for its tenant and does not serialise other tenants.
// Operations on a tenant without a plan return ErrConfigurationMissing.
type Repository interface {
	// Create stores a new plan, one per tenant
	Create(ctx context.Context, plan *BillingPlan) error

	// Get returns the plan of a tenant
	Get(ctx context.Context, tenantID string) (*BillingPlan, error)

	// UpdateTerms overwrites the limits and prices, leaving counters untouched
	UpdateTerms(ctx context.Context, plan *BillingPlan) error

	// ListTenantIDs returns every tenant with a plan
	ListTenantIDs(ctx context.Context) ([]string, error)

	// ResetDailyIfStale zeroes the daily counter when last_daily_reset is before
	// dayStart. Exactly one concurrent caller gets true.
	ResetDailyIfStale(ctx context.Context, tenantID string, dayStart time.Time) (bool, error)

	// ResetMonthlyIfStale stores the monthly counters as the PeriodUsage of the
	// month they belong to and zeroes them, when last_monthly_reset is before
	// monthStart. Both happen in one step. Exactly one concurrent caller gets true.
	ResetMonthlyIfStale(ctx context.Context, tenantID string, monthStart time.Time) (bool, error)

	// GetPeriodUsage returns the snapshot of a closed month. A month without a
	// snapshot had no rollover and therefore no usage, so it comes back zero.
	GetPeriodUsage(ctx context.Context, tenantID string, period types.BillingPeriod) (*PeriodUsage, error)

	// IncrementMessages adds n to the daily and monthly message counters
	IncrementMessages(ctx context.Context, tenantID string, n uint64) error

	// IncrementCampaigns adds n to the monthly campaign counter
	IncrementCampaigns(ctx context.Context, tenantID string, n uint64) error

	// IncrementConversations adds one to the monthly counter of category and
	// returns the new count, which is the conversation's position in the month.
	// Non-chargeable categories are not counted and return 0.
	IncrementConversations(ctx context.Context, tenantID string, category types.MessageCategory) (uint64, error)

	// RecordMessageCharge counts one sent message and adds its costs in a single
	// update, so a message is never counted without its cost
	RecordMessageCharge(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error

	// AddCosts adds to the monthly Meta cost and platform fee accumulators
	AddCosts(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error

	// MarkInvoiced records period as the last invoiced one and zeroes the daily counter
	MarkInvoiced(ctx context.Context, tenantID string, period types.BillingPeriod) error
}

// ResourceRepository stores the active template and flow counts reported for a tenant
type ResourceRepository interface {
	GetResources(ctx context.Context, tenantID string) (*Resources, error)
	SetResources(ctx context.Context, tenantID string, resources *Resources) error
}
