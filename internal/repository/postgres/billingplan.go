package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/convowin/convowin/internal/domain/billingplan"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

const billingPlanColumns = `id, tenant_id, currency, monthly_fee, monthly_message_limit, daily_message_limit,
		platform_fee_per_message, meta_cost_markup_pct,
		active_template_limit, price_per_exceeded_template,
		active_flow_limit, price_per_exceeded_flow,
		monthly_campaign_limit, price_per_exceeded_campaign,
		current_day_messages, current_month_messages, current_month_campaigns,
		current_month_meta_cost, current_month_platform_fee,
		current_month_marketing_conversations, current_month_utility_conversations,
		current_month_auth_conversations,
		last_daily_reset, last_monthly_reset, last_invoiced_period,
		created_at, updated_at, created_by, updated_by`

// conversationColumns maps a chargeable category to its monthly counter column
var conversationColumns = map[types.MessageCategory]string{
	types.MessageCategoryMarketing:      "current_month_marketing_conversations",
	types.MessageCategoryUtility:        "current_month_utility_conversations",
	types.MessageCategoryAuthentication: "current_month_auth_conversations",
}

// billingPlanRow is the flat column layout of billing_plans
type billingPlanRow struct {
	ID                       string          `db:"id"`
	TenantID                 string          `db:"tenant_id"`
	Currency                 string          `db:"currency"`
	MonthlyFee               decimal.Decimal `db:"monthly_fee"`
	MonthlyMessageLimit      uint64          `db:"monthly_message_limit"`
	DailyMessageLimit        *uint64         `db:"daily_message_limit"`
	PlatformFeePerMessage    decimal.Decimal `db:"platform_fee_per_message"`
	MetaCostMarkupPct        decimal.Decimal `db:"meta_cost_markup_pct"`
	ActiveTemplateLimit      uint64          `db:"active_template_limit"`
	PricePerExceededTemplate decimal.Decimal `db:"price_per_exceeded_template"`
	ActiveFlowLimit          uint64          `db:"active_flow_limit"`
	PricePerExceededFlow     decimal.Decimal `db:"price_per_exceeded_flow"`
	MonthlyCampaignLimit     uint64          `db:"monthly_campaign_limit"`
	PricePerExceededCampaign decimal.Decimal `db:"price_per_exceeded_campaign"`

	CurrentDayMessages                 uint64          `db:"current_day_messages"`
	CurrentMonthMessages               uint64          `db:"current_month_messages"`
	CurrentMonthCampaigns              uint64          `db:"current_month_campaigns"`
	CurrentMonthMetaCost               decimal.Decimal `db:"current_month_meta_cost"`
	CurrentMonthPlatformFee            decimal.Decimal `db:"current_month_platform_fee"`
	CurrentMonthMarketingConversations uint64          `db:"current_month_marketing_conversations"`
	CurrentMonthUtilityConversations   uint64          `db:"current_month_utility_conversations"`
	CurrentMonthAuthConversations      uint64          `db:"current_month_auth_conversations"`

	LastDailyReset     time.Time `db:"last_daily_reset"`
	LastMonthlyReset   time.Time `db:"last_monthly_reset"`
	LastInvoicedPeriod *string   `db:"last_invoiced_period"`
	types.BaseModel
}

func fromBillingPlan(p *billingplan.BillingPlan) *billingPlanRow {
	return &billingPlanRow{
		ID:                       p.ID,
		TenantID:                 p.TenantID,
		Currency:                 p.Currency,
		MonthlyFee:               p.MonthlyFee,
		MonthlyMessageLimit:      p.MonthlyMessageLimit,
		DailyMessageLimit:        p.DailyMessageLimit,
		PlatformFeePerMessage:    p.PlatformFeePerMessage,
		MetaCostMarkupPct:        p.MetaCostMarkupPct,
		ActiveTemplateLimit:      p.ActiveTemplateLimit,
		PricePerExceededTemplate: p.PricePerExceededTemplate,
		ActiveFlowLimit:          p.ActiveFlowLimit,
		PricePerExceededFlow:     p.PricePerExceededFlow,
		MonthlyCampaignLimit:     p.MonthlyCampaignLimit,
		PricePerExceededCampaign: p.PricePerExceededCampaign,

		CurrentDayMessages:                 p.CurrentDayMessages,
		CurrentMonthMessages:               p.CurrentMonth.Messages,
		CurrentMonthCampaigns:              p.CurrentMonth.Campaigns,
		CurrentMonthMetaCost:               p.CurrentMonth.MetaCost,
		CurrentMonthPlatformFee:            p.CurrentMonth.PlatformFee,
		CurrentMonthMarketingConversations: p.CurrentMonth.MarketingConversations,
		CurrentMonthUtilityConversations:   p.CurrentMonth.UtilityConversations,
		CurrentMonthAuthConversations:      p.CurrentMonth.AuthenticationConversations,

		LastDailyReset:     p.LastDailyReset,
		LastMonthlyReset:   p.LastMonthlyReset,
		LastInvoicedPeriod: p.LastInvoicedPeriod,
		BaseModel:          p.BaseModel,
	}
}

func (r *billingPlanRow) toBillingPlan() *billingplan.BillingPlan {
	return &billingplan.BillingPlan{
		ID:                       r.ID,
		TenantID:                 r.TenantID,
		Currency:                 r.Currency,
		MonthlyFee:               r.MonthlyFee,
		MonthlyMessageLimit:      r.MonthlyMessageLimit,
		DailyMessageLimit:        r.DailyMessageLimit,
		PlatformFeePerMessage:    r.PlatformFeePerMessage,
		MetaCostMarkupPct:        r.MetaCostMarkupPct,
		ActiveTemplateLimit:      r.ActiveTemplateLimit,
		PricePerExceededTemplate: r.PricePerExceededTemplate,
		ActiveFlowLimit:          r.ActiveFlowLimit,
		PricePerExceededFlow:     r.PricePerExceededFlow,
		MonthlyCampaignLimit:     r.MonthlyCampaignLimit,
		PricePerExceededCampaign: r.PricePerExceededCampaign,
		CurrentDayMessages:       r.CurrentDayMessages,
		CurrentMonth: billingplan.Usage{
			Messages:                    r.CurrentMonthMessages,
			Campaigns:                   r.CurrentMonthCampaigns,
			MetaCost:                    r.CurrentMonthMetaCost,
			PlatformFee:                 r.CurrentMonthPlatformFee,
			MarketingConversations:      r.CurrentMonthMarketingConversations,
			UtilityConversations:        r.CurrentMonthUtilityConversations,
			AuthenticationConversations: r.CurrentMonthAuthConversations,
		},
		LastDailyReset:     r.LastDailyReset.UTC(),
		LastMonthlyReset:   r.LastMonthlyReset.UTC(),
		LastInvoicedPeriod: r.LastInvoicedPeriod,
		BaseModel:          r.BaseModel,
	}
}

const periodUsageColumns = `tenant_id, period_start, messages, campaigns, meta_cost, platform_fee,
		marketing_conversations, utility_conversations, auth_conversations`

// periodUsageRow is one closed month in usage_periods
type periodUsageRow struct {
	TenantID               string          `db:"tenant_id"`
	PeriodStart            time.Time       `db:"period_start"`
	Messages               uint64          `db:"messages"`
	Campaigns              uint64          `db:"campaigns"`
	MetaCost               decimal.Decimal `db:"meta_cost"`
	PlatformFee            decimal.Decimal `db:"platform_fee"`
	MarketingConversations uint64          `db:"marketing_conversations"`
	UtilityConversations   uint64          `db:"utility_conversations"`
	AuthConversations      uint64          `db:"auth_conversations"`
}

func (r *periodUsageRow) toPeriodUsage() *billingplan.PeriodUsage {
	return &billingplan.PeriodUsage{
		TenantID:    r.TenantID,
		PeriodStart: r.PeriodStart.UTC(),
		Usage: billingplan.Usage{
			Messages:                    r.Messages,
			Campaigns:                   r.Campaigns,
			MetaCost:                    r.MetaCost,
			PlatformFee:                 r.PlatformFee,
			MarketingConversations:      r.MarketingConversations,
			UtilityConversations:        r.UtilityConversations,
			AuthenticationConversations: r.AuthConversations,
		},
	}
}

type billingPlanRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewBillingPlanRepository creates a new instance of billing plan repository
func NewBillingPlanRepository(db *postgres.DB, logger *logger.Logger) billingplan.Repository {
	return &billingPlanRepository{
		db:     db,
		logger: logger,
	}
}

func (r *billingPlanRepository) Create(ctx context.Context, plan *billingplan.BillingPlan) error {
	query := `
		INSERT INTO billing_plans (
			id, tenant_id, currency, monthly_fee, monthly_message_limit, daily_message_limit,
			platform_fee_per_message, meta_cost_markup_pct,
			active_template_limit, price_per_exceeded_template,
			active_flow_limit, price_per_exceeded_flow,
			monthly_campaign_limit, price_per_exceeded_campaign,
			last_daily_reset, last_monthly_reset,
			created_at, updated_at, created_by, updated_by
		) VALUES (
			:id, :tenant_id, :currency, :monthly_fee, :monthly_message_limit, :daily_message_limit,
			:platform_fee_per_message, :meta_cost_markup_pct,
			:active_template_limit, :price_per_exceeded_template,
			:active_flow_limit, :price_per_exceeded_flow,
			:monthly_campaign_limit, :price_per_exceeded_campaign,
			:last_daily_reset, :last_monthly_reset,
			:created_at, :updated_at, :created_by, :updated_by
		)`

	r.logger.Debugw("creating billing plan",
		"plan_id", plan.ID,
		"tenant_id", plan.TenantID,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, fromBillingPlan(plan)); err != nil {
		if isUniqueViolation(err) {
			return ierr.WithError(err).
				WithHintf("Tenant %s already has a billing plan", plan.TenantID).
				Mark(ierr.ErrAlreadyExists)
		}
		return ierr.WithError(err).
			WithMessage("failed to create billing plan").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *billingPlanRepository) Get(ctx context.Context, tenantID string) (*billingplan.BillingPlan, error) {
	query := `SELECT ` + billingPlanColumns + ` FROM billing_plans WHERE tenant_id = $1`

	var row billingPlanRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.WithError(billingplan.ErrConfigurationMissing).
			WithHintf("Tenant %s has no billing plan", tenantID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get billing plan").
			Mark(ierr.ErrDatabase)
	}
	return row.toBillingPlan(), nil
}

func (r *billingPlanRepository) UpdateTerms(ctx context.Context, plan *billingplan.BillingPlan) error {
	query := `
		UPDATE billing_plans SET
			currency = :currency,
			monthly_fee = :monthly_fee,
			monthly_message_limit = :monthly_message_limit,
			daily_message_limit = :daily_message_limit,
			platform_fee_per_message = :platform_fee_per_message,
			meta_cost_markup_pct = :meta_cost_markup_pct,
			active_template_limit = :active_template_limit,
			price_per_exceeded_template = :price_per_exceeded_template,
			active_flow_limit = :active_flow_limit,
			price_per_exceeded_flow = :price_per_exceeded_flow,
			monthly_campaign_limit = :monthly_campaign_limit,
			price_per_exceeded_campaign = :price_per_exceeded_campaign,
			updated_at = :updated_at,
			updated_by = :updated_by
		WHERE tenant_id = :tenant_id`

	r.logger.Debugw("updating billing plan terms", "tenant_id", plan.TenantID)

	result, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, fromBillingPlan(plan))
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to update billing plan").
			Mark(ierr.ErrDatabase)
	}
	return r.requireRow(result, plan.TenantID)
}

func (r *billingPlanRepository) ListTenantIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &ids, `SELECT tenant_id FROM billing_plans ORDER BY tenant_id`); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to list tenants").
			Mark(ierr.ErrDatabase)
	}
	return ids, nil
}

func (r *billingPlanRepository) ResetDailyIfStale(ctx context.Context, tenantID string, dayStart time.Time) (bool, error) {
	query := `
		UPDATE billing_plans SET
			current_day_messages = 0,
			last_daily_reset = $2,
			updated_at = NOW()
		WHERE tenant_id = $1 AND last_daily_reset < $2`

	return r.compareAndReset(ctx, "daily", query, tenantID, dayStart)
}

func (r *billingPlanRepository) ResetMonthlyIfStale(ctx context.Context, tenantID string, monthStart time.Time) (bool, error) {
	// The closing month is written to usage_periods in the same statement.
	// A month that already has a row is a unique violation and the whole
	// rollover is refused, so an uninvoiced month is never overwritten.
	query := `
		WITH closing AS (
			SELECT tenant_id, date_trunc('month', last_monthly_reset, 'UTC') AS period_start,
				current_month_messages, current_month_campaigns,
				current_month_meta_cost, current_month_platform_fee,
				current_month_marketing_conversations, current_month_utility_conversations,
				current_month_auth_conversations
			FROM billing_plans
			WHERE tenant_id = $1 AND last_monthly_reset < $2
			FOR UPDATE
		), rolled AS (
			UPDATE billing_plans p SET
				current_month_messages = 0,
				current_month_campaigns = 0,
				current_month_meta_cost = 0,
				current_month_platform_fee = 0,
				current_month_marketing_conversations = 0,
				current_month_utility_conversations = 0,
				current_month_auth_conversations = 0,
				last_monthly_reset = $2,
				updated_at = NOW()
			FROM closing c
			WHERE p.tenant_id = c.tenant_id
			RETURNING p.tenant_id
		)
		INSERT INTO usage_periods (` + periodUsageColumns + `)
		SELECT c.tenant_id, c.period_start,
			c.current_month_messages, c.current_month_campaigns,
			c.current_month_meta_cost, c.current_month_platform_fee,
			c.current_month_marketing_conversations, c.current_month_utility_conversations,
			c.current_month_auth_conversations
		FROM closing c JOIN rolled USING (tenant_id)`

	return r.compareAndReset(ctx, "monthly", query, tenantID, monthStart)
}

func (r *billingPlanRepository) GetPeriodUsage(ctx context.Context, tenantID string, period types.BillingPeriod) (*billingplan.PeriodUsage, error) {
	query := `SELECT ` + periodUsageColumns + ` FROM usage_periods WHERE tenant_id = $1 AND period_start = $2`

	var row periodUsageRow
	err := r.db.GetQuerier(ctx).GetContext(ctx, &row, query, tenantID, period.Start())
	if errors.Is(err, sql.ErrNoRows) {
		return &billingplan.PeriodUsage{
			TenantID:    tenantID,
			PeriodStart: period.Start(),
			Usage:       billingplan.Usage{MetaCost: decimal.Zero, PlatformFee: decimal.Zero},
		}, nil
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get period usage").
			Mark(ierr.ErrDatabase)
	}
	return row.toPeriodUsage(), nil
}

func (r *billingPlanRepository) compareAndReset(ctx context.Context, kind, query, tenantID string, boundary time.Time) (bool, error) {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, boundary)
	if isUniqueViolation(err) {
		return false, ierr.WithError(err).
			WithHintf("Usage of tenant %s for the closing month is already recorded", tenantID).
			Mark(ierr.ErrAlreadyExists)
	}
	if err != nil {
		return false, ierr.WithError(err).
			WithMessagef("failed to reset %s counters", kind).
			Mark(ierr.ErrDatabase)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, ierr.WithError(err).
			WithMessage("failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		r.logger.Debugw("reset usage counters",
			"tenant_id", tenantID,
			"kind", kind,
			"boundary", boundary,
		)
		return true, nil
	}
	// Not stale, or another caller won. Only a missing plan is an error.
	if err := r.requireExists(ctx, tenantID); err != nil {
		return false, err
	}
	return false, nil
}

func (r *billingPlanRepository) IncrementMessages(ctx context.Context, tenantID string, n uint64) error {
	query := `
		UPDATE billing_plans SET
			current_day_messages = current_day_messages + $2,
			current_month_messages = current_month_messages + $2,
			updated_at = NOW()
		WHERE tenant_id = $1`

	return r.increment(ctx, "messages", query, tenantID, n)
}

func (r *billingPlanRepository) IncrementCampaigns(ctx context.Context, tenantID string, n uint64) error {
	query := `
		UPDATE billing_plans SET
			current_month_campaigns = current_month_campaigns + $2,
			updated_at = NOW()
		WHERE tenant_id = $1`

	return r.increment(ctx, "campaigns", query, tenantID, n)
}

func (r *billingPlanRepository) IncrementConversations(ctx context.Context, tenantID string, category types.MessageCategory) (uint64, error) {
	column, ok := conversationColumns[category]
	if !ok {
		return 0, nil
	}
	query := fmt.Sprintf(`
		UPDATE billing_plans SET
			%[1]s = %[1]s + 1,
			updated_at = NOW()
		WHERE tenant_id = $1
		RETURNING %[1]s`, column)

	var position uint64
	err := r.db.GetQuerier(ctx).GetContext(ctx, &position, query, tenantID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ierr.WithError(billingplan.ErrConfigurationMissing).
			WithHintf("Tenant %s has no billing plan", tenantID).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return 0, ierr.WithError(err).
			WithMessage("failed to increment conversations").
			Mark(ierr.ErrDatabase)
	}
	return position, nil
}

func (r *billingPlanRepository) RecordMessageCharge(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if err := validateCosts(metaCost, platformFee); err != nil {
		return err
	}
	query := `
		UPDATE billing_plans SET
			current_day_messages = current_day_messages + 1,
			current_month_messages = current_month_messages + 1,
			current_month_meta_cost = current_month_meta_cost + $2,
			current_month_platform_fee = current_month_platform_fee + $3,
			updated_at = NOW()
		WHERE tenant_id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, metaCost, platformFee)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to record message charge").
			Mark(ierr.ErrDatabase)
	}
	return r.requireRow(result, tenantID)
}

func validateCosts(metaCost, platformFee decimal.Decimal) error {
	if metaCost.IsNegative() || platformFee.IsNegative() {
		return ierr.NewError("negative cost").
			WithHint("Costs added to usage must not be negative").
			Mark(ierr.ErrValidation)
	}
	return nil
}

func (r *billingPlanRepository) AddCosts(ctx context.Context, tenantID string, metaCost, platformFee decimal.Decimal) error {
	if err := validateCosts(metaCost, platformFee); err != nil {
		return err
	}
	query := `
		UPDATE billing_plans SET
			current_month_meta_cost = current_month_meta_cost + $2,
			current_month_platform_fee = current_month_platform_fee + $3,
			updated_at = NOW()
		WHERE tenant_id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, metaCost, platformFee)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to add costs").
			Mark(ierr.ErrDatabase)
	}
	return r.requireRow(result, tenantID)
}

func (r *billingPlanRepository) MarkInvoiced(ctx context.Context, tenantID string, period types.BillingPeriod) error {
	query := `
		UPDATE billing_plans SET
			last_invoiced_period = $2,
			current_day_messages = 0,
			updated_at = NOW()
		WHERE tenant_id = $1`

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, period.String())
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to mark billing plan invoiced").
			Mark(ierr.ErrDatabase)
	}
	return r.requireRow(result, tenantID)
}

func (r *billingPlanRepository) increment(ctx context.Context, counter, query, tenantID string, n uint64) error {
	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, tenantID, int64(n))
	if err != nil {
		return ierr.WithError(err).
			WithMessagef("failed to increment %s", counter).
			Mark(ierr.ErrDatabase)
	}
	return r.requireRow(result, tenantID)
}

func (r *billingPlanRepository) requireRow(result sql.Result, tenantID string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.WithError(billingplan.ErrConfigurationMissing).
			WithHintf("Tenant %s has no billing plan", tenantID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (r *billingPlanRepository) requireExists(ctx context.Context, tenantID string) error {
	var exists bool
	err := r.db.GetQuerier(ctx).GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM billing_plans WHERE tenant_id = $1)`, tenantID)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to check billing plan").
			Mark(ierr.ErrDatabase)
	}
	if !exists {
		return ierr.WithError(billingplan.ErrConfigurationMissing).
			WithHintf("Tenant %s has no billing plan", tenantID).
			Mark(ierr.ErrNotFound)
	}
	return nil
}
