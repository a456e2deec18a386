package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/convowin/convowin/internal/domain/ratecard"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/types"
)

const rateCardColumns = `id, market_or_region, country_code, currency, category,
		volume_tier_start, volume_tier_end, rate, effective_date,
		created_at, updated_at, created_by, updated_by`

type rateCardRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewRateCardRepository creates a new instance of rate card repository
func NewRateCardRepository(db *postgres.DB, logger *logger.Logger) ratecard.Repository {
	return &rateCardRepository{
		db:     db,
		logger: logger,
	}
}

func (r *rateCardRepository) Get(ctx context.Context, key ratecard.NaturalKey) (*ratecard.Entry, error) {
	query := `SELECT ` + rateCardColumns + `
		FROM rate_card_entries
		WHERE market_or_region = $1
		AND category = $2
		AND effective_date = $3
		AND volume_tier_start = $4`

	var e ratecard.Entry
	err := r.db.GetQuerier(ctx).GetContext(ctx, &e, query,
		key.MarketOrRegion, key.Category, key.EffectiveDate, key.VolumeTierStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.WithError(err).
			WithHintf("Rate card entry for %s %s not found", key.MarketOrRegion, key.Category).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get rate card entry").
			Mark(ierr.ErrDatabase)
	}
	return &e, nil
}

func (r *rateCardRepository) Upsert(ctx context.Context, e *ratecard.Entry) error {
	query := `
		INSERT INTO rate_card_entries (` + rateCardColumns + `)
		VALUES (
			:id, :market_or_region, :country_code, :currency, :category,
			:volume_tier_start, :volume_tier_end, :rate, :effective_date,
			:created_at, :updated_at, :created_by, :updated_by
		)
		ON CONFLICT ON CONSTRAINT rate_card_entries_natural_key DO UPDATE SET
			country_code = EXCLUDED.country_code,
			currency = EXCLUDED.currency,
			volume_tier_end = EXCLUDED.volume_tier_end,
			rate = EXCLUDED.rate,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by`

	r.logger.Debugw("upserting rate card entry",
		"market", e.MarketOrRegion,
		"category", e.Category,
		"effective_date", e.EffectiveDate.Format(types.DateLayout),
		"volume_tier_start", e.VolumeTierStart,
	)

	if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, e); err != nil {
		return ierr.WithError(err).
			WithMessage("failed to upsert rate card entry").
			Mark(ierr.ErrDatabase)
	}
	return nil
}

func (r *rateCardRepository) ListEffective(ctx context.Context, market string, category types.MessageCategory, asOf time.Time) ([]*ratecard.Entry, error) {
	query := `SELECT ` + rateCardColumns + `
		FROM rate_card_entries
		WHERE market_or_region = $1
		AND category = $2
		AND effective_date = (
			SELECT MAX(effective_date) FROM rate_card_entries
			WHERE market_or_region = $1
			AND category = $2
			AND effective_date <= $3
		)
		ORDER BY volume_tier_start`

	var entries []*ratecard.Entry
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query, market, category, asOf); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to list effective rate card entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}

func (r *rateCardRepository) List(ctx context.Context, filter *types.RateCardFilter) ([]*ratecard.Entry, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter != nil {
		if filter.MarketOrRegion != "" {
			args = append(args, filter.MarketOrRegion)
			conditions = append(conditions, fmt.Sprintf("market_or_region = $%d", len(args)))
		}
		if filter.Category != "" {
			args = append(args, filter.Category)
			conditions = append(conditions, fmt.Sprintf("category = $%d", len(args)))
		}
		if filter.EffectiveDate != nil {
			args = append(args, types.StartOfDay(*filter.EffectiveDate))
			conditions = append(conditions, fmt.Sprintf("effective_date = $%d", len(args)))
		}
	}

	query := `SELECT ` + rateCardColumns + ` FROM rate_card_entries`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY market_or_region, category, effective_date DESC, volume_tier_start"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var entries []*ratecard.Entry
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to list rate card entries").
			Mark(ierr.ErrDatabase)
	}
	return entries, nil
}
