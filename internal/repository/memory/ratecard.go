package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/convowin/convowin/internal/domain/ratecard"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
)

type rateCardStore struct {
	*Store[*ratecard.Entry]
}

// NewRateCardRepository creates an in-memory rate card repository
func NewRateCardRepository() ratecard.Repository {
	return &rateCardStore{Store: NewStore[*ratecard.Entry]()}
}

func naturalKeyID(k ratecard.NaturalKey) string {
	return fmt.Sprintf("%s|%s|%s|%d", k.MarketOrRegion, k.Category, k.EffectiveDate.Format(types.DateLayout), k.VolumeTierStart)
}

func copyEntry(e *ratecard.Entry) *ratecard.Entry {
	c := *e
	if e.CountryCode != nil {
		c.CountryCode = lo.ToPtr(*e.CountryCode)
	}
	if e.VolumeTierEnd != nil {
		c.VolumeTierEnd = lo.ToPtr(*e.VolumeTierEnd)
	}
	return &c
}

func (s *rateCardStore) Get(ctx context.Context, key ratecard.NaturalKey) (*ratecard.Entry, error) {
	key.EffectiveDate = types.StartOfDay(key.EffectiveDate)
	e, err := s.Store.Get(ctx, naturalKeyID(key))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Rate card entry for %s %s not found", key.MarketOrRegion, key.Category).
			Mark(ierr.ErrNotFound)
	}
	return copyEntry(e), nil
}

// Upsert keeps the original ID and creation audit fields of an overwritten entry
func (s *rateCardStore) Upsert(ctx context.Context, e *ratecard.Entry) error {
	id := naturalKeyID(e.Key())
	incoming := copyEntry(e)

	err := s.Store.Mutate(ctx, id, func(existing *ratecard.Entry) (*ratecard.Entry, error) {
		incoming.ID = existing.ID
		incoming.CreatedAt = existing.CreatedAt
		incoming.CreatedBy = existing.CreatedBy
		return incoming, nil
	})
	if ierr.IsNotFound(err) {
		// lost a create race, retry as an overwrite
		if err := s.Store.Create(ctx, id, incoming); ierr.IsAlreadyExists(err) {
			return s.Upsert(ctx, e)
		}
		return nil
	}
	return err
}

func (s *rateCardStore) ListEffective(ctx context.Context, market string, category types.MessageCategory, asOf time.Time) ([]*ratecard.Entry, error) {
	candidates := s.Store.List(ctx, func(_ context.Context, e *ratecard.Entry) bool {
		return e.MarketOrRegion == market && e.Category == category
	}, nil)

	tiers := ratecard.LatestEffective(candidates, asOf)
	return lo.Map(tiers, func(e *ratecard.Entry, _ int) *ratecard.Entry {
		return copyEntry(e)
	}), nil
}

func (s *rateCardStore) List(ctx context.Context, filter *types.RateCardFilter) ([]*ratecard.Entry, error) {
	if filter == nil {
		filter = &types.RateCardFilter{}
	}
	items := s.Store.List(ctx, func(_ context.Context, e *ratecard.Entry) bool {
		if filter.MarketOrRegion != "" && e.MarketOrRegion != filter.MarketOrRegion {
			return false
		}
		if filter.Category != "" && e.Category != filter.Category {
			return false
		}
		if filter.EffectiveDate != nil && !e.EffectiveDate.Equal(types.StartOfDay(*filter.EffectiveDate)) {
			return false
		}
		return true
	}, func(a, b *ratecard.Entry) bool {
		if a.MarketOrRegion != b.MarketOrRegion {
			return a.MarketOrRegion < b.MarketOrRegion
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if !a.EffectiveDate.Equal(b.EffectiveDate) {
			return a.EffectiveDate.After(b.EffectiveDate)
		}
		return a.VolumeTierStart < b.VolumeTierStart
	})

	if filter.Limit > 0 && len(items) > filter.Limit {
		items = items[:filter.Limit]
	}
	return lo.Map(items, func(e *ratecard.Entry, _ int) *ratecard.Entry {
		return copyEntry(e)
	}), nil
}
