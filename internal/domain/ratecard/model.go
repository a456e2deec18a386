package ratecard

import (
	"strings"
	"time"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// Entry is one volume tier of the rate charged per conversation in a market
// and category, effective from EffectiveDate on
type Entry struct {
	ID              string                `db:"id" json:"id"`
	MarketOrRegion  string                `db:"market_or_region" json:"market_or_region"`
	CountryCode     *string               `db:"country_code" json:"country_code,omitempty"`
	Currency        string                `db:"currency" json:"currency"`
	Category        types.MessageCategory `db:"category" json:"category"`
	VolumeTierStart uint64                `db:"volume_tier_start" json:"volume_tier_start"`
	VolumeTierEnd   *uint64               `db:"volume_tier_end" json:"volume_tier_end,omitempty"`
	Rate            decimal.Decimal       `db:"rate" json:"rate"`
	EffectiveDate   time.Time             `db:"effective_date" json:"effective_date"`
	types.BaseModel
}

// NaturalKey identifies an entry independent of its generated ID
type NaturalKey struct {
	MarketOrRegion  string
	Category        types.MessageCategory
	EffectiveDate   time.Time
	VolumeTierStart uint64
}

func (e *Entry) TableName() string {
	return "rate_card_entries"
}

// Key returns the natural key of the entry
func (e *Entry) Key() NaturalKey {
	return NaturalKey{
		MarketOrRegion:  e.MarketOrRegion,
		Category:        e.Category,
		EffectiveDate:   types.StartOfDay(e.EffectiveDate),
		VolumeTierStart: e.VolumeTierStart,
	}
}

// Contains reports whether volume falls inside the tier. A nil end is unbounded.
func (e *Entry) Contains(volume uint64) bool {
	if volume < e.VolumeTierStart {
		return false
	}
	return e.VolumeTierEnd == nil || volume <= *e.VolumeTierEnd
}

// Normalize trims free text fields and truncates the effective date to a day
func (e *Entry) Normalize() {
	e.MarketOrRegion = strings.TrimSpace(e.MarketOrRegion)
	e.Currency = strings.ToUpper(strings.TrimSpace(e.Currency))
	e.Category = types.ParseMessageCategory(string(e.Category))
	e.EffectiveDate = types.StartOfDay(e.EffectiveDate)
	if e.CountryCode != nil {
		cc := strings.ToUpper(strings.TrimSpace(*e.CountryCode))
		if cc == "" {
			e.CountryCode = nil
		} else {
			e.CountryCode = &cc
		}
	}
}

func (e *Entry) Validate() error {
	if e.MarketOrRegion == "" {
		return ierr.NewError("market is required").
			WithHint("Rate card entries need a market or region").
			Mark(ierr.ErrValidation)
	}
	if len(e.Currency) != 3 {
		return ierr.NewError("invalid currency").
			WithHintf("Currency %q must be a 3 letter ISO code", e.Currency).
			Mark(ierr.ErrValidation)
	}
	if err := e.Category.Validate(); err != nil {
		return err
	}
	if e.Rate.IsNegative() {
		return ierr.NewError("rate must not be negative").
			WithHint("Rate must be zero or a positive value").
			WithReportableDetails(map[string]interface{}{
				"rate": e.Rate,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.VolumeTierEnd != nil && *e.VolumeTierEnd < e.VolumeTierStart {
		return ierr.NewError("volume tier end before start").
			WithHint("Volume tier end must be greater than or equal to its start").
			WithReportableDetails(map[string]interface{}{
				"volume_tier_start": e.VolumeTierStart,
				"volume_tier_end":   *e.VolumeTierEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	if e.EffectiveDate.IsZero() {
		return ierr.NewError("effective date is required").
			WithHint("Rate card entries need an effective date").
			Mark(ierr.ErrValidation)
	}
	return nil
}
