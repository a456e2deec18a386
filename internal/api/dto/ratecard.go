package dto

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/domain/ratecard"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/convowin/convowin/internal/validator"
	"github.com/shopspring/decimal"
)

// UpsertRateCardEntryRequest writes one tier of a rate schedule
type UpsertRateCardEntryRequest struct {
	// market_or_region is a market name such as "Brazil" or a bucket such as "Rest of Africa"
	MarketOrRegion string  `json:"market_or_region" validate:"required"`
	CountryCode    *string `json:"country_code,omitempty"`
	Currency       string  `json:"currency" validate:"required,len=3"`

	// category is one of MARKETING, UTILITY or AUTHENTICATION
	Category types.MessageCategory `json:"category" validate:"required,message_category"`

	// volume_tier_start and volume_tier_end bound the monthly conversation count the rate
	// applies to. An absent end is unbounded.
	VolumeTierStart uint64  `json:"volume_tier_start"`
	VolumeTierEnd   *uint64 `json:"volume_tier_end,omitempty"`

	Rate decimal.Decimal `json:"rate" swaggertype:"string"`

	// effective_date is formatted YYYY-MM-DD
	EffectiveDate string `json:"effective_date" validate:"required"`
}

func (r *UpsertRateCardEntryRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if _, err := types.ParseDate(r.EffectiveDate); err != nil {
		return err
	}
	return nil
}

// ToEntry converts the request into a normalised, validated entry
func (r *UpsertRateCardEntryRequest) ToEntry(ctx context.Context, now time.Time) (*ratecard.Entry, error) {
	effective, err := types.ParseDate(r.EffectiveDate)
	if err != nil {
		return nil, err
	}
	e := &ratecard.Entry{
		ID:              types.GenerateUUIDWithPrefix(types.UUID_PREFIX_RATE_CARD_ENTRY),
		MarketOrRegion:  r.MarketOrRegion,
		CountryCode:     r.CountryCode,
		Currency:        r.Currency,
		Category:        r.Category,
		VolumeTierStart: r.VolumeTierStart,
		VolumeTierEnd:   r.VolumeTierEnd,
		Rate:            r.Rate,
		EffectiveDate:   effective,
		BaseModel:       types.GetDefaultBaseModel(ctx, now),
	}
	e.Normalize()
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

type RateCardEntryResponse struct {
	*ratecard.Entry
}

// EffectiveRateRequest asks which rate applies to a conversation
type EffectiveRateRequest struct {
	Market   string                `form:"market" json:"market" validate:"required"`
	Category types.MessageCategory `form:"category" json:"category" validate:"required,message_category"`
	// Volume defaults to the configured default tier when omitted
	Volume *uint64 `form:"volume" json:"volume,omitempty"`
	// AsOf is a YYYY-MM-DD date, today when omitted
	AsOf string `form:"as_of" json:"as_of,omitempty"`
}

func (r *EffectiveRateRequest) Validate() error {
	r.Category = types.ParseMessageCategory(string(r.Category))
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	if r.AsOf != "" {
		if _, err := types.ParseDate(r.AsOf); err != nil {
			return err
		}
	}
	return nil
}

// RateCardUploadResponse reports what a bulk upload did. Errors are per row and
// never abort the rest of the upload.
type RateCardUploadResponse struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}

// RateCardUploadRequest carries the form fields of an upload, the file travels separately
type RateCardUploadRequest struct {
	EffectiveDate string `form:"effective_date" validate:"required"`
}

func (r *RateCardUploadRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	_, err := types.ParseDate(r.EffectiveDate)
	return err
}

// EffectiveDateValue returns the parsed effective date, call after Validate
func (r *RateCardUploadRequest) EffectiveDateValue() time.Time {
	t, err := types.ParseDate(r.EffectiveDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ListRateCardRequest filters rate card listings
type ListRateCardRequest struct {
	Market        string `form:"market"`
	Category      string `form:"category"`
	EffectiveDate string `form:"effective_date"`
	Limit         int    `form:"limit" validate:"gte=0,lte=1000"`
}

func (r *ListRateCardRequest) ToFilter() (*types.RateCardFilter, error) {
	if err := validator.ValidateRequest(r); err != nil {
		return nil, err
	}
	filter := &types.RateCardFilter{
		MarketOrRegion: r.Market,
		Limit:          r.Limit,
	}
	if r.Category != "" {
		filter.Category = types.ParseMessageCategory(r.Category)
		if err := filter.Category.Validate(); err != nil {
			return nil, err
		}
	}
	if r.EffectiveDate != "" {
		d, err := types.ParseDate(r.EffectiveDate)
		if err != nil {
			return nil, ierr.WithError(err).
				WithHint("effective_date must be formatted as YYYY-MM-DD").
				Mark(ierr.ErrValidation)
		}
		filter.EffectiveDate = &d
	}
	return filter, nil
}
