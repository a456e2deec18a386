package types

import (
	"time"
)

// RateCardFilter narrows rate card listings
type RateCardFilter struct {
	MarketOrRegion string          `form:"market"`
	Category       MessageCategory `form:"category"`
	// EffectiveDate restricts to entries effective on exactly this date
	EffectiveDate *time.Time `form:"-"`
	Limit         int        `form:"limit"`
}
