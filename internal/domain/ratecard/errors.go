package ratecard

import (
	ierr "github.com/convowin/convowin/internal/errors"
)

// ErrRateNotFound means no entry covers the market, category and volume asked for.
// Pricing treats it as a zero cost.
var ErrRateNotFound = ierr.NewError("rate not found").
	WithHint("No rate card entry is effective for this market and category").
	Mark(ierr.ErrNotFound)
