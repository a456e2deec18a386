package ratecard

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/types"
)

// Repository defines the interface for rate card persistence operations
type Repository interface {
	// Get returns the entry stored under key or an ierr.ErrNotFound error
	Get(ctx context.Context, key NaturalKey) (*Entry, error)

	// Upsert inserts the entry or overwrites the one with the same natural key
	Upsert(ctx context.Context, entry *Entry) error

	// ListEffective returns the tiers of the most recent schedule effective on
	// or before asOf for a market and category, ordered by tier start
	ListEffective(ctx context.Context, market string, category types.MessageCategory, asOf time.Time) ([]*Entry, error)

	// List retrieves entries based on filter criteria
	List(ctx context.Context, filter *types.RateCardFilter) ([]*Entry, error)
}
