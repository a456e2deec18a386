package postgres

import (
	"context"
)

// IClient is the transaction boundary services use. Repositories pick the
// transaction up from the context.
type IClient interface {
	// WithTx runs fn in a transaction, joining the one in ctx if present
	WithTx(ctx context.Context, fn func(context.Context) error) error
}

var _ IClient = (*DB)(nil)
