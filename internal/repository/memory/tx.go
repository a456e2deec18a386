package memory

import (
	"context"
	"sync"

	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/types"
)

type txMarker struct{}

var _ postgres.IClient = (*TxClient)(nil)

// TxClient serialises transactional units for the in-memory backend. There is
// no rollback: a unit that fails half way keeps its earlier writes.
type TxClient struct {
	mu sync.Mutex
}

// NewTxClient creates a new in-memory transaction client
func NewTxClient() *TxClient {
	return &TxClient{}
}

// WithTx runs fn holding the global lock. Nested calls join the outer unit.
func (c *TxClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(types.CtxDBTransaction).(txMarker); ok {
		return fn(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(context.WithValue(ctx, types.CtxDBTransaction, txMarker{}))
}
