package invoice

import (
	"context"
	"time"

	"github.com/convowin/convowin/internal/types"
)

// Repository defines the interface for invoice persistence operations
type Repository interface {
	// Create stores the invoice with its items. A second invoice with the same
	// idempotency key fails with ErrDuplicateInvoice.
	Create(ctx context.Context, inv *Invoice) error

	// Get retrieves an invoice with its items by ID
	Get(ctx context.Context, id string) (*Invoice, error)

	// GetByIdempotencyKey retrieves an invoice with its items by idempotency key
	GetByIdempotencyKey(ctx context.Context, key string) (*Invoice, error)

	// List retrieves invoices, without items, newest period first
	List(ctx context.Context, filter *types.InvoiceFilter) ([]*Invoice, error)

	// UpdateStatus moves an invoice from one status to another. It fails with
	// ErrInvalidStatusTransition if the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, at time.Time) error
}
