package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
)

type invoiceStore struct {
	mu       sync.RWMutex
	invoices map[string]*invoice.Invoice
	// byKey indexes invoice ids by idempotency key and by tenant|period
	byKey map[string]string
}

// NewInvoiceRepository creates an in-memory invoice repository
func NewInvoiceRepository() invoice.Repository {
	return &invoiceStore{
		invoices: make(map[string]*invoice.Invoice),
		byKey:    make(map[string]string),
	}
}

func copyInvoice(inv *invoice.Invoice, withItems bool) *invoice.Invoice {
	c := *inv
	if inv.PaidAt != nil {
		c.PaidAt = lo.ToPtr(*inv.PaidAt)
	}
	c.Items = nil
	if withItems {
		c.Items = lo.Map(inv.Items, func(item *invoice.LineItem, _ int) *invoice.LineItem {
			copied := *item
			return &copied
		})
	}
	return &c
}

func tenantPeriodKey(inv *invoice.Invoice) string {
	return inv.TenantID + "|" + inv.BillingPeriod
}

func (s *invoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, dupKey := s.byKey[inv.IdempotencyKey]
	_, dupPeriod := s.byKey[tenantPeriodKey(inv)]
	if dupKey || dupPeriod {
		return ierr.WithError(invoice.ErrDuplicateInvoice).
			WithHintf("Tenant %s already has an invoice for %s", inv.TenantID, inv.BillingPeriod).
			Mark(ierr.ErrAlreadyExists)
	}
	if _, exists := s.invoices[inv.ID]; exists {
		return ierr.NewError("invoice already exists").
			WithHintf("Invoice %s already exists", inv.ID).
			Mark(ierr.ErrAlreadyExists)
	}

	s.invoices[inv.ID] = copyInvoice(inv, true)
	s.byKey[inv.IdempotencyKey] = inv.ID
	s.byKey[tenantPeriodKey(inv)] = inv.ID
	return nil
}

func (s *invoiceStore) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inv, ok := s.invoices[id]
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	return copyInvoice(inv, true), nil
}

func (s *invoiceStore) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	s.mu.RLock()
	id, ok := s.byKey[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ierr.NewError("invoice not found").
			WithHintf("Invoice %s not found", key).
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, id)
}

func (s *invoiceStore) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	if filter == nil {
		filter = &types.InvoiceFilter{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := lo.FilterMap(lo.Values(s.invoices), func(inv *invoice.Invoice, _ int) (*invoice.Invoice, bool) {
		if filter.TenantID != "" && inv.TenantID != filter.TenantID {
			return nil, false
		}
		if filter.BillingPeriod != "" && inv.BillingPeriod != filter.BillingPeriod {
			return nil, false
		}
		if len(filter.Statuses) > 0 && !lo.Contains(filter.Statuses, inv.Status) {
			return nil, false
		}
		if filter.DueBefore != nil && !inv.DueDate.Before(*filter.DueBefore) {
			return nil, false
		}
		return copyInvoice(inv, false), true
	})

	sortInvoices(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (s *invoiceStore) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.invoices[id]
	if !ok {
		return ierr.NewError("invoice not found").
			WithHintf("Invoice %s not found", id).
			Mark(ierr.ErrNotFound)
	}
	if inv.Status != from {
		return ierr.WithError(invoice.ErrInvalidStatusTransition).
			WithHintf("Invoice %s is no longer %s", id, from).
			Mark(ierr.ErrInvalidOperation)
	}

	inv.Status = to
	inv.UpdatedAt = at
	if to == types.InvoiceStatusPaid {
		inv.PaidAt = lo.ToPtr(at)
	}
	return nil
}

// sortInvoices orders newest period first, then by tenant
func sortInvoices(invoices []*invoice.Invoice) {
	sort.Slice(invoices, func(i, j int) bool {
		if invoices[i].BillingPeriod != invoices[j].BillingPeriod {
			return invoices[i].BillingPeriod > invoices[j].BillingPeriod
		}
		return invoices[i].TenantID < invoices[j].TenantID
	})
}
