package dto

import (
	"time"

	"github.com/convowin/convowin/internal/domain/invoice"
	"github.com/convowin/convowin/internal/types"
	"github.com/convowin/convowin/internal/validator"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type InvoiceResponse struct {
	ID             string                 `json:"id"`
	InvoiceNumber  string                 `json:"invoice_number"`
	TenantID       string                 `json:"tenant_id"`
	BillingPeriod  string                 `json:"billing_period"`
	IdempotencyKey string                 `json:"idempotency_key"`
	IssueDate      time.Time              `json:"issue_date"`
	DueDate        time.Time              `json:"due_date"`
	Currency       string                 `json:"currency"`
	TotalAmount    decimal.Decimal        `json:"total_amount" swaggertype:"string"`
	Status         types.InvoiceStatus    `json:"status"`
	PaidAt         *time.Time             `json:"paid_at,omitempty"`
	Items          []*InvoiceItemResponse `json:"items,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

type InvoiceItemResponse struct {
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" swaggertype:"string"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string"`
	TotalAmount decimal.Decimal `json:"total_amount" swaggertype:"string"`
}

func NewInvoiceResponse(inv *invoice.Invoice) *InvoiceResponse {
	if inv == nil {
		return nil
	}
	return &InvoiceResponse{
		ID:             inv.ID,
		InvoiceNumber:  inv.InvoiceNumber,
		TenantID:       inv.TenantID,
		BillingPeriod:  inv.BillingPeriod,
		IdempotencyKey: inv.IdempotencyKey,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		Currency:       inv.Currency,
		TotalAmount:    inv.TotalAmount,
		Status:         inv.Status,
		PaidAt:         inv.PaidAt,
		Items:          NewInvoiceItemResponses(inv.Items),
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
	}
}

func NewInvoiceItemResponses(items []*invoice.LineItem) []*InvoiceItemResponse {
	return lo.Map(items, func(item *invoice.LineItem, _ int) *InvoiceItemResponse {
		return &InvoiceItemResponse{
			Position:    item.Position,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalAmount: item.TotalAmount,
		}
	})
}

// UpdateInvoiceStatusRequest moves an invoice along its lifecycle
type UpdateInvoiceStatusRequest struct {
	Status types.InvoiceStatus `json:"status" validate:"required"`
}

func (r *UpdateInvoiceStatusRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return r.Status.Validate()
}

// ListInvoicesRequest filters a tenant's invoices
type ListInvoicesRequest struct {
	BillingPeriod string                `form:"billing_period" validate:"omitempty,billing_period"`
	Statuses      []types.InvoiceStatus `form:"status"`
	Limit         int                   `form:"limit" validate:"gte=0,lte=500"`
}

func (r *ListInvoicesRequest) ToFilter(tenantID string) (*types.InvoiceFilter, error) {
	if err := validator.ValidateRequest(r); err != nil {
		return nil, err
	}
	for _, s := range r.Statuses {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return &types.InvoiceFilter{
		TenantID:      tenantID,
		BillingPeriod: r.BillingPeriod,
		Statuses:      r.Statuses,
		Limit:         r.Limit,
	}, nil
}
