package service

import (
	"context"
	"fmt"

	"github.com/convowin/convowin/internal/api/dto"
	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
)

type InvoiceService interface {
	// GenerateInvoice bills a tenant for a finished period. A second call for the
	// same tenant and period fails with invoice.ErrDuplicateInvoice.
	GenerateInvoice(ctx context.Context, tenantID string, period types.BillingPeriod) (*dto.InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListResponse[*dto.InvoiceResponse], error)
	UpdateInvoiceStatus(ctx context.Context, id string, req dto.UpdateInvoiceStatusRequest) (*dto.InvoiceResponse, error)
}

type invoiceService struct {
	ServiceParams
}

func NewInvoiceService(params ServiceParams) InvoiceService {
	return &invoiceService{ServiceParams: params}
}

func (s *invoiceService) GenerateInvoice(ctx context.Context, tenantID string, period types.BillingPeriod) (*dto.InvoiceResponse, error) {
	now := s.Clock.Now()
	if now.Before(period.End()) {
		return nil, ierr.WithError(invoice.ErrPeriodNotEnded).
			WithHintf("Billing period %s ends on %s", period, period.End().Format(types.DateLayout)).
			Mark(ierr.ErrInvalidOperation)
	}

	log := s.Logger.WithContext(ctx)
	var inv *invoice.Invoice

	err := s.DB.WithTx(ctx, func(ctx context.Context) error {
		plan, err := s.BillingPlanRepo.Get(ctx, tenantID)
		if err != nil {
			return err
		}

		// still counting the target period, close it into usage_periods
		if types.StartOfMonth(plan.LastMonthlyReset).Equal(period.Start()) {
			if _, err := s.BillingPlanRepo.ResetMonthlyIfStale(ctx, tenantID, types.StartOfMonth(now)); err != nil {
				return err
			}
		}

		key := s.Idempotency.InvoiceKey(tenantID, period.String())
		if plan.IsInvoiced(period) {
			return duplicateInvoice(tenantID, period)
		}
		if _, err := s.InvoiceRepo.GetByIdempotencyKey(ctx, key); err == nil {
			return duplicateInvoice(tenantID, period)
		} else if !ierr.IsNotFound(err) {
			return err
		}

		if !plan.CreatedAt.IsZero() && !plan.CreatedAt.Before(period.End()) {
			return ierr.WithError(invoice.ErrNothingToInvoice).
				WithHintf("Tenant %s had no billing plan during %s", tenantID, period).
				Mark(ierr.ErrInvalidOperation)
		}

		resources, err := s.ResourceRepo.GetResources(ctx, tenantID)
		if err != nil {
			return err
		}

		usage, err := s.BillingPlanRepo.GetPeriodUsage(ctx, tenantID, period)
		if err != nil {
			return err
		}

		inv = s.buildInvoice(ctx, plan, period, key, usage.Usage, *resources)
		if err := s.InvoiceRepo.Create(ctx, inv); err != nil {
			return err
		}
		return s.BillingPlanRepo.MarkInvoiced(ctx, tenantID, period)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.InvoiceGenerated()
	log.Infow("invoice generated",
		"tenant_id", tenantID,
		"billing_period", period.String(),
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"total_amount", inv.TotalAmount)
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) buildInvoice(
	ctx context.Context,
	plan *billingplan.BillingPlan,
	period types.BillingPeriod,
	key string,
	usage billingplan.Usage,
	resources billingplan.Resources,
) *invoice.Invoice {
	now := s.Clock.Now()
	inv := &invoice.Invoice{
		ID:             types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE),
		InvoiceNumber:  invoiceNumber(period),
		TenantID:       plan.TenantID,
		BillingPeriod:  period.String(),
		IdempotencyKey: key,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, s.Config.Billing.InvoiceDueDays),
		Currency:       plan.Currency,
		Status:         types.InvoiceStatusPending,
		Items:          invoice.BuildLineItems(plan, usage, resources),
		BaseModel:      types.GetDefaultBaseModel(ctx, now),
	}
	for _, item := range inv.Items {
		item.ID = types.GenerateUUIDWithPrefix(types.UUID_PREFIX_INVOICE_LINE_ITEM)
		item.InvoiceID = inv.ID
		item.CreatedAt = now
	}
	inv.TotalAmount = inv.ItemsTotal()
	return inv
}

// invoiceNumber looks like INV-202601-X4K9QZ
func invoiceNumber(period types.BillingPeriod) string {
	prefix := fmt.Sprintf("%s%04d%02d-", types.SHORT_ID_PREFIX_INVOICE, period.Year, int(period.Month))
	return types.GenerateShortIDWithPrefix(prefix, types.SHORT_ID_INVOICE_LENGTH)
}

func duplicateInvoice(tenantID string, period types.BillingPeriod) error {
	return ierr.WithError(invoice.ErrDuplicateInvoice).
		WithHintf("Tenant %s is already invoiced for %s", tenantID, period).
		Mark(ierr.ErrAlreadyExists)
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (*dto.InvoiceResponse, error) {
	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewInvoiceResponse(inv), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter *types.InvoiceFilter) (*dto.ListResponse[*dto.InvoiceResponse], error) {
	invoices, err := s.InvoiceRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewListResponse(lo.Map(invoices, func(inv *invoice.Invoice, _ int) *dto.InvoiceResponse {
		return dto.NewInvoiceResponse(inv)
	})), nil
}

func (s *invoiceService) UpdateInvoiceStatus(ctx context.Context, id string, req dto.UpdateInvoiceStatusRequest) (*dto.InvoiceResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.InvoiceRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !inv.Status.CanTransitionTo(req.Status) {
		return nil, ierr.WithError(invoice.ErrInvalidStatusTransition).
			WithHintf("Invoice %s cannot move from %s to %s", inv.InvoiceNumber, inv.Status, req.Status).
			WithReportableDetails(map[string]any{
				"from": inv.Status,
				"to":   req.Status,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	if err := s.InvoiceRepo.UpdateStatus(ctx, id, inv.Status, req.Status, s.Clock.Now()); err != nil {
		return nil, err
	}

	s.Logger.WithContext(ctx).Infow("invoice status updated",
		"invoice_id", id,
		"tenant_id", inv.TenantID,
		"from", inv.Status,
		"to", req.Status)
	return s.GetInvoice(ctx, id)
}
