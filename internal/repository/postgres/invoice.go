package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/convowin/convowin/internal/domain/invoice"
	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/convowin/convowin/internal/logger"
	"github.com/convowin/convowin/internal/postgres"
	"github.com/convowin/convowin/internal/types"
	"github.com/samber/lo"
)

const invoiceColumns = `id, invoice_number, tenant_id, billing_period, idempotency_key,
		issue_date, due_date, currency, total_amount, status, paid_at,
		created_at, updated_at, created_by, updated_by`

const lineItemColumns = `id, invoice_id, position, description, quantity, unit_price, total_amount, created_at`

type invoiceRepository struct {
	db     *postgres.DB
	logger *logger.Logger
}

// NewInvoiceRepository creates a new instance of invoice repository
func NewInvoiceRepository(db *postgres.DB, logger *logger.Logger) invoice.Repository {
	return &invoiceRepository{
		db:     db,
		logger: logger,
	}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *invoice.Invoice) error {
	r.logger.Debugw("creating invoice",
		"invoice_id", inv.ID,
		"tenant_id", inv.TenantID,
		"billing_period", inv.BillingPeriod,
		"items", len(inv.Items),
	)

	return r.db.WithTx(ctx, func(ctx context.Context) error {
		query := `INSERT INTO invoices (` + invoiceColumns + `)
			VALUES (
				:id, :invoice_number, :tenant_id, :billing_period, :idempotency_key,
				:issue_date, :due_date, :currency, :total_amount, :status, :paid_at,
				:created_at, :updated_at, :created_by, :updated_by
			)`

		if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, query, inv); err != nil {
			if isUniqueViolation(err, "invoices_idempotency_key", "invoices_tenant_period") {
				return ierr.WithError(invoice.ErrDuplicateInvoice).
					WithHintf("Tenant %s already has an invoice for %s", inv.TenantID, inv.BillingPeriod).
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).
				WithMessage("failed to create invoice").
				Mark(ierr.ErrDatabase)
		}

		itemQuery := `INSERT INTO invoice_line_items (` + lineItemColumns + `)
			VALUES (:id, :invoice_id, :position, :description, :quantity, :unit_price, :total_amount, :created_at)`

		for _, item := range inv.Items {
			if _, err := r.db.GetQuerier(ctx).NamedExecContext(ctx, itemQuery, item); err != nil {
				return ierr.WithError(err).
					WithMessagef("failed to create invoice line item %d", item.Position).
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
}

func (r *invoiceRepository) Get(ctx context.Context, id string) (*invoice.Invoice, error) {
	return r.getBy(ctx, "id", id)
}

func (r *invoiceRepository) GetByIdempotencyKey(ctx context.Context, key string) (*invoice.Invoice, error) {
	return r.getBy(ctx, "idempotency_key", key)
}

func (r *invoiceRepository) getBy(ctx context.Context, column, value string) (*invoice.Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE %s = $1`, invoiceColumns, column)

	var inv invoice.Invoice
	err := r.db.GetQuerier(ctx).GetContext(ctx, &inv, query, value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ierr.WithError(err).
			WithHintf("Invoice %s not found", value).
			Mark(ierr.ErrNotFound)
	}
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get invoice").
			Mark(ierr.ErrDatabase)
	}

	itemQuery := `SELECT ` + lineItemColumns + ` FROM invoice_line_items WHERE invoice_id = $1 ORDER BY position`
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &inv.Items, itemQuery, inv.ID); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to get invoice line items").
			Mark(ierr.ErrDatabase)
	}
	return &inv, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter *types.InvoiceFilter) ([]*invoice.Invoice, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter != nil {
		if filter.TenantID != "" {
			args = append(args, filter.TenantID)
			conditions = append(conditions, fmt.Sprintf("tenant_id = $%d", len(args)))
		}
		if filter.BillingPeriod != "" {
			args = append(args, filter.BillingPeriod)
			conditions = append(conditions, fmt.Sprintf("billing_period = $%d", len(args)))
		}
		if len(filter.Statuses) > 0 {
			placeholders := lo.Map(filter.Statuses, func(s types.InvoiceStatus, _ int) string {
				args = append(args, string(s))
				return fmt.Sprintf("$%d", len(args))
			})
			conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")
		}
		if filter.DueBefore != nil {
			args = append(args, *filter.DueBefore)
			conditions = append(conditions, fmt.Sprintf("due_date < $%d", len(args)))
		}
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY billing_period DESC, tenant_id"
	if filter != nil && filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var invoices []*invoice.Invoice
	if err := r.db.GetQuerier(ctx).SelectContext(ctx, &invoices, query, args...); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to list invoices").
			Mark(ierr.ErrDatabase)
	}
	return invoices, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id string, from, to types.InvoiceStatus, at time.Time) error {
	var paidAt *time.Time
	if to == types.InvoiceStatusPaid {
		paidAt = &at
	}

	query := `
		UPDATE invoices SET
			status = $3,
			paid_at = COALESCE($4, paid_at),
			updated_at = $5
		WHERE id = $1 AND status = $2`

	r.logger.Debugw("updating invoice status",
		"invoice_id", id,
		"from", from,
		"to", to,
	)

	result, err := r.db.GetQuerier(ctx).ExecContext(ctx, query, id, string(from), string(to), paidAt, at)
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to update invoice status").
			Mark(ierr.ErrDatabase)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return ierr.WithError(err).
			WithMessage("failed to read affected rows").
			Mark(ierr.ErrDatabase)
	}
	if affected > 0 {
		return nil
	}

	// Either the invoice is gone or its status moved under us
	if _, err := r.getBy(ctx, "id", id); err != nil {
		return err
	}
	return ierr.WithError(invoice.ErrInvalidStatusTransition).
		WithHintf("Invoice %s is no longer %s", id, from).
		Mark(ierr.ErrInvalidOperation)
}
