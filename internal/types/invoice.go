package types

import (
	"time"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/samber/lo"
)

type InvoiceStatus string

const (
	InvoiceStatusPending  InvoiceStatus = "PENDING"
	InvoiceStatusPaid     InvoiceStatus = "PAID"
	InvoiceStatusOverdue  InvoiceStatus = "OVERDUE"
	InvoiceStatusCanceled InvoiceStatus = "CANCELED"
)

// invoiceStatusTransitions lists the statuses reachable from each status.
// PAID and CANCELED are terminal.
var invoiceStatusTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusPending: {InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCanceled},
	InvoiceStatusOverdue: {InvoiceStatusPaid, InvoiceStatusCanceled},
}

func (s InvoiceStatus) String() string {
	return string(s)
}

func (s InvoiceStatus) Validate() error {
	allowed := []InvoiceStatus{
		InvoiceStatusPending,
		InvoiceStatusPaid,
		InvoiceStatusOverdue,
		InvoiceStatusCanceled,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid invoice status").
			WithHint("Please provide a valid invoice status").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether an invoice may move from s to next
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	return lo.Contains(invoiceStatusTransitions[s], next)
}

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	TenantID      string          `form:"tenant_id"`
	BillingPeriod string          `form:"billing_period"`
	Statuses      []InvoiceStatus `form:"status"`
	// DueBefore keeps invoices whose due date is strictly before it
	DueBefore *time.Time `form:"-"`
	Limit     int        `form:"limit"`
}
