package invoice

import (
	"time"

	"github.com/convowin/convowin/internal/types"
	"github.com/shopspring/decimal"
)

// Invoice is the monthly bill of a tenant. There is at most one per tenant and
// billing period, enforced by IdempotencyKey being unique.
type Invoice struct {
	ID             string              `db:"id" json:"id"`
	InvoiceNumber  string              `db:"invoice_number" json:"invoice_number"`
	TenantID       string              `db:"tenant_id" json:"tenant_id"`
	BillingPeriod  string              `db:"billing_period" json:"billing_period"`
	IdempotencyKey string              `db:"idempotency_key" json:"idempotency_key"`
	IssueDate      time.Time           `db:"issue_date" json:"issue_date"`
	DueDate        time.Time           `db:"due_date" json:"due_date"`
	Currency       string              `db:"currency" json:"currency"`
	TotalAmount    decimal.Decimal     `db:"total_amount" json:"total_amount"`
	Status         types.InvoiceStatus `db:"status" json:"status"`
	PaidAt         *time.Time          `db:"paid_at" json:"paid_at,omitempty"`
	Items          []*LineItem         `db:"-" json:"items"`
	types.BaseModel
}

// LineItem is one charge on an invoice. Items never change once written.
type LineItem struct {
	ID          string          `db:"id" json:"id"`
	InvoiceID   string          `db:"invoice_id" json:"invoice_id"`
	Position    int             `db:"position" json:"position"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	UnitPrice   decimal.Decimal `db:"unit_price" json:"unit_price"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

func (i *Invoice) TableName() string {
	return "invoices"
}

func (l *LineItem) TableName() string {
	return "invoice_line_items"
}

// ItemsTotal sums the item totals
func (i *Invoice) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range i.Items {
		total = total.Add(item.TotalAmount)
	}
	return total
}
