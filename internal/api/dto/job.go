package dto

import (
	"github.com/convowin/convowin/internal/validator"
)

// JobResponse summarises one run of a batch job over tenants
type JobResponse struct {
	Job       string        `json:"job"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Errors    []TenantError `json:"errors"`
}

// TenantError is the failure of one tenant inside a batch job
type TenantError struct {
	TenantID string `json:"tenant_id"`
	Error    string `json:"error"`
}

// GenerateInvoicesRequest selects the period to invoice, the previous month when empty
type GenerateInvoicesRequest struct {
	BillingPeriod string `json:"billing_period,omitempty" validate:"omitempty,billing_period"`
}

func (r *GenerateInvoicesRequest) Validate() error {
	return validator.ValidateRequest(r)
}
