package dto

import (
	"github.com/convowin/convowin/internal/types"
	"github.com/convowin/convowin/internal/validator"
	"github.com/shopspring/decimal"
)

// ChargeMessageRequest is a message-send event
type ChargeMessageRequest struct {
	TenantID string `json:"tenant_id" validate:"required"`
	// Recipient is an E.164 number, with or without the leading +
	Recipient string                `json:"recipient" validate:"required"`
	Category  types.MessageCategory `json:"category" validate:"required"`
}

func (r *ChargeMessageRequest) Validate() error {
	r.Category = types.ParseMessageCategory(string(r.Category))
	return validator.ValidateRequest(r)
}

// ChargeMessageResponse is attached to the message log entry
type ChargeMessageResponse struct {
	TenantID     string                `json:"tenant_id"`
	Recipient    string                `json:"recipient"`
	Category     types.MessageCategory `json:"category"`
	Market       string                `json:"market"`
	CountryCode  string                `json:"country_code"`
	Currency     string                `json:"currency"`
	MetaCost     decimal.Decimal       `json:"meta_cost" swaggertype:"string"`
	PlatformFee  decimal.Decimal       `json:"platform_fee" swaggertype:"string"`
	WindowOpened bool                  `json:"window_opened"`
}
