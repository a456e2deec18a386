package types

import (
	"strings"

	ierr "github.com/convowin/convowin/internal/errors"
	"github.com/samber/lo"
)

// MessageCategory is the pricing category WhatsApp assigns to a conversation
type MessageCategory string

const (
	MessageCategoryMarketing      MessageCategory = "MARKETING"
	MessageCategoryUtility        MessageCategory = "UTILITY"
	MessageCategoryAuthentication MessageCategory = "AUTHENTICATION"

	// MessageCategoryService covers user-initiated service conversations, which are not charged
	MessageCategoryService MessageCategory = "SERVICE"
)

// ChargeableCategories are the categories rate cards are keyed on
var ChargeableCategories = []MessageCategory{
	MessageCategoryMarketing,
	MessageCategoryUtility,
	MessageCategoryAuthentication,
}

func (c MessageCategory) String() string {
	return string(c)
}

// IsChargeable reports whether messages of this category open a billable window
func (c MessageCategory) IsChargeable() bool {
	return lo.Contains(ChargeableCategories, c)
}

// Validate only accepts the chargeable categories, which are the ones rate cards may carry
func (c MessageCategory) Validate() error {
	if !c.IsChargeable() {
		return ierr.NewError("invalid message category").
			WithHint("Please provide a valid message category").
			WithReportableDetails(map[string]any{
				"allowed": ChargeableCategories,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// ParseMessageCategory normalises case and surrounding whitespace
func ParseMessageCategory(s string) MessageCategory {
	return MessageCategory(strings.ToUpper(strings.TrimSpace(s)))
}
