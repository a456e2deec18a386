package invoice

import (
	"fmt"

	"github.com/convowin/convowin/internal/domain/billingplan"
	"github.com/shopspring/decimal"
)

// BuildLineItems prices a period's usage. Items always come in the same order:
// subscription fee, Meta cost passthrough, platform fee, then template, flow and
// campaign overages, each overage only when something was exceeded.
func BuildLineItems(plan *billingplan.BillingPlan, usage billingplan.Usage, resources billingplan.Resources) []*LineItem {
	items := []*LineItem{
		newLineItem("Monthly subscription fee", decimal.NewFromInt(1), plan.MonthlyFee),
		newLineItem("Meta conversation charges", decimal.NewFromInt(1), usage.MetaCost),
		newLineItem("Platform fee", decimal.NewFromInt(1), usage.PlatformFee),
	}

	overages := []struct {
		label string
		used  uint64
		limit uint64
		price decimal.Decimal
	}{
		{"templates", resources.ActiveTemplates, plan.ActiveTemplateLimit, plan.PricePerExceededTemplate},
		{"flows", resources.ActiveFlows, plan.ActiveFlowLimit, plan.PricePerExceededFlow},
		{"campaigns", usage.Campaigns, plan.MonthlyCampaignLimit, plan.PricePerExceededCampaign},
	}
	for _, o := range overages {
		exceeded := billingplan.Exceeded(o.used, o.limit)
		if exceeded == 0 {
			continue
		}
		items = append(items, newLineItem(
			fmt.Sprintf("Exceeded %s (%d over limit of %d)", o.label, exceeded, o.limit),
			decimal.NewFromInt(int64(exceeded)),
			o.price,
		))
	}

	for i, item := range items {
		item.Position = i + 1
	}
	return items
}

func newLineItem(description string, quantity, unitPrice decimal.Decimal) *LineItem {
	return &LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalAmount: unitPrice.Mul(quantity),
	}
}
