package billingplan

import (
	ierr "github.com/convowin/convowin/internal/errors"
)

// ErrConfigurationMissing is returned for any usage operation on a tenant
// without a billing plan. No default plan is assumed.
var ErrConfigurationMissing = ierr.NewError("billing plan not configured").
	WithHint("The tenant has no billing plan").
	Mark(ierr.ErrNotFound)
