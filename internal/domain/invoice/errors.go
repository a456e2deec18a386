package invoice

import (
	ierr "github.com/convowin/convowin/internal/errors"
)

var (
	// ErrDuplicateInvoice is returned when the tenant already has an invoice for the period
	ErrDuplicateInvoice = ierr.NewError("invoice already generated").
		WithHint("An invoice already exists for this tenant and billing period").
		Mark(ierr.ErrAlreadyExists)

	// ErrPeriodNotEnded is returned when invoicing a period that is still running
	ErrPeriodNotEnded = ierr.NewError("billing period has not ended").
		WithHint("Invoices can only be generated for past billing periods").
		Mark(ierr.ErrInvalidOperation)

	// ErrNothingToInvoice is returned when the plan did not exist during the period
	ErrNothingToInvoice = ierr.NewError("nothing to invoice").
		WithHint("The tenant had no billing plan during this billing period").
		Mark(ierr.ErrInvalidOperation)

	// ErrInvalidStatusTransition is returned for a status change the lifecycle forbids
	ErrInvalidStatusTransition = ierr.NewError("invalid invoice status transition").
		WithHint("The invoice cannot move to the requested status").
		Mark(ierr.ErrInvalidOperation)
)
