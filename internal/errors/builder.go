package errors

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// DetailsPrefix tags the safe detail that carries WithReportableDetails as JSON.
// The error middleware looks for it when rendering a response.
const DetailsPrefix = "__json__:"

// ErrorBuilder chains context onto an error before it is classified.
// It is not an error itself: end every chain with Mark, or with Error
// when the cause is already classified.
//
//	ierr.WithError(err).
//		WithHintf("Tenant %s has no billing plan", tenantID).
//		Mark(ierr.ErrNotFound)
type ErrorBuilder struct {
	err error
}

func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError wraps an error from a lower layer. A nil err stays nil through
// the chain until Mark.
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage prefixes the log text. Callers never see it.
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

func (b *ErrorBuilder) WithMessagef(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithMessagef(b.err, format, args...)
	return b
}

// WithHint sets the text rendered as error.message in API responses,
// so it must not carry SQL or cache keys.
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches fields such as the offending country code or
// tier bounds. They end up in error.details. Values that do not marshal are dropped.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	payload, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, DetailsPrefix+"%s", errors.Safe(string(payload)))
	return b
}

// Mark classifies the error with one of the Err* sentinels, which decides the
// HTTP status and code. It ends the chain.
func (b *ErrorBuilder) Mark(class error) error {
	b.err = errors.Mark(b.err, class)
	return b.err
}

// Error ends the chain without a class
func (b *ErrorBuilder) Error() error {
	return b.err
}
