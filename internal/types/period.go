package types

import (
	"fmt"
	"time"

	ierr "github.com/convowin/convowin/internal/errors"
)

// BillingPeriodLayout is the wire format of a billing period, ex 2026-01
const BillingPeriodLayout = "2006-01"

// DateLayout is the wire format of rate card effective dates
const DateLayout = "2006-01-02"

// BillingPeriod is a calendar month in UTC
type BillingPeriod struct {
	Year  int
	Month time.Month
}

// ParseBillingPeriod parses a YYYY-MM string
func ParseBillingPeriod(s string) (BillingPeriod, error) {
	t, err := time.Parse(BillingPeriodLayout, s)
	if err != nil {
		return BillingPeriod{}, ierr.WithError(err).
			WithHintf("Billing period %q must be formatted as YYYY-MM", s).
			Mark(ierr.ErrValidation)
	}
	return BillingPeriod{Year: t.Year(), Month: t.Month()}, nil
}

// BillingPeriodOf returns the period containing t
func BillingPeriodOf(t time.Time) BillingPeriod {
	t = t.UTC()
	return BillingPeriod{Year: t.Year(), Month: t.Month()}
}

// PreviousBillingPeriod returns the period before the one containing t
func PreviousBillingPeriod(t time.Time) BillingPeriod {
	return BillingPeriodOf(StartOfMonth(t).AddDate(0, -1, 0))
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// Start is the first instant of the period
func (p BillingPeriod) Start() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// End is the first instant after the period
func (p BillingPeriod) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// Contains reports whether t falls inside the period
func (p BillingPeriod) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start()) && t.Before(p.End())
}

// Next returns the following period
func (p BillingPeriod) Next() BillingPeriod {
	return BillingPeriodOf(p.End())
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfMonth truncates t to the first day of its month, midnight UTC
func StartOfMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ierr.WithError(err).
			WithHintf("Date %q must be formatted as YYYY-MM-DD", s).
			Mark(ierr.ErrValidation)
	}
	return t.UTC(), nil
}
