package clock

import "time"

// Clock is the source of "now" for anything that depends on day or month boundaries
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// New returns the wall clock in UTC
func New() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}
