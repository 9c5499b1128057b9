package clock

import "time"

// Clock supplies the ledger's notion of the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

// Now returns the wall clock time in UTC.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always reports t.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

// Now returns the fixed time.
func (f fixedClock) Now() time.Time {
	return f.now
}
