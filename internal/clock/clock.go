// Package clock supplies order timestamps. Instants are UTC and truncated
// to microseconds, the resolution of a Postgres timestamptz, so a receipt
// carries the same created_at that is read back from storage.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Func adapts a function to Clock.
type Func func() time.Time

func (f Func) Now() time.Time {
	return normalize(f())
}

// NewSystem returns the wall clock.
func NewSystem() Clock {
	return Func(time.Now)
}

// NewFixed always returns t. Order tests use it to pin created_at.
func NewFixed(t time.Time) Clock {
	t = normalize(t)
	return Func(func() time.Time { return t })
}

func normalize(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
