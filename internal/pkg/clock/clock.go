// Package clock supplies the current time to services.
package clock

import "time"

// Clock returns the current moment.
type Clock interface {
	Now() time.Time
}

// Func adapts a function to Clock.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time {
	return f()
}

// System returns the wall clock.
func System() Clock {
	return Func(time.Now)
}

// Fixed returns a clock frozen at t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
