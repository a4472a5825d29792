package port

import "time"

// Clock supplies the current time for default timestamps, so services
// stay deterministic under test.
type Clock interface {
	Now() time.Time
}

// RealClock is the wall clock.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time {
	return time.Now()
}
