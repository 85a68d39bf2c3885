// Package system provides a real clock implementation.
package system

import (
	"context"
	"time"
)

// Clock implements event.Clock and event.Pauser using the wall clock.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time.
func (Clock) Now() time.Time {
	return time.Now().UTC()
}

// Pause blocks for delay or until ctx is canceled, whichever comes first.
func (Clock) Pause(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
