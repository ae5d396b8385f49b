// Package clock abstracts the time source so that expiry logic can be
// exercised deterministically in tests.  Production code uses System();
// tests substitute a Fake advanced by hand.
package clock

import (
    "sync"
    "time"
)

// Clock supplies the current instant.  All expiry comparisons in the
// waiting room, the seat lock and the ranking cache go through a Clock so
// that the lazy and the sweep-driven expiry paths always agree.
type Clock interface {
    Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// System returns a Clock backed by time.Now in UTC.
func System() Clock { return systemClock{} }

// Fake is a manually advanced Clock for tests.  The zero value is not
// usable; construct it with NewFake.
type Fake struct {
    mu  sync.Mutex
    now time.Time
}

// NewFake returns a Fake pinned to the given start instant.
func NewFake(start time.Time) *Fake { return &Fake{now: start.UTC()} }

// Now returns the current fake instant.
func (f *Fake) Now() time.Time {
    f.mu.Lock()
    defer f.mu.Unlock()
    return f.now
}

// Advance moves the fake clock forward by d.
func (f *Fake) Advance(d time.Duration) {
    f.mu.Lock()
    f.now = f.now.Add(d)
    f.mu.Unlock()
}

// Set pins the fake clock to a specific instant.
func (f *Fake) Set(t time.Time) {
    f.mu.Lock()
    f.now = t.UTC()
    f.mu.Unlock()
}
