package common

import (
	"sync/atomic"
	"time"
)

// Clock supplies UNIX-nanosecond timestamps. Book and feed components take
// an injected clock so replay and tests stay deterministic.
type Clock interface {
	TimestampNs() uint64
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) TimestampNs() uint64 {
	return uint64(time.Now().UnixNano())
}

// TestClock returns a manually-advanced timestamp.
type TestClock struct {
	ns atomic.Uint64
}

// NewTestClock creates a test clock starting at the given nanosecond time.
func NewTestClock(startNs uint64) *TestClock {
	c := &TestClock{}
	c.ns.Store(startNs)
	return c
}

func (c *TestClock) TimestampNs() uint64 {
	return c.ns.Load()
}

// SetTime moves the clock to an absolute nanosecond time.
func (c *TestClock) SetTime(ns uint64) {
	c.ns.Store(ns)
}

// Advance moves the clock forward by the given duration.
func (c *TestClock) Advance(d time.Duration) {
	c.ns.Add(uint64(d.Nanoseconds()))
}
