// Package ticks provides the free-running tick counter used for the door grace timer.
package ticks

import (
	"context"
	"time"

	"go.uber.org/atomic"
)

// DefaultPeriod makes 58823 ticks last about two minutes.
const DefaultPeriod = 2048 * time.Microsecond

// Counter is a wrapping 32-bit tick count with a single writer.
type Counter struct {
	n atomic.Uint32
}

// Tick advances the count by one, wrapping at 2^32.
func (c *Counter) Tick() {
	c.n.Inc()
}

// Load returns the current count.
func (c *Counter) Load() uint32 {
	return c.n.Load()
}

// Reset sets the count to zero.
func (c *Counter) Reset() {
	c.n.Store(0)
}

// Run ticks every period until ctx is done.
func (c *Counter) Run(ctx context.Context, period time.Duration) {
	t := time.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Tick()
		}
	}
}
