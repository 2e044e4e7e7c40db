// Package clock keeps a formatted wall-clock string refreshed on a fixed
// interval for the page header.
package clock

import (
	"context"
	"sync/atomic"
	"time"

	"gastos/internal/log"
)

// DefaultLayout matches a locale time string (HH:MM:SS).
const DefaultLayout = "15:04:05"

type Clock struct {
	interval time.Duration
	layout   string
	now      func() time.Time
	current  atomic.Value // string
	ticks    atomic.Int64
	logger   *log.Logger
}

// Option customises a Clock.
type Option func(*Clock)

func WithLayout(layout string) Option {
	return func(c *Clock) { c.layout = layout }
}

func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Clock) { c.logger = l.WithComponent(log.ComponentClock) }
}

// New returns a clock that refreshes every interval. Non-positive intervals
// fall back to one second.
func New(interval time.Duration, opts ...Option) *Clock {
	if interval <= 0 {
		interval = time.Second
	}
	c := &Clock{
		interval: interval,
		layout:   DefaultLayout,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentClock)
	}
	c.tick()
	return c
}

func (c *Clock) tick() {
	c.current.Store(c.now().Format(c.layout))
	c.ticks.Add(1)
}

// Run refreshes the clock until ctx is done. The ticker is stopped on return
// so no refresh happens after teardown.
func (c *Clock) Run(ctx context.Context) error {
	t := time.NewTicker(c.interval)
	defer t.Stop()

	c.logger.Debug("Clock started", "interval", c.interval.String())
	for {
		select {
		case <-ctx.Done():
			c.logger.Debug("Clock stopped", log.FieldOperation, log.OpShutdown)
			return nil
		case <-t.C:
			c.tick()
		}
	}
}

// Now returns the most recently formatted time.
func (c *Clock) Now() string {
	return c.current.Load().(string)
}

// Ticks reports how many refreshes have happened, including the initial one.
func (c *Clock) Ticks() int64 {
	return c.ticks.Load()
}
