package fetch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer gates requests to one upstream so that consecutive requests start at least Interval apart.
// It is a token bucket with a burst of one, driven by the injected Clock.
type Pacer struct {
	name     string
	interval time.Duration
	lim      *rate.Limiter
	clock    Clock
}

// NewPacer creates a pacer. A zero interval never waits.
func NewPacer(name string, interval time.Duration, clock Clock) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{name: name, interval: interval, lim: rate.NewLimiter(limit, 1), clock: clock}
}

// Name returns the upstream this pacer guards.
func (p *Pacer) Name() string { return p.name }

// Interval returns the minimum spacing between requests.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next request may start. If ctx ends first the reservation is returned.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	now := p.clock.Now()
	r := p.lim.ReserveN(now, 1)
	if !r.OK() {
		return fmt.Errorf("pacer %s: reservation refused", p.name)
	}
	delay := r.DelayFrom(now)
	if delay <= 0 {
		return nil
	}
	if err := p.clock.Sleep(ctx, delay); err != nil {
		r.CancelAt(p.clock.Now())
		return err
	}
	return nil
}
