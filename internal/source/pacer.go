package source

import (
	"context"
	"time"

	"go.uber.org/ratelimit"
)

// Pacer spaces provider calls at least interval apart. The first call passes
// immediately. A Pacer is safe for concurrent use and is meant to be shared by
// every sync against the same provider.
type Pacer struct {
	limiter  ratelimit.Limiter
	interval time.Duration
}

// NewPacer returns a pacer for interval. A non-positive interval disables pacing.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{limiter: ratelimit.NewUnlimited()}
	}
	return &Pacer{
		limiter:  ratelimit.New(1, ratelimit.Per(interval), ratelimit.WithoutSlack),
		interval: interval,
	}
}

// Wait blocks until the next call may proceed. It returns the context error if
// ctx is done once the slot is reached.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.limiter.Take()
	return ctx.Err()
}

func (p *Pacer) Interval() time.Duration {
	return p.interval
}
