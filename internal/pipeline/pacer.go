package pipeline

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between consecutive outbound generation
// calls. One Pacer is constructed at startup and injected into every
// pipeline, so all calls process-wide share the same clock regardless of
// which session issued them.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer builds a pacer that admits one call per minSpacing.
func NewPacer(minSpacing time.Duration) *Pacer {
	return &Pacer{lim: rate.NewLimiter(rate.Every(minSpacing), 1)}
}

// Wait suspends the caller until the spacing since the previous admitted
// call has elapsed, or the context is done.
func (p *Pacer) Wait(ctx context.Context) error {
	return p.lim.Wait(ctx)
}
