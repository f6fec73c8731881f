package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPageInterval is one listing page per minute.
const DefaultPageInterval = 60 * time.Second

// Pacer blocks for a fixed interval between listing calls. The full interval
// is always waited, however quickly the previous call returned.
type Pacer struct {
	interval time.Duration
	clock    Clock
	logger   zerolog.Logger
}

// NewPacer creates a pacer. A nil clock means the system clock.
func NewPacer(interval time.Duration, clock Clock, logger zerolog.Logger) *Pacer {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Pacer{interval: interval, clock: clock, logger: logger}
}

// Wait sleeps for the configured interval.
func (p *Pacer) Wait(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	p.logger.Debug().Dur("interval", p.interval).Msg("Pacing before next page")
	if err := p.clock.Sleep(ctx, p.interval); err != nil {
		return err
	}
	pacingSeconds.Add(p.interval.Seconds())
	return nil
}
