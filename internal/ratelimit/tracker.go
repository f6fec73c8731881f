package ratelimit

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Tracker follows the Reddit quota headers and gates requests.
type Tracker struct {
	store  StateStore
	clock  Clock
	logger zerolog.Logger
}

// NewTracker creates a tracker. A nil store keeps state in memory, a nil clock uses the wall clock.
func NewTracker(store StateStore, clock Clock, logger zerolog.Logger) *Tracker {
	if store == nil {
		store = NewMemoryStore()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Tracker{store: store, clock: clock, logger: logger}
}

// Observe records the quota carried by a response.
func (t *Tracker) Observe(ctx context.Context, h http.Header) error {
	now := t.clock.Now()
	state, err := ParseQuotaHeaders(h, now)
	if err != nil {
		return err
	}
	if state == nil {
		return nil
	}
	if err := t.store.Save(ctx, state); err != nil {
		return fmt.Errorf("store quota state: %w", err)
	}

	quotaRemaining.Set(state.Remaining)
	quotaUsed.Set(float64(state.Used))

	t.logger.Debug().
		Float64("remaining", state.Remaining).
		Int("used", state.Used).
		Time("reset_at", state.ResetAt).
		Msg("Reddit quota updated")
	return nil
}

// Wait blocks until the quota allows another request.
func (t *Tracker) Wait(ctx context.Context) error {
	state, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load quota state: %w", err)
	}
	if state == nil {
		return nil
	}

	now := t.clock.Now()
	switch {
	case state.NeedsBlock(now):
		wait := state.UntilReset(now)
		t.logger.Warn().
			Float64("remaining", state.Remaining).
			Dur("wait", wait).
			Msg("Reddit quota nearly spent - waiting for reset")
		quotaBlocksTotal.Inc()
		return t.clock.Sleep(ctx, wait)
	case state.NeedsThrottling(now):
		t.logger.Warn().
			Float64("remaining", state.Remaining).
			Msg("Reddit quota low")
		quotaThrottlesTotal.Inc()
	}
	return nil
}
