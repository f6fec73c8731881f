// Package ratelimit paces listing requests and tracks the Reddit request quota.
//
// Two mechanisms live here. Pacer enforces the fixed inter-page delay the
// collector observes between successive listing calls. Tracker follows the
// X-Ratelimit-* response headers and blocks callers once the remaining quota
// is nearly spent, optionally sharing that state across processes via Redis.
package ratelimit

import (
	"context"
	"time"
)

// Clock abstracts time so pacing can be verified without sleeping.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns time.Now.
func (SystemClock) Now() time.Time { return time.Now() }

// Sleep waits for d, returning ctx.Err() if the context ends first.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
