package ratelimit

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reddit quota headers.
const (
	HeaderUsed      = "X-Ratelimit-Used"
	HeaderRemaining = "X-Ratelimit-Remaining"
	HeaderReset     = "X-Ratelimit-Reset"
)

// Thresholds for quota decisions.
const (
	// RemainingCritical blocks requests until the window resets.
	RemainingCritical = 5

	// RemainingWarning logs and counts a throttle but lets the request through;
	// the pacer already spaces calls.
	RemainingWarning = 20
)

// QuotaState is the last observed Reddit request quota.
type QuotaState struct {
	Used       int       `json:"used"`
	Remaining  float64   `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	LastUpdate time.Time `json:"last_update"`
}

// NeedsBlock reports whether the quota is nearly spent and the window has not reset yet.
func (s *QuotaState) NeedsBlock(now time.Time) bool {
	return s.Remaining < RemainingCritical && now.Before(s.ResetAt)
}

// NeedsThrottling reports the warning band.
func (s *QuotaState) NeedsThrottling(now time.Time) bool {
	return s.Remaining < RemainingWarning && !s.NeedsBlock(now) && now.Before(s.ResetAt)
}

// UntilReset returns how long until the window resets, never negative.
func (s *QuotaState) UntilReset(now time.Time) time.Duration {
	d := s.ResetAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// ParseQuotaHeaders extracts a QuotaState from response headers.
// It returns nil, nil when the response carries no quota headers.
func ParseQuotaHeaders(h http.Header, now time.Time) (*QuotaState, error) {
	remainStr := strings.TrimSpace(h.Get(HeaderRemaining))
	if remainStr == "" {
		return nil, nil
	}

	remain, err := strconv.ParseFloat(remainStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s header %q: %w", HeaderRemaining, remainStr, err)
	}

	resetStr := strings.TrimSpace(h.Get(HeaderReset))
	if resetStr == "" {
		return nil, fmt.Errorf("%s header missing", HeaderReset)
	}
	resetSeconds, err := strconv.ParseFloat(resetStr, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s header %q: %w", HeaderReset, resetStr, err)
	}

	used := 0
	if usedStr := strings.TrimSpace(h.Get(HeaderUsed)); usedStr != "" {
		f, err := strconv.ParseFloat(usedStr, 64)
		if err != nil {
			return nil, fmt.Errorf("parse %s header %q: %w", HeaderUsed, usedStr, err)
		}
		used = int(f)
	}

	return &QuotaState{
		Used:       used,
		Remaining:  remain,
		ResetAt:    now.Add(time.Duration(resetSeconds * float64(time.Second))),
		LastUpdate: now,
	}, nil
}
