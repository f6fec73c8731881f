package config

import (
	"fmt"

	"github.com/qepting91/flair-census/internal/reddit"
)

var topWindows = map[string]bool{
	"hour": true, "day": true, "week": true, "month": true, "year": true, "all": true,
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Mode {
	case reddit.ModeAPI:
		cr := c.Credentials
		if cr.ID == "" || cr.Secret == "" || cr.Username == "" || cr.Password == "" {
			return ErrMissingCredentials
		}
	case reddit.ModePublic, reddit.ModeMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, c.Mode)
	}

	if c.Mode != reddit.ModeMock && c.UserAgent == "" {
		return ErrMissingUserAgent
	}
	if c.Count <= 0 {
		return ErrInvalidCount
	}
	if c.PageDelay < 0 {
		return ErrInvalidPageDelay
	}
	if c.StallLimit < 0 {
		return ErrInvalidStallLimit
	}
	if len(c.Orderings) == 0 {
		return ErrNoOrderings
	}
	if !topWindows[c.TopWindow] {
		return fmt.Errorf("%w: %q", ErrInvalidTopWindow, c.TopWindow)
	}
	for _, t := range c.Targets {
		if !ValidSubreddit(t.Subreddit) {
			return fmt.Errorf("%w: %q", ErrInvalidSubreddit, t.Subreddit)
		}
		if t.Count < 0 {
			return fmt.Errorf("%w: r/%s", ErrInvalidCount, t.Subreddit)
		}
	}
	return nil
}
