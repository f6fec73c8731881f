// Package config assembles the census configuration from defaults, an
// optional YAML file, the environment and command-line flags, in that order
// of increasing precedence.
package config

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/adrg/xdg"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/logging"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/qepting91/flair-census/internal/reddit"
)

// Default configuration values.
const (
	AppName = "flaircensus"

	DefaultSubreddit = "196"
	DefaultCount     = 1000

	// DefaultPageDelay is the pause between consecutive listing calls.
	DefaultPageDelay = ratelimit.DefaultPageInterval

	DefaultMode      = reddit.ModePublic
	DefaultUserAgent = "flaircensus/1.0 (+https://github.com/qepting91/flair-census)"
	DefaultTopWindow = domain.TopWindow
	DefaultServeAddr = ":8080"
)

// subNameRegex matches valid subreddit names.
var subNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{3,21}$`)

// ValidSubreddit reports whether name is a well-formed subreddit name.
func ValidSubreddit(name string) bool {
	return subNameRegex.MatchString(name)
}

// Config holds every runtime option of a census.
type Config struct {
	Mode        string
	Credentials reddit.Credentials
	UserAgent   string

	// Targets are run in order. Count falls back to DefaultCount when unset.
	Targets   []domain.Target
	Count     int
	Orderings []domain.Ordering
	TopWindow string
	PageDelay time.Duration
	// StallLimit is forwarded to the collector; zero disables the guard.
	StallLimit int

	// OutputDir receives charts and Markdown reports.
	OutputDir string
	Charts    bool
	Markdown  bool
	// Quiet suppresses the console percentage report.
	Quiet bool

	// HistoryDSN selects the run history store; empty disables history.
	HistoryDSN string
	// RedisAddr shares Reddit quota state between processes; empty keeps it in memory.
	RedisAddr string
	// ServeAddr starts the dashboard when set.
	ServeAddr string

	Log logging.Config
}

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		Mode:      DefaultMode,
		UserAgent: DefaultUserAgent,
		Count:     DefaultCount,
		Orderings: append([]domain.Ordering(nil), domain.Orderings...),
		TopWindow: DefaultTopWindow,
		PageDelay: DefaultPageDelay,
		OutputDir: DefaultOutputDir(),
		Charts:    true,
		Log:       logging.DefaultConfig(),
	}
}

// DefaultOutputDir is $XDG_DATA_HOME/flaircensus.
func DefaultOutputDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// ResolvedTargets returns the targets to run, defaulting to r/196 and filling
// in missing counts from Count.
func (c *Config) ResolvedTargets() []domain.Target {
	if len(c.Targets) == 0 {
		return []domain.Target{{Subreddit: DefaultSubreddit, Count: c.Count}}
	}
	out := make([]domain.Target, len(c.Targets))
	for i, t := range c.Targets {
		if t.Count <= 0 {
			t.Count = c.Count
		}
		out[i] = t
	}
	return out
}
