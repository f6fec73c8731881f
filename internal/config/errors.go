package config

import "errors"

// Configuration validation errors, returned by Config.Validate.
var (
	ErrInvalidCount       = errors.New("invalid count: must be positive")
	ErrInvalidPageDelay   = errors.New("invalid page delay: must be non-negative")
	ErrInvalidStallLimit  = errors.New("invalid stall limit: must be non-negative")
	ErrNoOrderings        = errors.New("no orderings selected")
	ErrInvalidSubreddit   = errors.New("invalid subreddit name")
	ErrUnknownMode        = errors.New("unknown collector mode: use 'api', 'public' or 'mock'")
	ErrMissingCredentials = errors.New("api mode requires REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME and REDDIT_PASSWORD")
	ErrMissingUserAgent   = errors.New("user agent must not be empty")
	ErrInvalidTopWindow   = errors.New("invalid top window: use hour, day, week, month, year or all")
)

// ErrConfigNotFound is returned when an explicitly named configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")
