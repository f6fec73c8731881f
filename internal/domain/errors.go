package domain

import (
	"errors"
	"fmt"
)

// ErrEmptyTally is returned when a percentage is requested over a tally whose
// total is zero. The result is undefined, so no value is produced.
var ErrEmptyTally = errors.New("tally is empty")

// TransportError reports a failed remote listing call. It is fatal for the run.
type TransportError struct {
	Subreddit string
	Ordering  Ordering
	After     string
	Err       error
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	if e.After != "" {
		return fmt.Sprintf("fetch r/%s %s after %s: %v", e.Subreddit, e.Ordering, e.After, e.Err)
	}
	return fmt.Sprintf("fetch r/%s %s: %v", e.Subreddit, e.Ordering, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}
