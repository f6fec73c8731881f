// Package collector pages through a listing until a target number of unique
// posts has been gathered.
//
// The listing is a sliding window that keeps changing while it is read, so
// progress is defined by identifiers not yet seen rather than by offsets:
// every page is requested after the last newly appended post, and posts that
// resurface are dropped. A page with no items ends the run early.
package collector

import (
	"context"
	"fmt"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/rs/zerolog"
)

// Pacer blocks between successive listing calls.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Progress is reported after every page. It never influences the run.
type Progress struct {
	Ordering   domain.Ordering
	Page       int
	Collected  int
	Target     int
	Remaining  int
	Duplicates int
	Cursor     string
}

// ProgressFunc receives page-level progress.
type ProgressFunc func(Progress)

// Config holds per-subreddit collection settings.
type Config struct {
	Subreddit string
	// TopWindow is the lookback sent with Top requests; empty means domain.TopWindow.
	TopWindow string
	// StallLimit ends the run after this many consecutive non-empty pages
	// that add nothing new. Zero disables the guard.
	StallLimit int
	Progress   ProgressFunc
}

// Result is the outcome of one Collect call.
type Result struct {
	Ordering domain.Ordering
	Items    []domain.Post
	// Exhausted is set when the source ran dry before the target was reached.
	Exhausted  bool
	Duplicates int
	Pages      int
}

// Collector drives the fetch loop for one subreddit.
type Collector struct {
	lister domain.Lister
	pacer  Pacer
	cfg    Config
	logger zerolog.Logger
}

// New creates a collector.
func New(lister domain.Lister, pacer Pacer, cfg Config, logger zerolog.Logger) *Collector {
	if cfg.TopWindow == "" {
		cfg.TopWindow = domain.TopWindow
	}
	return &Collector{lister: lister, pacer: pacer, cfg: cfg, logger: logger}
}

// Collect gathers up to target unique posts in the given ordering.
// A listing failure aborts the run with a *domain.TransportError and no partial result.
func (c *Collector) Collect(ctx context.Context, ordering domain.Ordering, target int) (*Result, error) {
	res := &Result{Ordering: ordering}
	if target <= 0 {
		return res, nil
	}
	res.Items = make([]domain.Post, 0, target)

	log := c.logger.With().
		Str("subreddit", c.cfg.Subreddit).
		Str("ordering", string(ordering)).
		Logger()
	log.Info().Int("target", target).Msg("Starting collection")

	seen := make(map[string]struct{}, target)
	var cursor CursorState
	stalled := 0

	for len(res.Items) < target {
		req := domain.PageRequest{
			Subreddit: c.cfg.Subreddit,
			Ordering:  ordering,
			Limit:     min(domain.MaxPageSize, target-len(res.Items)),
			After:     cursor.After(),
			Count:     len(res.Items),
		}
		if ordering == domain.OrderingTop {
			req.Window = c.cfg.TopWindow
		}

		page, err := c.lister.FetchPage(ctx, req)
		if err != nil {
			log.Error().Err(err).Str("after", req.After).Msg("Listing request failed")
			return nil, &domain.TransportError{
				Subreddit: c.cfg.Subreddit,
				Ordering:  ordering,
				After:     req.After,
				Err:       err,
			}
		}
		res.Pages++
		pagesTotal.WithLabelValues(string(ordering)).Inc()

		added, last := 0, ""
		for _, p := range page {
			if _, dup := seen[p.ID]; dup {
				res.Duplicates++
				duplicatesTotal.WithLabelValues(string(ordering)).Inc()
				log.Debug().Str("id", p.ID).Msg("Dropping duplicate post")
				continue
			}
			seen[p.ID] = struct{}{}
			res.Items = append(res.Items, p)
			added++
			last = p.FullName()
		}
		itemsTotal.WithLabelValues(string(ordering)).Add(float64(added))

		if added > 0 {
			if err := cursor.Advance(last); err != nil {
				return nil, fmt.Errorf("advance cursor: %w", err)
			}
		}

		remaining := max(target-len(res.Items), 0)
		log.Info().
			Int("page", res.Pages).
			Int("received", len(page)).
			Int("added", added).
			Int("remaining", remaining).
			Str("cursor", cursor.String()).
			Msg("Page collected")
		if c.cfg.Progress != nil {
			c.cfg.Progress(Progress{
				Ordering:   ordering,
				Page:       res.Pages,
				Collected:  len(res.Items),
				Target:     target,
				Remaining:  remaining,
				Duplicates: res.Duplicates,
				Cursor:     cursor.String(),
			})
		}

		if len(page) == 0 {
			res.Exhausted = true
			log.Warn().Int("collected", len(res.Items)).Msg("Listing exhausted before target")
			break
		}
		if added == 0 {
			stalled++
			if c.cfg.StallLimit > 0 && stalled >= c.cfg.StallLimit {
				res.Exhausted = true
				log.Warn().Int("stalled_pages", stalled).Msg("No new posts surfacing, stopping")
				break
			}
		} else {
			stalled = 0
		}

		if len(res.Items) >= target {
			break
		}
		if err := c.pacer.Wait(ctx); err != nil {
			return nil, fmt.Errorf("pacing: %w", err)
		}
	}

	if len(res.Items) > target {
		res.Items = res.Items[:target]
	}
	if res.Exhausted {
		exhaustedTotal.WithLabelValues(string(ordering)).Inc()
	}

	log.Info().
		Int("collected", len(res.Items)).
		Int("duplicates", res.Duplicates).
		Int("pages", res.Pages).
		Bool("exhausted", res.Exhausted).
		Msg("Collection finished")
	return res, nil
}
