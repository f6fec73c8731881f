// Package census runs a full flair census for one or more subreddits: every
// configured ordering is collected in turn, aggregated, and published.
package census

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/collector"
	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/report"
)

// Config controls which orderings are collected and how.
type Config struct {
	// Orderings are collected in this order; empty means domain.Orderings.
	Orderings  []domain.Ordering
	TopWindow  string
	StallLimit int
	Progress   collector.ProgressFunc
}

// Runner executes census runs. Orderings and targets run strictly one after
// another; the pacer separates every pair of consecutive listing calls,
// including the last call of one collection and the first of the next.
type Runner struct {
	lister domain.Lister
	pacer  collector.Pacer
	sink   report.Sink
	cfg    Config
	logger zerolog.Logger

	now   func() time.Time
	newID func() string

	// calledBefore is set once any listing call has been made.
	calledBefore bool
}

// NewRunner creates a runner. pacer is required; sink may be nil.
func NewRunner(lister domain.Lister, pacer collector.Pacer, sink report.Sink, cfg Config, logger zerolog.Logger) *Runner {
	if len(cfg.Orderings) == 0 {
		cfg.Orderings = domain.Orderings
	}
	return &Runner{
		lister: lister,
		pacer:  pacer,
		sink:   sink,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run collects every ordering for t and publishes the census.
// A transport failure in any ordering aborts the run and nothing is published.
func (r *Runner) Run(ctx context.Context, t domain.Target) (*domain.Census, error) {
	c := &domain.Census{
		ID:        r.newID(),
		Subreddit: t.Subreddit,
		Target:    t.Count,
		StartedAt: r.now().UTC(),
	}
	log := r.logger.With().Str("census", c.ID).Str("subreddit", t.Subreddit).Logger()
	log.Info().Int("target", t.Count).Int("orderings", len(r.cfg.Orderings)).Msg("Census started")

	col := collector.New(r.lister, r.pacer, collector.Config{
		Subreddit:  t.Subreddit,
		TopWindow:  r.cfg.TopWindow,
		StallLimit: r.cfg.StallLimit,
		Progress:   r.cfg.Progress,
	}, log)

	for _, o := range r.cfg.Orderings {
		if r.calledBefore && t.Count > 0 {
			if err := r.pacer.Wait(ctx); err != nil {
				runsTotal.WithLabelValues(statusAborted).Inc()
				return nil, fmt.Errorf("pacing: %w", err)
			}
		}

		res, err := col.Collect(ctx, o, t.Count)
		if res != nil && res.Pages > 0 {
			r.calledBefore = true
		}
		if err != nil {
			runsTotal.WithLabelValues(statusAborted).Inc()
			log.Error().Err(err).Str("ordering", string(o)).Msg("Census aborted")
			return nil, err
		}

		log.Info().
			Str("ordering", string(o)).
			Int("collected", len(res.Items)).
			Int("pages", res.Pages).
			Int("duplicates", res.Duplicates).
			Bool("exhausted", res.Exhausted).
			Msg("Ordering collected")
		c.Orderings = append(c.Orderings, aggregate.Summarize(o, res.Items, res.Exhausted, res.Duplicates, res.Pages))
	}

	c.Charts = aggregate.BuildCharts(c.Orderings)
	c.FinishedAt = r.now().UTC()
	runDuration.Observe(c.FinishedAt.Sub(c.StartedAt).Seconds())

	if r.sink != nil {
		if err := r.sink.Publish(ctx, c); err != nil {
			runsTotal.WithLabelValues(statusPublishFailed).Inc()
			return c, fmt.Errorf("publish census %s: %w", c.ID, err)
		}
	}
	runsTotal.WithLabelValues(statusOK).Inc()
	log.Info().Dur("elapsed", c.FinishedAt.Sub(c.StartedAt)).Msg("Census finished")
	return c, nil
}

// RunAll runs each target in order and stops at the first error.
// Censuses finished before the error are returned with it.
func (r *Runner) RunAll(ctx context.Context, targets []domain.Target) ([]*domain.Census, error) {
	done := make([]*domain.Census, 0, len(targets))
	for _, t := range targets {
		c, err := r.Run(ctx, t)
		if err != nil {
			return done, fmt.Errorf("census r/%s: %w", t.Subreddit, err)
		}
		done = append(done, c)
	}
	return done, nil
}
