// Package report publishes finished censuses: console percentages,
// Markdown summaries and HTML charts.
package report

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/qepting91/flair-census/internal/domain"
)

// Sink consumes a finished census. Implementations must treat it as read-only.
type Sink interface {
	Publish(ctx context.Context, c *domain.Census) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, c *domain.Census) error

// Publish calls f.
func (f SinkFunc) Publish(ctx context.Context, c *domain.Census) error {
	return f(ctx, c)
}

// MultiSink publishes to every sink concurrently and returns the first error.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink skips nil sinks.
func NewMultiSink(sinks ...Sink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len reports the number of wrapped sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Publish fans the census out. The census is shared, never copied.
func (m *MultiSink) Publish(ctx context.Context, c *domain.Census) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, s := range m.sinks {
		g.Go(func() error {
			return s.Publish(ctx, c)
		})
	}
	return g.Wait()
}
