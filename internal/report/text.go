package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

// TextWriter prints per-ordering percentages in the plain console layout:
//
//	--- Flair Post Data ---
//	Hot Flair Percentages:
//	Meme: 42.00%
type TextWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTextWriter writes to out.
func NewTextWriter(out io.Writer) *TextWriter {
	return &TextWriter{out: out}
}

// Publish implements Sink.
func (w *TextWriter) Publish(_ context.Context, c *domain.Census) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	ew := &errWriter{w: w.out}
	ew.printf("Census r/%s (%s)\n\n", c.Subreddit, c.ID)

	ew.printf("--- Flair Post Data ---\n")
	w.section(ew, c, "Flair", func(s domain.OrderingSummary) domain.CategoryTally { return s.Flairs })

	ew.printf("\n\n--- Flair Post Data (No Flairless) ---\n")
	w.section(ew, c, "Flair", func(s domain.OrderingSummary) domain.CategoryTally { return s.LabeledFlairs })

	ew.printf("\n\n--- NSFW Post Data ---\n")
	for i, s := range c.Orderings {
		if i > 0 {
			ew.printf("\n")
		}
		ew.printf("%s NSFW Percentages:\n", s.Ordering.Title())
		total := s.Flags.Total()
		if total == 0 {
			ew.printf("(no posts)\n")
			continue
		}
		ew.printf("%s: %.2f%%\n", domain.NSFWLabel, float64(s.Flags.NSFW)/float64(total)*100)
		ew.printf("%s: %.2f%%\n", domain.SFWLabel, float64(s.Flags.SFW)/float64(total)*100)
	}
	ew.printf("\n")
	return ew.err
}

func (w *TextWriter) section(ew *errWriter, c *domain.Census, kind string, pick func(domain.OrderingSummary) domain.CategoryTally) {
	for i, s := range c.Orderings {
		if i > 0 {
			ew.printf("\n")
		}
		ew.printf("%s %s Percentages:\n", s.Ordering.Title(), kind)
		tally := pick(s)
		pct, err := aggregate.Percentages(tally)
		if errors.Is(err, domain.ErrEmptyTally) {
			ew.printf("(no posts)\n")
			continue
		}
		for _, label := range aggregate.SortedByCount(tally) {
			ew.printf("%s: %.2f%%\n", label, pct[label])
		}
	}
}

// errWriter keeps the first write error and drops later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
