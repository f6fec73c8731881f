// Package storage keeps a history of census runs. Only aggregate tallies are
// stored; collected posts never leave the process.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qepting91/flair-census/internal/domain"
)

// ErrUnknownDSN is returned by Open for an unsupported history location.
var ErrUnknownDSN = errors.New("unknown history dsn")

// History records finished censuses and reads them back.
type History interface {
	Publish(ctx context.Context, c *domain.Census) error
	// Recent returns up to limit runs for subreddit, newest first.
	Recent(ctx context.Context, subreddit string, limit int) ([]domain.Census, error)
	Close() error
}

// Open picks a History from dsn:
//
//	postgres://... or postgresql://...   Postgres
//	*.ndjson, *.jsonl                     NDJSON file
//	*.db, *.sqlite, sqlite:<path>         SQLite file
func Open(ctx context.Context, dsn string) (History, error) {
	var (
		h   History
		err error
	)
	switch {
	case dsn == "":
		return nil, fmt.Errorf("%w: empty", ErrUnknownDSN)
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		h, err = OpenPostgres(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite:"):
		h, err = OpenSQLite(strings.TrimPrefix(dsn, "sqlite:"))
	default:
		switch strings.ToLower(filepath.Ext(dsn)) {
		case ".ndjson", ".jsonl":
			h, err = NewNDJSONStore(dsn)
		case ".db", ".sqlite", ".sqlite3":
			h, err = OpenSQLite(dsn)
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnknownDSN, dsn)
		}
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Tally kinds as stored in the tallies table.
const (
	kindFlair   = "flair"
	kindLabeled = "labeled"
	kindFlag    = "flag"
)

type tallyRow struct {
	ordering domain.Ordering
	kind     string
	label    string
	count    int
}

// tallyRows flattens every tally of a census.
func tallyRows(c *domain.Census) []tallyRow {
	var rows []tallyRow
	for _, s := range c.Orderings {
		for label, n := range s.Flairs {
			rows = append(rows, tallyRow{s.Ordering, kindFlair, label, n})
		}
		for label, n := range s.LabeledFlairs {
			rows = append(rows, tallyRow{s.Ordering, kindLabeled, label, n})
		}
		for label, n := range s.Flags.AsCategory() {
			rows = append(rows, tallyRow{s.Ordering, kindFlag, label, n})
		}
	}
	return rows
}

// apply folds a stored tally row back into its summary.
func (r tallyRow) apply(s *domain.OrderingSummary) {
	switch r.kind {
	case kindFlair:
		if s.Flairs == nil {
			s.Flairs = make(domain.CategoryTally)
		}
		s.Flairs[r.label] = r.count
	case kindLabeled:
		if s.LabeledFlairs == nil {
			s.LabeledFlairs = make(domain.CategoryTally)
		}
		s.LabeledFlairs[r.label] = r.count
	case kindFlag:
		switch r.label {
		case domain.NSFWLabel:
			s.Flags.NSFW = r.count
		case domain.SFWLabel:
			s.Flags.SFW = r.count
		}
	}
}

// summaryIndex finds the summary for ordering o, appending an empty one if needed.
func summaryIndex(c *domain.Census, o domain.Ordering) *domain.OrderingSummary {
	for i := range c.Orderings {
		if c.Orderings[i].Ordering == o {
			return &c.Orderings[i]
		}
	}
	c.Orderings = append(c.Orderings, domain.OrderingSummary{Ordering: o})
	return &c.Orderings[len(c.Orderings)-1]
}
