package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

// DefaultPostgresMaxConns caps the pool; the census writes once per run.
const DefaultPostgresMaxConns = 2

const postgresSchema = `
CREATE TABLE IF NOT EXISTS census_runs (
	id TEXT PRIMARY KEY,
	subreddit TEXT NOT NULL,
	target INTEGER NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS census_runs_subreddit_idx ON census_runs (subreddit, started_at DESC);
CREATE TABLE IF NOT EXISTS census_orderings (
	run_id TEXT NOT NULL REFERENCES census_runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	ordering TEXT NOT NULL,
	collected INTEGER NOT NULL,
	exhausted BOOLEAN NOT NULL,
	duplicates INTEGER NOT NULL,
	pages INTEGER NOT NULL,
	PRIMARY KEY (run_id, ordering)
);
CREATE TABLE IF NOT EXISTS census_tallies (
	run_id TEXT NOT NULL REFERENCES census_runs(id) ON DELETE CASCADE,
	ordering TEXT NOT NULL,
	kind TEXT NOT NULL,
	label TEXT NOT NULL,
	count INTEGER NOT NULL,
	PRIMARY KEY (run_id, ordering, kind, label)
);`

// PostgresStore keeps census history in Postgres.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects and makes sure the schema exists.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns <= 0 || cfg.MaxConns > DefaultPostgresMaxConns {
		cfg.MaxConns = DefaultPostgresMaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Publish implements History. All rows go out as one batch inside a transaction.
func (s *PostgresStore) Publish(ctx context.Context, c *domain.Census) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		b.Queue(
			`INSERT INTO census_runs (id, subreddit, target, started_at, finished_at) VALUES ($1,$2,$3,$4,$5)`,
			c.ID, c.Subreddit, c.Target, c.StartedAt, c.FinishedAt,
		)
		for i, o := range c.Orderings {
			b.Queue(
				`INSERT INTO census_orderings (run_id, position, ordering, collected, exhausted, duplicates, pages)
				 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				c.ID, i, string(o.Ordering), o.Collected, o.Exhausted, o.Duplicates, o.Pages,
			)
		}
		for _, r := range tallyRows(c) {
			b.Queue(
				`INSERT INTO census_tallies (run_id, ordering, kind, label, count) VALUES ($1,$2,$3,$4,$5)`,
				c.ID, string(r.ordering), r.kind, r.label, r.count,
			)
		}

		br := tx.SendBatch(ctx, b)
		for k := 0; k < b.Len(); k++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert census %s: %w", c.ID, err)
			}
		}
		return br.Close()
	})
}

// Recent implements History.
func (s *PostgresStore) Recent(ctx context.Context, subreddit string, limit int) ([]domain.Census, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, subreddit, target, started_at, finished_at FROM census_runs
		 WHERE $1 = '' OR subreddit = $1
		 ORDER BY started_at DESC LIMIT $2`,
		subreddit, lim)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	var runs []domain.Census
	for rows.Next() {
		var c domain.Census
		if err := rows.Scan(&c.ID, &c.Subreddit, &c.Target, &c.StartedAt, &c.FinishedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		if err := s.loadOrderings(ctx, &runs[i]); err != nil {
			return nil, err
		}
		runs[i].Charts = aggregate.BuildCharts(runs[i].Orderings)
	}
	return runs, nil
}

func (s *PostgresStore) loadOrderings(ctx context.Context, c *domain.Census) error {
	rows, err := s.pool.Query(ctx,
		`SELECT ordering, collected, exhausted, duplicates, pages FROM census_orderings
		 WHERE run_id = $1 ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("query orderings: %w", err)
	}
	for rows.Next() {
		var (
			o        domain.OrderingSummary
			ordering string
		)
		if err := rows.Scan(&ordering, &o.Collected, &o.Exhausted, &o.Duplicates, &o.Pages); err != nil {
			rows.Close()
			return fmt.Errorf("scan ordering: %w", err)
		}
		o.Ordering = domain.Ordering(ordering)
		o.Flairs = make(domain.CategoryTally)
		o.LabeledFlairs = make(domain.CategoryTally)
		c.Orderings = append(c.Orderings, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := s.pool.Query(ctx,
		`SELECT ordering, kind, label, count FROM census_tallies WHERE run_id = $1`, c.ID)
	if err != nil {
		return fmt.Errorf("query tallies: %w", err)
	}
	defer trows.Close()
	for trows.Next() {
		var (
			r        tallyRow
			ordering string
		)
		if err := trows.Scan(&ordering, &r.kind, &r.label, &r.count); err != nil {
			return fmt.Errorf("scan tally: %w", err)
		}
		r.ordering = domain.Ordering(ordering)
		r.apply(summaryIndex(c, r.ordering))
	}
	return trows.Err()
}
