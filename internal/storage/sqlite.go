package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

// timeLayout is fixed width so started_at sorts correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore keeps census history in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path, in WAL mode.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{db: db}
	if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		subreddit TEXT NOT NULL,
		target INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_subreddit ON runs(subreddit, started_at);

	CREATE TABLE IF NOT EXISTS orderings (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		ordering TEXT NOT NULL,
		collected INTEGER NOT NULL,
		exhausted INTEGER NOT NULL,
		duplicates INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		PRIMARY KEY (run_id, ordering)
	);

	CREATE TABLE IF NOT EXISTS tallies (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		ordering TEXT NOT NULL,
		kind TEXT NOT NULL,
		label TEXT NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, ordering, kind, label)
	);
	`
	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// Publish implements History. The run is written in one transaction.
func (s *SQLiteStore) Publish(ctx context.Context, c *domain.Census) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, subreddit, target, started_at, finished_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Subreddit, c.Target,
		c.StartedAt.UTC().Format(timeLayout), c.FinishedAt.UTC().Format(timeLayout),
	); err != nil {
		return fmt.Errorf("insert run %s: %w", c.ID, err)
	}

	for i, o := range c.Orderings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO orderings (run_id, position, ordering, collected, exhausted, duplicates, pages)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			c.ID, i, string(o.Ordering), o.Collected, o.Exhausted, o.Duplicates, o.Pages,
		); err != nil {
			return fmt.Errorf("insert ordering %s: %w", o.Ordering, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO tallies (run_id, ordering, kind, label, count) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tallies: %w", err)
	}
	defer stmt.Close()
	for _, r := range tallyRows(c) {
		if _, err := stmt.ExecContext(ctx, c.ID, string(r.ordering), r.kind, r.label, r.count); err != nil {
			return fmt.Errorf("insert tally: %w", err)
		}
	}

	return tx.Commit()
}

// Recent implements History.
func (s *SQLiteStore) Recent(ctx context.Context, subreddit string, limit int) ([]domain.Census, error) {
	if limit <= 0 {
		limit = -1 // no LIMIT in SQLite
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subreddit, target, started_at, finished_at FROM runs
		 WHERE ? = '' OR subreddit = ?
		 ORDER BY started_at DESC LIMIT ?`,
		subreddit, subreddit, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	var runs []domain.Census
	for rows.Next() {
		var (
			c                 domain.Census
			started, finished string
		)
		if err := rows.Scan(&c.ID, &c.Subreddit, &c.Target, &started, &finished); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan run: %w", err)
		}
		c.StartedAt, _ = time.Parse(timeLayout, started)
		c.FinishedAt, _ = time.Parse(timeLayout, finished)
		runs = append(runs, c)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	for i := range runs {
		if err := s.loadOrderings(ctx, &runs[i]); err != nil {
			return nil, err
		}
		runs[i].Charts = aggregate.BuildCharts(runs[i].Orderings)
	}
	return runs, nil
}

func (s *SQLiteStore) loadOrderings(ctx context.Context, c *domain.Census) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ordering, collected, exhausted, duplicates, pages FROM orderings
		 WHERE run_id = ? ORDER BY position`, c.ID)
	if err != nil {
		return fmt.Errorf("query orderings: %w", err)
	}
	for rows.Next() {
		var (
			o        domain.OrderingSummary
			ordering string
		)
		if err := rows.Scan(&ordering, &o.Collected, &o.Exhausted, &o.Duplicates, &o.Pages); err != nil {
			_ = rows.Close()
			return fmt.Errorf("scan ordering: %w", err)
		}
		o.Ordering = domain.Ordering(ordering)
		o.Flairs = make(domain.CategoryTally)
		o.LabeledFlairs = make(domain.CategoryTally)
		c.Orderings = append(c.Orderings, o)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	trows, err := s.db.QueryContext(ctx,
		`SELECT ordering, kind, label, count FROM tallies WHERE run_id = ?`, c.ID)
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
