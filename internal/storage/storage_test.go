package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

func flair(s string) *string { return &s }

// newTestCensus builds a census for subreddit started at the given minute.
func newTestCensus(id, subreddit string, minute int) *domain.Census {
	hot := aggregate.Summarize(domain.OrderingHot, []domain.Post{
		{ID: "a", Flair: flair("Meme")},
		{ID: "b", Flair: flair("Meme"), NSFW: true},
		{ID: "c"},
	}, false, 2, 1)
	top := aggregate.Summarize(domain.OrderingTop, []domain.Post{
		{ID: "d", Flair: flair("None")},
	}, true, 0, 2)

	summaries := []domain.OrderingSummary{hot, top}
	start := time.Date(2024, 5, 1, 10, minute, 0, 0, time.UTC)
	return &domain.Census{
		ID:         id,
		Subreddit:  subreddit,
		Target:     3,
		StartedAt:  start,
		FinishedAt: start.Add(30 * time.Second),
		Orderings:  summaries,
		Charts:     aggregate.BuildCharts(summaries),
	}
}

// assertSameCensus compares what the stores round-trip.
func assertSameCensus(t *testing.T, got domain.Census, want *domain.Census) {
	t.Helper()

	if got.ID != want.ID || got.Subreddit != want.Subreddit || got.Target != want.Target {
		t.Errorf("header = %s/%s/%d, want %s/%s/%d", got.ID, got.Subreddit, got.Target, want.ID, want.Subreddit, want.Target)
	}
	if !got.StartedAt.Equal(want.StartedAt) || !got.FinishedAt.Equal(want.FinishedAt) {
		t.Errorf("times = %v..%v, want %v..%v", got.StartedAt, got.FinishedAt, want.StartedAt, want.FinishedAt)
	}
	if len(got.Orderings) != len(want.Orderings) {
		t.Fatalf("len(Orderings) = %d, want %d", len(got.Orderings), len(want.Orderings))
	}
	for i := range want.Orderings {
		if !reflect.DeepEqual(got.Orderings[i], want.Orderings[i]) {
			t.Errorf("Orderings[%d] = %+v, want %+v", i, got.Orderings[i], want.Orderings[i])
		}
	}
	if !reflect.DeepEqual(got.Charts, want.Charts) {
		t.Errorf("Charts were not rebuilt: %+v", got.Charts)
	}
}

func exerciseHistory(t *testing.T, h History) {
	t.Helper()
	ctx := context.Background()

	first := newTestCensus("run-1", "196", 0)
	second := newTestCensus("run-2", "196", 5)
	other := newTestCensus("run-3", "golang", 10)
	for _, c := range []*domain.Census{first, second, other} {
		if err := h.Publish(ctx, c); err != nil {
			t.Fatalf("Publish(%s) error = %v", c.ID, err)
		}
	}

	runs, err := h.Recent(ctx, "196", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("len(Recent) = %d, want 2", len(runs))
	}
	assertSameCensus(t, runs[0], second)
	assertSameCensus(t, runs[1], first)

	runs, err = h.Recent(ctx, "", 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-3" {
		t.Errorf("Recent(all, 1) = %+v, want run-3", runs)
	}
}

func TestNDJSONStore(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "history.ndjson")
	store, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatalf("NewNDJSONStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exerciseHistory(t, store)
}

func TestNDJSONStore_ConcurrentPublish(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.ndjson")
	store, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := store.Publish(context.Background(), newTestCensus("r", "196", i)); err != nil {
				t.Errorf("Publish() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	runs, err := store.Recent(context.Background(), "196", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 20 {
		t.Errorf("len(Recent) = %d, want 20", len(runs))
	}

	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := store.Publish(context.Background(), newTestCensus("late", "196", 0)); !errors.Is(err, ErrClosed) {
		t.Errorf("Publish() after Close = %v, want ErrClosed", err)
	}
}

func TestNDJSONStore_SkipsMalformedLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.jsonl")
	if err := os.WriteFile(path, []byte("not json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	store, err := NewNDJSONStore(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if err := store.Publish(context.Background(), newTestCensus("ok", "196", 0)); err != nil {
		t.Fatal(err)
	}
	runs, err := store.Recent(context.Background(), "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != "ok" {
		t.Errorf("Recent() = %+v", runs)
	}
}

func TestSQLiteStore(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	exerciseHistory(t, store)
}

func TestSQLiteStore_DuplicateRunID(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	c := newTestCensus("same", "196", 0)
	if err := store.Publish(context.Background(), c); err != nil {
		t.Fatal(err)
	}
	if err := store.Publish(context.Background(), c); err == nil {
		t.Error("second Publish() with the same run ID should fail")
	}

	runs, err := store.Recent(context.Background(), "196", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 {
		t.Errorf("failed publish left partial rows: %d runs", len(runs))
	}
}

func TestSQLiteStore_OrdersWithinOneSecond(t *testing.T) {
	t.Parallel()

	store, err := OpenSQLite(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	whole := newTestCensus("whole", "196", 0)
	later := newTestCensus("later", "196", 0)
	later.StartedAt = whole.StartedAt.Add(100 * time.Millisecond)
	for _, c := range []*domain.Census{later, whole} {
		if err := store.Publish(context.Background(), c); err != nil {
			t.Fatalf("Publish(%s) error = %v", c.ID, err)
		}
	}

	runs, err := store.Recent(context.Background(), "196", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != "later" || runs[1].ID != "whole" {
		t.Fatalf("Recent() order = %v, want [later whole]", runIDs(runs))
	}
	if !runs[0].StartedAt.Equal(later.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", runs[0].StartedAt, later.StartedAt)
	}
}

func runIDs(runs []domain.Census) []string {
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids
}

func TestOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tests := []struct {
		name    string
		dsn     string
		want    any
		wantErr error
	}{
		{name: "ndjson", dsn: filepath.Join(dir, "h.ndjson"), want: &NDJSONStore{}},
		{name: "jsonl", dsn: filepath.Join(dir, "h.jsonl"), want: &NDJSONStore{}},
		{name: "sqlite ext", dsn: filepath.Join(dir, "h.db"), want: &SQLiteStore{}},
		{name: "sqlite prefix", dsn: "sqlite:" + filepath.Join(dir, "h2"), want: &SQLiteStore{}},
		{name: "empty", dsn: "", wantErr: ErrUnknownDSN},
		{name: "unknown", dsn: filepath.Join(dir, "h.txt"), wantErr: ErrUnknownDSN},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := Open(context.Background(), tt.dsn)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Open() error = %v, want %v", err, tt.wantErr)
				}
				if h != nil {
					t.Error("Open() returned a store alongside an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer h.Close()
			if reflect.TypeOf(h) != reflect.TypeOf(tt.want) {
				t.Errorf("Open() = %T, want %T", h, tt.want)
			}
		})
	}
}
