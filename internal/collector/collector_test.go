package collector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/rs/zerolog"
)

var quiet = zerolog.Nop()

// scriptedLister replays pages and records every request.
type scriptedLister struct {
	pages    [][]domain.Post
	err      error
	errAt    int
	requests []domain.PageRequest
}

func (s *scriptedLister) FetchPage(_ context.Context, req domain.PageRequest) ([]domain.Post, error) {
	s.requests = append(s.requests, req)
	n := len(s.requests) - 1
	if s.err != nil && n == s.errAt {
		return nil, s.err
	}
	if n >= len(s.pages) {
		return nil, nil
	}
	return s.pages[n], nil
}

// sequenceLister serves an endless run of unique posts honoring Limit and After.
type sequenceLister struct {
	requests []domain.PageRequest
}

func (s *sequenceLister) FetchPage(_ context.Context, req domain.PageRequest) ([]domain.Post, error) {
	s.requests = append(s.requests, req)
	start := 0
	if req.After != "" {
		fmt.Sscanf(req.After, "t3_p%d", &start)
		start++
	}
	page := make([]domain.Post, req.Limit)
	for i := range page {
		page[i] = domain.Post{ID: fmt.Sprintf("p%d", start+i)}
	}
	return page, nil
}

// fakeClock counts sleeps without waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func posts(ids ...string) []domain.Post {
	out := make([]domain.Post, len(ids))
	for i, id := range ids {
		out[i] = domain.Post{ID: id}
	}
	return out
}

func ids(items []domain.Post) []string {
	out := make([]string, len(items))
	for i, p := range items {
		out[i] = p.ID
	}
	return out
}

func newTestCollector(l domain.Lister, clock *fakeClock, cfg Config) *Collector {
	if cfg.Subreddit == "" {
		cfg.Subreddit = "196"
	}
	return New(l, ratelimit.NewPacer(time.Minute, clock, quiet), cfg, quiet)
}

func TestCollect_OverlappingPagesAreDeduplicated(t *testing.T) {
	lister := &scriptedLister{pages: [][]domain.Post{
		posts("A", "B", "C"),
		posts("B", "C", "D"),
	}}
	clock := &fakeClock{}
	c := newTestCollector(lister, clock, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingLatest, 4)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	got := ids(res.Items)
	want := []string{"A", "B", "C", "D"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("items = %v, want %v", got, want)
	}
	if res.Duplicates != 2 {
		t.Errorf("Duplicates = %d, want 2", res.Duplicates)
	}
	if res.Exhausted {
		t.Error("run reached its target and should not be exhausted")
	}
	if lister.requests[1].After != "t3_C" {
		t.Errorf("second request After = %q, want t3_C", lister.requests[1].After)
	}
	if lister.requests[1].Limit != 1 {
		t.Errorf("second request Limit = %d, want 1", lister.requests[1].Limit)
	}
	if lister.requests[1].Count != 3 {
		t.Errorf("second request Count = %d, want 3", lister.requests[1].Count)
	}
}

func TestCollect_EmptyFirstPage(t *testing.T) {
	lister := &scriptedLister{}
	clock := &fakeClock{}
	c := newTestCollector(lister, clock, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingHot, 1000)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(res.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0", len(res.Items))
	}
	if !res.Exhausted {
		t.Error("Exhausted should be set")
	}
	if lister.requests[0].After != "" {
		t.Errorf("first request should carry no cursor, got %q", lister.requests[0].After)
	}
	if len(clock.sleeps) != 0 {
		t.Errorf("no pacing expected, got %v", clock.sleeps)
	}
}

func TestCollect_PageSizesAndPacing(t *testing.T) {
	lister := &sequenceLister{}
	clock := &fakeClock{}
	c := newTestCollector(lister, clock, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingHot, 250)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(res.Items) != 250 {
		t.Fatalf("len(Items) = %d, want 250", len(res.Items))
	}

	wantLimits := []int{100, 100, 50}
	if len(lister.requests) != len(wantLimits) {
		t.Fatalf("requests = %d, want %d", len(lister.requests), len(wantLimits))
	}
	for i, want := range wantLimits {
		if lister.requests[i].Limit != want {
			t.Errorf("request[%d].Limit = %d, want %d", i, lister.requests[i].Limit, want)
		}
	}
	if lister.requests[1].After != "t3_p99" || lister.requests[2].After != "t3_p199" {
		t.Errorf("cursors = %q, %q", lister.requests[1].After, lister.requests[2].After)
	}

	// N pages means N-1 full delays between consecutive calls.
	if len(clock.sleeps) != len(lister.requests)-1 {
		t.Fatalf("sleeps = %d, want %d", len(clock.sleeps), len(lister.requests)-1)
	}
	for i, d := range clock.sleeps {
		if d != time.Minute {
			t.Errorf("sleep[%d] = %v, want 1m", i, d)
		}
	}
}

func TestCollect_ShortSourceIsExhausted(t *testing.T) {
	lister := &scriptedLister{pages: [][]domain.Post{
		posts("a", "b"),
		posts("c"),
	}}
	clock := &fakeClock{}
	c := newTestCollector(lister, clock, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingHot, 10)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(res.Items) != 3 || !res.Exhausted {
		t.Errorf("items = %v exhausted = %v; want 3 items, exhausted", ids(res.Items), res.Exhausted)
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3", res.Pages)
	}
	if len(clock.sleeps) != 2 {
		t.Errorf("sleeps = %d, want 2", len(clock.sleeps))
	}
}

func TestCollect_TransportErrorAborts(t *testing.T) {
	cause := errors.New("503 service unavailable")
	lister := &scriptedLister{
		pages: [][]domain.Post{posts("a", "b")},
		err:   cause,
		errAt: 1,
	}
	c := newTestCollector(lister, &fakeClock{}, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingTop, 10)
	if res != nil {
		t.Errorf("result = %+v, want nil on transport failure", res)
	}
	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error = %v, want *domain.TransportError", err)
	}
	if te.Ordering != domain.OrderingTop || te.After != "t3_b" || te.Subreddit != "196" {
		t.Errorf("TransportError = %+v", te)
	}
	if !errors.Is(err, cause) {
		t.Error("cause should be reachable through errors.Is")
	}
}

func TestCollect_TopCarriesWindow(t *testing.T) {
	for _, o := range domain.Orderings {
		lister := &scriptedLister{pages: [][]domain.Post{posts("a")}}
		c := newTestCollector(lister, &fakeClock{}, Config{})
		if _, err := c.Collect(context.Background(), o, 1); err != nil {
			t.Fatalf("Collect(%s) error = %v", o, err)
		}
		want := ""
		if o == domain.OrderingTop {
			want = "month"
		}
		if got := lister.requests[0].Window; got != want {
			t.Errorf("%s window = %q, want %q", o, got, want)
		}
		if lister.requests[0].Ordering != o {
			t.Errorf("request ordering = %q, want %q", lister.requests[0].Ordering, o)
		}
	}
}

func TestCollect_TruncatesOversizedPage(t *testing.T) {
	lister := &scriptedLister{pages: [][]domain.Post{posts("a", "b", "c", "d", "e")}}
	c := newTestCollector(lister, &fakeClock{}, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingHot, 3)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if got := ids(res.Items); fmt.Sprint(got) != "[a b c]" {
		t.Errorf("items = %v, want [a b c]", got)
	}
}

func TestCollect_StallLimit(t *testing.T) {
	same := posts("a", "b")
	lister := &scriptedLister{pages: [][]domain.Post{same, same, same, same, same}}
	clock := &fakeClock{}
	c := newTestCollector(lister, clock, Config{StallLimit: 2})

	res, err := c.Collect(context.Background(), domain.OrderingTop, 10)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if !res.Exhausted {
		t.Error("stalled run should be marked exhausted")
	}
	if res.Pages != 3 {
		t.Errorf("Pages = %d, want 3 (one productive, two stalled)", res.Pages)
	}
	if res.Duplicates != 4 {
		t.Errorf("Duplicates = %d, want 4", res.Duplicates)
	}
	if lister.requests[2].After != "t3_b" {
		t.Errorf("cursor should hold at the last new post, got %q", lister.requests[2].After)
	}
}

func TestCollect_ZeroTarget(t *testing.T) {
	lister := &scriptedLister{}
	c := newTestCollector(lister, &fakeClock{}, Config{})
	res, err := c.Collect(context.Background(), domain.OrderingHot, 0)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(res.Items) != 0 || len(lister.requests) != 0 {
		t.Errorf("zero target should not fetch: items=%d requests=%d", len(res.Items), len(lister.requests))
	}
}

func TestCollect_NoDuplicatesAcrossShiftingWindow(t *testing.T) {
	// Every page repeats the tail of the previous one, as when new posts push the window.
	var pages [][]domain.Post
	for p := 0; p < 12; p++ {
		var page []domain.Post
		for i := 0; i < 10; i++ {
			page = append(page, domain.Post{ID: fmt.Sprintf("x%d", p*7+i)})
		}
		pages = append(pages, page)
	}
	lister := &scriptedLister{pages: pages}
	c := newTestCollector(lister, &fakeClock{}, Config{})

	res, err := c.Collect(context.Background(), domain.OrderingHot, 60)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(res.Items) > 60 {
		t.Fatalf("len(Items) = %d exceeds target", len(res.Items))
	}
	seen := map[string]bool{}
	for _, p := range res.Items {
		if seen[p.ID] {
			t.Fatalf("duplicate id %s in result", p.ID)
		}
		seen[p.ID] = true
	}
	if res.Duplicates == 0 {
		t.Error("overlapping pages should record duplicates")
	}
}

func TestCollect_ReportsProgress(t *testing.T) {
	lister := &scriptedLister{pages: [][]domain.Post{posts("a", "b"), posts("b", "c")}}
	var got []Progress
	c := newTestCollector(lister, &fakeClock{}, Config{Progress: func(p Progress) { got = append(got, p) }})

	if _, err := c.Collect(context.Background(), domain.OrderingLatest, 3); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("progress calls = %d, want 2", len(got))
	}
	last := got[1]
	if last.Collected != 3 || last.Remaining != 0 || last.Duplicates != 1 || last.Cursor != "advancing:t3_c" {
		t.Errorf("last progress = %+v", last)
	}
}

func TestCollect_CancelledDuringPacing(t *testing.T) {
	lister := &sequenceLister{}
	c := New(lister, ratelimit.NewPacer(time.Hour, ratelimit.SystemClock{}, quiet), Config{Subreddit: "196"}, quiet)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Collect(ctx, domain.OrderingHot, 150); !errors.Is(err, context.Canceled) {
		t.Errorf("Collect() error = %v, want context.Canceled", err)
	}
}
