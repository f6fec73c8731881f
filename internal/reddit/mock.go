package reddit

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/qepting91/flair-census/internal/domain"
)

// MockOptions shape the simulated listing.
type MockOptions struct {
	// Window is how many posts the listing exposes (Reddit keeps about 1000).
	Window int
	// Shift is how many new posts appear at the head before each follow-up call.
	Shift int
	// Latency is added to every call.
	Latency time.Duration
	Seed    int64
}

// DefaultMockOptions mirrors a busy subreddit.
func DefaultMockOptions() MockOptions {
	return MockOptions{Window: 1000, Shift: 3, Latency: 200 * time.Millisecond, Seed: 196}
}

var mockFlairs = []string{"Meme", "Shitpost", "Art", "Rule", "OC", "Discussion"}

// MockClient implements domain.Lister over a simulated sliding window that
// keeps receiving new posts while it is paged through.
type MockClient struct {
	opts    MockOptions
	mu      sync.Mutex
	windows map[string]*mockWindow
}

type mockWindow struct {
	rng   *rand.Rand
	sub   string
	posts []domain.Post // newest first
	next  int
	calls int
}

func NewMockClient(opts MockOptions) *MockClient {
	if opts.Window <= 0 {
		opts.Window = 1000
	}
	return &MockClient{opts: opts, windows: make(map[string]*mockWindow)}
}

func (mc *MockClient) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Post, error) {
	if mc.opts.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(mc.opts.Latency):
		}
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	w := mc.window(req.Subreddit, req.Ordering)
	if w.calls > 0 {
		w.shift(mc.opts.Shift, mc.opts.Window)
	}
	w.calls++

	start := 0
	if req.After != "" {
		idx := -1
		for i, p := range w.posts {
			if p.FullName() == req.After {
				idx = i
				break
			}
		}
		if idx < 0 {
			// Anchor fell out of the window.
			return nil, nil
		}
		start = idx + 1
	}

	end := start + req.Limit
	if end > len(w.posts) {
		end = len(w.posts)
	}
	if start >= end {
		return nil, nil
	}
	page := make([]domain.Post, end-start)
	copy(page, w.posts[start:end])
	return page, nil
}

func (mc *MockClient) window(sub string, o domain.Ordering) *mockWindow {
	key := strings.ToLower(sub) + "/" + string(o)
	if w, ok := mc.windows[key]; ok {
		return w
	}

	h := fnv.New64a()
	h.Write([]byte(key))
	w := &mockWindow{
		rng: rand.New(rand.NewSource(mc.opts.Seed ^ int64(h.Sum64()))),
		sub: sub,
	}
	for i := 0; i < mc.opts.Window; i++ {
		w.posts = append(w.posts, w.newPost())
	}
	mc.windows[key] = w
	return w
}

func (w *mockWindow) newPost() domain.Post {
	id := fmt.Sprintf("m%05d", w.next)
	w.next++

	var flair *string
	if w.rng.Intn(4) > 0 {
		f := mockFlairs[w.rng.Intn(len(mockFlairs))]
		flair = &f
	}
	return domain.Post{
		ID:           id,
		Title:        fmt.Sprintf("[%s] Simulated post #%s", w.sub, id),
		Subreddit:    "r/" + w.sub,
		Author:       "simulated_user",
		URL:          "http://localhost/mock-url/" + id,
		Score:        w.rng.Intn(500),
		CommentCount: w.rng.Intn(50),
		CreatedUTC:   float64(time.Now().Unix()),
		Flair:        flair,
		NSFW:         w.rng.Intn(10) == 0,
	}
}

// shift pushes n fresh posts onto the head and trims the tail to size.
func (w *mockWindow) shift(n, size int) {
	if n <= 0 {
		return
	}
	fresh := make([]domain.Post, 0, n+len(w.posts))
	for i := 0; i < n; i++ {
		fresh = append(fresh, w.newPost())
	}
	w.posts = append(fresh, w.posts...)
	if len(w.posts) > size {
		w.posts = w.posts[:size]
	}
}
