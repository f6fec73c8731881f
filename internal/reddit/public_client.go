package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultPublicBaseURL serves the unauthenticated JSON listings.
const DefaultPublicBaseURL = "https://www.reddit.com"

type PublicClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	tracker    *ratelimit.Tracker
	baseURL    string
	userAgent  string
	logger     zerolog.Logger
}

// PublicOption customizes a PublicClient.
type PublicOption func(*PublicClient)

// WithPublicBaseURL points the client at another host (tests, mirrors).
func WithPublicBaseURL(u string) PublicOption {
	return func(pc *PublicClient) { pc.baseURL = strings.TrimRight(u, "/") }
}

// WithPublicRate overrides the request spacing.
func WithPublicRate(every time.Duration) PublicOption {
	return func(pc *PublicClient) { pc.limiter = rate.NewLimiter(rate.Every(every), 1) }
}

// WithPublicTracker attaches a quota tracker.
func WithPublicTracker(t *ratelimit.Tracker) PublicOption {
	return func(pc *PublicClient) { pc.tracker = t }
}

func NewPublicClient(userAgent string, logger zerolog.Logger, opts ...PublicOption) (*PublicClient, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required for public mode")
	}
	pc := &PublicClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Public JSON Limit: 1 req / 2 seconds (Stricter)
		limiter:   rate.NewLimiter(rate.Every(2*time.Second), 1),
		baseURL:   DefaultPublicBaseURL,
		userAgent: userAgent,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(pc)
	}
	return pc, nil
}

func (pc *PublicClient) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Post, error) {
	if err := pc.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if pc.tracker != nil {
		if err := pc.tracker.Wait(ctx); err != nil {
			return nil, err
		}
	}

	path, err := listingPath(req, ".json")
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/"+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("User-Agent", pc.userAgent)

	start := time.Now()
	posts, err := pc.do(ctx, httpReq)
	observeRequest(modePublic, req.Ordering, err, time.Since(start))
	return posts, err
}

func (pc *PublicClient) do(ctx context.Context, req *http.Request) ([]domain.Post, error) {
	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if pc.tracker != nil {
		if qerr := pc.tracker.Observe(ctx, resp.Header); qerr != nil {
			pc.logger.Warn().Err(qerr).Msg("Ignoring malformed quota headers")
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit public access status: %d", resp.StatusCode)
	}

	var listing listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return listing.posts(), nil
}
