package reddit

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Credentials for the OAuth password grant.
type Credentials struct {
	ID       string
	Secret   string
	Username string
	Password string
}

// APIClient lists through the authenticated OAuth API.
type APIClient struct {
	client  *reddit.Client
	limiter *rate.Limiter
	tracker *ratelimit.Tracker
	logger  zerolog.Logger
}

// NewAPIClient logs in lazily with creds; extra go-reddit options (base URL,
// token URL, HTTP client) are passed through.
func NewAPIClient(creds Credentials, userAgent string, tracker *ratelimit.Tracker, logger zerolog.Logger, opts ...reddit.Opt) (*APIClient, error) {
	rc := reddit.Credentials{ID: creds.ID, Secret: creds.Secret, Username: creds.Username, Password: creds.Password}

	opts = append([]reddit.Opt{reddit.WithUserAgent(userAgent)}, opts...)
	client, err := reddit.NewClient(rc, opts...)
	if err != nil {
		return nil, err
	}

	// API Rate Limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &APIClient{client: client, limiter: limiter, tracker: tracker, logger: logger}, nil
}

func (ac *APIClient) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Post, error) {
	if err := ac.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if ac.tracker != nil {
		if err := ac.tracker.Wait(ctx); err != nil {
			return nil, err
		}
	}

	path, err := listingPath(req, "")
	if err != nil {
		return nil, err
	}
	httpReq, err := ac.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("build listing request: %w", err)
	}

	start := time.Now()
	var listing listingResponse
	resp, err := ac.client.Do(ctx, httpReq, &listing)
	observeRequest(modeAPI, req.Ordering, err, time.Since(start))

	if resp != nil && resp.Response != nil && ac.tracker != nil {
		if qerr := ac.tracker.Observe(ctx, resp.Header); qerr != nil {
			ac.logger.Warn().Err(qerr).Msg("Ignoring malformed quota headers")
		}
	}
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}

	return listing.posts(), nil
}
