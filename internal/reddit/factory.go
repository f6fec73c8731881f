package reddit

import (
	"fmt"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/rs/zerolog"
)

// Collector modes.
const (
	ModeAPI    = "api"
	ModePublic = "public"
	ModeMock   = "mock"
)

// Options select and configure a Lister.
type Options struct {
	Mode        string
	Credentials Credentials
	UserAgent   string
	Tracker     *ratelimit.Tracker
	Mock        MockOptions
	Logger      zerolog.Logger
}

// NewLister selects the correct implementation based on the mode
func NewLister(o Options) (domain.Lister, error) {
	switch o.Mode {
	case ModeAPI:
		if o.Credentials.ID == "" || o.Credentials.Secret == "" {
			return nil, fmt.Errorf("REDDIT_CLIENT_ID and REDDIT_CLIENT_SECRET are required for api mode")
		}
		client, err := NewAPIClient(o.Credentials, o.UserAgent, o.Tracker, o.Logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case ModePublic:
		client, err := NewPublicClient(o.UserAgent, o.Logger, WithPublicTracker(o.Tracker))
		if err != nil {
			return nil, err
		}
		return client, nil
	case ModeMock:
		return NewMockClient(o.Mock), nil
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", o.Mode)
	}
}
