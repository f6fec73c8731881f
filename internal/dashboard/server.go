// Package dashboard serves the most recent census charts and the process
// metrics over HTTP.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/report"
)

// Recents is the read side of the run history.
type Recents interface {
	Recent(ctx context.Context, subreddit string, limit int) ([]domain.Census, error)
}

// Server keeps the latest census per subreddit in memory and renders it on request.
// It is also a report.Sink so the runner can publish to it directly.
type Server struct {
	addr    string
	history Recents
	logger  zerolog.Logger

	mu     sync.RWMutex
	latest map[string]*domain.Census
	last   string
}

// NewServer listens on addr once Start is called. history may be nil.
func NewServer(addr string, history Recents, logger zerolog.Logger) *Server {
	return &Server{
		addr:    addr,
		history: history,
		logger:  logger,
		latest:  make(map[string]*domain.Census),
	}
}

// Publish implements report.Sink.
func (s *Server) Publish(_ context.Context, c *domain.Census) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[c.Subreddit] = c
	s.last = c.Subreddit
	return nil
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleCharts)
	mux.HandleFunc("GET /api/census", s.handleCensus)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("Starting dashboard")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// lookup finds the census for subreddit (or the last published one),
// falling back to the run history.
func (s *Server) lookup(ctx context.Context, subreddit string) (*domain.Census, error) {
	s.mu.RLock()
	if subreddit == "" {
		subreddit = s.last
	}
	c, ok := s.latest[subreddit]
	s.mu.RUnlock()
	if ok {
		return c, nil
	}

	if s.history == nil {
		return nil, nil
	}
	runs, err := s.history.Recent(ctx, subreddit, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return &runs[0], nil
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	c, err := s.lookup(r.Context(), r.URL.Query().Get("subreddit"))
	if err != nil {
		s.logger.Error().Err(err).Msg("Dashboard history lookup failed")
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "no census published yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.RenderPage(w, c); err != nil {
		s.logger.Error().Err(err).Str("census", c.ID).Msg("Render failed")
	}
}

func (s *Server) handleCensus(w http.ResponseWriter, r *http.Request) {
	c, err := s.lookup(r.Context(), r.URL.Query().Get("subreddit"))
	if err != nil {
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if c == nil {
		http.Error(w, "no census published yet", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(c); err != nil {
		s.logger.Error().Err(err).Msg("Encode census failed")
	}
}
