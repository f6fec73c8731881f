package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

// ErrClosed is returned when publishing to a closed store.
var ErrClosed = errors.New("history store closed")

type writeRequest struct {
	census *domain.Census
	done   chan error
}

// NDJSONStore appends one census per line. A single monitor goroutine owns
// the file; Publish hands records to it over a channel.
type NDJSONStore struct {
	path  string
	input chan writeRequest
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewNDJSONStore opens (or creates) the history file and starts its writer.
func NewNDJSONStore(path string) (*NDJSONStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}

	s := &NDJSONStore{path: path, input: make(chan writeRequest)}
	s.wg.Add(1)
	go s.start(f)
	return s, nil
}

func (s *NDJSONStore) start(f *os.File) {
	defer s.wg.Done()
	defer f.Close()

	enc := json.NewEncoder(f)
	for req := range s.input {
		// Charts are derived data and rebuilt on read.
		line := *req.census
		line.Charts = nil
		req.done <- enc.Encode(&line)
	}
}

// Publish implements History. It returns once the line is written.
func (s *NDJSONStore) Publish(ctx context.Context, c *domain.Census) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	req := writeRequest{census: c, done: make(chan error, 1)}
	select {
	case s.input <- req:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := <-req.done; err != nil {
		return fmt.Errorf("append census %s: %w", c.ID, err)
	}
	return nil
}

// Recent reads the whole file. Malformed lines are skipped.
func (s *NDJSONStore) Recent(_ context.Context, subreddit string, limit int) ([]domain.Census, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open history file: %w", err)
	}
	defer f.Close()

	var runs []domain.Census
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var c domain.Census
		if err := json.Unmarshal(scanner.Bytes(), &c); err != nil {
			continue
		}
		if subreddit != "" && c.Subreddit != subreddit {
			continue
		}
		c.Charts = aggregate.BuildCharts(c.Orderings)
		runs = append(runs, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartedAt.After(runs[j].StartedAt)
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close stops the writer and waits for it to flush.
func (s *NDJSONStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.input)
	s.wg.Wait()
	return nil
}
