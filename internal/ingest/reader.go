// Package ingest loads census targets from CSV files.
package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/qepting91/flair-census/internal/config"
	"github.com/qepting91/flair-census/internal/domain"
)

// ErrNoTargets is returned when a file yields no usable rows.
var ErrNoTargets = errors.New("no valid targets")

// LoadTargets reads "subreddit,count" rows. The first row is a header. Rows with
// an invalid subreddit name are skipped and logged; an empty or unparsable
// count leaves Count at zero so the configured default applies.
func LoadTargets(path string, logger zerolog.Logger) ([]domain.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	targets, err := ReadTargets(f, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return targets, nil
}

// ReadTargets is LoadTargets over any reader.
func ReadTargets(r io.Reader, logger zerolog.Logger) ([]domain.Target, error) {
	// Wrap in BOM stripper
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var targets []domain.Target
	seen := make(map[string]bool)
	line := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return nil, fmt.Errorf("read targets: %w", err)
			}
			logger.Warn().Err(err).Int("line", line).Msg("Skipping unreadable row")
			continue
		}
		if line == 1 {
			continue // Skip header
		}
		if len(record) == 0 {
			continue
		}

		// Validation (Fail-Soft)
		sub := strings.TrimPrefix(strings.TrimSpace(record[0]), "r/")
		if sub == "" {
			continue
		}
		if !config.ValidSubreddit(sub) {
			logger.Warn().Int("line", line).Str("subreddit", sub).Msg("Skipping invalid subreddit")
			continue
		}
		key := strings.ToLower(sub)
		if seen[key] {
			logger.Debug().Str("subreddit", sub).Msg("Skipping repeated subreddit")
			continue
		}
		seen[key] = true

		count := 0
		if len(record) > 1 {
			if raw := strings.TrimSpace(record[1]); raw != "" {
				n, err := strconv.Atoi(raw)
				if err != nil || n < 0 {
					logger.Warn().Int("line", line).Str("count", raw).Msg("Ignoring invalid count")
				} else {
					count = n
				}
			}
		}

		targets = append(targets, domain.Target{Subreddit: sub, Count: count})
	}

	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	return targets, nil
}

func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	rdr, _, err := br.ReadRune()
	if err != nil {
		return br
	}
	if rdr != '\uFEFF' {
		br.UnreadRune()
	}
	return br
}
