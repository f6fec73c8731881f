// Package aggregate derives flair and NSFW tallies from collected posts and
// aligns them across orderings for charting.
//
// Tallies are recomputed from a finished collection every time; nothing here
// is updated incrementally.
package aggregate

import (
	"sort"

	"github.com/qepting91/flair-census/internal/domain"
)

// TallyByCategory counts posts per flair. Posts without flair are counted
// under domain.NoneLabel when includeUnlabeled is set and skipped otherwise.
func TallyByCategory(items []domain.Post, includeUnlabeled bool) domain.CategoryTally {
	tally := make(domain.CategoryTally)
	for _, p := range items {
		label, ok := p.Label()
		if !ok {
			if !includeUnlabeled {
				continue
			}
			label = domain.NoneLabel
		}
		tally[label]++
	}
	return tally
}

// TallyByFlag counts NSFW and SFW posts.
func TallyByFlag(items []domain.Post) domain.FlagTally {
	var f domain.FlagTally
	for _, p := range items {
		if p.NSFW {
			f.NSFW++
		} else {
			f.SFW++
		}
	}
	return f
}

// Percentages returns 100 × count / total for every label.
// The share is undefined for an empty tally, so domain.ErrEmptyTally is returned.
func Percentages(tally domain.CategoryTally) (map[string]float64, error) {
	total := tally.Total()
	if total == 0 {
		return nil, domain.ErrEmptyTally
	}
	out := make(map[string]float64, len(tally))
	for label, n := range tally {
		out[label] = float64(n) / float64(total) * 100
	}
	return out, nil
}

// UnionLabels returns every label present in any tally, sorted.
func UnionLabels(tallies ...domain.CategoryTally) []string {
	set := make(map[string]struct{})
	for _, t := range tallies {
		for label := range t {
			set[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(set))
	for label := range set {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// AlignedSeries projects tally onto labels, keeping their order and filling gaps with zero.
func AlignedSeries(labels []string, tally domain.CategoryTally) []int {
	out := make([]int, len(labels))
	for i, label := range labels {
		out[i] = tally[label]
	}
	return out
}

// SortedByCount orders labels by descending count, then name. Used for report tables.
func SortedByCount(tally domain.CategoryTally) []string {
	labels := make([]string, 0, len(tally))
	for label := range tally {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool {
		if tally[labels[i]] != tally[labels[j]] {
			return tally[labels[i]] > tally[labels[j]]
		}
		return labels[i] < labels[j]
	})
	return labels
}
