package aggregate

import (
	"github.com/qepting91/flair-census/internal/domain"
)

// Chart names, also used as output file stems.
const (
	ChartFlairs        = "flairs"
	ChartFlairsLabeled = "flairs_no_flairless"
	ChartNSFW          = "nsfw"
)

// Summarize builds the per-ordering summary from a finished collection.
func Summarize(o domain.Ordering, items []domain.Post, exhausted bool, duplicates, pages int) domain.OrderingSummary {
	return domain.OrderingSummary{
		Ordering:      o,
		Collected:     len(items),
		Exhausted:     exhausted,
		Duplicates:    duplicates,
		Pages:         pages,
		Flairs:        TallyByCategory(items, true),
		LabeledFlairs: TallyByCategory(items, false),
		Flags:         TallyByFlag(items),
	}
}

// BuildCharts lays the orderings side by side: every chart shares one label
// axis, the union across orderings, and has one series per ordering.
func BuildCharts(summaries []domain.OrderingSummary) []domain.Chart {
	flairs := make([]domain.CategoryTally, len(summaries))
	labeled := make([]domain.CategoryTally, len(summaries))
	for i, s := range summaries {
		flairs[i] = s.Flairs
		labeled[i] = s.LabeledFlairs
	}

	all := UnionLabels(flairs...)
	allLabeled := UnionLabels(labeled...)

	flairChart := domain.Chart{Name: ChartFlairs, Title: "Flair Post Data", Labels: all}
	labeledChart := domain.Chart{Name: ChartFlairsLabeled, Title: "Flair Post Data (No Flairless)", Labels: allLabeled}
	nsfwChart := domain.Chart{Name: ChartNSFW, Title: "NSFW Post Data", Labels: domain.FlagTally{}.Labels()}

	for i, s := range summaries {
		name := s.Ordering.Title()
		flairChart.Series = append(flairChart.Series, domain.Series{Name: name, Values: AlignedSeries(all, flairs[i])})
		labeledChart.Series = append(labeledChart.Series, domain.Series{Name: name, Values: AlignedSeries(allLabeled, labeled[i])})
		nsfwChart.Series = append(nsfwChart.Series, domain.Series{Name: name, Values: s.Flags.Values()})
	}

	return []domain.Chart{flairChart, labeledChart, nsfwChart}
}
