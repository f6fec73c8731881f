package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/qepting91/flair-census/internal/domain"
)

// IndexFile holds every chart of a run on one page.
const IndexFile = "index.html"

// RunDir is the directory a census run's files are written to.
func RunDir(root string, c *domain.Census) string {
	return filepath.Join(root, "r_"+c.Subreddit, c.StartedAt.UTC().Format("20060102T150405Z"))
}

// NewBar renders one chart as a grouped bar chart, one series per ordering.
func NewBar(c domain.Chart, subreddit string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.Title,
			Theme:     types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{Title: c.Title, Subtitle: "r/" + subreddit}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)

	bar.SetXAxis(c.Labels)
	for _, s := range c.Series {
		data := make([]opts.BarData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.BarData{Value: v}
		}
		bar.AddSeries(s.Name, data)
	}
	return bar
}

// RenderPage writes every chart of the census as one HTML page.
func RenderPage(w io.Writer, c *domain.Census) error {
	page := components.NewPage()
	page.PageTitle = "Flair Census: r/" + c.Subreddit
	for _, chart := range c.Charts {
		page.AddCharts(NewBar(chart, c.Subreddit))
	}
	return page.Render(w)
}

// ChartWriter writes one HTML file per chart plus a combined index page.
type ChartWriter struct {
	dir string
}

// NewChartWriter writes under dir, one sub-directory per run.
func NewChartWriter(dir string) *ChartWriter {
	return &ChartWriter{dir: dir}
}

// Publish implements Sink.
func (w *ChartWriter) Publish(_ context.Context, c *domain.Census) error {
	dir := RunDir(w.dir, c)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}

	for _, chart := range c.Charts {
		bar := NewBar(chart, c.Subreddit)
		if err := renderFile(filepath.Join(dir, chart.Name+".html"), bar.Render); err != nil {
			return fmt.Errorf("render chart %s: %w", chart.Name, err)
		}
	}

	if err := renderFile(filepath.Join(dir, IndexFile), func(w io.Writer) error {
		return RenderPage(w, c)
	}); err != nil {
		return fmt.Errorf("render chart index: %w", err)
	}
	return nil
}

func renderFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
