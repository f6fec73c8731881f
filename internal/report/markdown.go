package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/qepting91/flair-census/internal/aggregate"
	"github.com/qepting91/flair-census/internal/domain"
)

// MarkdownFile is the report file name inside a run directory.
const MarkdownFile = "census.md"

// MarkdownWriter renders a census as a Markdown document with count tables
// and mermaid pie charts for the NSFW split.
type MarkdownWriter struct {
	mu     sync.Mutex
	output io.Writer
	dir    string
}

// NewMarkdownWriter writes every census to output.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{output: output}
}

// NewMarkdownDirWriter writes each census to its own run directory under dir.
func NewMarkdownDirWriter(dir string) *MarkdownWriter {
	return &MarkdownWriter{dir: dir}
}

// Publish implements Sink.
func (w *MarkdownWriter) Publish(_ context.Context, c *domain.Census) error {
	if w.dir == "" {
		w.mu.Lock()
		defer w.mu.Unlock()
		return w.write(w.output, c)
	}

	path := filepath.Join(RunDir(w.dir, c), MarkdownFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create markdown report: %w", err)
	}
	if err := w.write(f, c); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *MarkdownWriter) write(out io.Writer, c *domain.Census) error {
	md := markdown.NewMarkdown(out)

	md.H1("Flair Census: r/" + c.Subreddit)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + c.ID + "`"},
			{"Started", c.StartedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Finished", c.FinishedAt.UTC().Format("2006-01-02 15:04:05 MST")},
			{"Target per ordering", strconv.Itoa(c.Target)},
		},
	})
	md.PlainText("")

	writeCollection(md, c)
	for _, chart := range c.Charts {
		writeChartTable(md, chart)
	}
	writeFlagPies(md, c)

	if err := md.Build(); err != nil {
		return fmt.Errorf("build markdown: %w", err)
	}
	return nil
}

func writeCollection(md *markdown.Markdown, c *domain.Census) {
	md.H2("Collection")
	md.PlainText("")

	rows := make([][]string, 0, len(c.Orderings))
	short := false
	for _, s := range c.Orderings {
		exhausted := "no"
		if s.Exhausted {
			exhausted = "yes"
			short = true
		}
		rows = append(rows, []string{
			s.Ordering.Title(),
			strconv.Itoa(s.Collected),
			strconv.Itoa(s.Pages),
			strconv.Itoa(s.Duplicates),
			exhausted,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Ordering", "Collected", "Pages", "Duplicates", "Exhausted"},
		Rows:   rows,
	})
	md.PlainText("")

	if short {
		md.Note("At least one ordering ran out of posts before reaching the target; its percentages cover fewer posts.")
		md.PlainText("")
	}
}

func writeChartTable(md *markdown.Markdown, chart domain.Chart) {
	md.H2(chart.Title)
	md.PlainText("")

	if len(chart.Labels) == 0 {
		md.PlainText("No data.")
		md.PlainText("")
		return
	}

	header := make([]string, 0, len(chart.Series)+1)
	header = append(header, "Label")
	for _, s := range chart.Series {
		header = append(header, s.Name)
	}

	rows := make([][]string, len(chart.Labels))
	for i, label := range chart.Labels {
		row := make([]string, 0, len(chart.Series)+1)
		row = append(row, escapeCell(label))
		for _, s := range chart.Series {
			row = append(row, strconv.Itoa(s.Values[i]))
		}
		rows[i] = row
	}
	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// escapeCell keeps a pipe in a flair from splitting the table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func writeFlagPies(md *markdown.Markdown, c *domain.Census) {
	for _, s := range c.Orderings {
		if s.Flags.Total() == 0 {
			continue
		}
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle(s.Ordering.Title()+" NSFW Split"),
			piechart.WithShowData(true),
		)
		tally := s.Flags.AsCategory()
		for _, label := range aggregate.SortedByCount(tally) {
			if tally[label] > 0 {
				chart.LabelAndIntValue(label, uint64(tally[label]))
			}
		}
		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}
