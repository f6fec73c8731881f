package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/qepting91/flair-census/internal/logging"
	"github.com/qepting91/flair-census/internal/report"
	"github.com/qepting91/flair-census/internal/storage"
)

// errNoHistory is returned when a history command has nowhere to read from.
var errNoHistory = errors.New("no run history configured: use --history or FLAIRCENSUS_HISTORY")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [subreddit]",
		Short: "Print recent census runs from the run history",
		Long: `History reads past censuses from the run history and prints their
percentages, newest first.

Examples:
  flaircensus history --history ~/census.db
  flaircensus history 196 --limit 3 --markdown`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("history", "", "Run history: *.db / sqlite:<path>, *.ndjson, or postgres:// DSN")
	cmd.Flags().IntP("limit", "l", 5, "Number of runs to show (0 for all)")
	cmd.Flags().Bool("markdown", false, "Print Markdown instead of plain percentages")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("history") {
		cfg.HistoryDSN, _ = cmd.Flags().GetString("history")
	}
	if cfg.HistoryDSN == "" {
		return errNoHistory
	}
	logging.Setup(cfg.Log)

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	markdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	subreddit := ""
	if len(args) == 1 {
		subreddit = args[0]
	}

	ctx, cancel := signalContext(logging.NewLogger("cli"))
	defer cancel()
	return printHistory(ctx, cfg.HistoryDSN, subreddit, limit, markdown, cmd.OutOrStdout())
}

func printHistory(ctx context.Context, dsn, subreddit string, limit int, markdown bool, out io.Writer) error {
	history, err := storage.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer history.Close()

	runs, err := history.Recent(ctx, subreddit, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No census runs recorded.")
		return nil
	}

	var sink report.Sink = report.NewTextWriter(out)
	if markdown {
		sink = report.NewMarkdownWriter(out)
	}
	for i := range runs {
		if err := sink.Publish(ctx, &runs[i]); err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	return nil
}
