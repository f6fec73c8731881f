package main

import (
	"github.com/spf13/cobra"

	"github.com/qepting91/flair-census/internal/config"
	"github.com/qepting91/flair-census/internal/dashboard"
	"github.com/qepting91/flair-census/internal/logging"
	"github.com/qepting91/flair-census/internal/storage"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve charts of recorded censuses",
		Long: `Serve starts the dashboard over an existing run history without collecting.
The latest run is shown at /, a specific subreddit at /?subreddit=<name>,
the raw census at /api/census and process metrics at /metrics.`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	cmd.Flags().String("history", "", "Run history: *.db / sqlite:<path>, *.ndjson, or postgres:// DSN")
	cmd.Flags().String("addr", config.DefaultServeAddr, "Listen address")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
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
	addr := cfg.ServeAddr
	if addr == "" || cmd.Flags().Changed("addr") {
		addr, _ = cmd.Flags().GetString("addr")
	}

	logging.Setup(cfg.Log)
	logger := logging.NewLogger("cli")
	ctx, cancel := signalContext(logger)
	defer cancel()

	history, err := storage.Open(ctx, cfg.HistoryDSN)
	if err != nil {
		return err
	}
	defer history.Close()

	return dashboard.NewServer(addr, history, logging.NewLogger("dashboard")).Start(ctx)
}
