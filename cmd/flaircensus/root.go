package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/qepting91/flair-census/internal/logging"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flaircensus",
		Short: "Flair and NSFW census for subreddit listings",
		Long: `flaircensus pages through a subreddit's Hot, Latest and Top listings,
collects a fixed number of unique posts from each, and reports the share of
every link flair and of NSFW posts per ordering.

Listing calls are paced (one page per minute by default) so a full census of
1000 posts per ordering takes about half an hour.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().String("log-level", string(logging.LevelInfo), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("pretty", false, "Human-readable log output instead of JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: $XDG_CONFIG_HOME/flaircensus/config.yaml)")

	cmd.AddCommand(NewCollectCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
