package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/qepting91/flair-census/internal/census"
	"github.com/qepting91/flair-census/internal/collector"
	"github.com/qepting91/flair-census/internal/config"
	"github.com/qepting91/flair-census/internal/dashboard"
	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/ingest"
	"github.com/qepting91/flair-census/internal/logging"
	"github.com/qepting91/flair-census/internal/ratelimit"
	"github.com/qepting91/flair-census/internal/reddit"
	"github.com/qepting91/flair-census/internal/report"
	"github.com/qepting91/flair-census/internal/storage"
)

// NewCollectCmd creates the collect command.
func NewCollectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collect [subreddit...]",
		Short: "Run a flair census for one or more subreddits",
		Long: `Collect pages through each ordering of every target subreddit, one after
another, and publishes the per-ordering flair and NSFW breakdown.

Examples:
  # Census of r/196 with the defaults (1000 posts per ordering, 60s between pages)
  flaircensus collect

  # Two subreddits, 300 posts each, Markdown report next to the charts
  flaircensus collect --count 300 --markdown golang rust

  # Targets from a CSV file (subreddit,count) and a SQLite run history
  flaircensus collect --targets subreddits.csv --history ~/census.db

  # Offline run against the simulated listing, dashboard on :8080
  flaircensus collect --mode mock --delay 0 --serve :8080

Configuration file example:
  mode: api
  count: 500
  orderings: [hot, latest, top]
  page_delay: 30s
  targets:
    - subreddit: "196"
    - subreddit: golang
      count: 200

Credentials for api mode are read from the environment (or a .env file):
REDDIT_CLIENT_ID, REDDIT_CLIENT_SECRET, REDDIT_USERNAME, REDDIT_PASSWORD.`,
		Args: cobra.ArbitraryArgs,
		RunE: runCollectCmd,
	}

	cmd.Flags().IntP("count", "n", config.DefaultCount, "Posts to collect per ordering")
	cmd.Flags().StringP("mode", "m", config.DefaultMode, "Listing source: api, public or mock")
	cmd.Flags().DurationP("delay", "d", config.DefaultPageDelay, "Pause between listing calls")
	cmd.Flags().StringSliceP("orderings", "o", []string{"hot", "latest", "top"}, "Orderings to collect, in order")
	cmd.Flags().String("top-window", config.DefaultTopWindow, "Lookback window for the Top ordering")
	cmd.Flags().Int("stall-limit", 0, "Stop an ordering after this many pages without new posts (0 disables)")
	cmd.Flags().StringP("targets", "t", "", "CSV file with subreddit,count rows")
	cmd.Flags().String("out", "", "Output directory for charts and reports (default: $XDG_DATA_HOME/flaircensus)")
	cmd.Flags().Bool("charts", true, "Write HTML charts")
	cmd.Flags().Bool("markdown", false, "Write a Markdown report")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print percentages to stdout")
	cmd.Flags().String("history", "", "Run history: *.db / sqlite:<path>, *.ndjson, or postgres:// DSN")
	cmd.Flags().String("redis", "", "Redis address for sharing Reddit quota state")
	cmd.Flags().String("serve", "", "Serve the dashboard on this address (e.g. :8080)")
	cmd.Flags().String("user-agent", "", "User agent for Reddit requests")

	return cmd
}

// runCollectCmd executes the collect command.
func runCollectCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logging.Setup(cfg.Log)
	logger := logging.NewLogger("cli")

	ctx, cancel := signalContext(logger)
	defer cancel()

	_, err = runCollect(ctx, cfg, cmd.OutOrStdout(), logger)
	return err
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(logger zerolog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info().Msg("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// loadBaseConfig reads .env, the config file and the environment, then the
// global flags.
func loadBaseConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		cfg.Log.Level = logging.Level(level)
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		cfg.Log.Level = logging.LevelDebug
	}
	if flags.Changed("pretty") {
		cfg.Log.Pretty, _ = flags.GetBool("pretty")
	}
	return cfg, nil
}

// buildConfig layers the collect flags on top of the base configuration.
// Only flags set on the command line override file and environment values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := loadBaseConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var ferr error
	setString := func(name string, dst *string) {
		if ferr == nil && flags.Changed(name) {
			*dst, ferr = flags.GetString(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if ferr == nil && flags.Changed(name) {
			*dst, ferr = flags.GetBool(name)
		}
	}
	setInt := func(name string, dst *int) {
		if ferr == nil && flags.Changed(name) {
			*dst, ferr = flags.GetInt(name)
		}
	}

	setInt("count", &cfg.Count)
	setString("mode", &cfg.Mode)
	setString("top-window", &cfg.TopWindow)
	setInt("stall-limit", &cfg.StallLimit)
	setString("out", &cfg.OutputDir)
	setBool("charts", &cfg.Charts)
	setBool("markdown", &cfg.Markdown)
	setBool("quiet", &cfg.Quiet)
	setString("history", &cfg.HistoryDSN)
	setString("redis", &cfg.RedisAddr)
	setString("serve", &cfg.ServeAddr)
	setString("user-agent", &cfg.UserAgent)
	if ferr == nil && flags.Changed("delay") {
		cfg.PageDelay, ferr = flags.GetDuration("delay")
	}
	if ferr != nil {
		return nil, ferr
	}

	if flags.Changed("orderings") {
		names, err := flags.GetStringSlice("orderings")
		if err != nil {
			return nil, err
		}
		if cfg.Orderings, err = domain.ParseOrderings(names); err != nil {
			return nil, err
		}
	}

	// Positional subreddits and a targets file replace configured targets.
	var targets []domain.Target
	for _, a := range args {
		targets = append(targets, domain.Target{Subreddit: a})
	}
	if path, _ := flags.GetString("targets"); path != "" {
		loaded, err := ingest.LoadTargets(path, logging.NewLogger("ingest"))
		if err != nil {
			return nil, fmt.Errorf("failed to load targets: %w", err)
		}
		targets = append(targets, loaded...)
	}
	if len(targets) > 0 {
		cfg.Targets = targets
	}

	return cfg, nil
}

// runCollect wires the listing source, pacing, sinks and history, runs every
// target and, when the dashboard is enabled, keeps serving until ctx ends.
func runCollect(ctx context.Context, cfg *config.Config, stdout io.Writer, logger zerolog.Logger) ([]*domain.Census, error) {
	// Quota state, shared through Redis when configured
	var store ratelimit.StateStore = ratelimit.NewMemoryStore()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		store = ratelimit.NewRedisStore(rdb, "")
	}
	tracker := ratelimit.NewTracker(store, ratelimit.SystemClock{}, logging.NewLogger("quota"))

	lister, err := reddit.NewLister(reddit.Options{
		Mode:        cfg.Mode,
		Credentials: cfg.Credentials,
		UserAgent:   cfg.UserAgent,
		Tracker:     tracker,
		Mock:        reddit.DefaultMockOptions(),
		Logger:      logging.NewLogger("reddit"),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize lister: %w", err)
	}
	logger.Info().Str("mode", cfg.Mode).Msg("Lister initialized")

	var sinks []report.Sink
	if !cfg.Quiet {
		sinks = append(sinks, report.NewTextWriter(stdout))
	}
	if cfg.Charts {
		sinks = append(sinks, report.NewChartWriter(cfg.OutputDir))
	}
	if cfg.Markdown {
		sinks = append(sinks, report.NewMarkdownDirWriter(cfg.OutputDir))
	}

	var recents dashboard.Recents
	if cfg.HistoryDSN != "" {
		history, err := storage.Open(ctx, cfg.HistoryDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		defer history.Close()
		sinks = append(sinks, history)
		recents = history
	}

	serveErr := make(chan error, 1)
	if cfg.ServeAddr != "" {
		srv := dashboard.NewServer(cfg.ServeAddr, recents, logging.NewLogger("dashboard"))
		sinks = append(sinks, srv)
		go func() { serveErr <- srv.Start(ctx) }()
	}

	pacer := ratelimit.NewPacer(cfg.PageDelay, ratelimit.SystemClock{}, logging.NewLogger("pacer"))
	runner := census.NewRunner(lister, pacer, report.NewMultiSink(sinks...), census.Config{
		Orderings:  cfg.Orderings,
		TopWindow:  cfg.TopWindow,
		StallLimit: cfg.StallLimit,
		Progress:   progressLogger(logger),
	}, logging.NewLogger("census"))

	targets := cfg.ResolvedTargets()
	logger.Info().Int("targets", len(targets)).Dur("page_delay", cfg.PageDelay).Msg("Starting census")
	done, err := runner.RunAll(ctx, targets)
	if err != nil {
		return done, err
	}
	if cfg.Charts || cfg.Markdown {
		logger.Info().Str("dir", cfg.OutputDir).Msg("Reports written")
	}

	if cfg.ServeAddr != "" {
		// Keep alive for dashboard
		logger.Info().Str("addr", cfg.ServeAddr).Msg("Census complete, dashboard still serving")
		select {
		case err := <-serveErr:
			return done, err
		case <-ctx.Done():
			return done, <-serveErr
		}
	}
	return done, nil
}

func progressLogger(logger zerolog.Logger) collector.ProgressFunc {
	return func(p collector.Progress) {
		logger.Debug().
			Str("ordering", string(p.Ordering)).
			Int("remaining", p.Remaining).
			Int("duplicates", p.Duplicates).
			Msgf("%d posts remaining", p.Remaining)
	}
}
