package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/logging"
	"github.com/qepting91/flair-census/internal/reddit"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Count != DefaultCount || cfg.PageDelay != time.Minute || cfg.TopWindow != "month" {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.Mode != reddit.ModePublic {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if len(cfg.Orderings) != 3 {
		t.Errorf("Orderings = %v", cfg.Orderings)
	}
	if filepath.Base(cfg.OutputDir) != AppName {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}

	// Mutating one Config must not leak into the package-level orderings.
	cfg.Orderings[0] = domain.OrderingTop
	if domain.Orderings[0] != domain.OrderingHot {
		t.Error("Default() shares its orderings slice")
	}
}

func TestResolvedTargets(t *testing.T) {
	t.Parallel()

	cfg := Default()
	got := cfg.ResolvedTargets()
	if len(got) != 1 || got[0].Subreddit != DefaultSubreddit || got[0].Count != DefaultCount {
		t.Errorf("ResolvedTargets() = %+v", got)
	}

	cfg.Count = 50
	cfg.Targets = []domain.Target{{Subreddit: "golang"}, {Subreddit: "rust", Count: 7}}
	got = cfg.ResolvedTargets()
	if got[0].Count != 50 || got[1].Count != 7 {
		t.Errorf("ResolvedTargets() = %+v", got)
	}
	if cfg.Targets[0].Count != 0 {
		t.Error("ResolvedTargets() mutated the config")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"valid", func(*Config) {}, nil},
		{"zero count", func(c *Config) { c.Count = 0 }, ErrInvalidCount},
		{"negative delay", func(c *Config) { c.PageDelay = -time.Second }, ErrInvalidPageDelay},
		{"zero delay is allowed", func(c *Config) { c.PageDelay = 0 }, nil},
		{"negative stall limit", func(c *Config) { c.StallLimit = -1 }, ErrInvalidStallLimit},
		{"no orderings", func(c *Config) { c.Orderings = nil }, ErrNoOrderings},
		{"bad window", func(c *Config) { c.TopWindow = "fortnight" }, ErrInvalidTopWindow},
		{"bad subreddit", func(c *Config) { c.Targets = []domain.Target{{Subreddit: "a b"}} }, ErrInvalidSubreddit},
		{"negative target count", func(c *Config) { c.Targets = []domain.Target{{Subreddit: "golang", Count: -1}} }, ErrInvalidCount},
		{"unknown mode", func(c *Config) { c.Mode = "scrape" }, ErrUnknownMode},
		{"api without credentials", func(c *Config) { c.Mode = reddit.ModeAPI }, ErrMissingCredentials},
		{"api with credentials", func(c *Config) {
			c.Mode = reddit.ModeAPI
			c.Credentials = reddit.Credentials{ID: "id", Secret: "s", Username: "u", Password: "p"}
		}, nil},
		{"empty user agent", func(c *Config) { c.UserAgent = "" }, ErrMissingUserAgent},
		{"mock needs no user agent", func(c *Config) { c.Mode = reddit.ModeMock; c.UserAgent = "" }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.want == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
mode: mock
count: 250
targets:
  - subreddit: golang
    count: 100
  - subreddit: " rust "
orderings: [new, top]
top_window: week
page_delay: 2s
stall_limit: 3
markdown: true
charts: false
history: runs.db
log:
  level: debug
  pretty: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	f, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	cfg := Default()
	if err := cfg.ApplyFile(f); err != nil {
		t.Fatalf("ApplyFile() error = %v", err)
	}

	if cfg.Mode != reddit.ModeMock || cfg.Count != 250 || cfg.TopWindow != "week" {
		t.Errorf("scalar fields = %+v", cfg)
	}
	if cfg.PageDelay != 2*time.Second || cfg.StallLimit != 3 {
		t.Errorf("PageDelay = %v, StallLimit = %d", cfg.PageDelay, cfg.StallLimit)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[0] != (domain.Target{Subreddit: "golang", Count: 100}) || cfg.Targets[1].Subreddit != "rust" {
		t.Errorf("Targets = %+v", cfg.Targets)
	}
	if len(cfg.Orderings) != 2 || cfg.Orderings[0] != domain.OrderingLatest || cfg.Orderings[1] != domain.OrderingTop {
		t.Errorf("Orderings = %v", cfg.Orderings)
	}
	if !cfg.Markdown || cfg.Charts {
		t.Errorf("Markdown = %v, Charts = %v", cfg.Markdown, cfg.Charts)
	}
	if cfg.HistoryDSN != "runs.db" {
		t.Errorf("HistoryDSN = %q", cfg.HistoryDSN)
	}
	if cfg.Log.Level != logging.LevelDebug || !cfg.Log.Pretty {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Error("unset file fields should keep defaults")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("missing file error = %v, want ErrConfigNotFound", err)
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("count: [1"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(bad); err == nil {
		t.Error("malformed YAML should fail")
	}

	cfg := Default()
	if err := cfg.ApplyFile(&File{Orderings: []string{"controversial"}}); err == nil {
		t.Error("unknown ordering should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ApplyEnv(envMap(map[string]string{
		EnvMode:         "api",
		EnvClientID:     "id",
		EnvClientSecret: "secret",
		EnvUsername:     "user",
		EnvPassword:     "pass",
		EnvUserAgent:    "test-agent",
		EnvRedisAddr:    "localhost:6379",
		EnvHistory:      "history.ndjson",
		EnvPort:         "9090",
	}))

	want := reddit.Credentials{ID: "id", Secret: "secret", Username: "user", Password: "pass"}
	if cfg.Credentials != want {
		t.Errorf("Credentials = %+v", cfg.Credentials)
	}
	if cfg.Mode != "api" || cfg.UserAgent != "test-agent" || cfg.RedisAddr != "localhost:6379" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.HistoryDSN != "history.ndjson" || cfg.ServeAddr != ":9090" {
		t.Errorf("HistoryDSN = %q, ServeAddr = %q", cfg.HistoryDSN, cfg.ServeAddr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestApplyEnv_EmptyKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.ApplyEnv(envMap(nil))
	if cfg.Mode != DefaultMode || cfg.UserAgent != DefaultUserAgent || cfg.ServeAddr != "" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_ExplicitFileThenEnv(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("mode: mock\ncount: 5\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path, envMap(map[string]string{EnvMode: "public"}))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Count != 5 {
		t.Errorf("Count = %d, want 5 from file", cfg.Count)
	}
	if cfg.Mode != "public" {
		t.Errorf("Mode = %q, environment should beat the file", cfg.Mode)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil)); !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("Load() with missing explicit file = %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("FLAIRCENSUS_TEST_DOTENV=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("FLAIRCENSUS_TEST_DOTENV") })

	if err := LoadDotEnv(path, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("FLAIRCENSUS_TEST_DOTENV"); got != "loaded" {
		t.Errorf("env = %q, want loaded", got)
	}
}

func TestValidSubreddit(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"196": true, "golang": true, "Ask_Reddit": true,
		"ab": false, "has space": false, "r/golang": false, "": false,
		"abcdefghijklmnopqrstuv": false,
	} {
		if got := ValidSubreddit(name); got != want {
			t.Errorf("ValidSubreddit(%q) = %v, want %v", name, got, want)
		}
	}
}
