package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/qepting91/flair-census/internal/domain"
	"github.com/qepting91/flair-census/internal/logging"
)

// DefaultConfigFile is looked up under the XDG config directories.
var DefaultConfigFile = filepath.Join(AppName, "config.yaml")

// TargetEntry is one subreddit in the configuration file.
type TargetEntry struct {
	Subreddit string `yaml:"subreddit"`
	Count     int    `yaml:"count"`
}

// File is the YAML configuration file. Zero values leave the defaults alone.
type File struct {
	Mode       string        `yaml:"mode"`
	UserAgent  string        `yaml:"user_agent"`
	Targets    []TargetEntry `yaml:"targets"`
	Count      int           `yaml:"count"`
	Orderings  []string      `yaml:"orderings"`
	TopWindow  string        `yaml:"top_window"`
	PageDelay  time.Duration `yaml:"page_delay"`
	StallLimit int           `yaml:"stall_limit"`
	OutputDir  string        `yaml:"output_dir"`
	Charts     *bool         `yaml:"charts"`
	Markdown   *bool         `yaml:"markdown"`
	History    string        `yaml:"history"`
	Redis      string        `yaml:"redis"`
	Serve      string        `yaml:"serve"`
	Log        struct {
		Level  string `yaml:"level"`
		Pretty *bool  `yaml:"pretty"`
	} `yaml:"log"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile returns explicit if given, otherwise the first
// flaircensus/config.yaml in the XDG config directories, or "".
func FindConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	path, err := xdg.SearchConfigFile(DefaultConfigFile)
	if err != nil {
		return ""
	}
	return path
}

// ApplyFile overlays non-zero file values onto c.
func (c *Config) ApplyFile(f *File) error {
	if f == nil {
		return nil
	}
	if f.Mode != "" {
		c.Mode = f.Mode
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if len(f.Targets) > 0 {
		c.Targets = c.Targets[:0]
		for _, t := range f.Targets {
			c.Targets = append(c.Targets, domain.Target{Subreddit: strings.TrimSpace(t.Subreddit), Count: t.Count})
		}
	}
	if f.Count != 0 {
		c.Count = f.Count
	}
	if len(f.Orderings) > 0 {
		orderings, err := domain.ParseOrderings(f.Orderings)
		if err != nil {
			return err
		}
		c.Orderings = orderings
	}
	if f.TopWindow != "" {
		c.TopWindow = f.TopWindow
	}
	if f.PageDelay != 0 {
		c.PageDelay = f.PageDelay
	}
	if f.StallLimit != 0 {
		c.StallLimit = f.StallLimit
	}
	if f.OutputDir != "" {
		c.OutputDir = f.OutputDir
	}
	if f.Charts != nil {
		c.Charts = *f.Charts
	}
	if f.Markdown != nil {
		c.Markdown = *f.Markdown
	}
	if f.History != "" {
		c.HistoryDSN = f.History
	}
	if f.Redis != "" {
		c.RedisAddr = f.Redis
	}
	if f.Serve != "" {
		c.ServeAddr = f.Serve
	}
	if f.Log.Level != "" {
		c.Log.Level = logging.Level(f.Log.Level)
	}
	if f.Log.Pretty != nil {
		c.Log.Pretty = *f.Log.Pretty
	}
	return nil
}

// Environment variable names.
const (
	EnvMode         = "COLLECTOR_MODE"
	EnvClientID     = "REDDIT_CLIENT_ID"
	EnvClientSecret = "REDDIT_CLIENT_SECRET"
	EnvUsername     = "REDDIT_USERNAME"
	EnvPassword     = "REDDIT_PASSWORD"
	EnvUserAgent    = "REDDIT_USER_AGENT"
	EnvRedisAddr    = "REDIS_ADDR"
	EnvHistory      = "FLAIRCENSUS_HISTORY"
	EnvPort         = "PORT"
)

// LoadDotEnv loads .env style files into the process environment. Missing
// files are ignored; variables already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overlays values from the environment, read through getenv.
// Credentials only ever come from here.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	if v := getenv(EnvMode); v != "" {
		c.Mode = v
	}
	c.Credentials.ID = getenv(EnvClientID)
	c.Credentials.Secret = getenv(EnvClientSecret)
	c.Credentials.Username = getenv(EnvUsername)
	c.Credentials.Password = getenv(EnvPassword)
	if v := getenv(EnvUserAgent); v != "" {
		c.UserAgent = v
	}
	if v := getenv(EnvRedisAddr); v != "" {
		c.RedisAddr = v
	}
	if v := getenv(EnvHistory); v != "" {
		c.HistoryDSN = v
	}
	if v := getenv(EnvPort); v != "" {
		c.ServeAddr = ":" + v
	}
}

// Load builds a Config from defaults, the config file (explicit or found under
// XDG) and the environment. Flags are applied by the caller afterwards.
func Load(explicitFile string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path := FindConfigFile(explicitFile); path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := cfg.ApplyFile(f); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	cfg.ApplyEnv(getenv)
	return cfg, nil
}
