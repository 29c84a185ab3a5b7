// Package config loads promptstash settings from PROMPTSTASH_* environment
// variables and an optional promptstash.yaml.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Sources selectable with the "source" key.
const (
	SourceGitHub = "github"
	SourceGit    = "git"
	SourceDir    = "dir"
)

type Config struct {
	Source string
	GitHub struct {
		Repo    string
		Branch  string
		Token   string
		APIBase string
		RawBase string
		Timeout time.Duration
	}
	Git struct {
		URL    string
		Depth  int
		Dir    string
		WebURL string
	}
	Dir   string
	Cache struct {
		TTL                  time.Duration
		Snapshot             string
		PreserveSnapshotTime bool
		Builtin              bool
	}
	Store struct {
		Driver string
		DSN    string
	}
	HTTP struct {
		Addr string
	}
	Ingest struct {
		Concurrency int
	}
	Log struct {
		Level  string
		Format string
	}
}

// Load reads config from environment (PROMPTSTASH_ prefix) and promptstash.yaml in
// the working directory or the user config directory. file, when set, names the
// config file explicitly and must exist.
func Load(file string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("PROMPTSTASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("github.token", "PROMPTSTASH_GITHUB_TOKEN", "GITHUB_TOKEN")

	stateDir := defaultStateDir()
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	} else {
		v.SetConfigName("promptstash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(stateDir)
		_ = v.ReadInConfig() // optional config file
	}

	v.SetDefault("source", SourceGitHub)
	v.SetDefault("github.repo", "lowtouch-ai/promptstash-templates")
	v.SetDefault("github.branch", "main")
	v.SetDefault("github.api_base", "https://api.github.com")
	v.SetDefault("github.raw_base", "https://raw.githubusercontent.com")
	v.SetDefault("github.timeout", "15s")
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.builtin", true)
	v.SetDefault("store.driver", "file")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("ingest.concurrency", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	cfg := &Config{}
	cfg.Source = strings.ToLower(v.GetString("source"))
	cfg.GitHub.Repo = v.GetString("github.repo")
	cfg.GitHub.Branch = v.GetString("github.branch")
	cfg.GitHub.Token = v.GetString("github.token")
	cfg.GitHub.APIBase = v.GetString("github.api_base")
	cfg.GitHub.RawBase = v.GetString("github.raw_base")
	cfg.Git.URL = v.GetString("git.url")
	cfg.Git.Depth = v.GetInt("git.depth")
	cfg.Git.Dir = v.GetString("git.dir")
	cfg.Git.WebURL = v.GetString("git.web_url")
	cfg.Dir = v.GetString("dir")
	cfg.Cache.Snapshot = v.GetString("cache.snapshot")
	cfg.Cache.PreserveSnapshotTime = v.GetBool("cache.preserve_snapshot_time")
	cfg.Cache.Builtin = v.GetBool("cache.builtin")
	cfg.Store.Driver = v.GetString("store.driver")
	cfg.Store.DSN = v.GetString("store.dsn")
	if cfg.Store.DSN == "" && cfg.Store.Driver == "file" {
		cfg.Store.DSN = filepath.Join(stateDir, "state.json")
	}
	cfg.HTTP.Addr = v.GetString("http.addr")
	cfg.Ingest.Concurrency = v.GetInt("ingest.concurrency")
	cfg.Log.Level = v.GetString("log.level")
	cfg.Log.Format = v.GetString("log.format")

	timeout, err := time.ParseDuration(v.GetString("github.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROMPTSTASH_GITHUB_TIMEOUT: %w", err)
	}
	cfg.GitHub.Timeout = timeout
	ttl, err := time.ParseDuration(v.GetString("cache.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid PROMPTSTASH_CACHE_TTL: %w", err)
	}
	cfg.Cache.TTL = ttl

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Source {
	case SourceGitHub:
		if c.GitHub.Repo == "" {
			return fmt.Errorf("PROMPTSTASH_GITHUB_REPO is required for source %q", c.Source)
		}
	case SourceGit:
		if c.Git.URL == "" {
			return fmt.Errorf("PROMPTSTASH_GIT_URL is required for source %q", c.Source)
		}
	case SourceDir:
		if c.Dir == "" {
			return fmt.Errorf("PROMPTSTASH_DIR is required for source %q", c.Source)
		}
	default:
		return fmt.Errorf("unknown PROMPTSTASH_SOURCE %q: must be github, git, or dir", c.Source)
	}
	switch c.Store.Driver {
	case "memory", "file", "sqlite3", "mysql", "postgres":
	default:
		return fmt.Errorf("unknown PROMPTSTASH_STORE_DRIVER %q: must be memory, file, sqlite3, mysql, or postgres", c.Store.Driver)
	}
	if c.Store.Driver != "memory" && c.Store.DSN == "" {
		return fmt.Errorf("PROMPTSTASH_STORE_DSN is required for store driver %q", c.Store.Driver)
	}
	if c.Ingest.Concurrency < 1 {
		return fmt.Errorf("PROMPTSTASH_INGEST_CONCURRENCY must be positive, got %d", c.Ingest.Concurrency)
	}
	return nil
}

// NewLogger builds the process logger from the log.level and log.format keys.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func defaultStateDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "promptstash")
	}
	return ".promptstash"
}
