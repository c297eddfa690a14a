package config

import (
	"fmt"
	"strings"
	"time"

	"opentrends/internal/model"
)

// AppConfig holds application-level settings.
type AppConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	PrefsPath string `mapstructure:"prefs_path"` // default: ~/.config/opentrends/prefs.toml
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig controls the product catalog source.
type CatalogConfig struct {
	Mode           string `mapstructure:"mode"` // producthunt or mock
	Endpoint       string `mapstructure:"endpoint"`
	Token          string `mapstructure:"token"`
	PageSize       int    `mapstructure:"page_size"`
	Limit          int    `mapstructure:"limit"`   // items kept per snapshot
	Timeout        string `mapstructure:"timeout"` // duration string, e.g., "15s"
	RequestsPerMin int    `mapstructure:"requests_per_min"`
}

// OpenAIConfig configures the text generation service.
type OpenAIConfig struct {
	APIKey    string `mapstructure:"api_key"`
	Model     string `mapstructure:"model"`
	BaseURL   string `mapstructure:"base_url"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// SnapshotsConfig selects the snapshot backend and cache policy.
type SnapshotsConfig struct {
	Backend    string `mapstructure:"backend"` // redis, sqlite or memory
	SQLitePath string `mapstructure:"sqlite_path"`
	StaleAfter string `mapstructure:"stale_after"` // duration string, default "24h"
	RedisTTL   string `mapstructure:"redis_ttl"`   // "0" keeps snapshots forever
}

// BookmarksConfig points at the saved-ideas store.
type BookmarksConfig struct {
	Driver      string `mapstructure:"driver"` // postgres or sqlite
	DatabaseURL string `mapstructure:"database_url"`
}

// ServerConfig controls the HTTP surface.
type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	RefreshInterval string `mapstructure:"refresh_interval"` // background cache warm-up cadence
	FeedSize        int    `mapstructure:"feed_size"`
}

// DigestConfig controls Markdown digest output.
type DigestConfig struct {
	OutputDir string   `mapstructure:"output_dir"`
	Title     string   `mapstructure:"title"` // supports {.CurrentDate}
	TopN      int      `mapstructure:"top_n"`
	Modes     []string `mapstructure:"modes"`
	Interval  string   `mapstructure:"interval"` // "0" disables the digest worker in serve
}

// Config is the top-level configuration structure.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Snapshots SnapshotsConfig `mapstructure:"snapshots"`
	Bookmarks BookmarksConfig `mapstructure:"bookmarks"`
	Server    ServerConfig    `mapstructure:"server"`
	Digest    DigestConfig    `mapstructure:"digest"`
}

// FillDefaults applies default values if not provided.
func (c *Config) FillDefaults() {
	if c.App.LogLevel == "" {
		c.App.LogLevel = "info"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "127.0.0.1:6379"
	}
	if c.Catalog.Mode == "" {
		c.Catalog.Mode = "producthunt"
	}
	if c.Catalog.PageSize == 0 {
		c.Catalog.PageSize = 20
	}
	if c.Catalog.Limit == 0 {
		c.Catalog.Limit = c.Catalog.PageSize
	}
	if c.Catalog.Timeout == "" {
		c.Catalog.Timeout = "15s"
	}
	if c.Catalog.RequestsPerMin == 0 {
		c.Catalog.RequestsPerMin = 60
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.OpenAI.MaxTokens == 0 {
		c.OpenAI.MaxTokens = 500
	}
	if c.Snapshots.Backend == "" {
		c.Snapshots.Backend = "redis"
	}
	if c.Snapshots.SQLitePath == "" {
		c.Snapshots.SQLitePath = "opentrends.db"
	}
	if c.Snapshots.StaleAfter == "" {
		c.Snapshots.StaleAfter = "24h"
	}
	if c.Snapshots.RedisTTL == "" {
		c.Snapshots.RedisTTL = "0"
	}
	if c.Bookmarks.Driver == "" {
		c.Bookmarks.Driver = "sqlite"
	}
	if c.Bookmarks.DatabaseURL == "" && c.Bookmarks.Driver == "sqlite" {
		c.Bookmarks.DatabaseURL = "opentrends-bookmarks.db"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RefreshInterval == "" {
		c.Server.RefreshInterval = "30m"
	}
	if c.Server.FeedSize == 0 {
		c.Server.FeedSize = 20
	}
	if c.Digest.OutputDir == "" {
		c.Digest.OutputDir = "out"
	}
	if c.Digest.TopN == 0 {
		c.Digest.TopN = 10
	}
	if len(c.Digest.Modes) == 0 {
		c.Digest.Modes = []string{"vote_growth"}
	}
	if c.Digest.Interval == "" {
		c.Digest.Interval = "0"
	}
}

// Validate checks values FillDefaults cannot repair.
func (c Config) Validate() error {
	for name, v := range map[string]string{
		"catalog.timeout":         c.Catalog.Timeout,
		"snapshots.stale_after":   c.Snapshots.StaleAfter,
		"snapshots.redis_ttl":     c.Snapshots.RedisTTL,
		"server.refresh_interval": c.Server.RefreshInterval,
		"digest.interval":         c.Digest.Interval,
	} {
		if _, err := time.ParseDuration(v); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, v, err)
		}
	}
	switch strings.ToLower(c.Snapshots.Backend) {
	case "redis", "sqlite", "memory":
	default:
		return fmt.Errorf("unknown snapshots.backend %q (use redis, sqlite or memory)", c.Snapshots.Backend)
	}
	switch strings.ToLower(c.Bookmarks.Driver) {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown bookmarks.driver %q (use postgres or sqlite)", c.Bookmarks.Driver)
	}
	if c.Catalog.PageSize < 1 || c.Catalog.PageSize > 50 {
		return fmt.Errorf("catalog.page_size must be between 1 and 50, got %d", c.Catalog.PageSize)
	}
	for _, m := range c.Digest.Modes {
		if _, err := model.ParseMode(m); err != nil {
			return fmt.Errorf("digest.modes: %w", err)
		}
	}
	return nil
}

// StaleAfter returns the parsed snapshot freshness window.
func (c Config) StaleAfter() time.Duration {
	d, _ := time.ParseDuration(c.Snapshots.StaleAfter)
	return d
}

// Duration parses a validated duration field; invalid input yields zero.
func Duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
