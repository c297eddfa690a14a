package cmd

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"opentrends/internal/adaptation"
	"opentrends/internal/ai"
	"opentrends/internal/bookmarks"
	"opentrends/internal/catalog"
	"opentrends/internal/config"
	"opentrends/internal/prefs"
	"opentrends/internal/redisclient"
	"opentrends/internal/selector"
	"opentrends/internal/snapshot"
	"opentrends/internal/storage"
	"opentrends/internal/trends"
)

// app bundles the collaborators shared by subcommands.
type app struct {
	cfg      config.Config
	history  *snapshot.History
	policy   *snapshot.Policy
	selector *selector.Selector
	registry *adaptation.Registry
	prefs    prefs.Prefs
	closers  []func() error
}

// newApp wires the snapshot store, cache policy and selector.
func newApp(cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		a.Close()
		return nil, err
	}
	fetcher := &trends.Fetcher{Catalog: cat, PageSize: cfg.Catalog.PageSize, Limit: cfg.Catalog.Limit}
	a.history = snapshot.NewHistory(store)
	a.policy = snapshot.NewPolicy(a.history, fetcher, cfg.StaleAfter())
	a.selector = selector.New(a.policy, nil)

	var gen ai.Generator
	if c := ai.NewOpenAI(ai.Config{
		APIKey:    cfg.OpenAI.APIKey,
		Model:     cfg.OpenAI.Model,
		BaseURL:   cfg.OpenAI.BaseURL,
		MaxTokens: cfg.OpenAI.MaxTokens,
	}); c != nil {
		gen = c
	} else {
		slog.Warn("app: openai api key not set, adaptations and translations are unavailable")
	}
	a.registry = adaptation.NewRegistry(gen, 2*time.Minute)
	a.closers = append(a.closers, func() error { a.registry.Close(); return nil })

	p, err := prefs.EnsureUserID(cfg.App.PrefsPath)
	if err != nil {
		slog.Warn("app: could not persist preferences", "err", err)
	}
	a.prefs = p
	return a, nil
}

func (a *app) openStore() (storage.Store, error) {
	switch strings.ToLower(a.cfg.Snapshots.Backend) {
	case "memory":
		return storage.NewMemoryStore(), nil
	case "sqlite":
		s, err := storage.OpenSQLiteStore(a.cfg.Snapshots.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		return s, nil
	default:
		rdb := redisclient.New(a.cfg.Redis)
		a.closers = append(a.closers, rdb.Close)
		return storage.NewRedisStore(rdb, config.Duration(a.cfg.Snapshots.RedisTTL)), nil
	}
}

// openBookmarks connects to the saved-ideas store.
func (a *app) openBookmarks() (*bookmarks.Store, error) {
	dsn := a.cfg.Bookmarks.DatabaseURL
	if dsn == "" {
		return nil, fmt.Errorf("bookmarks: database url not configured (set bookmarks.database_url or DATABASE_URL)")
	}
	s, err := bookmarks.Open(strings.ToLower(a.cfg.Bookmarks.Driver), dsn)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s.Close)
	return s, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("app: close failed", "err", err)
		}
	}
	a.closers = nil
}
