// Package server exposes the ranking view, per-item generation requests,
// bookmarks, an RSS feed and a chart dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"opentrends/internal/adaptation"
	"opentrends/internal/bookmarks"
	"opentrends/internal/model"
	"opentrends/internal/selector"
	"opentrends/internal/snapshot"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Bookmarks is the persistence surface the server needs.
type Bookmarks interface {
	Insert(ctx context.Context, nb bookmarks.NewBookmark) (bookmarks.Bookmark, error)
	List(ctx context.Context, userID string) ([]bookmarks.Bookmark, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Selector *selector.Selector
	// Resolver serves the feed and dashboard without changing the active mode.
	Resolver  selector.Resolver
	// History is read for item lookups; it is never refreshed from here.
	History   *snapshot.History
	Registry  *adaptation.Registry
	Bookmarks Bookmarks // optional
	UserID    string
	Language  string
	FeedSize  int
	Now       func() time.Time
}

type Server struct {
	opts Options
}

func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FeedSize <= 0 {
		opts.FeedSize = 20
	}
	return &Server{opts: opts}
}

// Handler returns the routed handler wrapped with CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /trends", WithLogging(s.getTrends))
	mux.HandleFunc("GET /trends/current", WithLogging(s.getCurrent))

	mux.HandleFunc("POST /items/{id}/adaptation", WithLogging(s.trigger(adaptation.KindAdaptation)))
	mux.HandleFunc("GET /items/{id}/adaptation", WithLogging(s.result(adaptation.KindAdaptation)))
	mux.HandleFunc("DELETE /items/{id}/adaptation", WithLogging(s.cancel(adaptation.KindAdaptation)))
	mux.HandleFunc("POST /items/{id}/translation", WithLogging(s.trigger(adaptation.KindTranslation)))
	mux.HandleFunc("GET /items/{id}/translation", WithLogging(s.result(adaptation.KindTranslation)))
	mux.HandleFunc("DELETE /items/{id}/translation", WithLogging(s.cancel(adaptation.KindTranslation)))

	mux.HandleFunc("GET /bookmarks", WithLogging(s.listBookmarks))
	mux.HandleFunc("POST /bookmarks", WithLogging(s.createBookmark))
	mux.HandleFunc("DELETE /bookmarks/{id}", WithLogging(s.deleteBookmark))

	mux.HandleFunc("GET /feed.rss", WithLogging(s.getFeed))
	mux.HandleFunc("GET /dashboard", WithLogging(s.getDashboard))
	mux.Handle("GET /metrics", promhttp.Handler())

	return CORS(mux)
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// resolveView builds the view for mode without touching the selector state.
func (s *Server) resolveView(ctx context.Context, raw string) (selector.View, error) {
	if raw == "" {
		if v, ok := s.opts.Selector.Current(); ok {
			return v, nil
		}
	}
	mode, err := model.ParseMode(raw)
	if err != nil {
		return selector.View{}, err
	}
	if raw == "" {
		mode = s.opts.Selector.Mode()
	}
	res, err := s.opts.Resolver.Resolve(ctx, mode, s.opts.Now())
	if err != nil {
		return selector.View{}, err
	}
	return selector.Build(res), nil
}

// findItem looks the id up in the shown view, then in each mode's stored
// current snapshot. It never fetches.
func (s *Server) findItem(ctx context.Context, id string) (model.Item, bool) {
	if v, ok := s.opts.Selector.Current(); ok {
		for _, it := range v.Items {
			if it.Item.ID == id {
				return it.Item, true
			}
		}
	}
	if s.opts.History == nil {
		return model.Item{}, false
	}
	for _, m := range model.Modes() {
		cur := s.opts.History.Load(ctx, m).Current
		if cur == nil {
			continue
		}
		for _, it := range cur.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return model.Item{}, false
}

func (s *Server) userID(r *http.Request) string {
	if u := r.Header.Get("X-User-ID"); u != "" {
		return u
	}
	return s.opts.UserID
}
