package worker

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"opentrends/internal/digest"
	"opentrends/internal/model"
	"opentrends/internal/selector"
)

// DigestWriter renders one Markdown digest per mode per day into OutputDir.
// A day's file is written once; later runs leave it alone.
type DigestWriter struct {
	Policy    Resolver
	Modes     []model.Mode
	OutputDir string
	Title     string
	TopN      int
	Interval  time.Duration
	Now       func() time.Time
}

func (w *DigestWriter) Name() string { return "digest-writer" }

func (w *DigestWriter) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = time.Hour
	}
	w.runOnce(ctx)

	t := time.NewTicker(w.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			w.runOnce(ctx)
		}
	}
}

func (w *DigestWriter) runOnce(ctx context.Context) {
	for _, m := range w.Modes {
		path, written, err := w.WriteMode(ctx, m)
		if err != nil {
			slog.Error("digest-writer: write failed", "mode", m, "err", err)
			continue
		}
		if written {
			slog.Info("digest-writer: digest written", "mode", m, "path", path)
		}
	}
}

// WriteMode writes today's digest for mode unless it already exists.
func (w *DigestWriter) WriteMode(ctx context.Context, mode model.Mode) (string, bool, error) {
	now := time.Now()
	if w.Now != nil {
		now = w.Now()
	}
	path := filepath.Join(w.OutputDir, digest.Filename(mode, now))
	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return path, false, err
	}
	res, err := w.Policy.Resolve(ctx, mode, now)
	if err != nil {
		return path, false, err
	}
	if err := os.MkdirAll(w.OutputDir, 0o755); err != nil {
		return path, false, err
	}
	md, err := digest.Render(digest.FromView(w.Title, selector.Build(res), w.TopN), now)
	if err != nil {
		return path, false, err
	}
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return path, false, err
	}
	return path, true, nil
}
