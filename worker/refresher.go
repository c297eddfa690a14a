package worker

import (
	"context"
	"log/slog"
	"time"

	"opentrends/internal/model"
	"opentrends/internal/snapshot"
)

// Resolver is satisfied by *snapshot.Policy.
type Resolver interface {
	Resolve(ctx context.Context, mode model.Mode, now time.Time) (snapshot.Resolution, error)
}

// Refresher keeps every mode's snapshot warm. Resolve only fetches once the
// stored snapshot is stale.
type Refresher struct {
	Policy   Resolver
	Modes    []model.Mode
	Interval time.Duration
	Now      func() time.Time
}

func (w *Refresher) Name() string { return "refresher" }

func (w *Refresher) Start(ctx context.Context) error {
	if w.Interval <= 0 {
		w.Interval = 30 * time.Minute
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

func (w *Refresher) runOnce(ctx context.Context) {
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	modes := w.Modes
	if len(modes) == 0 {
		modes = model.Modes()
	}
	for _, m := range modes {
		if ctx.Err() != nil {
			return
		}
		res, err := w.Policy.Resolve(ctx, m, now())
		if err != nil {
			slog.Error("refresher: resolve failed", "mode", m, "err", err)
			continue
		}
		slog.Debug("refresher: mode resolved", "mode", m, "source", res.Source, "items", len(res.Items))
	}
}
