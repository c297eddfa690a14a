package snapshot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"opentrends/internal/apperr"
	"opentrends/internal/model"
)

// DefaultStaleAfter is how long a current snapshot is served before refetching.
const DefaultStaleAfter = 24 * time.Hour

// Fetcher retrieves a fresh ranked list for a mode.
type Fetcher interface {
	Fetch(ctx context.Context, mode model.Mode) ([]model.Item, error)
}

// Resolution is the outcome of Policy.Resolve.
type Resolution struct {
	Mode      model.Mode
	Items     []model.Item
	Previous  *model.Snapshot
	Timestamp time.Time
	Source    model.Source
	// Notice carries the non-fatal fetch error behind a stale-fallback.
	Notice error
}

// Policy decides per mode whether to reuse the stored snapshot or fetch.
type Policy struct {
	history    *History
	fetcher    Fetcher
	staleAfter time.Duration

	mu    sync.Mutex
	locks map[model.Mode]*sync.Mutex
}

// NewPolicy builds a policy. staleAfter <= 0 uses DefaultStaleAfter.
func NewPolicy(history *History, fetcher Fetcher, staleAfter time.Duration) *Policy {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Policy{
		history:    history,
		fetcher:    fetcher,
		staleAfter: staleAfter,
		locks:      map[model.Mode]*sync.Mutex{},
	}
}

// StaleAfter returns the freshness window in use.
func (p *Policy) StaleAfter() time.Duration { return p.staleAfter }

// lockFor serializes resolutions of one mode; other modes proceed freely.
func (p *Policy) lockFor(mode model.Mode) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.locks[mode]
	if !ok {
		l = &sync.Mutex{}
		p.locks[mode] = l
	}
	return l
}

// Resolve returns the cached snapshot when it is younger than the stale
// threshold and fetches otherwise.
func (p *Policy) Resolve(ctx context.Context, mode model.Mode, now time.Time) (Resolution, error) {
	l := p.lockFor(mode)
	l.Lock()
	defer l.Unlock()

	pair := p.history.Load(ctx, mode)
	if pair.Current != nil && now.Sub(pair.Current.Timestamp) < p.staleAfter {
		resolutions.WithLabelValues(string(mode), string(model.SourceCached)).Inc()
		return Resolution{
			Mode:      mode,
			Items:     pair.Current.Items,
			Previous:  pair.Previous,
			Timestamp: pair.Current.Timestamp,
			Source:    model.SourceCached,
		}, nil
	}
	return p.fetch(ctx, mode, now, pair)
}

// Refresh fetches regardless of freshness, with the same fallback rules.
func (p *Policy) Refresh(ctx context.Context, mode model.Mode, now time.Time) (Resolution, error) {
	l := p.lockFor(mode)
	l.Lock()
	defer l.Unlock()

	return p.fetch(ctx, mode, now, p.history.Load(ctx, mode))
}

func (p *Policy) fetch(ctx context.Context, mode model.Mode, now time.Time, pair Pair) (Resolution, error) {
	items, err := p.fetcher.Fetch(ctx, mode)
	if err != nil {
		fetchFailures.WithLabelValues(string(mode)).Inc()
		if apperr.KindOf(err) == apperr.Unknown {
			err = apperr.New(apperr.UpstreamFetchFailed, "snapshot.fetch", err)
		}
		if pair.Current == nil {
			slog.Error("snapshot: fetch failed and no snapshot stored", "mode", mode, "error", err)
			return Resolution{}, err
		}
		slog.Warn("snapshot: fetch failed, serving stored snapshot", "mode", mode, "stored_at", pair.Current.Timestamp, "error", err)
		resolutions.WithLabelValues(string(mode), string(model.SourceStaleFallback)).Inc()
		return Resolution{
			Mode:      mode,
			Items:     pair.Current.Items,
			Previous:  pair.Previous,
			Timestamp: pair.Current.Timestamp,
			Source:    model.SourceStaleFallback,
			Notice:    err,
		}, nil
	}

	fresh := model.Snapshot{Timestamp: now, Items: items}
	next, err := p.history.Promote(ctx, mode, pair, fresh)
	if err != nil {
		// the fetched list is returned even when it could not be persisted
		slog.Error("snapshot: persisting fresh snapshot failed", "mode", mode, "error", err)
	}
	slog.Info("snapshot: refreshed", "mode", mode, "items", len(items), "has_previous", next.Previous != nil)
	resolutions.WithLabelValues(string(mode), string(model.SourceFresh)).Inc()
	return Resolution{
		Mode:      mode,
		Items:     items,
		Previous:  next.Previous,
		Timestamp: now,
		Source:    model.SourceFresh,
	}, nil
}
