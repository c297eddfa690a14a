// Package snapshot owns the per-mode {current, previous} snapshot pair and
// the cache policy deciding between reuse and refetch.
package snapshot

import (
	"context"
	"log/slog"

	"opentrends/internal/apperr"
	"opentrends/internal/model"
	"opentrends/internal/storage"
)

// Pair is the snapshot history kept for one mode. Either side may be nil.
type Pair struct {
	Current  *model.Snapshot
	Previous *model.Snapshot
}

// History is the only component that reads or writes snapshot slots.
type History struct {
	store storage.Store
}

func NewHistory(store storage.Store) *History {
	return &History{store: store}
}

// Load reads both slots for mode. Unreadable or malformed slots are logged and
// reported as absent.
func (h *History) Load(ctx context.Context, mode model.Mode) Pair {
	return Pair{
		Current:  h.get(ctx, storage.Key{Mode: mode, Slot: storage.Current}),
		Previous: h.get(ctx, storage.Key{Mode: mode, Slot: storage.Previous}),
	}
}

func (h *History) get(ctx context.Context, key storage.Key) *model.Snapshot {
	snap, err := h.store.Get(ctx, key)
	if err == nil {
		return snap
	}
	if apperr.Is(err, apperr.MalformedCachedData) {
		malformedSnapshots.WithLabelValues(string(key.Mode)).Inc()
		slog.Warn("snapshot: ignoring malformed stored snapshot", "key", key.String(), "error", err)
	} else {
		slog.Error("snapshot: read failed, treating as absent", "key", key.String(), "error", err)
	}
	return nil
}

// Promote moves old.Current into the previous slot and stores fresh as the
// current snapshot. The returned pair reflects what was written; on a write
// error it still describes the intended state.
func (h *History) Promote(ctx context.Context, mode model.Mode, old Pair, fresh model.Snapshot) (Pair, error) {
	next := Pair{Current: &fresh, Previous: old.Previous}
	if old.Current != nil {
		next.Previous = old.Current
		if err := h.store.Put(ctx, storage.Key{Mode: mode, Slot: storage.Previous}, *old.Current); err != nil {
			return next, err
		}
	}
	if err := h.store.Put(ctx, storage.Key{Mode: mode, Slot: storage.Current}, fresh); err != nil {
		return next, err
	}
	return next, nil
}
