// Package adaptation runs per-item text generation requests (market
// adaptations and translations) in the background, keyed by item identity.
package adaptation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"opentrends/internal/ai"
	"opentrends/internal/apperr"
	"opentrends/internal/model"
)

type Kind string

const (
	KindAdaptation  Kind = "adaptation"
	KindTranslation Kind = "translation"
)

type State string

const (
	StatePending     State = "pending"
	StateReady       State = "ready"
	StateUnavailable State = "unavailable"
)

// Placeholder is shown in place of an adaptation when no generator is configured.
const Placeholder = "AI adaptation unavailable: set OPENAI_API_KEY to enable it."

var ErrGeneratorMissing = errors.New("text generation is not configured")

// Result is the latest known outcome for one (kind, item) pair.
type Result struct {
	Kind        Kind            `json:"kind"`
	ItemID      string          `json:"itemId"`
	State       State           `json:"state"`
	Text        string          `json:"text,omitempty"`
	Translation *ai.Translation `json:"translation,omitempty"`
	Err         error           `json:"-"`
	Notice      string          `json:"notice,omitempty"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Request describes one generation task. Language is used by translations only.
type Request struct {
	Kind     Kind
	Item     model.Item
	Language string
}

type key struct {
	kind Kind
	id   string
}

type entry struct {
	result Result
	cancel context.CancelFunc
	done   chan struct{}
}

// Registry allows at most one in-flight task per (kind, item).
type Registry struct {
	gen     ai.Generator
	timeout time.Duration

	mu      sync.Mutex
	entries map[key]*entry
	wg      sync.WaitGroup
}

// NewRegistry accepts a nil generator; results then degrade to placeholders.
func NewRegistry(gen ai.Generator, timeout time.Duration) *Registry {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Registry{gen: gen, timeout: timeout, entries: make(map[key]*entry)}
}

// Trigger starts a task unless one is already running for the same key or a
// ready result exists. It reports whether a new task was started.
func (r *Registry) Trigger(req Request) bool {
	k := key{req.Kind, req.Item.ID}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[k]; ok {
		if e.result.State == StatePending || e.result.State == StateReady {
			return false
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	e := &entry{
		result: Result{Kind: req.Kind, ItemID: req.Item.ID, State: StatePending, UpdatedAt: time.Now()},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.entries[k] = e
	r.wg.Add(1)
	go r.run(ctx, k, e, req)
	return true
}

func (r *Registry) run(ctx context.Context, k key, e *entry, req Request) {
	defer r.wg.Done()
	defer close(e.done)
	defer e.cancel()

	res := r.generate(ctx, req)
	res.Kind, res.ItemID, res.UpdatedAt = req.Kind, req.Item.ID, time.Now()
	if res.Err != nil {
		res.Notice = notice(res.Err)
		slog.Warn("adaptation: generation failed", "kind", req.Kind, "item", req.Item.ID, "err", res.Err)
	}

	r.mu.Lock()
	if cur, ok := r.entries[k]; ok && cur == e {
		cur.result = res
	}
	r.mu.Unlock()
}

func (r *Registry) generate(ctx context.Context, req Request) Result {
	item := req.Item
	switch req.Kind {
	case KindTranslation:
		original := &ai.Translation{Name: item.Name, Tagline: item.Tagline, Description: item.Description}
		if r.gen == nil {
			return Result{State: StateUnavailable, Translation: original, Err: apperr.New(apperr.ConfigurationMissing, "adaptation.translate", ErrGeneratorMissing)}
		}
		tr, err := r.gen.Translate(ctx, item.Name, item.Tagline, item.Description, req.Language)
		if err != nil {
			return Result{State: StateUnavailable, Translation: original, Err: asGenerationFailed("adaptation.translate", err)}
		}
		return Result{State: StateReady, Translation: &tr}
	default:
		if r.gen == nil {
			return Result{State: StateUnavailable, Text: Placeholder, Err: apperr.New(apperr.ConfigurationMissing, "adaptation.adapt", ErrGeneratorMissing)}
		}
		text, err := r.gen.Adapt(ctx, item.Name, item.Description)
		if err != nil {
			return Result{State: StateUnavailable, Text: item.Description, Err: asGenerationFailed("adaptation.adapt", err)}
		}
		return Result{State: StateReady, Text: text}
	}
}

func notice(err error) string {
	if apperr.Is(err, apperr.ConfigurationMissing) {
		return "Text generation is not configured; showing the original text."
	}
	return "Generation failed; showing the original text. Try again later."
}

func asGenerationFailed(op string, err error) error {
	if apperr.KindOf(err) == apperr.GenerationFailed {
		return err
	}
	return apperr.New(apperr.GenerationFailed, op, err)
}

// Get returns the latest result for the key, if any task was ever triggered.
func (r *Registry) Get(kind Kind, itemID string) (Result, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key{kind, itemID}]
	if !ok {
		return Result{}, false
	}
	return e.result, true
}

// Cancel aborts the in-flight task for the key. The entry is dropped so a
// later Trigger starts afresh.
func (r *Registry) Cancel(kind Kind, itemID string) bool {
	k := key{kind, itemID}
	r.mu.Lock()
	e, ok := r.entries[k]
	if !ok || e.result.State != StatePending {
		r.mu.Unlock()
		return false
	}
	delete(r.entries, k)
	r.mu.Unlock()
	e.cancel()
	return true
}

// Wait blocks until the task for the key finishes or ctx is done.
func (r *Registry) Wait(ctx context.Context, kind Kind, itemID string) (Result, error) {
	r.mu.Lock()
	e, ok := r.entries[key{kind, itemID}]
	r.mu.Unlock()
	if !ok {
		return Result{}, errors.New("adaptation: no task for item")
	}
	select {
	case <-e.done:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return e.result, nil
}

// Close cancels every in-flight task and waits for them to return.
func (r *Registry) Close() {
	r.mu.Lock()
	for _, e := range r.entries {
		e.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
