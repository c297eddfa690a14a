// Package selector holds the active ranking mode and the view derived for it.
package selector

import (
	"context"
	"errors"
	"sync"
	"time"

	"opentrends/internal/model"
	"opentrends/internal/ranking"
	"opentrends/internal/snapshot"
)

// ErrSuperseded is returned when a newer selection replaced the request
// before its resolution completed. The returned view was not applied.
var ErrSuperseded = errors.New("selector: superseded by a newer selection")

// Resolver is the part of snapshot.Policy the selector needs.
type Resolver interface {
	Resolve(ctx context.Context, mode model.Mode, now time.Time) (snapshot.Resolution, error)
}

// View is an ordered, annotated item list ready for display.
type View struct {
	Mode      model.Mode           `json:"mode"`
	Items     []model.EnrichedItem `json:"items"`
	Timestamp time.Time            `json:"timestamp"`
	Source    model.Source         `json:"source"`
	// Notice is a one-line, non-fatal message (stale fallback).
	Notice string `json:"notice,omitempty"`
}

// Selector is the ranking mode state machine. Every selection resolves the
// mode's snapshot and re-derives the ordering; only the latest selection may
// replace the shown view.
type Selector struct {
	resolver Resolver
	now      func() time.Time

	mu      sync.Mutex
	mode    model.Mode
	token   uint64
	view    View
	hasView bool
}

// New creates a selector starting in model.DefaultMode. A nil clock uses time.Now.
func New(resolver Resolver, now func() time.Time) *Selector {
	if now == nil {
		now = time.Now
	}
	return &Selector{resolver: resolver, now: now, mode: model.DefaultMode}
}

// Mode returns the active mode.
func (s *Selector) Mode() model.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Current returns the last applied view.
func (s *Selector) Current() (View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.hasView
}

// Select switches to mode and builds its view. When another Select starts
// before this one finishes, the result is returned with ErrSuperseded and the
// shown view is left untouched.
func (s *Selector) Select(ctx context.Context, mode model.Mode) (View, error) {
	mode, err := model.ParseMode(string(mode))
	if err != nil {
		return View{}, err
	}
	s.mu.Lock()
	s.mode = mode
	s.token++
	token := s.token
	s.mu.Unlock()

	now := s.now()
	res, err := s.resolver.Resolve(ctx, mode, now)
	if err != nil {
		return View{}, err
	}
	view := Build(res)

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.token {
		return view, ErrSuperseded
	}
	s.view = view
	s.hasView = true
	return view, nil
}

// Reload re-selects the active mode.
func (s *Selector) Reload(ctx context.Context) (View, error) {
	return s.Select(ctx, s.Mode())
}

// Build derives the ordered view for a resolution.
func Build(res snapshot.Resolution) View {
	var prevAt *time.Time
	if res.Previous != nil {
		ts := res.Previous.Timestamp
		prevAt = &ts
	}
	v := View{
		Mode:      res.Mode,
		Items:     ranking.Derive(res.Items, res.Previous, res.Timestamp, prevAt, res.Mode),
		Timestamp: res.Timestamp,
		Source:    res.Source,
	}
	if res.Source == model.SourceStaleFallback {
		v.Notice = "Showing saved rankings from " + res.Timestamp.UTC().Format("2006-01-02 15:04") + " UTC; the catalog could not be reached."
	}
	return v
}
