package adaptation

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"opentrends/internal/ai"
	"opentrends/internal/apperr"
	"opentrends/internal/model"
)

type fakeGen struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (f *fakeGen) wait(ctx context.Context) error {
	if f.release == nil {
		return nil
	}
	select {
	case <-f.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeGen) Adapt(ctx context.Context, name, description string) (string, error) {
	f.calls.Add(1)
	if err := f.wait(ctx); err != nil {
		return "", err
	}
	if f.err != nil {
		return "", f.err
	}
	return "adapted " + name, nil
}

func (f *fakeGen) Translate(ctx context.Context, name, tagline, description, language string) (ai.Translation, error) {
	f.calls.Add(1)
	if err := f.wait(ctx); err != nil {
		return ai.Translation{}, err
	}
	if f.err != nil {
		return ai.Translation{}, f.err
	}
	return ai.Translation{Name: name + " (" + language + ")", Tagline: tagline, Description: description}, nil
}

var item = model.Item{ID: "1", Name: "Alpha", Tagline: "Fast", Description: "Does things"}

func waitResult(t *testing.T, r *Registry, kind Kind, id string) Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := r.Wait(ctx, kind, id)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return res
}

func TestDuplicateTriggerIsNoop(t *testing.T) {
	gen := &fakeGen{release: make(chan struct{})}
	r := NewRegistry(gen, time.Second)
	defer r.Close()

	if !r.Trigger(Request{Kind: KindAdaptation, Item: item}) {
		t.Fatalf("first trigger should start a task")
	}
	if r.Trigger(Request{Kind: KindAdaptation, Item: item}) {
		t.Fatalf("duplicate trigger while in flight should be a no-op")
	}
	if res, _ := r.Get(KindAdaptation, item.ID); res.State != StatePending {
		t.Fatalf("state = %s, want pending", res.State)
	}
	close(gen.release)
	res := waitResult(t, r, KindAdaptation, item.ID)
	if res.State != StateReady || res.Text != "adapted Alpha" {
		t.Fatalf("result = %+v", res)
	}
	if r.Trigger(Request{Kind: KindAdaptation, Item: item}) {
		t.Fatalf("trigger after ready should be a no-op")
	}
	if n := gen.calls.Load(); n != 1 {
		t.Fatalf("generator called %d times, want 1", n)
	}
}

func TestKindsAreIndependent(t *testing.T) {
	gen := &fakeGen{}
	r := NewRegistry(gen, time.Second)
	defer r.Close()

	if !r.Trigger(Request{Kind: KindAdaptation, Item: item}) || !r.Trigger(Request{Kind: KindTranslation, Item: item, Language: "Portuguese"}) {
		t.Fatalf("both kinds should start")
	}
	tr := waitResult(t, r, KindTranslation, item.ID)
	if tr.State != StateReady || tr.Translation == nil || tr.Translation.Name != "Alpha (Portuguese)" {
		t.Fatalf("translation = %+v", tr)
	}
	if ad := waitResult(t, r, KindAdaptation, item.ID); ad.State != StateReady {
		t.Fatalf("adaptation = %+v", ad)
	}
}

func TestFailureKeepsOriginalText(t *testing.T) {
	gen := &fakeGen{err: errors.New("boom")}
	r := NewRegistry(gen, time.Second)
	defer r.Close()

	r.Trigger(Request{Kind: KindTranslation, Item: item})
	res := waitResult(t, r, KindTranslation, item.ID)
	if res.State != StateUnavailable {
		t.Fatalf("state = %s, want unavailable", res.State)
	}
	if res.Translation == nil || res.Translation.Name != item.Name || res.Translation.Description != item.Description {
		t.Fatalf("original text not retained: %+v", res.Translation)
	}
	if !apperr.Is(res.Err, apperr.GenerationFailed) {
		t.Fatalf("err = %v, want GenerationFailed", res.Err)
	}

	// failed results may be retried
	gen.err = nil
	if !r.Trigger(Request{Kind: KindTranslation, Item: item}) {
		t.Fatalf("retry after failure should start a task")
	}
	if res := waitResult(t, r, KindTranslation, item.ID); res.State != StateReady {
		t.Fatalf("retry result = %+v", res)
	}
}

func TestNilGeneratorDegrades(t *testing.T) {
	r := NewRegistry(nil, time.Second)
	defer r.Close()

	r.Trigger(Request{Kind: KindAdaptation, Item: item})
	res := waitResult(t, r, KindAdaptation, item.ID)
	if res.State != StateUnavailable || res.Text != Placeholder {
		t.Fatalf("adaptation = %+v", res)
	}
	if !apperr.Is(res.Err, apperr.ConfigurationMissing) {
		t.Fatalf("err = %v", res.Err)
	}

	r.Trigger(Request{Kind: KindTranslation, Item: item})
	tr := waitResult(t, r, KindTranslation, item.ID)
	if tr.Translation == nil || tr.Translation.Tagline != item.Tagline {
		t.Fatalf("translation should pass original text through: %+v", tr)
	}
}

func TestCancel(t *testing.T) {
	gen := &fakeGen{release: make(chan struct{})}
	r := NewRegistry(gen, time.Minute)
	defer r.Close()

	r.Trigger(Request{Kind: KindAdaptation, Item: item})
	if r.Cancel(KindAdaptation, "other") {
		t.Fatalf("cancel of unknown item should report false")
	}
	if !r.Cancel(KindAdaptation, item.ID) {
		t.Fatalf("cancel should report true for in-flight task")
	}
	if _, ok := r.Get(KindAdaptation, item.ID); ok {
		t.Fatalf("canceled entry should be dropped")
	}
	if !r.Trigger(Request{Kind: KindAdaptation, Item: item}) {
		t.Fatalf("trigger after cancel should start a new task")
	}
	close(gen.release)
	if res := waitResult(t, r, KindAdaptation, item.ID); res.State != StateReady {
		t.Fatalf("result = %+v", res)
	}
}
