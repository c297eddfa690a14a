package ranking

import (
	"math"
	"reflect"
	"testing"
	"time"

	"opentrends/internal/model"
)

func item(id string, votes int) model.Item {
	return model.Item{ID: id, Name: id, VotesCount: votes}
}

func ids(items []model.EnrichedItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Item.ID)
	}
	return out
}

func TestDeriveTwoHourScenario(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)
	current := []model.Item{item("a", 100), item("b", 50)}
	prev := &model.Snapshot{Timestamp: t0, Items: []model.Item{item("a", 80), item("b", 50)}}

	growth := Derive(current, prev, t1, &t0, model.VoteGrowth)
	if got := ids(growth); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("growth order = %v", got)
	}
	if growth[0].DeltaVotes != 20 || growth[1].DeltaVotes != 0 {
		t.Errorf("deltas = %d,%d want 20,0", growth[0].DeltaVotes, growth[1].DeltaVotes)
	}

	velocity := Derive(current, prev, t1, &t0, model.VoteVelocity)
	if got := ids(velocity); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("velocity order = %v", got)
	}
	if velocity[0].VotesPerHour != 10 || velocity[1].VotesPerHour != 0 {
		t.Errorf("vph = %v,%v want 10,0", velocity[0].VotesPerHour, velocity[1].VotesPerHour)
	}
	for _, it := range velocity {
		if !it.HasHistory {
			t.Errorf("item %s should have history", it.Item.ID)
		}
	}
}

func TestDeriveWithoutHistory(t *testing.T) {
	now := time.Now()
	current := []model.Item{item("x", 5), item("y", 9)}
	out := Derive(current, nil, now, nil, model.VoteVelocity)
	if len(out) != 2 {
		t.Fatalf("len = %d", len(out))
	}
	for _, it := range out {
		if it.HasHistory || it.DeltaVotes != 0 || it.VotesPerHour != 0 {
			t.Errorf("unexpected enrichment without history: %+v", it)
		}
	}
	// ties on vph and delta fall back to votes
	if got := ids(out); !reflect.DeepEqual(got, []string{"y", "x"}) {
		t.Errorf("order = %v", got)
	}
}

func TestDeriveSnapshotWithoutTimestampHasNoHistory(t *testing.T) {
	now := time.Now()
	prev := &model.Snapshot{Items: []model.Item{item("a", 1)}}
	out := Derive([]model.Item{item("a", 10)}, prev, now, nil, model.VoteGrowth)
	if out[0].HasHistory {
		t.Fatalf("HasHistory must require a previous timestamp")
	}
	if out[0].DeltaVotes != 9 {
		t.Errorf("delta = %d, want 9", out[0].DeltaVotes)
	}
	if out[0].VotesPerHour != 0 {
		t.Errorf("vph = %v, want 0", out[0].VotesPerHour)
	}
}

func TestNewItemsKeepZeroDeltaAndStay(t *testing.T) {
	t0 := time.Now().Add(-time.Hour)
	t1 := time.Now()
	prev := &model.Snapshot{Timestamp: t0, Items: []model.Item{item("old", 10)}}
	current := []model.Item{item("old", 12), item("new", 500)}

	for _, mode := range []model.Mode{model.VoteGrowth, model.VoteVelocity} {
		out := Derive(current, prev, t1, &t0, mode)
		if len(out) != 2 {
			t.Fatalf("%s: item dropped, got %v", mode, ids(out))
		}
		for _, it := range out {
			if it.Item.ID == "new" && it.DeltaVotes != 0 {
				t.Errorf("%s: new item delta = %d", mode, it.DeltaVotes)
			}
		}
		if out[0].Item.ID != "old" {
			t.Errorf("%s: expected grower first, got %v", mode, ids(out))
		}
	}
}

func TestNegativeDeltasSortLast(t *testing.T) {
	t0 := time.Now().Add(-4 * time.Hour)
	t1 := time.Now()
	prev := &model.Snapshot{Timestamp: t0, Items: []model.Item{item("a", 50), item("b", 50), item("c", 50)}}
	current := []model.Item{item("a", 40), item("b", 50), item("c", 60)}

	out := Derive(current, prev, t1, &t0, model.VoteGrowth)
	if got := ids(out); !reflect.DeepEqual(got, []string{"c", "b", "a"}) {
		t.Fatalf("order = %v", got)
	}
	if out[2].DeltaVotes != -10 {
		t.Errorf("delta = %d, want -10", out[2].DeltaVotes)
	}
	if out[2].VotesPerHour >= 0 {
		t.Errorf("expected negative velocity, got %v", out[2].VotesPerHour)
	}
}

func TestOrderingsAreMonotonic(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(90 * time.Minute)
	prev := &model.Snapshot{Timestamp: t0}
	var current []model.Item
	for i := 0; i < 40; i++ {
		id := string(rune('a' + i%26))
		if i >= 26 {
			id += "2"
		}
		prevVotes := (i * 37) % 101
		prev.Items = append(prev.Items, item(id, prevVotes))
		current = append(current, item(id, prevVotes+(i*13)%17-3))
	}

	mv := Derive(current, prev, t1, &t0, model.MostVoted)
	for i := 1; i < len(mv); i++ {
		if mv[i-1].Item.VotesCount < mv[i].Item.VotesCount {
			t.Fatalf("most_voted not non-increasing at %d", i)
		}
	}

	g := Derive(current, prev, t1, &t0, model.VoteGrowth)
	for i := 1; i < len(g); i++ {
		a, b := g[i-1], g[i]
		if a.DeltaVotes < b.DeltaVotes || (a.DeltaVotes == b.DeltaVotes && a.Item.VotesCount < b.Item.VotesCount) {
			t.Fatalf("vote_growth order broken at %d: %+v then %+v", i, a, b)
		}
	}

	v := Derive(current, prev, t1, &t0, model.VoteVelocity)
	for i := 1; i < len(v); i++ {
		a, b := v[i-1], v[i]
		switch {
		case a.VotesPerHour > b.VotesPerHour:
		case a.VotesPerHour < b.VotesPerHour:
			t.Fatalf("vote_velocity not non-increasing at %d", i)
		case a.DeltaVotes > b.DeltaVotes:
		case a.DeltaVotes < b.DeltaVotes:
			t.Fatalf("vote_velocity delta tie-break broken at %d", i)
		case a.Item.VotesCount < b.Item.VotesCount:
			t.Fatalf("vote_velocity votes tie-break broken at %d", i)
		}
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	t0 := time.Now().Add(-3 * time.Hour)
	t1 := time.Now()
	prev := &model.Snapshot{Timestamp: t0, Items: []model.Item{item("a", 1), item("b", 2), item("c", 3)}}
	current := []model.Item{item("a", 4), item("b", 5), item("c", 6), item("d", 6)}
	for _, mode := range model.Modes() {
		first := Derive(current, prev, t1, &t0, mode)
		second := Derive(current, prev, t1, &t0, mode)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("%s: outputs differ", mode)
		}
	}
	if current[0].ID != "a" || current[3].ID != "d" {
		t.Errorf("input slice was reordered")
	}
}

func TestElapsedHoursFloor(t *testing.T) {
	now := time.Now()
	if got := ElapsedHours(now, now); got != minElapsedHours {
		t.Errorf("same instant = %v, want %v", got, minElapsedHours)
	}
	if got := ElapsedHours(now, now.Add(time.Hour)); got != minElapsedHours {
		t.Errorf("reversed instants = %v, want floor", got)
	}
	if got := ElapsedHours(now.Add(30*time.Minute), now); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("30m = %v, want 0.5", got)
	}
}

func TestTop(t *testing.T) {
	in := make([]model.EnrichedItem, 5)
	if len(Top(in, 3)) != 3 || len(Top(in, 0)) != 5 || len(Top(in, 9)) != 5 {
		t.Fatalf("Top returned unexpected lengths")
	}
}

func TestVelocityTieBreaksOnVotes(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(2 * time.Hour)
	current := []model.Item{item("x", 60), item("y", 90), item("z", 40)}
	prev := &model.Snapshot{Timestamp: t0, Items: []model.Item{item("x", 50), item("y", 80), item("z", 20)}}

	got := Derive(current, prev, t1, &t0, model.VoteVelocity)
	if order := ids(got); !reflect.DeepEqual(order, []string{"z", "y", "x"}) {
		t.Fatalf("velocity order = %v, want [z y x]", order)
	}
	if got[1].VotesPerHour != got[2].VotesPerHour || got[1].DeltaVotes != got[2].DeltaVotes {
		t.Fatalf("y and x should tie on velocity and delta: %+v %+v", got[1], got[2])
	}
	if got[0].VotesPerHour != 10 || got[1].VotesPerHour != 5 {
		t.Errorf("vph = %v,%v want 10,5", got[0].VotesPerHour, got[1].VotesPerHour)
	}
}
