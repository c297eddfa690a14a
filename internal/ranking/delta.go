// Package ranking derives vote deltas and velocities from two snapshots and
// orders items for each ranking mode.
//
// Derive is pure: the same inputs always produce the same ordered output, so
// callers may memoize it by (current, previous, mode).
package ranking

import (
	"sort"
	"time"

	"opentrends/internal/model"
)

// minElapsedHours floors the window so nearly simultaneous snapshots do not
// blow up the velocity.
const minElapsedHours = 0.01

// Derive enriches current with deltas against previous and orders the result
// for mode. previous and previousAt may be nil when no history exists.
func Derive(current []model.Item, previous *model.Snapshot, currentAt time.Time, previousAt *time.Time, mode model.Mode) []model.EnrichedItem {
	prevVotes := map[string]int{}
	if previous != nil {
		for _, it := range previous.Items {
			prevVotes[it.ID] = it.VotesCount
		}
	}

	hasHistory := previous != nil && previousAt != nil
	elapsed := 0.0
	if hasHistory {
		elapsed = ElapsedHours(currentAt, *previousAt)
	}

	out := make([]model.EnrichedItem, 0, len(current))
	for _, it := range current {
		delta := 0
		if pv, ok := prevVotes[it.ID]; ok {
			delta = it.VotesCount - pv
		}
		vph := 0.0
		if hasHistory {
			vph = float64(delta) / elapsed
		}
		out = append(out, model.EnrichedItem{
			Item:         it,
			DeltaVotes:   delta,
			VotesPerHour: vph,
			HasHistory:   hasHistory,
		})
	}

	sort.SliceStable(out, less(out, mode))
	return out
}

// ElapsedHours returns the hours between two instants, floored to 0.01.
func ElapsedHours(currentAt, previousAt time.Time) float64 {
	h := float64(currentAt.Sub(previousAt).Milliseconds()) / 3_600_000
	if h < minElapsedHours {
		return minElapsedHours
	}
	return h
}

func less(items []model.EnrichedItem, mode model.Mode) func(i, j int) bool {
	switch mode {
	case model.VoteGrowth:
		return func(i, j int) bool {
			a, b := items[i], items[j]
			if a.DeltaVotes != b.DeltaVotes {
				return a.DeltaVotes > b.DeltaVotes
			}
			return a.Item.VotesCount > b.Item.VotesCount
		}
	case model.VoteVelocity:
		return func(i, j int) bool {
			a, b := items[i], items[j]
			if a.VotesPerHour != b.VotesPerHour {
				return a.VotesPerHour > b.VotesPerHour
			}
			if a.DeltaVotes != b.DeltaVotes {
				return a.DeltaVotes > b.DeltaVotes
			}
			return a.Item.VotesCount > b.Item.VotesCount
		}
	default: // most_voted
		return func(i, j int) bool {
			return items[i].Item.VotesCount > items[j].Item.VotesCount
		}
	}
}

// Top returns at most n leading items; n <= 0 returns all.
func Top(items []model.EnrichedItem, n int) []model.EnrichedItem {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}
