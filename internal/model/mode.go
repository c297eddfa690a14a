package model

import (
	"fmt"
	"strings"
)

// Mode selects which ordering the ranking view uses.
type Mode string

const (
	MostVoted    Mode = "most_voted"
	VoteGrowth   Mode = "vote_growth"
	VoteVelocity Mode = "vote_velocity"
)

// DefaultMode is the mode a fresh selector starts in.
const DefaultMode = MostVoted

// Modes lists every ranking mode in display order.
func Modes() []Mode {
	return []Mode{MostVoted, VoteGrowth, VoteVelocity}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	switch m {
	case MostVoted, VoteGrowth, VoteVelocity:
		return true
	}
	return false
}

// ParseMode accepts the canonical names plus a few short aliases. Empty input
// yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultMode, nil
	case "most_voted", "votes", "top":
		return MostVoted, nil
	case "vote_growth", "growth", "delta":
		return VoteGrowth, nil
	case "vote_velocity", "velocity", "vph":
		return VoteVelocity, nil
	}
	return "", fmt.Errorf("unknown ranking mode %q (use most_voted, vote_growth or vote_velocity)", s)
}

// Source tells where a resolved item list came from.
type Source string

const (
	SourceFresh         Source = "fresh"
	SourceCached        Source = "cached"
	SourceStaleFallback Source = "stale-fallback"
)
