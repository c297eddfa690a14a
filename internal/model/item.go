package model

import (
	"encoding/json"
	"errors"
	"time"
)

// MaxTopics is the number of topic labels kept per item.
const MaxTopics = 3

// Item represents a single catalog listing as observed in a snapshot.
type Item struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Tagline      string   `json:"tagline"`
	Description  string   `json:"description"`
	URL          string   `json:"url"`
	VotesCount   int      `json:"votesCount"`
	ThumbnailURL string   `json:"thumbnail,omitempty"`
	Website      string   `json:"website"`
	Topics       []string `json:"topics"`
}

// ClampTopics trims topics to MaxTopics, keeping order.
func ClampTopics(topics []string) []string {
	if len(topics) <= MaxTopics {
		return topics
	}
	return topics[:MaxTopics]
}

// Snapshot is the ranked list as observed at Timestamp. Snapshots are replaced
// wholesale and never mutated after being written.
type Snapshot struct {
	Timestamp time.Time
	Items     []Item
}

// ErrSnapshotSchema is returned when a serialized snapshot does not carry the
// expected fields.
var ErrSnapshotSchema = errors.New("snapshot: schema mismatch")

type snapshotWire struct {
	Timestamp *int64 `json:"timestamp"`
	Items     []Item `json:"items"`
}

// MarshalJSON writes {timestamp: ms since epoch, items: [...]}.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	ms := s.Timestamp.UnixMilli()
	items := s.Items
	if items == nil {
		items = []Item{}
	}
	return json.Marshal(snapshotWire{Timestamp: &ms, Items: items})
}

// UnmarshalJSON rejects payloads missing the timestamp or the items array.
func (s *Snapshot) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	itemsRaw, ok := raw["items"]
	if !ok || string(itemsRaw) == "null" {
		return ErrSnapshotSchema
	}
	var w snapshotWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Timestamp == nil || *w.Timestamp <= 0 {
		return ErrSnapshotSchema
	}
	for _, it := range w.Items {
		if it.ID == "" {
			return ErrSnapshotSchema
		}
	}
	s.Timestamp = time.UnixMilli(*w.Timestamp).UTC()
	s.Items = w.Items
	return nil
}

// DecodeSnapshot parses a stored payload.
func DecodeSnapshot(b []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// EnrichedItem decorates an item with deltas derived from the previous snapshot.
type EnrichedItem struct {
	Item         Item    `json:"item"`
	DeltaVotes   int     `json:"deltaVotes"`
	VotesPerHour float64 `json:"votesPerHour"`
	HasHistory   bool    `json:"hasHistory"`
}
