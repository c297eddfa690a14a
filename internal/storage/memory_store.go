package storage

import (
	"context"
	"encoding/json"
	"sync"

	"opentrends/internal/model"
)

// MemoryStore keeps serialized snapshots in process memory. Payloads are
// stored encoded so reads go through the same decoding path as other backends.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[Key][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[Key][]byte{}}
}

func (s *MemoryStore) Get(_ context.Context, key Key) (*model.Snapshot, error) {
	s.mu.RLock()
	b, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(key, b)
}

func (s *MemoryStore) Put(_ context.Context, key Key, snap model.Snapshot) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	s.PutRaw(key, b)
	return nil
}

// PutRaw stores an arbitrary payload, bypassing encoding.
func (s *MemoryStore) PutRaw(key Key, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), payload...)
}
