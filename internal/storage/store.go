// Package storage persists ranking snapshots. Each ranking mode owns two
// slots, current and previous; backends replace a slot's payload wholesale.
package storage

import (
	"context"
	"fmt"

	"opentrends/internal/apperr"
	"opentrends/internal/model"
)

// Slot names one of the two snapshots kept per mode.
type Slot string

const (
	Current  Slot = "current"
	Previous Slot = "previous"
)

// Key addresses a single stored snapshot.
type Key struct {
	Mode model.Mode
	Slot Slot
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.Mode, k.Slot)
}

// Store is the snapshot persistence capability.
//
// Get returns (nil, nil) when nothing is stored under key and an error of
// kind apperr.MalformedCachedData when the payload cannot be decoded.
type Store interface {
	Get(ctx context.Context, key Key) (*model.Snapshot, error)
	Put(ctx context.Context, key Key, snap model.Snapshot) error
}

func decode(key Key, payload []byte) (*model.Snapshot, error) {
	snap, err := model.DecodeSnapshot(payload)
	if err != nil {
		return nil, apperr.New(apperr.MalformedCachedData, "storage.get "+key.String(), err)
	}
	return &snap, nil
}
