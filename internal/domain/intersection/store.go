package intersection

import (
	"context"
	"fmt"

	"github.com/rpggio/crossing/internal/repository"
)

// DefaultStoreKey is the single slot the collection is stored under.
const DefaultStoreKey = "trafficLightsData"

// SnapshotStore stores the whole collection as one JSON payload under a
// single key of a key-value repository.
type SnapshotStore struct {
	kv  repository.KeyValueStore
	key string
}

// NewSnapshotStore creates a Store over kv. An empty key selects DefaultStoreKey.
func NewSnapshotStore(kv repository.KeyValueStore, key string) *SnapshotStore {
	if key == "" {
		key = DefaultStoreKey
	}
	return &SnapshotStore{kv: kv, key: key}
}

// Load reads and decodes the stored snapshot. A missing slot surfaces as
// repository.ErrNotFound.
func (s *SnapshotStore) Load(ctx context.Context) ([]Intersection, error) {
	data, err := s.kv.Get(ctx, s.key)
	if err != nil {
		return nil, err
	}
	items, err := UnmarshalCollection(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.key, err)
	}
	return items, nil
}

// Save overwrites the slot with the encoded collection.
func (s *SnapshotStore) Save(ctx context.Context, items []Intersection) error {
	data, err := MarshalCollection(items)
	if err != nil {
		return err
	}
	if err := s.kv.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("save %s: %w", s.key, err)
	}
	return nil
}
