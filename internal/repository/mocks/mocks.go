package mocks

import (
	"context"

	"github.com/rpggio/crossing/internal/domain/activity"
	"github.com/rpggio/crossing/internal/domain/intersection"
	"github.com/stretchr/testify/mock"
)

// Store is a mock for intersection.Store.
type Store struct {
	mock.Mock
}

func (m *Store) Load(ctx context.Context) ([]intersection.Intersection, error) {
	args := m.Called(ctx)
	if items, ok := args.Get(0).([]intersection.Intersection); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *Store) Save(ctx context.Context, items []intersection.Intersection) error {
	args := m.Called(ctx, items)
	return args.Error(0)
}

// KeyValueStore is a mock for repository.KeyValueStore.
type KeyValueStore struct {
	mock.Mock
}

func (m *KeyValueStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if data, ok := args.Get(0).([]byte); ok {
		return data, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *KeyValueStore) Put(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.Entry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}
