package repository

import (
	"context"

	"github.com/rpggio/crossing/internal/domain/activity"
)

// KeyValueStore persists opaque payloads under string keys. Put overwrites.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte) error
}

// ActivityRepository manages activity log persistence
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.Entry) error
	List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error)
}
