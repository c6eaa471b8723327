package repository

import (
	"context"
)

// Keys used by the console inside a session scope.
const (
	KeyUserEdits    = "userEdits"
	KeyDeletedUsers = "deletedUsers"
	KeyToken        = "token"
)

// KVRepository is a key-value store partitioned by session scope.
// Get returns (nil, nil) when the key is absent.
type KVRepository interface {
	Get(ctx context.Context, scope, key string) ([]byte, error)
	Set(ctx context.Context, scope, key string, value []byte) error
	Delete(ctx context.Context, scope, key string) error
	Clear(ctx context.Context, scope string) error
}

// KVStore is a KVRepository that can run several operations as one unit.
// Writes made through the repository handed to fn become visible together
// when fn returns nil and are discarded when it returns an error.
type KVStore interface {
	KVRepository
	Init(ctx context.Context) error
	Atomic(ctx context.Context, fn func(ctx context.Context, kv KVRepository) error) error
}
