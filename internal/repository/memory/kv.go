// Package memory keeps the local store in process memory. Contents are lost
// on restart.
package memory

import (
	"context"
	"sync"

	"user-console/internal/repository"
)

// KVRepository is an in-memory repository.KVStore.
type KVRepository struct {
	mu     sync.Mutex
	scopes map[string]map[string][]byte
}

func NewKVRepository() *KVRepository {
	return &KVRepository{scopes: make(map[string]map[string][]byte)}
}

func (r *KVRepository) Init(context.Context) error { return nil }

func (r *KVRepository) Get(_ context.Context, scope, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return get(r.scopes, scope, key), nil
}

func (r *KVRepository) Set(_ context.Context, scope, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set(r.scopes, scope, key, value)
	return nil
}

func (r *KVRepository) Delete(_ context.Context, scope, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scopes[scope], key)
	return nil
}

func (r *KVRepository) Clear(_ context.Context, scope string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.scopes, scope)
	return nil
}

// Atomic stages fn's writes on a copy and swaps it in only when fn succeeds.
// The store stays locked for the duration of fn.
func (r *KVRepository) Atomic(ctx context.Context, fn func(ctx context.Context, kv repository.KVRepository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	staged := &stagedKV{scopes: cloneScopes(r.scopes)}
	if err := fn(ctx, staged); err != nil {
		return err
	}
	r.scopes = staged.scopes
	return nil
}

type stagedKV struct {
	scopes map[string]map[string][]byte
}

func (s *stagedKV) Get(_ context.Context, scope, key string) ([]byte, error) {
	return get(s.scopes, scope, key), nil
}

func (s *stagedKV) Set(_ context.Context, scope, key string, value []byte) error {
	set(s.scopes, scope, key, value)
	return nil
}

func (s *stagedKV) Delete(_ context.Context, scope, key string) error {
	delete(s.scopes[scope], key)
	return nil
}

func (s *stagedKV) Clear(_ context.Context, scope string) error {
	delete(s.scopes, scope)
	return nil
}

func get(scopes map[string]map[string][]byte, scope, key string) []byte {
	v, ok := scopes[scope][key]
	if !ok {
		return nil
	}
	return append([]byte{}, v...)
}

func set(scopes map[string]map[string][]byte, scope, key string, value []byte) {
	kv, ok := scopes[scope]
	if !ok {
		kv = make(map[string][]byte)
		scopes[scope] = kv
	}
	kv[key] = append([]byte{}, value...)
}

func cloneScopes(in map[string]map[string][]byte) map[string]map[string][]byte {
	out := make(map[string]map[string][]byte, len(in))
	for scope, kv := range in {
		cp := make(map[string][]byte, len(kv))
		for k, v := range kv {
			cp[k] = v
		}
		out[scope] = cp
	}
	return out
}

var _ repository.KVStore = (*KVRepository)(nil)
