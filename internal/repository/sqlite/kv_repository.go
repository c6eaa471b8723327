package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"user-console/internal/repository"
)

// KVRepository stores scoped key-value pairs in the local_storage table.
type KVRepository struct {
	db   *sql.DB
	conn DBTX
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db, conn: db}
}

func (r *KVRepository) Init(ctx context.Context) error {
	return Migrate(ctx, r.db)
}

func (r *KVRepository) Get(ctx context.Context, scope, key string) ([]byte, error) {
	var value []byte
	err := r.conn.QueryRowContext(ctx, `
SELECT value
FROM local_storage
WHERE scope = ? AND key = ?`,
		scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (r *KVRepository) Set(ctx context.Context, scope, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	_, err := r.conn.ExecContext(ctx, `
INSERT INTO local_storage (scope, key, value, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		scope, key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, scope, key string) error {
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM local_storage WHERE scope = ? AND key = ?`, scope, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Clear(ctx context.Context, scope string) error {
	if _, err := r.conn.ExecContext(ctx, `DELETE FROM local_storage WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear scope: %w", err)
	}
	return nil
}

// Atomic runs fn against a repository bound to a single transaction.
func (r *KVRepository) Atomic(ctx context.Context, fn func(ctx context.Context, kv repository.KVRepository) error) error {
	return WithTx(ctx, r.db, func(ctx context.Context, tx DBTX) error {
		return fn(ctx, &KVRepository{db: r.db, conn: tx})
	})
}

var _ repository.KVStore = (*KVRepository)(nil)
