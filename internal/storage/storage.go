package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by GetObject when the key does not exist.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// Service keeps overlay snapshots in remote object storage.
type Service interface {
	PutObject(ctx context.Context, bucket, key string, body io.Reader, contentType string) (string, error)
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
}
