// Package localstore is the Local Overlay Store: typed access to a session
// scope's edit overlay, deletion overlay and directory token on top of a
// scoped key-value store.
package localstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"user-console/internal/domain"
	"user-console/internal/overlay"
	"user-console/internal/repository"
)

// Store reads and writes overlays for session scopes.
type Store struct {
	kv     repository.KVStore
	logger *logrus.Logger
}

func New(kv repository.KVStore, logger *logrus.Logger) *Store {
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{kv: kv, logger: logger}
}

// Load returns the scope's overlay. Absent keys read as empty overlays;
// malformed content is logged and read as empty too.
func (s *Store) Load(ctx context.Context, scope string) (domain.Overlay, error) {
	return s.load(ctx, s.kv, scope)
}

// Update loads the overlay, lets fn modify it and writes both keys back in
// one atomic section. Nothing is written when fn returns an error.
func (s *Store) Update(ctx context.Context, scope string, fn func(ov *domain.Overlay) error) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, kv repository.KVRepository) error {
		ov, err := s.load(ctx, kv, scope)
		if err != nil {
			return err
		}
		if err := fn(&ov); err != nil {
			return err
		}
		return s.save(ctx, kv, scope, ov)
	})
}

// Replace overwrites both overlays of the scope with ov.
func (s *Store) Replace(ctx context.Context, scope string, ov domain.Overlay) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, kv repository.KVRepository) error {
		return s.save(ctx, kv, scope, ov)
	})
}

// Reset removes both overlays of the scope. The token is kept.
func (s *Store) Reset(ctx context.Context, scope string) error {
	return s.kv.Atomic(ctx, func(ctx context.Context, kv repository.KVRepository) error {
		if err := kv.Delete(ctx, scope, repository.KeyUserEdits); err != nil {
			return err
		}
		return kv.Delete(ctx, scope, repository.KeyDeletedUsers)
	})
}

// Token returns the stored directory token, or "" when absent.
func (s *Store) Token(ctx context.Context, scope string) (string, error) {
	raw, err := s.kv.Get(ctx, scope, repository.KeyToken)
	if err != nil {
		return "", fmt.Errorf("load token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

func (s *Store) SaveToken(ctx context.Context, scope, token string) error {
	if err := s.kv.Set(ctx, scope, repository.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) ClearToken(ctx context.Context, scope string) error {
	if err := s.kv.Delete(ctx, scope, repository.KeyToken); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Forget drops everything stored for the scope: overlays and token.
func (s *Store) Forget(ctx context.Context, scope string) error {
	if err := s.kv.Clear(ctx, scope); err != nil {
		return fmt.Errorf("forget scope: %w", err)
	}
	return nil
}

func (s *Store) load(ctx context.Context, kv repository.KVRepository, scope string) (domain.Overlay, error) {
	rawEdits, err := kv.Get(ctx, scope, repository.KeyUserEdits)
	if err != nil {
		return domain.Overlay{}, fmt.Errorf("load edits: %w", err)
	}
	rawDeleted, err := kv.Get(ctx, scope, repository.KeyDeletedUsers)
	if err != nil {
		return domain.Overlay{}, fmt.Errorf("load deleted users: %w", err)
	}

	edits, err := overlay.DecodeEdits(rawEdits)
	if err != nil {
		s.warnMalformed(scope, repository.KeyUserEdits, err)
	}
	deleted, err := overlay.DecodeDeleted(rawDeleted)
	if err != nil {
		s.warnMalformed(scope, repository.KeyDeletedUsers, err)
	}
	return domain.Overlay{Edits: edits, Deleted: deleted}, nil
}

func (s *Store) save(ctx context.Context, kv repository.KVRepository, scope string, ov domain.Overlay) error {
	rawEdits, err := overlay.EncodeEdits(ov.Edits)
	if err != nil {
		return err
	}
	rawDeleted, err := overlay.EncodeDeleted(ov.Deleted)
	if err != nil {
		return err
	}
	if err := kv.Set(ctx, scope, repository.KeyUserEdits, rawEdits); err != nil {
		return fmt.Errorf("save edits: %w", err)
	}
	if err := kv.Set(ctx, scope, repository.KeyDeletedUsers, rawDeleted); err != nil {
		return fmt.Errorf("save deleted users: %w", err)
	}
	return nil
}

func (s *Store) warnMalformed(scope, key string, err error) {
	if !errors.Is(err, overlay.ErrMalformed) {
		return
	}
	s.logger.WithFields(logrus.Fields{"scope": scope, "key": key}).Warnf("reading stored overlay as empty: %v", err)
}
