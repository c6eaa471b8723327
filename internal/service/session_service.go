package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"user-console/internal/directory"
	"user-console/internal/listing"
	"user-console/internal/localstore"
)

// ErrMissingCredentials indicates a login attempt with a blank email or password.
var ErrMissingCredentials = errors.New("missing credentials")

// SessionService gates the console behind a directory login.
type SessionService interface {
	Login(ctx context.Context, scope, email, password string) error
	Authenticated(ctx context.Context, scope string) (bool, error)
	Logout(ctx context.Context, scope string) error
	Forget(ctx context.Context, scope string) error
}

type sessionService struct {
	directory directory.Client
	store     *localstore.Store
	views     *listing.Registry
	logger    *logrus.Logger
}

func NewSessionService(dir directory.Client, store *localstore.Store, views *listing.Registry, logger *logrus.Logger) SessionService {
	return &sessionService{
		directory: dir,
		store:     store,
		views:     views,
		logger:    logger,
	}
}

// Login exchanges the credentials for a directory token and stores it for
// scope. Nothing is stored unless the directory returns a token.
func (s *sessionService) Login(ctx context.Context, scope, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || strings.TrimSpace(password) == "" {
		return ErrMissingCredentials
	}

	token, err := s.directory.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := s.store.SaveToken(ctx, scope, token); err != nil {
		return err
	}

	s.logger.WithField("scope", scope).Info("session authenticated")
	return nil
}

func (s *sessionService) Authenticated(ctx context.Context, scope string) (bool, error) {
	token, err := s.store.Token(ctx, scope)
	if err != nil {
		return false, err
	}
	return token != "", nil
}

// Logout forgets the token and the listing view. Overlays stay.
func (s *sessionService) Logout(ctx context.Context, scope string) error {
	if err := s.store.ClearToken(ctx, scope); err != nil {
		return err
	}
	s.views.Close(scope)
	s.logger.WithField("scope", scope).Info("session closed")
	return nil
}

// Forget logs out and drops every overlay stored for scope.
func (s *sessionService) Forget(ctx context.Context, scope string) error {
	if err := s.store.Forget(ctx, scope); err != nil {
		return err
	}
	s.views.Close(scope)
	s.logger.WithField("scope", scope).Info("session data forgotten")
	return nil
}
