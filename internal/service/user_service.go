package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"user-console/internal/directory"
	"user-console/internal/domain"
	"user-console/internal/listing"
	"user-console/internal/localstore"
	"user-console/internal/overlay"
)

var (
	// ErrInvalidUserID indicates a user id that is not a positive integer.
	ErrInvalidUserID = errors.New("invalid user id")
	// ErrMissingFields indicates an edit with a blank first name, last name or email.
	ErrMissingFields = errors.New("all fields are required")
	// ErrUserDeleted indicates a user this scope has already deleted.
	ErrUserDeleted = errors.New("user deleted")
)

// ListOptions selects the page to show. A zero Page keeps the current one;
// Force discards the cached page.
type ListOptions struct {
	Page  int
	Force bool
}

// Listing is the effective view of one page: fetched records with the
// scope's overlays applied.
type Listing struct {
	Users      []domain.User
	Page       int
	TotalPages int
	HasPrev    bool
	HasNext    bool
	// FetchErr is set once after a failed fetch.
	FetchErr error
}

// UserService implements the console operations on directory users.
type UserService interface {
	List(ctx context.Context, scope string, opts ListOptions) (Listing, error)
	NextPage(scope string) int
	PrevPage(scope string) int
	EditForm(ctx context.Context, scope string, id int64) (domain.User, error)
	SubmitEdit(ctx context.Context, scope string, id int64, fields domain.UserFields) error
	Delete(ctx context.Context, scope string, id int64) error
	Reset(ctx context.Context, scope string) error
}

// UserServiceOptions tunes optional behaviour.
type UserServiceOptions struct {
	// RemoteEdits mirrors each saved edit to the directory with a PUT.
	RemoteEdits bool
}

type userService struct {
	directory directory.Client
	store     *localstore.Store
	views     *listing.Registry
	logger    *logrus.Logger
	opts      UserServiceOptions
}

func NewUserService(dir directory.Client, store *localstore.Store, views *listing.Registry, logger *logrus.Logger, opts UserServiceOptions) UserService {
	return &userService{
		directory: dir,
		store:     store,
		views:     views,
		logger:    logger,
		opts:      opts,
	}
}

func (s *userService) List(ctx context.Context, scope string, opts ListOptions) (Listing, error) {
	view := s.views.Get(scope)
	if opts.Page > 0 {
		view.Goto(opts.Page)
	}
	if opts.Force {
		view.Invalidate()
	}

	// A second round covers a page that was clamped by the first response.
	for round := 0; round < 2 && view.NeedsFetch(); round++ {
		ticket := view.Begin()
		log := s.logger.WithFields(logrus.Fields{"scope": scope, "page": ticket.Page})
		page, err := s.directory.ListUsers(ctx, ticket.Page)
		if err != nil {
			log.Warnf("fetch users: %v", err)
		}
		if !view.Apply(ticket, page, err) {
			log.Debug("dropped stale page")
		}
	}

	snap := view.Snapshot()
	ov, err := s.store.Load(ctx, scope)
	if err != nil {
		return Listing{}, err
	}

	return Listing{
		Users:      overlay.Apply(snap.Users, ov),
		Page:       snap.Page,
		TotalPages: snap.TotalPages,
		HasPrev:    snap.HasPrev,
		HasNext:    snap.HasNext,
		FetchErr:   snap.Err,
	}, nil
}

func (s *userService) NextPage(scope string) int {
	return s.views.Get(scope).Next()
}

func (s *userService) PrevPage(scope string) int {
	return s.views.Get(scope).Prev()
}

// EditForm returns the values to pre-fill the edit form with: the stored
// edit when there is one, otherwise the directory record. Users deleted in
// this scope yield ErrUserDeleted.
func (s *userService) EditForm(ctx context.Context, scope string, id int64) (domain.User, error) {
	if id <= 0 {
		return domain.User{}, ErrInvalidUserID
	}

	ov, err := s.store.Load(ctx, scope)
	if err != nil {
		return domain.User{}, err
	}
	if ov.IsDeleted(id) {
		return domain.User{}, ErrUserDeleted
	}
	if fields, ok := ov.Edit(id); ok {
		return domain.User{
			ID:        id,
			FirstName: fields.FirstName,
			LastName:  fields.LastName,
			Email:     fields.Email,
		}, nil
	}

	user, err := s.directory.GetUser(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user %d: %w", id, err)
	}
	return user, nil
}

// SubmitEdit records the edit locally. The listing is not re-fetched; the
// cached page picks the edit up on the next reconciliation.
func (s *userService) SubmitEdit(ctx context.Context, scope string, id int64, fields domain.UserFields) error {
	if id <= 0 {
		return ErrInvalidUserID
	}
	fields = domain.UserFields{
		FirstName: strings.TrimSpace(fields.FirstName),
		LastName:  strings.TrimSpace(fields.LastName),
		Email:     strings.TrimSpace(fields.Email),
	}
	if fields.FirstName == "" || fields.LastName == "" || fields.Email == "" {
		return ErrMissingFields
	}

	err := s.store.Update(ctx, scope, func(ov *domain.Overlay) error {
		if ov.IsDeleted(id) {
			return ErrUserDeleted
		}
		ov.ApplyEdit(id, fields)
		return nil
	})
	if err != nil {
		return err
	}

	log := s.logger.WithFields(logrus.Fields{"scope": scope, "user_id": id})
	log.Info("user edit saved")

	if s.opts.RemoteEdits {
		if err := s.directory.UpdateUser(ctx, id, fields); err != nil {
			log.Warnf("mirror edit to directory: %v", err)
		}
	}
	return nil
}

// Delete removes the user from the directory and, only once that
// succeeded, drops its edit and records the deletion in one step.
func (s *userService) Delete(ctx context.Context, scope string, id int64) error {
	if id <= 0 {
		return ErrInvalidUserID
	}
	if err := s.directory.DeleteUser(ctx, id); err != nil {
		return fmt.Errorf("delete user %d: %w", id, err)
	}

	err := s.store.Update(ctx, scope, func(ov *domain.Overlay) error {
		ov.MarkDeleted(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.views.Invalidate(scope)

	s.logger.WithFields(logrus.Fields{"scope": scope, "user_id": id}).Info("user deleted")
	return nil
}

func (s *userService) Reset(ctx context.Context, scope string) error {
	if err := s.store.Reset(ctx, scope); err != nil {
		return err
	}
	s.views.Invalidate(scope)
	s.logger.WithField("scope", scope).Info("local changes reset")
	return nil
}
