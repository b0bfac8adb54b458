// Package users manages application users provisioned from token subjects.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockfolio/ledger/internal/app/domain/user"
	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Service manages users.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New constructs a user service.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// GetByID returns the user with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (wire.User, error) {
	s.log.WithField("userId", id).Debug("fetching user by id")
	u, err := wire.EncodeUser(s.store.GetUser(ctx, id))
	if apperrors.IsNotFound(err) {
		return wire.User{}, apperrors.NotFound(fmt.Sprintf("User with id %d not found", id)).
			WithDetails("entity", "user")
	}
	return u, err
}

// GetByAuth0ID returns the user owning the given subject.
func (s *Service) GetByAuth0ID(ctx context.Context, auth0ID string) (wire.User, error) {
	s.log.WithField("auth0Id", auth0ID).Debug("fetching user by subject")
	u, err := wire.EncodeUser(s.store.GetUserByAuth0ID(ctx, auth0ID))
	if apperrors.IsNotFound(err) {
		return wire.User{}, apperrors.NotFound(fmt.Sprintf("User with auth0Id %s not found", auth0ID)).
			WithDetails("entity", "user")
	}
	return u, err
}

// Ensure returns the user for the given subject, provisioning it on first
// sight. Concurrent first requests resolve to the same row.
func (s *Service) Ensure(ctx context.Context, name, auth0ID string) (wire.User, error) {
	if auth0ID == "" {
		return wire.User{}, apperrors.Unauthorized("Token carries no subject")
	}
	s.log.WithField("auth0Id", auth0ID).Debug("ensuring user")
	return wire.EncodeUser(s.store.EnsureUser(ctx, user.User{Name: name, Auth0ID: auth0ID}))
}

// Create inserts a user directly. Duplicate subjects report a conflict.
func (s *Service) Create(ctx context.Context, name, auth0ID string) (wire.User, error) {
	s.log.WithField("auth0Id", auth0ID).Debug("creating user")
	u, err := s.store.CreateUser(ctx, user.User{Name: name, Auth0ID: auth0ID})
	if errors.Is(err, storage.ErrConflict) {
		return wire.User{}, apperrors.Conflict(fmt.Sprintf("A user with auth0Id %s already exists", auth0ID)).
			WithDetails("entity", "user")
	}
	return wire.EncodeUser(u, err)
}
