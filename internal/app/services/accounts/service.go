// Package accounts implements the account operations behind the HTTP API.
package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Service manages ledger accounts.
type Service struct {
	store storage.AccountStore
	log   *logger.Logger
}

// New constructs an account service.
func New(store storage.AccountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("accounts")
	}
	return &Service{store: store, log: log}
}

// GetAll returns every account ordered by account number.
func (s *Service) GetAll(ctx context.Context) (wire.AccountList, error) {
	s.log.Debug("fetching all accounts")
	return wire.EncodeAccounts(s.store.ListAccounts(ctx))
}

// GetByID returns the account with the given number.
func (s *Service) GetByID(ctx context.Context, nr int64) (wire.Account, error) {
	s.log.WithField("accountNr", nr).Debug("fetching account by id")
	acct, err := wire.EncodeAccount(s.store.GetAccount(ctx, nr))
	if apperrors.IsNotFound(err) {
		return wire.Account{}, notFoundByID(nr)
	}
	return acct, err
}

// GetByEmail returns the account owning the given e-mail address.
func (s *Service) GetByEmail(ctx context.Context, email string) (wire.Account, error) {
	s.log.WithField("email", email).Debug("fetching account by email")
	acct, err := wire.EncodeAccount(s.store.GetAccountByEmail(ctx, email))
	if apperrors.IsNotFound(err) {
		return wire.Account{}, apperrors.NotFound(fmt.Sprintf("Account with e-mail %s not found", email)).
			WithDetails("entity", "account")
	}
	return acct, err
}

// Create inserts a new account after checking e-mail uniqueness and returns
// the record re-read under its assigned number.
func (s *Service) Create(ctx context.Context, in wire.AccountInput) (wire.Account, error) {
	s.log.WithField("email", in.Email).Debug("creating account")

	if _, err := s.store.GetAccountByEmail(ctx, in.Email); err == nil {
		return wire.Account{}, duplicateEmail(in.Email)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return wire.Account{}, err
	}

	created, err := s.store.CreateAccount(ctx, wire.DecodeAccount(in))
	if errors.Is(err, storage.ErrConflict) {
		// Lost the race between the uniqueness check and the insert.
		return wire.Account{}, duplicateEmail(in.Email)
	}
	if err != nil {
		return wire.Account{}, err
	}

	return wire.EncodeAccount(s.store.GetAccount(ctx, created.Nr))
}

// UpdateByID replaces the mutable fields of an existing account.
func (s *Service) UpdateByID(ctx context.Context, nr int64, in wire.AccountInput) (wire.Account, error) {
	s.log.WithField("accountNr", nr).Debug("updating account")

	existing, err := s.store.GetAccount(ctx, nr)
	if errors.Is(err, storage.ErrNotFound) {
		return wire.Account{}, notFoundByID(nr)
	}
	if err != nil {
		return wire.Account{}, err
	}

	if in.Email != existing.Email {
		if other, err := s.store.GetAccountByEmail(ctx, in.Email); err == nil && other.Nr != nr {
			return wire.Account{}, duplicateEmail(in.Email)
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return wire.Account{}, err
		}
	}

	updated := wire.DecodeAccount(in)
	updated.Nr = nr
	if _, err := s.store.UpdateAccount(ctx, updated); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return wire.Account{}, notFoundByID(nr)
		case errors.Is(err, storage.ErrConflict):
			return wire.Account{}, duplicateEmail(in.Email)
		}
		return wire.Account{}, err
	}

	return wire.EncodeAccount(s.store.GetAccount(ctx, nr))
}

// DeleteByID removes an account. Its deposits and withdraws go with it.
func (s *Service) DeleteByID(ctx context.Context, nr int64) error {
	s.log.WithField("accountNr", nr).Debug("deleting account")

	if err := s.store.DeleteAccount(ctx, nr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFoundByID(nr)
		}
		return err
	}
	return nil
}

func notFoundByID(nr int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("Account with id %d not found", nr)).
		WithDetails("entity", "account")
}

func duplicateEmail(email string) *apperrors.ServiceError {
	return apperrors.Conflict(fmt.Sprintf("An account with e-mail %s already exists", email)).
		WithDetails("entity", "account")
}
