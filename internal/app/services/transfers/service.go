// Package transfers implements the deposit and withdraw operations. Both
// entities share one shape and one composite identity, so a single service is
// instantiated once per kind instead of being written twice.
package transfers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Service manages the transfer entries of one kind.
type Service struct {
	kind     transfer.Kind
	store    storage.TransferStore
	accounts storage.AccountStore
	log      *logger.Logger
}

// New constructs a transfer service bound to one kind.
func New(kind transfer.Kind, store storage.TransferStore, accounts storage.AccountStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault(kind.String() + "s")
	}
	return &Service{kind: kind, store: store, accounts: accounts, log: log}
}

// Kind returns the transfer kind this instance serves.
func (s *Service) Kind() transfer.Kind { return s.kind }

// GetAll returns every entry joined with its account, ordered by account
// number and date.
func (s *Service) GetAll(ctx context.Context) (wire.TransferList, error) {
	s.log.Debug("fetching all entries")
	recs, err := s.store.ListTransfers(ctx, s.kind)
	return wire.EncodeTransfers(s.kind, recs, err)
}

// GetByID returns the entry at the composite key. The date arrives as epoch
// seconds, matching the wire contract.
func (s *Service) GetByID(ctx context.Context, accountNr, date int64) (wire.Transfer, error) {
	s.log.WithFields(map[string]interface{}{"accountNr": accountNr, "date": date}).Debug("fetching entry by key")
	stored, err := s.store.GetTransfer(ctx, s.kind, accountNr, asTime(date))
	rec, err := wire.EncodeTransfer(s.kind, stored, err)
	if apperrors.IsNotFound(err) {
		return wire.Transfer{}, s.notFoundByKey(accountNr, date)
	}
	return rec, err
}

// Create inserts a new entry. The composite key must be free and the account
// must exist.
func (s *Service) Create(ctx context.Context, in wire.TransferInput) (wire.Transfer, error) {
	s.log.WithFields(map[string]interface{}{"accountNr": in.AccountNr, "date": in.Date}).Debug("creating entry")

	if _, err := s.store.GetTransfer(ctx, s.kind, in.AccountNr, asTime(in.Date)); err == nil {
		return wire.Transfer{}, s.duplicateKey(in.AccountNr, in.Date)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return wire.Transfer{}, err
	}

	if _, err := s.accounts.GetAccount(ctx, in.AccountNr); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return wire.Transfer{}, accountNotFound(in.AccountNr)
		}
		return wire.Transfer{}, err
	}

	entry := wire.DecodeTransfer(in)
	if _, err := s.store.CreateTransfer(ctx, s.kind, entry); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return wire.Transfer{}, s.duplicateKey(in.AccountNr, in.Date)
		case errors.Is(err, storage.ErrNotFound):
			return wire.Transfer{}, accountNotFound(in.AccountNr)
		}
		return wire.Transfer{}, err
	}

	rec, err := s.store.GetTransfer(ctx, s.kind, in.AccountNr, entry.Date)
	return wire.EncodeTransfer(s.kind, rec, err)
}

// UpdateByID changes the sum of an existing entry. The key fields are
// immutable once created.
func (s *Service) UpdateByID(ctx context.Context, accountNr, date int64, sum float64) (wire.Transfer, error) {
	s.log.WithFields(map[string]interface{}{"accountNr": accountNr, "date": date}).Debug("updating entry")

	if err := s.store.UpdateTransferSum(ctx, s.kind, accountNr, asTime(date), money.FromFloat(sum)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return wire.Transfer{}, s.notFoundByKey(accountNr, date)
		}
		return wire.Transfer{}, err
	}

	rec, err := s.store.GetTransfer(ctx, s.kind, accountNr, asTime(date))
	return wire.EncodeTransfer(s.kind, rec, err)
}

// DeleteByID removes the entry at the composite key.
func (s *Service) DeleteByID(ctx context.Context, accountNr, date int64) error {
	s.log.WithFields(map[string]interface{}{"accountNr": accountNr, "date": date}).Debug("deleting entry")

	if err := s.store.DeleteTransfer(ctx, s.kind, accountNr, asTime(date)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return s.notFoundByKey(accountNr, date)
		}
		return err
	}
	return nil
}

func asTime(epoch int64) time.Time {
	return time.Unix(epoch, 0).UTC()
}

func (s *Service) notFoundByKey(accountNr, date int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("%s with key %d and %d not found", s.kind.Title(), accountNr, date)).
		WithDetails("entity", s.kind.String())
}

func (s *Service) duplicateKey(accountNr, date int64) *apperrors.ServiceError {
	return apperrors.Conflict(fmt.Sprintf("%s with key %d and %d already exists", s.kind.Title(), accountNr, date)).
		WithDetails("entity", s.kind.String())
}

func accountNotFound(accountNr int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("Account with id %d not found", accountNr)).
		WithDetails("entity", "account")
}
