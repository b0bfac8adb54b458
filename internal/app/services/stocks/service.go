// Package stocks implements the stock catalogue operations.
package stocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Service manages the stock catalogue.
type Service struct {
	store storage.StockStore
	log   *logger.Logger
}

// New constructs a stock service.
func New(store storage.StockStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("stocks")
	}
	return &Service{store: store, log: log}
}

// GetAll returns every stock ordered by id.
func (s *Service) GetAll(ctx context.Context) (wire.StockList, error) {
	s.log.Debug("fetching all stocks")
	return wire.EncodeStocks(s.store.ListStocks(ctx))
}

// GetByID returns the stock with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (wire.Stock, error) {
	s.log.WithField("stockId", id).Debug("fetching stock by id")
	st, err := wire.EncodeStock(s.store.GetStock(ctx, id))
	if apperrors.IsNotFound(err) {
		return wire.Stock{}, notFoundByID(id)
	}
	return st, err
}

// GetBySymbol returns the stock with the given ticker symbol.
func (s *Service) GetBySymbol(ctx context.Context, symbol string) (wire.Stock, error) {
	s.log.WithField("symbol", symbol).Debug("fetching stock by symbol")
	st, err := wire.EncodeStock(s.store.GetStockBySymbol(ctx, symbol))
	if apperrors.IsNotFound(err) {
		return wire.Stock{}, apperrors.NotFound(fmt.Sprintf("Stock with symbol %s not found", symbol)).
			WithDetails("entity", "stock")
	}
	return st, err
}

// Create inserts a new stock after checking symbol uniqueness.
func (s *Service) Create(ctx context.Context, in wire.StockInput) (wire.Stock, error) {
	s.log.WithField("symbol", in.Symbol).Debug("creating stock")

	if _, err := s.store.GetStockBySymbol(ctx, in.Symbol); err == nil {
		return wire.Stock{}, duplicateSymbol(in.Symbol)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return wire.Stock{}, err
	}

	created, err := s.store.CreateStock(ctx, wire.DecodeStock(in))
	if errors.Is(err, storage.ErrConflict) {
		return wire.Stock{}, duplicateSymbol(in.Symbol)
	}
	if err != nil {
		return wire.Stock{}, err
	}

	return wire.EncodeStock(s.store.GetStock(ctx, created.ID))
}

// UpdateByID replaces the fields of an existing stock.
func (s *Service) UpdateByID(ctx context.Context, id int64, in wire.StockInput) (wire.Stock, error) {
	s.log.WithField("stockId", id).Debug("updating stock")

	existing, err := s.store.GetStock(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return wire.Stock{}, notFoundByID(id)
	}
	if err != nil {
		return wire.Stock{}, err
	}

	if in.Symbol != existing.Symbol {
		if other, err := s.store.GetStockBySymbol(ctx, in.Symbol); err == nil && other.ID != id {
			return wire.Stock{}, duplicateSymbol(in.Symbol)
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return wire.Stock{}, err
		}
	}

	updated := wire.DecodeStock(in)
	updated.ID = id
	if _, err := s.store.UpdateStock(ctx, updated); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return wire.Stock{}, notFoundByID(id)
		case errors.Is(err, storage.ErrConflict):
			return wire.Stock{}, duplicateSymbol(in.Symbol)
		}
		return wire.Stock{}, err
	}

	return wire.EncodeStock(s.store.GetStock(ctx, id))
}

// DeleteByID removes a stock. Stocks still referenced by trades are
// protected and report a conflict.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	s.log.WithField("stockId", id).Debug("deleting stock")

	if err := s.store.DeleteStock(ctx, id); err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return notFoundByID(id)
		case errors.Is(err, storage.ErrReferenced):
			return apperrors.Conflict(fmt.Sprintf("Stock with id %d is referenced by existing trades", id)).
				WithDetails("entity", "stock")
		}
		return err
	}
	return nil
}

func notFoundByID(id int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("Stock with id %d not found", id)).
		WithDetails("entity", "stock")
}

func duplicateSymbol(symbol string) *apperrors.ServiceError {
	return apperrors.Conflict(fmt.Sprintf("A stock with symbol %s already exists", symbol)).
		WithDetails("entity", "stock")
}
