// Package trades implements the trade operations.
package trades

import (
	"context"
	"errors"
	"fmt"

	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Service manages trades. Every trade references a stock that must exist at
// creation and update time.
type Service struct {
	store  storage.TradeStore
	stocks storage.StockStore
	log    *logger.Logger
}

// New constructs a trade service.
func New(store storage.TradeStore, stocks storage.StockStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("trades")
	}
	return &Service{store: store, stocks: stocks, log: log}
}

// GetAll returns every trade joined with its stock, ordered by id.
func (s *Service) GetAll(ctx context.Context) (wire.TradeList, error) {
	s.log.Debug("fetching all trades")
	return wire.EncodeTrades(s.store.ListTrades(ctx))
}

// GetByID returns the trade with the given id.
func (s *Service) GetByID(ctx context.Context, id int64) (wire.Trade, error) {
	s.log.WithField("tradeId", id).Debug("fetching trade by id")
	tr, err := wire.EncodeTrade(s.store.GetTrade(ctx, id))
	if apperrors.IsNotFound(err) {
		return wire.Trade{}, notFoundByID(id)
	}
	return tr, err
}

// Create inserts a new trade after verifying the referenced stock exists and
// returns the joined record re-read under its assigned id.
func (s *Service) Create(ctx context.Context, in wire.TradeInput) (wire.Trade, error) {
	s.log.WithField("stockId", in.StockID).Debug("creating trade")

	if err := s.requireStock(ctx, in.StockID); err != nil {
		return wire.Trade{}, err
	}

	created, err := s.store.CreateTrade(ctx, wire.DecodeTrade(in))
	if errors.Is(err, storage.ErrNotFound) {
		// The stock disappeared between the check and the insert.
		return wire.Trade{}, stockNotFound(in.StockID)
	}
	if err != nil {
		return wire.Trade{}, err
	}

	return wire.EncodeTrade(s.store.GetTrade(ctx, created.ID))
}

// UpdateByID replaces the fields of an existing trade. A missing trade and a
// missing stock both report NotFound; the entity detail tells them apart.
func (s *Service) UpdateByID(ctx context.Context, id int64, in wire.TradeInput) (wire.Trade, error) {
	s.log.WithField("tradeId", id).Debug("updating trade")

	if _, err := s.store.GetTrade(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return wire.Trade{}, notFoundByID(id)
		}
		return wire.Trade{}, err
	}
	if err := s.requireStock(ctx, in.StockID); err != nil {
		return wire.Trade{}, err
	}

	updated := wire.DecodeTrade(in)
	updated.ID = id
	if _, err := s.store.UpdateTrade(ctx, updated); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return wire.Trade{}, notFoundByID(id)
		}
		return wire.Trade{}, err
	}

	return wire.EncodeTrade(s.store.GetTrade(ctx, id))
}

// DeleteByID removes a trade.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	s.log.WithField("tradeId", id).Debug("deleting trade")

	if err := s.store.DeleteTrade(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return notFoundByID(id)
		}
		return err
	}
	return nil
}

func (s *Service) requireStock(ctx context.Context, stockID int64) error {
	if _, err := s.stocks.GetStock(ctx, stockID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return stockNotFound(stockID)
		}
		return err
	}
	return nil
}

func notFoundByID(id int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("Trade with id %d not found", id)).
		WithDetails("entity", "trade")
}

func stockNotFound(stockID int64) *apperrors.ServiceError {
	return apperrors.NotFound(fmt.Sprintf("Stock with id %d not found", stockID)).
		WithDetails("entity", "stock")
}
