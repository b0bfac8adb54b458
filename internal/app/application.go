// Package app assembles the ledger services over their stores.
package app

import (
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/services/accounts"
	"github.com/stockfolio/ledger/internal/app/services/stocks"
	"github.com/stockfolio/ledger/internal/app/services/trades"
	"github.com/stockfolio/ledger/internal/app/services/transfers"
	"github.com/stockfolio/ledger/internal/app/services/users"
	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/pkg/logger"
)

// Stores encapsulates persistence dependencies. Nil stores default to one
// shared in-memory implementation, which keeps tests and local development
// free of a database.
type Stores struct {
	Accounts  storage.AccountStore
	Stocks    storage.StockStore
	Trades    storage.TradeStore
	Transfers storage.TransferStore
	Users     storage.UserStore
}

// Application ties the domain services together.
type Application struct {
	log *logger.Logger

	Accounts  *accounts.Service
	Stocks    *stocks.Service
	Trades    *trades.Service
	Deposits  *transfers.Service
	Withdraws *transfers.Service
	Users     *users.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, log *logger.Logger) *Application {
	if log == nil {
		log = logger.NewDefault("app")
	}

	mem := storage.NewMemory()
	if stores.Accounts == nil {
		stores.Accounts = mem
	}
	if stores.Stocks == nil {
		stores.Stocks = mem
	}
	if stores.Trades == nil {
		stores.Trades = mem
	}
	if stores.Transfers == nil {
		stores.Transfers = mem
	}
	if stores.Users == nil {
		stores.Users = mem
	}

	return &Application{
		log:       log,
		Accounts:  accounts.New(stores.Accounts, log),
		Stocks:    stocks.New(stores.Stocks, log),
		Trades:    trades.New(stores.Trades, stores.Stocks, log),
		Deposits:  transfers.New(transfer.Deposit, stores.Transfers, stores.Accounts, log),
		Withdraws: transfers.New(transfer.Withdraw, stores.Transfers, stores.Accounts, log),
		Users:     users.New(stores.Users, log),
	}
}
