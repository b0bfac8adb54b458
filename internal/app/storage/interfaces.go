package storage

import (
	"context"
	"errors"
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/stock"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/domain/user"
)

// Sentinel outcomes of store operations. Absence and constraint violations
// are reported with these, never with domain errors; classification into
// the domain taxonomy happens in the service layer.
var (
	// ErrNotFound reports that no record exists at the requested key, or
	// that a referenced parent row is missing on insert.
	ErrNotFound = errors.New("record not found")
	// ErrConflict reports a unique-constraint violation.
	ErrConflict = errors.New("duplicate record")
	// ErrReferenced reports a delete blocked by referencing rows.
	ErrReferenced = errors.New("record still referenced")
)

// AccountStore persists accounts. CreateAccount assigns the account number.
// DeleteAccount also removes the account's deposits and withdraws.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error)
	GetAccount(ctx context.Context, nr int64) (account.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (account.Account, error)
	ListAccounts(ctx context.Context) ([]account.Account, error)
	DeleteAccount(ctx context.Context, nr int64) error
}

// StockStore persists stocks. CreateStock assigns the stock id.
// DeleteStock fails with ErrReferenced while trades reference the stock.
type StockStore interface {
	CreateStock(ctx context.Context, st stock.Stock) (stock.Stock, error)
	UpdateStock(ctx context.Context, st stock.Stock) (stock.Stock, error)
	GetStock(ctx context.Context, id int64) (stock.Stock, error)
	GetStockBySymbol(ctx context.Context, symbol string) (stock.Stock, error)
	ListStocks(ctx context.Context) ([]stock.Stock, error)
	DeleteStock(ctx context.Context, id int64) error
}

// TradeStore persists trades. Reads return the stock-joined record.
type TradeStore interface {
	CreateTrade(ctx context.Context, tr trade.Trade) (trade.Trade, error)
	UpdateTrade(ctx context.Context, tr trade.Trade) (trade.Trade, error)
	GetTrade(ctx context.Context, id int64) (trade.Record, error)
	ListTrades(ctx context.Context) ([]trade.Record, error)
	DeleteTrade(ctx context.Context, id int64) error
}

// TransferStore persists deposits and withdraws, selected by kind. Reads
// return the account-joined record.
type TransferStore interface {
	CreateTransfer(ctx context.Context, kind transfer.Kind, e transfer.Entry) (transfer.Entry, error)
	UpdateTransferSum(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time, sum money.Amount) error
	GetTransfer(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time) (transfer.Record, error)
	ListTransfers(ctx context.Context, kind transfer.Kind) ([]transfer.Record, error)
	DeleteTransfer(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time) error
}

// UserStore persists users. EnsureUser inserts the user if no row with the
// same auth0 id exists and returns the stored row either way; the operation
// is atomic with respect to concurrent calls for the same subject.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id int64) (user.User, error)
	GetUserByAuth0ID(ctx context.Context, auth0ID string) (user.User, error)
	EnsureUser(ctx context.Context, u user.User) (user.User, error)
}
