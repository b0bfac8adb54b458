package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/stock"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/domain/user"
	"github.com/stockfolio/ledger/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL. Uniqueness
// and referential invariants live in the schema; constraint violations are
// translated to the storage sentinel errors so concurrent check-then-act
// callers get the same outcome as the service-level pre-checks.
type Store struct {
	db *sql.DB
}

var _ storage.AccountStore = (*Store)(nil)
var _ storage.StockStore = (*Store)(nil)
var _ storage.TradeStore = (*Store)(nil)
var _ storage.TransferStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// pq error classes for unique and foreign-key violations.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// translate maps driver errors to the storage sentinels. A foreign-key
// violation on insert means the referenced parent is missing; on delete it
// means dependents still reference the row, which the caller signals with
// onFKViolation.
func translate(err error, onFKViolation error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			return storage.ErrConflict
		case codeForeignKeyViolation:
			return onFKViolation
		}
	}
	return err
}

// --- AccountStore -----------------------------------------------------------

func (s *Store) CreateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (email, date_joined, invested_sum_cents)
		VALUES ($1, $2, $3)
		RETURNING account_nr
	`, acct.Email, acct.DateJoined.UTC(), int64(acct.InvestedSum)).Scan(&acct.Nr)
	if err != nil {
		return account.Account{}, translate(err, storage.ErrNotFound)
	}
	return acct, nil
}

func (s *Store) UpdateAccount(ctx context.Context, acct account.Account) (account.Account, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET email = $2, date_joined = $3, invested_sum_cents = $4
		WHERE account_nr = $1
	`, acct.Nr, acct.Email, acct.DateJoined.UTC(), int64(acct.InvestedSum))
	if err != nil {
		return account.Account{}, translate(err, storage.ErrNotFound)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return account.Account{}, storage.ErrNotFound
	}
	return acct, nil
}

func (s *Store) GetAccount(ctx context.Context, nr int64) (account.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT account_nr, email, date_joined, invested_sum_cents
		FROM accounts
		WHERE account_nr = $1
	`, nr))
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (account.Account, error) {
	return s.scanAccount(s.db.QueryRowContext(ctx, `
		SELECT account_nr, email, date_joined, invested_sum_cents
		FROM accounts
		WHERE email = $1
	`, email))
}

func (s *Store) scanAccount(row *sql.Row) (account.Account, error) {
	var (
		acct  account.Account
		cents int64
	)
	if err := row.Scan(&acct.Nr, &acct.Email, &acct.DateJoined, &cents); err != nil {
		return account.Account{}, translate(err, storage.ErrNotFound)
	}
	acct.DateJoined = acct.DateJoined.UTC()
	acct.InvestedSum = money.Amount(cents)
	return acct, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]account.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT account_nr, email, date_joined, invested_sum_cents
		FROM accounts
		ORDER BY account_nr
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []account.Account
	for rows.Next() {
		var (
			acct  account.Account
			cents int64
		)
		if err := rows.Scan(&acct.Nr, &acct.Email, &acct.DateJoined, &cents); err != nil {
			return nil, err
		}
		acct.DateJoined = acct.DateJoined.UTC()
		acct.InvestedSum = money.Amount(cents)
		result = append(result, acct)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAccount(ctx context.Context, nr int64) error {
	// Deposits and withdraws cascade via the schema.
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM accounts WHERE account_nr = $1
	`, nr)
	if err != nil {
		return translate(err, storage.ErrReferenced)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- StockStore -------------------------------------------------------------

func (s *Store) CreateStock(ctx context.Context, st stock.Stock) (stock.Stock, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO stocks (symbol, name, industry, sector)
		VALUES ($1, $2, $3, $4)
		RETURNING stock_id
	`, st.Symbol, st.Name, st.Industry, st.Sector).Scan(&st.ID)
	if err != nil {
		return stock.Stock{}, translate(err, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) UpdateStock(ctx context.Context, st stock.Stock) (stock.Stock, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE stocks
		SET symbol = $2, name = $3, industry = $4, sector = $5
		WHERE stock_id = $1
	`, st.ID, st.Symbol, st.Name, st.Industry, st.Sector)
	if err != nil {
		return stock.Stock{}, translate(err, storage.ErrNotFound)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return stock.Stock{}, storage.ErrNotFound
	}
	return st, nil
}

func (s *Store) GetStock(ctx context.Context, id int64) (stock.Stock, error) {
	return s.scanStock(s.db.QueryRowContext(ctx, `
		SELECT stock_id, symbol, name, industry, sector
		FROM stocks
		WHERE stock_id = $1
	`, id))
}

func (s *Store) GetStockBySymbol(ctx context.Context, symbol string) (stock.Stock, error) {
	return s.scanStock(s.db.QueryRowContext(ctx, `
		SELECT stock_id, symbol, name, industry, sector
		FROM stocks
		WHERE symbol = $1
	`, symbol))
}

func (s *Store) scanStock(row *sql.Row) (stock.Stock, error) {
	var st stock.Stock
	if err := row.Scan(&st.ID, &st.Symbol, &st.Name, &st.Industry, &st.Sector); err != nil {
		return stock.Stock{}, translate(err, storage.ErrNotFound)
	}
	return st, nil
}

func (s *Store) ListStocks(ctx context.Context) ([]stock.Stock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT stock_id, symbol, name, industry, sector
		FROM stocks
		ORDER BY stock_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []stock.Stock
	for rows.Next() {
		var st stock.Stock
		if err := rows.Scan(&st.ID, &st.Symbol, &st.Name, &st.Industry, &st.Sector); err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}

func (s *Store) DeleteStock(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM stocks WHERE stock_id = $1
	`, id)
	if err != nil {
		return translate(err, storage.ErrReferenced)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- TradeStore -------------------------------------------------------------

func (s *Store) CreateTrade(ctx context.Context, tr trade.Trade) (trade.Trade, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO trades (stock_id, price_bought_cents, price_sold_cents, date_bought, date_sold, amount, comment_bought, comment_sold)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING trade_id
	`, tr.StockID, int64(tr.PriceBought), int64(tr.PriceSold), tr.DateBought.UTC(), tr.DateSold.UTC(),
		tr.Amount, tr.CommentBought, tr.CommentSold).Scan(&tr.ID)
	if err != nil {
		return trade.Trade{}, translate(err, storage.ErrNotFound)
	}
	return tr, nil
}

func (s *Store) UpdateTrade(ctx context.Context, tr trade.Trade) (trade.Trade, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE trades
		SET stock_id = $2, price_bought_cents = $3, price_sold_cents = $4, date_bought = $5, date_sold = $6, amount = $7, comment_bought = $8, comment_sold = $9
		WHERE trade_id = $1
	`, tr.ID, tr.StockID, int64(tr.PriceBought), int64(tr.PriceSold), tr.DateBought.UTC(), tr.DateSold.UTC(),
		tr.Amount, tr.CommentBought, tr.CommentSold)
	if err != nil {
		return trade.Trade{}, translate(err, storage.ErrNotFound)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return trade.Trade{}, storage.ErrNotFound
	}
	return tr, nil
}

const tradeSelect = `
	SELECT t.trade_id, t.stock_id, t.price_bought_cents, t.price_sold_cents, t.date_bought, t.date_sold, t.amount, t.comment_bought, t.comment_sold,
	       s.stock_id, s.symbol, s.name, s.industry, s.sector
	FROM trades t
	JOIN stocks s ON s.stock_id = t.stock_id
`

func (s *Store) GetTrade(ctx context.Context, id int64) (trade.Record, error) {
	row := s.db.QueryRowContext(ctx, tradeSelect+` WHERE t.trade_id = $1`, id)

	var (
		rec          trade.Record
		bought, sold int64
	)
	err := row.Scan(&rec.ID, &rec.StockID, &bought, &sold, &rec.DateBought, &rec.DateSold, &rec.Amount,
		&rec.CommentBought, &rec.CommentSold,
		&rec.Stock.ID, &rec.Stock.Symbol, &rec.Stock.Name, &rec.Stock.Industry, &rec.Stock.Sector)
	if err != nil {
		return trade.Record{}, translate(err, storage.ErrNotFound)
	}
	rec.PriceBought = money.Amount(bought)
	rec.PriceSold = money.Amount(sold)
	rec.DateBought = rec.DateBought.UTC()
	rec.DateSold = rec.DateSold.UTC()
	return rec, nil
}

func (s *Store) ListTrades(ctx context.Context) ([]trade.Record, error) {
	rows, err := s.db.QueryContext(ctx, tradeSelect+` ORDER BY t.trade_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []trade.Record
	for rows.Next() {
		var (
			rec          trade.Record
			bought, sold int64
		)
		if err := rows.Scan(&rec.ID, &rec.StockID, &bought, &sold, &rec.DateBought, &rec.DateSold, &rec.Amount,
			&rec.CommentBought, &rec.CommentSold,
			&rec.Stock.ID, &rec.Stock.Symbol, &rec.Stock.Name, &rec.Stock.Industry, &rec.Stock.Sector); err != nil {
			return nil, err
		}
		rec.PriceBought = money.Amount(bought)
		rec.PriceSold = money.Amount(sold)
		rec.DateBought = rec.DateBought.UTC()
		rec.DateSold = rec.DateSold.UTC()
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *Store) DeleteTrade(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM trades WHERE trade_id = $1
	`, id)
	if err != nil {
		return translate(err, storage.ErrReferenced)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- TransferStore ----------------------------------------------------------

// tableFor maps a transfer kind to its table. Kinds outside the closed set
// never reach SQL.
func tableFor(kind transfer.Kind) (string, error) {
	switch kind {
	case transfer.Deposit:
		return "deposits", nil
	case transfer.Withdraw:
		return "withdraws", nil
	default:
		return "", fmt.Errorf("unknown transfer kind %q", kind)
	}
}

func (s *Store) CreateTransfer(ctx context.Context, kind transfer.Kind, e transfer.Entry) (transfer.Entry, error) {
	table, err := tableFor(kind)
	if err != nil {
		return transfer.Entry{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO `+table+` (account_nr, date, sum_cents)
		VALUES ($1, $2, $3)
	`, e.AccountNr, e.Date.UTC(), int64(e.Sum))
	if err != nil {
		return transfer.Entry{}, translate(err, storage.ErrNotFound)
	}
	return e, nil
}

func (s *Store) UpdateTransferSum(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time, sum money.Amount) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE `+table+`
		SET sum_cents = $3
		WHERE account_nr = $1 AND date = $2
	`, accountNr, date.UTC(), int64(sum))
	if err != nil {
		return translate(err, storage.ErrNotFound)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time) (transfer.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return transfer.Record{}, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT t.account_nr, t.date, t.sum_cents,
		       a.account_nr, a.email, a.date_joined, a.invested_sum_cents
		FROM `+table+` t
		JOIN accounts a ON a.account_nr = t.account_nr
		WHERE t.account_nr = $1 AND t.date = $2
	`, accountNr, date.UTC())

	var (
		rec           transfer.Record
		sum, invested int64
	)
	if err := row.Scan(&rec.AccountNr, &rec.Date, &sum,
		&rec.Account.Nr, &rec.Account.Email, &rec.Account.DateJoined, &invested); err != nil {
		return transfer.Record{}, translate(err, storage.ErrNotFound)
	}
	rec.Sum = money.Amount(sum)
	rec.Date = rec.Date.UTC()
	rec.Account.DateJoined = rec.Account.DateJoined.UTC()
	rec.Account.InvestedSum = money.Amount(invested)
	return rec, nil
}

func (s *Store) ListTransfers(ctx context.Context, kind transfer.Kind) ([]transfer.Record, error) {
	table, err := tableFor(kind)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT t.account_nr, t.date, t.sum_cents,
		       a.account_nr, a.email, a.date_joined, a.invested_sum_cents
		FROM `+table+` t
		JOIN accounts a ON a.account_nr = t.account_nr
		ORDER BY t.account_nr, t.date
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []transfer.Record
	for rows.Next() {
		var (
			rec           transfer.Record
			sum, invested int64
		)
		if err := rows.Scan(&rec.AccountNr, &rec.Date, &sum,
			&rec.Account.Nr, &rec.Account.Email, &rec.Account.DateJoined, &invested); err != nil {
			return nil, err
		}
		rec.Sum = money.Amount(sum)
		rec.Date = rec.Date.UTC()
		rec.Account.DateJoined = rec.Account.DateJoined.UTC()
		rec.Account.InvestedSum = money.Amount(invested)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (s *Store) DeleteTransfer(ctx context.Context, kind transfer.Kind, accountNr int64, date time.Time) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		DELETE FROM `+table+` WHERE account_nr = $1 AND date = $2
	`, accountNr, date.UTC())
	if err != nil {
		return translate(err, storage.ErrReferenced)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, auth0_id)
		VALUES ($1, $2)
		RETURNING user_id
	`, u.Name, u.Auth0ID).Scan(&u.ID)
	if err != nil {
		return user.User{}, translate(err, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, auth0_id FROM users WHERE user_id = $1
	`, id).Scan(&u.ID, &u.Name, &u.Auth0ID)
	if err != nil {
		return user.User{}, translate(err, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByAuth0ID(ctx context.Context, auth0ID string) (user.User, error) {
	var u user.User
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, name, auth0_id FROM users WHERE auth0_id = $1
	`, auth0ID).Scan(&u.ID, &u.Name, &u.Auth0ID)
	if err != nil {
		return user.User{}, translate(err, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) EnsureUser(ctx context.Context, u user.User) (user.User, error) {
	// Atomic provision-if-absent: concurrent first requests for the same
	// subject cannot double-insert.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, auth0_id)
		VALUES ($1, $2)
		ON CONFLICT (auth0_id) DO NOTHING
	`, u.Name, u.Auth0ID)
	if err != nil {
		return user.User{}, translate(err, storage.ErrNotFound)
	}
	return s.GetUserByAuth0ID(ctx, u.Auth0ID)
}
