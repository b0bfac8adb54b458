package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/stock"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/domain/user"
)

// Memory is a thread-safe in-memory store implementing every store
// interface in this package. It mirrors the relational constraints the
// postgres store gets from its schema (unique email/symbol/auth0 id,
// composite transfer keys, cascade and restrict rules) and is used by
// tests and as the default when no database is configured.
type Memory struct {
	mu sync.RWMutex

	nextAccountNr int64
	nextStockID   int64
	nextTradeID   int64
	nextUserID    int64

	accounts  map[int64]account.Account
	stocks    map[int64]stock.Stock
	trades    map[int64]trade.Trade
	transfers map[transfer.Kind]map[transferKey]transfer.Entry
	users     map[int64]user.User
}

type transferKey struct {
	accountNr int64
	dateUnix  int64
}

var _ AccountStore = (*Memory)(nil)
var _ StockStore = (*Memory)(nil)
var _ TradeStore = (*Memory)(nil)
var _ TransferStore = (*Memory)(nil)
var _ UserStore = (*Memory)(nil)

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		nextAccountNr: 1,
		nextStockID:   1,
		nextTradeID:   1,
		nextUserID:    1,
		accounts:      make(map[int64]account.Account),
		stocks:        make(map[int64]stock.Stock),
		trades:        make(map[int64]trade.Trade),
		transfers: map[transfer.Kind]map[transferKey]transfer.Entry{
			transfer.Deposit:  make(map[transferKey]transfer.Entry),
			transfer.Withdraw: make(map[transferKey]transfer.Entry),
		},
		users: make(map[int64]user.User),
	}
}

func keyFor(accountNr int64, date time.Time) transferKey {
	return transferKey{accountNr: accountNr, dateUnix: date.Unix()}
}

// AccountStore implementation -------------------------------------------------

func (m *Memory) CreateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.accounts {
		if existing.Email == acct.Email {
			return account.Account{}, ErrConflict
		}
	}

	acct.Nr = m.nextAccountNr
	m.nextAccountNr++
	m.accounts[acct.Nr] = acct
	return acct, nil
}

func (m *Memory) UpdateAccount(_ context.Context, acct account.Account) (account.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[acct.Nr]; !ok {
		return account.Account{}, ErrNotFound
	}
	for nr, existing := range m.accounts {
		if nr != acct.Nr && existing.Email == acct.Email {
			return account.Account{}, ErrConflict
		}
	}

	m.accounts[acct.Nr] = acct
	return acct, nil
}

func (m *Memory) GetAccount(_ context.Context, nr int64) (account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acct, ok := m.accounts[nr]
	if !ok {
		return account.Account{}, ErrNotFound
	}
	return acct, nil
}

func (m *Memory) GetAccountByEmail(_ context.Context, email string) (account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, acct := range m.accounts {
		if acct.Email == email {
			return acct, nil
		}
	}
	return account.Account{}, ErrNotFound
}

func (m *Memory) ListAccounts(_ context.Context) ([]account.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]account.Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		result = append(result, acct)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Nr < result[j].Nr })
	return result, nil
}

func (m *Memory) DeleteAccount(_ context.Context, nr int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[nr]; !ok {
		return ErrNotFound
	}
	delete(m.accounts, nr)

	// Cascade: the account's cash movements go with it.
	for _, table := range m.transfers {
		for key := range table {
			if key.accountNr == nr {
				delete(table, key)
			}
		}
	}
	return nil
}

// StockStore implementation ---------------------------------------------------

func (m *Memory) CreateStock(_ context.Context, st stock.Stock) (stock.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.stocks {
		if existing.Symbol == st.Symbol {
			return stock.Stock{}, ErrConflict
		}
	}

	st.ID = m.nextStockID
	m.nextStockID++
	m.stocks[st.ID] = st
	return st, nil
}

func (m *Memory) UpdateStock(_ context.Context, st stock.Stock) (stock.Stock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stocks[st.ID]; !ok {
		return stock.Stock{}, ErrNotFound
	}
	for id, existing := range m.stocks {
		if id != st.ID && existing.Symbol == st.Symbol {
			return stock.Stock{}, ErrConflict
		}
	}

	m.stocks[st.ID] = st
	return st, nil
}

func (m *Memory) GetStock(_ context.Context, id int64) (stock.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.stocks[id]
	if !ok {
		return stock.Stock{}, ErrNotFound
	}
	return st, nil
}

func (m *Memory) GetStockBySymbol(_ context.Context, symbol string) (stock.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, st := range m.stocks {
		if st.Symbol == symbol {
			return st, nil
		}
	}
	return stock.Stock{}, ErrNotFound
}

func (m *Memory) ListStocks(_ context.Context) ([]stock.Stock, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]stock.Stock, 0, len(m.stocks))
	for _, st := range m.stocks {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteStock(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stocks[id]; !ok {
		return ErrNotFound
	}
	for _, tr := range m.trades {
		if tr.StockID == id {
			return ErrReferenced
		}
	}
	delete(m.stocks, id)
	return nil
}

// TradeStore implementation ---------------------------------------------------

func (m *Memory) CreateTrade(_ context.Context, tr trade.Trade) (trade.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stocks[tr.StockID]; !ok {
		return trade.Trade{}, ErrNotFound
	}

	tr.ID = m.nextTradeID
	m.nextTradeID++
	m.trades[tr.ID] = tr
	return tr, nil
}

func (m *Memory) UpdateTrade(_ context.Context, tr trade.Trade) (trade.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trades[tr.ID]; !ok {
		return trade.Trade{}, ErrNotFound
	}
	if _, ok := m.stocks[tr.StockID]; !ok {
		return trade.Trade{}, ErrNotFound
	}

	m.trades[tr.ID] = tr
	return tr, nil
}

func (m *Memory) GetTrade(_ context.Context, id int64) (trade.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tr, ok := m.trades[id]
	if !ok {
		return trade.Record{}, ErrNotFound
	}
	return trade.Record{Trade: tr, Stock: m.stocks[tr.StockID]}, nil
}

func (m *Memory) ListTrades(_ context.Context) ([]trade.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]trade.Record, 0, len(m.trades))
	for _, tr := range m.trades {
		result = append(result, trade.Record{Trade: tr, Stock: m.stocks[tr.StockID]})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteTrade(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.trades[id]; !ok {
		return ErrNotFound
	}
	delete(m.trades, id)
	return nil
}

// TransferStore implementation ------------------------------------------------

func (m *Memory) CreateTransfer(_ context.Context, kind transfer.Kind, e transfer.Entry) (transfer.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	table, ok := m.transfers[kind]
	if !ok {
		return transfer.Entry{}, ErrNotFound
	}
	if _, ok := m.accounts[e.AccountNr]; !ok {
		return transfer.Entry{}, ErrNotFound
	}

	key := keyFor(e.AccountNr, e.Date)
	if _, exists := table[key]; exists {
		return transfer.Entry{}, ErrConflict
	}

	table[key] = e
	return e, nil
}

func (m *Memory) UpdateTransferSum(_ context.Context, kind transfer.Kind, accountNr int64, date time.Time, sum money.Amount) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	table := m.transfers[kind]
	key := keyFor(accountNr, date)
	e, ok := table[key]
	if !ok {
		return ErrNotFound
	}
	e.Sum = sum
	table[key] = e
	return nil
}

func (m *Memory) GetTransfer(_ context.Context, kind transfer.Kind, accountNr int64, date time.Time) (transfer.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.transfers[kind][keyFor(accountNr, date)]
	if !ok {
		return transfer.Record{}, ErrNotFound
	}
	return transfer.Record{Entry: e, Account: m.accounts[e.AccountNr]}, nil
}

func (m *Memory) ListTransfers(_ context.Context, kind transfer.Kind) ([]transfer.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	table := m.transfers[kind]
	result := make([]transfer.Record, 0, len(table))
	for _, e := range table {
		result = append(result, transfer.Record{Entry: e, Account: m.accounts[e.AccountNr]})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].AccountNr != result[j].AccountNr {
			return result[i].AccountNr < result[j].AccountNr
		}
		return result[i].Date.Before(result[j].Date)
	})
	return result, nil
}

func (m *Memory) DeleteTransfer(_ context.Context, kind transfer.Kind, accountNr int64, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := keyFor(accountNr, date)
	if _, ok := m.transfers[kind][key]; !ok {
		return ErrNotFound
	}
	delete(m.transfers[kind], key)
	return nil
}

// UserStore implementation ----------------------------------------------------

func (m *Memory) CreateUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Auth0ID == u.Auth0ID {
			return user.User{}, ErrConflict
		}
	}

	u.ID = m.nextUserID
	m.nextUserID++
	m.users[u.ID] = u
	return u, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return user.User{}, ErrNotFound
	}
	return u, nil
}

func (m *Memory) GetUserByAuth0ID(_ context.Context, auth0ID string) (user.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Auth0ID == auth0ID {
			return u, nil
		}
	}
	return user.User{}, ErrNotFound
}

func (m *Memory) EnsureUser(_ context.Context, u user.User) (user.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Auth0ID == u.Auth0ID {
			return existing, nil
		}
	}

	u.ID = m.nextUserID
	m.nextUserID++
	m.users[u.ID] = u
	return u, nil
}
