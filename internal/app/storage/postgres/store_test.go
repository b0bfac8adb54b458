package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/domain/user"
	"github.com/stockfolio/ledger/internal/app/storage"
)

func tradeFixture() trade.Trade {
	return trade.Trade{
		StockID:       1,
		PriceBought:   money.Amount(10050),
		PriceSold:     money.Amount(12000),
		DateBought:    time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
		DateSold:      time.Date(2021, 2, 4, 0, 0, 0, 0, time.UTC),
		Amount:        10,
		CommentBought: "entry",
		CommentSold:   "exit",
	}
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func TestCreateAccountReturnsGeneratedNr(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	joined := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("a@b.ch", joined, int64(150000)).
		WillReturnRows(sqlmock.NewRows([]string{"account_nr"}).AddRow(int64(7)))

	acct, err := store.CreateAccount(context.Background(), account.Account{
		Email:       "a@b.ch",
		DateJoined:  joined,
		InvestedSum: money.Amount(150000),
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	if acct.Nr != 7 {
		t.Fatalf("expected generated nr 7, got %d", acct.Nr)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCreateAccountDuplicateEmailIsConflict(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO accounts").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateAccount(context.Background(), account.Account{Email: "a@b.ch"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestGetAccountMissingIsNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT account_nr, email, date_joined, invested_sum_cents").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"account_nr", "email", "date_joined", "invested_sum_cents"}))

	_, err := store.GetAccount(context.Background(), 99)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateAccountZeroRowsIsNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("UPDATE accounts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.UpdateAccount(context.Background(), account.Account{Nr: 4, Email: "x@y.ch"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteStockReferencedByTrades(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM stocks").
		WithArgs(int64(3)).
		WillReturnError(&pq.Error{Code: "23503"})

	err := store.DeleteStock(context.Background(), 3)
	if !errors.Is(err, storage.ErrReferenced) {
		t.Fatalf("expected ErrReferenced, got %v", err)
	}
}

func TestCreateTradeMissingStockIsNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("INSERT INTO trades").
		WillReturnError(&pq.Error{Code: "23503"})

	_, err := store.CreateTrade(context.Background(), tradeFixture())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateTransferUsesKindTable(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	date := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO withdraws").
		WithArgs(int64(2), date, int64(5000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := store.CreateTransfer(context.Background(), transfer.Withdraw, transfer.Entry{
		AccountNr: 2,
		Date:      date,
		Sum:       money.Amount(5000),
	})
	if err != nil {
		t.Fatalf("create withdraw: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetTransferJoinsAccount(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	date := time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)
	joined := time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM deposits t").
		WithArgs(int64(2), date).
		WillReturnRows(sqlmock.NewRows([]string{
			"account_nr", "date", "sum_cents",
			"account_nr", "email", "date_joined", "invested_sum_cents",
		}).AddRow(int64(2), date, int64(5000), int64(2), "a@b.ch", joined, int64(100000)))

	rec, err := store.GetTransfer(context.Background(), transfer.Deposit, 2, date)
	if err != nil {
		t.Fatalf("get deposit: %v", err)
	}
	if rec.Account.Email != "a@b.ch" {
		t.Fatalf("expected joined account email, got %q", rec.Account.Email)
	}
	if rec.Sum != money.Amount(5000) {
		t.Fatalf("expected sum 5000 cents, got %d", rec.Sum)
	}
}

func TestEnsureUserInsertsThenReads(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("ON CONFLICT \\(auth0_id\\) DO NOTHING").
		WithArgs("Jane", "auth0|abc").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT user_id, name, auth0_id FROM users WHERE auth0_id").
		WithArgs("auth0|abc").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "auth0_id"}).
			AddRow(int64(12), "Jane", "auth0|abc"))

	u, err := store.EnsureUser(context.Background(), user.User{Name: "Jane", Auth0ID: "auth0|abc"})
	if err != nil {
		t.Fatalf("ensure user: %v", err)
	}
	if u.ID != 12 {
		t.Fatalf("expected existing user id 12, got %d", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
