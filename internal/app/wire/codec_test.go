package wire

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/stock"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
	"github.com/stockfolio/ledger/internal/app/storage"
	apperrors "github.com/stockfolio/ledger/internal/errors"
)

func TestAccountRoundTrip(t *testing.T) {
	in := AccountInput{
		Email:       "a@x.com",
		DateJoined:  1577836800,
		InvestedSum: 100.50,
	}
	decoded := DecodeAccount(in)
	decoded.Nr = 1

	encoded, err := EncodeAccount(decoded, nil)
	if err != nil {
		t.Fatalf("encode account: %v", err)
	}
	if encoded.Email != in.Email {
		t.Fatalf("email changed in round trip: %q", encoded.Email)
	}
	if encoded.DateJoined != in.DateJoined {
		t.Fatalf("expected epoch %d, got %d", in.DateJoined, encoded.DateJoined)
	}
	if encoded.InvestedSum != in.InvestedSum {
		t.Fatalf("expected sum %v, got %v", in.InvestedSum, encoded.InvestedSum)
	}
}

func TestAccountWireAliases(t *testing.T) {
	encoded, err := EncodeAccount(account.Account{
		Nr:          3,
		Email:       "a@x.com",
		DateJoined:  time.Unix(1577836800, 0).UTC(),
		InvestedSum: money.Amount(10050),
	}, nil)
	if err != nil {
		t.Fatalf("encode account: %v", err)
	}

	raw, err := json.Marshal(encoded)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"accountNr", "e-mail", "date joined", "invested sum"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("wire payload missing field %q: %s", key, raw)
		}
	}
	if fields["date joined"] != float64(1577836800) {
		t.Fatalf("expected epoch seconds on the wire, got %v", fields["date joined"])
	}
}

func TestEncodeAccountAbsenceIsNotFound(t *testing.T) {
	_, err := EncodeAccount(account.Account{}, storage.ErrNotFound)
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NotFound service error, got %v", err)
	}
	if svcErr.Details["entity"] != "account" {
		t.Fatalf("expected entity discriminator, got %v", svcErr.Details)
	}
}

func TestEncodePassesThroughOtherErrors(t *testing.T) {
	_, err := EncodeAccount(account.Account{}, storage.ErrConflict)
	if err != storage.ErrConflict {
		t.Fatalf("expected conflict passthrough, got %v", err)
	}
}

func TestTradeWireShape(t *testing.T) {
	rec := trade.Record{
		Trade: trade.Trade{
			ID:            9,
			StockID:       2,
			PriceBought:   money.Amount(10050),
			PriceSold:     money.Amount(12000),
			DateBought:    time.Unix(1609718400, 0).UTC(),
			DateSold:      time.Unix(1612396800, 0).UTC(),
			Amount:        10,
			CommentBought: "entry",
		},
		Stock: stock.Stock{ID: 2, Symbol: "AAPL", Name: "Apple"},
	}

	encoded, err := EncodeTrade(rec, nil)
	if err != nil {
		t.Fatalf("encode trade: %v", err)
	}
	if encoded.PriceBought != 100.50 {
		t.Fatalf("expected price 100.50, got %v", encoded.PriceBought)
	}
	if encoded.Stock.Symbol != "AAPL" {
		t.Fatalf("expected joined stock, got %+v", encoded.Stock)
	}

	raw, _ := json.Marshal(encoded)
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"tradeId", "price bought", "price sold", "date bought", "date sold", "comment bought", "comment sold", "stock"} {
		if _, ok := fields[key]; !ok {
			t.Fatalf("trade payload missing field %q: %s", key, raw)
		}
	}
}

func TestTransferRoundTrip(t *testing.T) {
	in := TransferInput{AccountNr: 1, Date: 1577840000, Sum: 50}
	entry := DecodeTransfer(in)

	encoded, err := EncodeTransfer(transfer.Deposit, transfer.Record{Entry: entry}, nil)
	if err != nil {
		t.Fatalf("encode deposit: %v", err)
	}
	if encoded.AccountNr != in.AccountNr || encoded.Date != in.Date || encoded.Sum != in.Sum {
		t.Fatalf("round trip changed values: %+v", encoded)
	}
}

func TestEncodeTransferAbsenceNamesKind(t *testing.T) {
	_, err := EncodeTransfer(transfer.Withdraw, transfer.Record{}, storage.ErrNotFound)
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if svcErr.Details["entity"] != "withdraw" {
		t.Fatalf("expected withdraw discriminator, got %v", svcErr.Details)
	}
}

func TestEncodeListsAreNeverNil(t *testing.T) {
	accounts, err := EncodeAccounts(nil, nil)
	if err != nil {
		t.Fatalf("encode accounts: %v", err)
	}
	if accounts.Items == nil || accounts.Count != 0 {
		t.Fatalf("expected empty items slice, got %+v", accounts)
	}

	raw, _ := json.Marshal(accounts)
	if string(raw) != `{"items":[],"count":0}` {
		t.Fatalf("unexpected empty list payload: %s", raw)
	}
}
