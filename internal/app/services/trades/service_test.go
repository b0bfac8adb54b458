package trades

import (
	"context"
	"testing"

	"github.com/stockfolio/ledger/internal/app/domain/stock"
	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
)

func setup(t *testing.T) (*Service, *storage.Memory, stock.Stock) {
	t.Helper()
	store := storage.NewMemory()
	st, err := store.CreateStock(context.Background(), stock.Stock{Symbol: "AAPL", Name: "Apple"})
	if err != nil {
		t.Fatalf("create stock: %v", err)
	}
	return New(store, store, nil), store, st
}

func tradeInput(stockID int64) wire.TradeInput {
	return wire.TradeInput{
		StockID:     stockID,
		PriceBought: 100.50,
		PriceSold:   120,
		DateBought:  1609718400,
		DateSold:    1612396800,
		Amount:      10,
	}
}

func TestCreateReturnsJoinedStock(t *testing.T) {
	svc, _, st := setup(t)

	created, err := svc.Create(context.Background(), tradeInput(st.ID))
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}
	if created.ID != 1 {
		t.Fatalf("expected tradeId 1, got %d", created.ID)
	}
	if created.Stock.Symbol != "AAPL" {
		t.Fatalf("expected joined stock, got %+v", created.Stock)
	}
	if created.PriceBought != 100.50 {
		t.Fatalf("expected price 100.50, got %v", created.PriceBought)
	}
}

func TestCreateWithMissingStockPersistsNothing(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, tradeInput(99))
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if svcErr.Details["entity"] != "stock" {
		t.Fatalf("expected stock discriminator, got %v", svcErr.Details)
	}

	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if all.Count != 0 {
		t.Fatalf("failed create must not persist, count = %d", all.Count)
	}
}

func TestUpdateMissingTradeAndMissingStock(t *testing.T) {
	svc, _, st := setup(t)
	ctx := context.Background()

	_, err := svc.UpdateByID(ctx, 42, tradeInput(st.ID))
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound || svcErr.Details["entity"] != "trade" {
		t.Fatalf("expected trade NotFound, got %v", err)
	}

	created, err := svc.Create(ctx, tradeInput(st.ID))
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}

	_, err = svc.UpdateByID(ctx, created.ID, tradeInput(99))
	svcErr = apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound || svcErr.Details["entity"] != "stock" {
		t.Fatalf("expected stock NotFound, got %v", err)
	}
}

func TestUpdateChangesFields(t *testing.T) {
	svc, _, st := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, tradeInput(st.ID))
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}

	in := tradeInput(st.ID)
	in.PriceSold = 150.25
	in.CommentSold = "took profit"
	updated, err := svc.UpdateByID(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("update trade: %v", err)
	}
	if updated.PriceSold != 150.25 || updated.CommentSold != "took profit" {
		t.Fatalf("unexpected updated trade: %+v", updated)
	}
}

func TestDeleteTrade(t *testing.T) {
	svc, _, st := setup(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, tradeInput(st.ID))
	if err != nil {
		t.Fatalf("create trade: %v", err)
	}

	if err := svc.DeleteByID(ctx, created.ID); err != nil {
		t.Fatalf("delete trade: %v", err)
	}
	if err := svc.DeleteByID(ctx, created.ID); !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}
