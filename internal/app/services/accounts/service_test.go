package accounts

import (
	"context"
	"testing"

	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/app/wire"
	apperrors "github.com/stockfolio/ledger/internal/errors"
)

func newService() *Service {
	return New(storage.NewMemory(), nil)
}

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1577836800, InvestedSum: 100})
	if err != nil {
		t.Fatalf("create first account: %v", err)
	}
	if first.Nr != 1 {
		t.Fatalf("expected accountNr 1, got %d", first.Nr)
	}
	if first.Email != "a@x.com" || first.InvestedSum != 100 {
		t.Fatalf("unexpected created account: %+v", first)
	}

	second, err := svc.Create(ctx, wire.AccountInput{Email: "b@x.com", DateJoined: 1577836800})
	if err != nil {
		t.Fatalf("create second account: %v", err)
	}
	if second.Nr != 2 {
		t.Fatalf("expected accountNr 2, got %d", second.Nr)
	}
}

func TestCreateDuplicateEmailConflicts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1}); err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 2})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected Conflict, got %v", err)
	}

	all, err := svc.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if all.Count != 1 {
		t.Fatalf("conflicting create must not persist, count = %d", all.Count)
	}
}

func TestGetByIDMissingIsNotFound(t *testing.T) {
	svc := newService()

	_, err := svc.GetByID(context.Background(), 42)
	svcErr := apperrors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != apperrors.CodeNotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if svcErr.Details["entity"] != "account" {
		t.Fatalf("expected account discriminator, got %v", svcErr.Details)
	}
	if svcErr.Message != "Account with id 42 not found" {
		t.Fatalf("unexpected message %q", svcErr.Message)
	}
}

func TestUpdateToTakenEmailConflicts(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	second, err := svc.Create(ctx, wire.AccountInput{Email: "b@x.com", DateJoined: 1})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	_, err = svc.UpdateByID(ctx, second.Nr, wire.AccountInput{Email: "a@x.com", DateJoined: 1})
	if !apperrors.IsConflict(err) {
		t.Fatalf("expected Conflict, got %v", err)
	}
}

func TestUpdateKeepingOwnEmailSucceeds(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1, InvestedSum: 50})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	updated, err := svc.UpdateByID(ctx, created.Nr, wire.AccountInput{Email: "a@x.com", DateJoined: 1, InvestedSum: 75.25})
	if err != nil {
		t.Fatalf("update with unchanged email: %v", err)
	}
	if updated.InvestedSum != 75.25 {
		t.Fatalf("expected updated sum 75.25, got %v", updated.InvestedSum)
	}
}

func TestDeleteThenGetIsNotFound(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	if err := svc.DeleteByID(ctx, created.Nr); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if _, err := svc.GetByID(ctx, created.Nr); !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFound after delete, got %v", err)
	}
	if err := svc.DeleteByID(ctx, created.Nr); !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFound on second delete, got %v", err)
	}
}

func TestGetByEmail(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, wire.AccountInput{Email: "a@x.com", DateJoined: 1})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	found, err := svc.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if found.Nr != created.Nr {
		t.Fatalf("expected account %d, got %d", created.Nr, found.Nr)
	}

	if _, err := svc.GetByEmail(ctx, "nobody@x.com"); !apperrors.IsNotFound(err) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
