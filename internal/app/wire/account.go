// Package wire converts between the external JSON representation of the
// ledger entities and their storage shape. The wire contract keeps the
// historical field aliases ("e-mail", "date joined", "invested sum", the
// spaced trade field names) and carries every timestamp as integer epoch
// seconds.
//
// Every read path routes through an Encode function, so a missing storage
// record is turned into the NotFound domain error in exactly one place per
// entity.
package wire

import (
	stderrors "errors"
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/storage"
	"github.com/stockfolio/ledger/internal/errors"
)

// Account is the wire shape of a ledger account.
type Account struct {
	Nr          int64   `json:"accountNr"`
	Email       string  `json:"e-mail"`
	DateJoined  int64   `json:"date joined"`
	InvestedSum float64 `json:"invested sum"`
}

// AccountList is the collection shape returned by list operations.
type AccountList struct {
	Items []Account `json:"items"`
	Count int       `json:"count"`
}

// AccountInput carries the client-settable account fields.
type AccountInput struct {
	Email       string  `json:"e-mail"`
	DateJoined  int64   `json:"date joined"`
	InvestedSum float64 `json:"invested sum"`
}

// notFound translates the storage absence sentinel into the domain error
// carrying the entity discriminator; every other error passes through.
func notFound(entity string, err error) error {
	if stderrors.Is(err, storage.ErrNotFound) {
		return errors.NotFound(entity + " not found").WithDetails("entity", entity)
	}
	return err
}

// EncodeAccount converts a storage account to its wire shape. Absence of the
// record surfaces as the NotFound domain error.
func EncodeAccount(acct account.Account, err error) (Account, error) {
	if err != nil {
		return Account{}, notFound("account", err)
	}
	return Account{
		Nr:          acct.Nr,
		Email:       acct.Email,
		DateJoined:  acct.DateJoined.Unix(),
		InvestedSum: acct.InvestedSum.Float64(),
	}, nil
}

// EncodeAccounts converts a storage listing to the items/count wire shape.
func EncodeAccounts(accounts []account.Account, err error) (AccountList, error) {
	if err != nil {
		return AccountList{}, notFound("account", err)
	}
	items := make([]Account, 0, len(accounts))
	for _, acct := range accounts {
		encoded, _ := EncodeAccount(acct, nil)
		items = append(items, encoded)
	}
	return AccountList{Items: items, Count: len(items)}, nil
}

// DecodeAccount converts client input to the storage shape. The epoch-second
// timestamp becomes a UTC time and the monetary value is held in cents.
func DecodeAccount(in AccountInput) account.Account {
	return account.Account{
		Email:       in.Email,
		DateJoined:  time.Unix(in.DateJoined, 0).UTC(),
		InvestedSum: money.FromFloat(in.InvestedSum),
	}
}
