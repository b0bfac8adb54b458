package wire

import (
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/transfer"
)

// Transfer is the wire shape of a deposit or withdraw joined with its
// account. The kind is carried by the route, not the payload.
type Transfer struct {
	AccountNr int64   `json:"accountNr"`
	Date      int64   `json:"date"`
	Sum       float64 `json:"sum"`
	Account   Account `json:"account"`
}

// TransferList is the collection shape returned by list operations.
type TransferList struct {
	Items []Transfer `json:"items"`
	Count int        `json:"count"`
}

// TransferInput carries the client-settable transfer fields.
type TransferInput struct {
	AccountNr int64   `json:"accountNr"`
	Date      int64   `json:"date"`
	Sum       float64 `json:"sum"`
}

// EncodeTransfer converts a joined storage record to its wire shape.
func EncodeTransfer(kind transfer.Kind, rec transfer.Record, err error) (Transfer, error) {
	if err != nil {
		return Transfer{}, notFound(kind.String(), err)
	}
	acct, _ := EncodeAccount(rec.Account, nil)
	return Transfer{
		AccountNr: rec.AccountNr,
		Date:      rec.Date.Unix(),
		Sum:       rec.Sum.Float64(),
		Account:   acct,
	}, nil
}

// EncodeTransfers converts a storage listing to the items/count wire shape.
func EncodeTransfers(kind transfer.Kind, records []transfer.Record, err error) (TransferList, error) {
	if err != nil {
		return TransferList{}, notFound(kind.String(), err)
	}
	items := make([]Transfer, 0, len(records))
	for _, rec := range records {
		encoded, _ := EncodeTransfer(kind, rec, nil)
		items = append(items, encoded)
	}
	return TransferList{Items: items, Count: len(items)}, nil
}

// DecodeTransfer converts client input to the storage shape.
func DecodeTransfer(in TransferInput) transfer.Entry {
	return transfer.Entry{
		AccountNr: in.AccountNr,
		Date:      time.Unix(in.Date, 0).UTC(),
		Sum:       money.FromFloat(in.Sum),
	}
}
