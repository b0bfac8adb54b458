package transfer

import (
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/account"
	"github.com/stockfolio/ledger/internal/app/domain/money"
)

// Kind distinguishes the two cash-movement tables. Deposits and withdraws
// share the same shape and composite identity.
type Kind string

const (
	Deposit  Kind = "deposit"
	Withdraw Kind = "withdraw"
)

// String returns the kind name used in log fields and error messages.
func (k Kind) String() string { return string(k) }

// Title returns the capitalized entity name used in error messages.
func (k Kind) Title() string {
	switch k {
	case Deposit:
		return "Deposit"
	case Withdraw:
		return "Withdraw"
	default:
		return string(k)
	}
}

// Entry is a single cash movement. The composite key (AccountNr, Date) has
// no surrogate id; an account has at most one entry per exact timestamp.
type Entry struct {
	AccountNr int64
	Date      time.Time
	Sum       money.Amount
}

// Record is the read shape of an entry joined with its owning account.
type Record struct {
	Entry
	Account account.Account
}
