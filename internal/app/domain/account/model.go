package account

import (
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/money"
)

// Account is an investing account identified by its server-assigned number.
// Email is unique across all accounts.
type Account struct {
	Nr          int64
	Email       string
	DateJoined  time.Time
	InvestedSum money.Amount
}
