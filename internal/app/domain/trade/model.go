package trade

import (
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/stock"
)

// Trade is a buy/sell round trip on a stock. StockID must reference an
// existing stock.
type Trade struct {
	ID            int64
	StockID       int64
	PriceBought   money.Amount
	PriceSold     money.Amount
	DateBought    time.Time
	DateSold      time.Time
	Amount        int64
	CommentBought string
	CommentSold   string
}

// Record is the read shape of a trade joined with its stock.
type Record struct {
	Trade
	Stock stock.Stock
}
