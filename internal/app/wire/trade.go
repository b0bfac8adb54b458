package wire

import (
	"time"

	"github.com/stockfolio/ledger/internal/app/domain/money"
	"github.com/stockfolio/ledger/internal/app/domain/trade"
)

// Trade is the wire shape of a trade joined with its stock.
type Trade struct {
	ID            int64   `json:"tradeId"`
	StockID       int64   `json:"stockId"`
	PriceBought   float64 `json:"price bought"`
	PriceSold     float64 `json:"price sold"`
	DateBought    int64   `json:"date bought"`
	DateSold      int64   `json:"date sold"`
	Amount        int64   `json:"amount"`
	CommentBought string  `json:"comment bought"`
	CommentSold   string  `json:"comment sold"`
	Stock         Stock   `json:"stock"`
}

// TradeList is the collection shape returned by list operations.
type TradeList struct {
	Items []Trade `json:"items"`
	Count int     `json:"count"`
}

// TradeInput carries the client-settable trade fields.
type TradeInput struct {
	StockID       int64   `json:"stockId"`
	PriceBought   float64 `json:"price bought"`
	PriceSold     float64 `json:"price sold"`
	DateBought    int64   `json:"date bought"`
	DateSold      int64   `json:"date sold"`
	Amount        int64   `json:"amount"`
	CommentBought string  `json:"comment bought"`
	CommentSold   string  `json:"comment sold"`
}

// EncodeTrade converts a joined storage record to its wire shape.
func EncodeTrade(rec trade.Record, err error) (Trade, error) {
	if err != nil {
		return Trade{}, notFound("trade", err)
	}
	st, _ := EncodeStock(rec.Stock, nil)
	return Trade{
		ID:            rec.ID,
		StockID:       rec.StockID,
		PriceBought:   rec.PriceBought.Float64(),
		PriceSold:     rec.PriceSold.Float64(),
		DateBought:    rec.DateBought.Unix(),
		DateSold:      rec.DateSold.Unix(),
		Amount:        rec.Amount,
		CommentBought: rec.CommentBought,
		CommentSold:   rec.CommentSold,
		Stock:         st,
	}, nil
}

// EncodeTrades converts a storage listing to the items/count wire shape.
func EncodeTrades(records []trade.Record, err error) (TradeList, error) {
	if err != nil {
		return TradeList{}, notFound("trade", err)
	}
	items := make([]Trade, 0, len(records))
	for _, rec := range records {
		encoded, _ := EncodeTrade(rec, nil)
		items = append(items, encoded)
	}
	return TradeList{Items: items, Count: len(items)}, nil
}

// DecodeTrade converts client input to the storage shape.
func DecodeTrade(in TradeInput) trade.Trade {
	return trade.Trade{
		StockID:       in.StockID,
		PriceBought:   money.FromFloat(in.PriceBought),
		PriceSold:     money.FromFloat(in.PriceSold),
		DateBought:    time.Unix(in.DateBought, 0).UTC(),
		DateSold:      time.Unix(in.DateSold, 0).UTC(),
		Amount:        in.Amount,
		CommentBought: in.CommentBought,
		CommentSold:   in.CommentSold,
	}
}
