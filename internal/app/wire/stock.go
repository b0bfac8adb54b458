package wire

import (
	"github.com/stockfolio/ledger/internal/app/domain/stock"
)

// Stock is the wire shape of a listed stock.
type Stock struct {
	ID       int64  `json:"stockId"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
}

// StockList is the collection shape returned by list operations.
type StockList struct {
	Items []Stock `json:"items"`
	Count int     `json:"count"`
}

// StockInput carries the client-settable stock fields.
type StockInput struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Sector   string `json:"sector"`
}

// EncodeStock converts a storage stock to its wire shape.
func EncodeStock(st stock.Stock, err error) (Stock, error) {
	if err != nil {
		return Stock{}, notFound("stock", err)
	}
	return Stock{
		ID:       st.ID,
		Symbol:   st.Symbol,
		Name:     st.Name,
		Industry: st.Industry,
		Sector:   st.Sector,
	}, nil
}

// EncodeStocks converts a storage listing to the items/count wire shape.
func EncodeStocks(stocks []stock.Stock, err error) (StockList, error) {
	if err != nil {
		return StockList{}, notFound("stock", err)
	}
	items := make([]Stock, 0, len(stocks))
	for _, st := range stocks {
		encoded, _ := EncodeStock(st, nil)
		items = append(items, encoded)
	}
	return StockList{Items: items, Count: len(items)}, nil
}

// DecodeStock converts client input to the storage shape.
func DecodeStock(in StockInput) stock.Stock {
	return stock.Stock{
		Symbol:   in.Symbol,
		Name:     in.Name,
		Industry: in.Industry,
		Sector:   in.Sector,
	}
}
