package stock

// Stock is a tradable security. Symbol is unique across all stocks.
type Stock struct {
	ID       int64
	Symbol   string
	Name     string
	Industry string
	Sector   string
}
