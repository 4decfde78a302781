package model

import "time"

// PositionSnapshot is a broker-reported current holding. Snapshots never
// change position state directly; the timeline builder compares them against
// the replayed transaction history to detect positions whose opening predates
// the available records.
type PositionSnapshot struct {
	Source    string    `json:"source"`
	Account   string    `json:"account"`
	Symbol    string    `json:"symbol"`
	Currency  string    `json:"currency"`
	Direction string    `json:"direction"`
	Segment   string    `json:"segment"`
	Quantity  float64   `json:"quantity"`
	Price     float64   `json:"price"`
	AsOf      time.Time `json:"asOf"`
}

// Key returns the symbol key this snapshot belongs to.
func (p PositionSnapshot) Key() SymbolKey {
	return SymbolKey{Symbol: p.Symbol, Currency: p.Currency, Direction: p.Direction}
}
