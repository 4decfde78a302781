package model

import "time"

// SymbolPrice is one historical valuation point for a tradable instrument,
// used to mark positions at month ends.
type SymbolPrice struct {
	Symbol   string    `json:"symbol"`
	Currency string    `json:"currency"`
	Date     time.Time `json:"date"`
	Price    float64   `json:"price"`
}

// RiskFreeSeries identifies the stored annualized risk-free rate series
// (13-week treasury yield).
const RiskFreeSeries = "^IRX"

// BenchmarkPrice is one historical closing value of a benchmark index.
type BenchmarkPrice struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}
