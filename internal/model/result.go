package model

import "time"

// Warning categories attached to diagnostics. One warning is emitted per
// anomaly, carrying enough context (date, symbol, magnitude) to audit it.
const (
	WarningExcludedLeg         = "excluded_leg"
	WarningExcludedFlow        = "excluded_flow"
	WarningDroppedLeg          = "dropped_leg"
	WarningSyntheticInjected   = "synthetic_injected"
	WarningUnpriceableSymbol   = "unpriceable_symbol"
	WarningClampedReturn       = "clamped_return"
	WarningExtremeReturn       = "extreme_return"
	WarningTransferImbalance   = "transfer_imbalance"
	WarningValuationMismatch   = "valuation_mismatch"
	WarningSnapshotMismatch    = "snapshot_mismatch"
	WarningLowDataCoverage     = "low_data_coverage"
	WarningRiskFreeUnavailable = "risk_free_unavailable"
)

// Warning is a single human-readable anomaly record.
type Warning struct {
	ID        string  `json:"id"`
	Category  string  `json:"category"`
	Date      string  `json:"date,omitempty"`
	Symbol    string  `json:"symbol,omitempty"`
	Magnitude float64 `json:"magnitude,omitempty"`
	Message   string  `json:"message"`
}

// Diagnostics enumerates every correction and data-quality measure applied
// while producing a result. Counts increment whenever the engine excludes,
// fabricates, or clamps anything; nothing is dropped silently.
type Diagnostics struct {
	SyntheticEntries    int      `json:"syntheticEntries"`
	SyntheticInceptions int      `json:"syntheticInceptions"`
	SyntheticBalancing  int      `json:"syntheticBalancing"`
	SyntheticTransfers  int      `json:"syntheticTransfers"`
	DroppedLegs         int      `json:"droppedLegs"`
	ExcludedLegs        int      `json:"excludedLegs"`
	ExcludedFlows       int      `json:"excludedFlows"`
	ClampedReturns      int      `json:"clampedReturns"`
	ExtremeReturns      int      `json:"extremeReturns"`
	ExcludedSymbols     []string `json:"excludedSymbols"`
	TransferResidual    float64  `json:"transferResidual"`
	DataCoverage        float64  `json:"dataCoverage"` // priced symbol-months / required symbol-months
}

// MonthlyReturn is one period of the computed return series, with the flags
// that make implausible values visible instead of silently removed.
type MonthlyReturn struct {
	Month     string  `json:"month"`
	Return    float64 `json:"return"`
	NAV       float64 `json:"nav"`
	NetFlow   float64 `json:"netFlow"`
	Bootstrap bool    `json:"bootstrap,omitempty"` // prior NAV near zero, flow-based denominator
	Clamped   bool    `json:"clamped,omitempty"`   // raw value below -100% clamped
	Extreme   bool    `json:"extreme,omitempty"`   // absolute value above the extreme threshold
}

// BenchmarkComparison holds the summary statistics of the scope's return
// series aligned against a benchmark on common month-end dates.
type BenchmarkComparison struct {
	Ticker                    string  `json:"ticker"`
	AlignedPeriods            int     `json:"alignedPeriods"`
	TotalReturn               float64 `json:"totalReturn"`
	AnnualizedReturn          float64 `json:"annualizedReturn"`
	Volatility                float64 `json:"volatility"`
	SharpeRatio               float64 `json:"sharpeRatio"`
	MaxDrawdown               float64 `json:"maxDrawdown"`
	Alpha                     float64 `json:"alpha"`
	Beta                      float64 `json:"beta"`
	BenchmarkTotalReturn      float64 `json:"benchmarkTotalReturn"`
	BenchmarkAnnualizedReturn float64 `json:"benchmarkAnnualizedReturn"`
	RiskFreeRate              float64 `json:"riskFreeRate"`
}

// RealizedPerformanceResult is the immutable product of one reconstruction
// request. It is constructed once, optionally cached keyed by scope, date
// range, and algorithm version, and never mutated afterwards.
type RealizedPerformanceResult struct {
	Source           string               `json:"source"`
	Account          string               `json:"account,omitempty"` // empty for aggregate results
	Scopes           []string             `json:"scopes"`            // contributing scopes as source/account labels
	Segment          string               `json:"segment,omitempty"`
	Monthly          []MonthlyReturn      `json:"monthly"`
	TotalReturn      float64              `json:"totalReturn"` // chain-linked product, never a sum
	Benchmark        *BenchmarkComparison `json:"benchmark,omitempty"`
	Diagnostics      Diagnostics          `json:"diagnostics"`
	Warnings         []Warning            `json:"warnings"`
	AlgorithmVersion string               `json:"algorithmVersion"`
	ComputedAt       time.Time            `json:"computedAt"`
}
