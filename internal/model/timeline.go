package model

import "time"

// Synthetic entry kinds, recorded so diagnostics can distinguish why an
// entry was fabricated.
const (
	SyntheticInception = "inception" // fills a missing opening before observed history
	SyntheticBalancing = "balancing" // balances a close with no matched open
	SyntheticTransfer  = "transfer"  // paired acquisition for a non-economic transfer-in
)

// NeutralizationMode selects how incomplete trades (a close with no matched
// open) are handled. The mode is chosen once per request and passed down the
// pipeline; components never mix strategies within one run.
type NeutralizationMode string

const (
	// NeutralizeDropOrphans removes the raw legs that would create orphan
	// exposure after the unmatched close, keeping a counted warning per leg.
	NeutralizeDropOrphans NeutralizationMode = "drop_orphans"

	// NeutralizeInjectOpen injects a synthetic balancing open immediately
	// before the unmatched close, tagged SyntheticBalancing for diagnostics.
	NeutralizeInjectOpen NeutralizationMode = "inject_open"
)

// Valid reports whether m is a recognized neutralization mode.
func (m NeutralizationMode) Valid() bool {
	return m == NeutralizeDropOrphans || m == NeutralizeInjectOpen
}

// SymbolKey identifies one position timeline within an account scope.
type SymbolKey struct {
	Symbol    string `json:"symbol"`
	Currency  string `json:"currency"`
	Direction string `json:"direction"`
}

// PositionTimelineEntry is one position-changing event on a symbol's
// timeline. Real entries reference the canonical transaction they came from;
// synthetic entries carry an empty TransactionID and a SyntheticKind.
//
// Invariant: for a given key and account scope, a synthetic entry and a real
// entry must never represent the same economic event. Synthetic inceptions
// are only injected where no real opening exists at or before their anchor
// date; ValidateTimeline enforces this after construction.
type PositionTimelineEntry struct {
	Key           SymbolKey `json:"key"`
	Account       string    `json:"account"`
	QuantityDelta float64   `json:"quantityDelta"`
	Price         float64   `json:"price"` // unit valuation at the entry
	Timestamp     time.Time `json:"timestamp"`
	Synthetic     bool      `json:"synthetic"`
	SyntheticKind string    `json:"syntheticKind,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
}

// PositionTimeline is the arena of timeline entries for one account scope,
// indexed by symbol key. Entries per key are ordered by timestamp.
type PositionTimeline struct {
	Account string                                `json:"account"`
	Entries map[SymbolKey][]PositionTimelineEntry `json:"entries"`
}

// QuantityAt returns the held quantity for a key as of the given instant,
// summing all entry deltas at or before it.
func (tl *PositionTimeline) QuantityAt(key SymbolKey, at time.Time) float64 {
	var qty float64
	for _, e := range tl.Entries[key] {
		if e.Timestamp.After(at) {
			break
		}
		qty += e.QuantityDelta
	}
	return qty
}

// Keys returns every symbol key present in the timeline.
func (tl *PositionTimeline) Keys() []SymbolKey {
	keys := make([]SymbolKey, 0, len(tl.Entries))
	for k := range tl.Entries {
		keys = append(keys, k)
	}
	return keys
}
