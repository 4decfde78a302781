package model

import "time"

// Transaction types as delivered by the provider-normalization layer.
// The engine never parses broker payloads itself; these are the canonical
// types every institution's records are resolved into before they reach us.
const (
	TransactionBuy         = "buy"
	TransactionSell        = "sell"
	TransactionTransferIn  = "transfer_in"
	TransactionTransferOut = "transfer_out"
)

// Position directions.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Instrument segment tags used by the optional segment filter.
const (
	SegmentEquity = "equity"
	SegmentOption = "option"
)

// Flow event classifications.
const (
	FlowContribution     = "contribution"
	FlowWithdrawal       = "withdrawal"
	FlowInternalTransfer = "internal_transfer"
)

// ScopeKey identifies one account scope. Account identifiers are only
// unique within their institution, so the institution is part of the
// identity; two institutions reporting the same account name are distinct
// scopes whose position state must never mix.
type ScopeKey struct {
	Source  string `json:"source"`
	Account string `json:"account"`
}

// String returns the "source/account" label used in scope listings, series
// names, and warnings.
func (k ScopeKey) String() string {
	return k.Source + "/" + k.Account
}

// CanonicalTransaction is the unified representation of a position-changing
// broker record. Records are immutable once written by the normalization
// layer; every downstream component treats them as read-only.
type CanonicalTransaction struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`  // institution the record came from
	Account    string    `json:"account"` // account scope within the institution
	Symbol     string    `json:"symbol"`
	Currency   string    `json:"currency"`
	Direction  string    `json:"direction"` // long or short
	Type       string    `json:"type"`      // buy, sell, transfer_in, transfer_out
	Segment    string    `json:"segment"`   // instrument-type tag (equity, option)
	Quantity   float64   `json:"quantity"`
	Price      float64   `json:"price"`
	Timestamp  time.Time `json:"timestamp"`
	Provenance string    `json:"provenance"` // upstream record identifier for auditing
}

// CanonicalFlowEvent is a cash movement record. It is consumed only by the
// flow deriver and never mutates position state.
//
// Amount is signed from the account's point of view: positive for cash
// entering the account, negative for cash leaving it. For internal transfers
// CounterpartyAccount names the other side when the normalizer could resolve
// it; the flow deriver uses it to decide whether the transfer crosses the
// current aggregation boundary.
type CanonicalFlowEvent struct {
	ID                  string    `json:"id"`
	Source              string    `json:"source"`
	Account             string    `json:"account"`
	Amount              float64   `json:"amount"`
	Timestamp           time.Time `json:"timestamp"`
	Classification      string    `json:"classification"` // contribution, withdrawal, internal_transfer
	CounterpartyAccount string    `json:"counterpartyAccount,omitempty"`
	IsExternal          bool      `json:"isExternal"`
	CashConfirmed       bool      `json:"cashConfirmed"` // cash-basis certainty from the normalizer
}
