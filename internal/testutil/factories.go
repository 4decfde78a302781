package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// TransactionBuilder provides a fluent interface for creating canonical
// transactions in a test database.
//
// Example usage:
//
//	// Simple creation with defaults
//	tx := testutil.NewTransaction().Build(t, db)
//
//	// Customized transaction
//	tx := testutil.NewTransaction().
//	    WithAccount("U1111111").
//	    WithSymbol("AAPL").
//	    Sell(10, 150.0).
//	    On("2024-03-15").
//	    Build(t, db)
type TransactionBuilder struct {
	record model.CanonicalTransaction
}

// NewTransaction creates a TransactionBuilder with sensible defaults: a buy
// of 10 shares at 100.00 in the default test scope.
func NewTransaction() *TransactionBuilder {
	return &TransactionBuilder{
		record: model.CanonicalTransaction{
			ID:        MakeID(),
			Source:    "testbroker",
			Account:   "ACC-1",
			Symbol:    "TEST",
			Currency:  "USD",
			Direction: model.DirectionLong,
			Type:      model.TransactionBuy,
			Segment:   model.SegmentEquity,
			Quantity:  10,
			Price:     100.0,
			Timestamp: MustParseTime("2024-01-15"),
		},
	}
}

// WithSource sets the institution.
func (b *TransactionBuilder) WithSource(source string) *TransactionBuilder {
	b.record.Source = source
	return b
}

// WithAccount sets the account scope.
func (b *TransactionBuilder) WithAccount(account string) *TransactionBuilder {
	b.record.Account = account
	return b
}

// WithSymbol sets the instrument symbol.
func (b *TransactionBuilder) WithSymbol(symbol string) *TransactionBuilder {
	b.record.Symbol = symbol
	return b
}

// WithSegment sets the instrument segment.
func (b *TransactionBuilder) WithSegment(segment string) *TransactionBuilder {
	b.record.Segment = segment
	return b
}

// WithType sets the transaction type.
func (b *TransactionBuilder) WithType(txType string) *TransactionBuilder {
	b.record.Type = txType
	return b
}

// Buy makes the transaction a buy of the given quantity and price.
func (b *TransactionBuilder) Buy(quantity, price float64) *TransactionBuilder {
	b.record.Type = model.TransactionBuy
	b.record.Quantity = quantity
	b.record.Price = price
	return b
}

// Sell makes the transaction a sell of the given quantity and price.
func (b *TransactionBuilder) Sell(quantity, price float64) *TransactionBuilder {
	b.record.Type = model.TransactionSell
	b.record.Quantity = quantity
	b.record.Price = price
	return b
}

// TransferIn makes the transaction an inbound position transfer.
func (b *TransactionBuilder) TransferIn(quantity, price float64) *TransactionBuilder {
	b.record.Type = model.TransactionTransferIn
	b.record.Quantity = quantity
	b.record.Price = price
	return b
}

// TransferOut makes the transaction an outbound position transfer.
func (b *TransactionBuilder) TransferOut(quantity, price float64) *TransactionBuilder {
	b.record.Type = model.TransactionTransferOut
	b.record.Quantity = quantity
	b.record.Price = price
	return b
}

// On sets the transaction date from a YYYY-MM-DD string.
func (b *TransactionBuilder) On(date string) *TransactionBuilder {
	b.record.Timestamp = MustParseTime(date)
	return b
}

// Record returns the built record without storing it, for tests that feed
// the pipeline directly instead of through a repository.
func (b *TransactionBuilder) Record() model.CanonicalTransaction {
	return b.record
}

// Build stores the transaction in the database and returns it.
func (b *TransactionBuilder) Build(t *testing.T, db *sql.DB) model.CanonicalTransaction {
	t.Helper()

	query := `
		INSERT INTO canonical_transaction
			(id, source, account, symbol, currency, direction, type, segment,
			 quantity, price, timestamp, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	r := b.record
	_, err := db.Exec(query,
		r.ID, r.Source, r.Account, r.Symbol, r.Currency, r.Direction, r.Type,
		r.Segment, r.Quantity, r.Price, r.Timestamp.UTC().Format(time.RFC3339), r.Provenance)
	if err != nil {
		t.Fatalf("Failed to create test transaction: %v", err)
	}

	return r
}

// FlowEventBuilder provides a fluent interface for creating flow events in a
// test database.
//
// Example usage:
//
//	flow := testutil.NewFlowEvent().
//	    WithAccount("ACC-1").
//	    Contribution(1000).
//	    On("2024-01-05").
//	    Build(t, db)
type FlowEventBuilder struct {
	record model.CanonicalFlowEvent
}

// NewFlowEvent creates a FlowEventBuilder defaulting to an external
// contribution of 1000.00 in the default test scope.
func NewFlowEvent() *FlowEventBuilder {
	return &FlowEventBuilder{
		record: model.CanonicalFlowEvent{
			ID:             MakeID(),
			Source:         "testbroker",
			Account:        "ACC-1",
			Amount:         1000.0,
			Timestamp:      MustParseTime("2024-01-05"),
			Classification: model.FlowContribution,
			IsExternal:     true,
			CashConfirmed:  true,
		},
	}
}

// WithSource sets the institution.
func (b *FlowEventBuilder) WithSource(source string) *FlowEventBuilder {
	b.record.Source = source
	return b
}

// WithAccount sets the account scope.
func (b *FlowEventBuilder) WithAccount(account string) *FlowEventBuilder {
	b.record.Account = account
	return b
}

// Contribution makes the event an external contribution of the given amount.
func (b *FlowEventBuilder) Contribution(amount float64) *FlowEventBuilder {
	b.record.Classification = model.FlowContribution
	b.record.Amount = amount
	b.record.IsExternal = true
	return b
}

// Withdrawal makes the event an external withdrawal of the given amount.
func (b *FlowEventBuilder) Withdrawal(amount float64) *FlowEventBuilder {
	b.record.Classification = model.FlowWithdrawal
	b.record.Amount = -amount
	b.record.IsExternal = true
	return b
}

// InternalTransfer makes the event a transfer with the given signed amount
// and counterparty account.
func (b *FlowEventBuilder) InternalTransfer(amount float64, counterparty string) *FlowEventBuilder {
	b.record.Classification = model.FlowInternalTransfer
	b.record.Amount = amount
	b.record.CounterpartyAccount = counterparty
	b.record.IsExternal = false
	return b
}

// On sets the event date from a YYYY-MM-DD string.
func (b *FlowEventBuilder) On(date string) *FlowEventBuilder {
	b.record.Timestamp = MustParseTime(date)
	return b
}

// Record returns the built record without storing it.
func (b *FlowEventBuilder) Record() model.CanonicalFlowEvent {
	return b.record
}

// Build stores the flow event in the database and returns it.
func (b *FlowEventBuilder) Build(t *testing.T, db *sql.DB) model.CanonicalFlowEvent {
	t.Helper()

	query := `
		INSERT INTO flow_event
			(id, source, account, amount, timestamp, classification,
			 counterparty_account, is_external, cash_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	r := b.record
	_, err := db.Exec(query,
		r.ID, r.Source, r.Account, r.Amount, r.Timestamp.UTC().Format(time.RFC3339),
		r.Classification, r.CounterpartyAccount, r.IsExternal, r.CashConfirmed)
	if err != nil {
		t.Fatalf("Failed to create test flow event: %v", err)
	}

	return r
}

// SnapshotBuilder provides a fluent interface for creating broker-reported
// holdings in a test database.
type SnapshotBuilder struct {
	record model.PositionSnapshot
}

// NewSnapshot creates a SnapshotBuilder defaulting to 10 shares of TEST in
// the default test scope.
func NewSnapshot() *SnapshotBuilder {
	return &SnapshotBuilder{
		record: model.PositionSnapshot{
			Source:    "testbroker",
			Account:   "ACC-1",
			Symbol:    "TEST",
			Currency:  "USD",
			Direction: model.DirectionLong,
			Segment:   model.SegmentEquity,
			Quantity:  10,
			Price:     100.0,
			AsOf:      MustParseTime("2024-06-30"),
		},
	}
}

// WithSource sets the institution.
func (b *SnapshotBuilder) WithSource(source string) *SnapshotBuilder {
	b.record.Source = source
	return b
}

// WithAccount sets the account scope.
func (b *SnapshotBuilder) WithAccount(account string) *SnapshotBuilder {
	b.record.Account = account
	return b
}

// WithSymbol sets the instrument symbol.
func (b *SnapshotBuilder) WithSymbol(symbol string) *SnapshotBuilder {
	b.record.Symbol = symbol
	return b
}

// WithSegment sets the instrument segment.
func (b *SnapshotBuilder) WithSegment(segment string) *SnapshotBuilder {
	b.record.Segment = segment
	return b
}

// Holding sets the reported quantity and unit price.
func (b *SnapshotBuilder) Holding(quantity, price float64) *SnapshotBuilder {
	b.record.Quantity = quantity
	b.record.Price = price
	return b
}

// AsOf sets the report date from a YYYY-MM-DD string.
func (b *SnapshotBuilder) AsOf(date string) *SnapshotBuilder {
	b.record.AsOf = MustParseTime(date)
	return b
}

// Record returns the built record without storing it.
func (b *SnapshotBuilder) Record() model.PositionSnapshot {
	return b.record
}

// Build stores the snapshot in the database and returns it.
func (b *SnapshotBuilder) Build(t *testing.T, db *sql.DB) model.PositionSnapshot {
	t.Helper()

	query := `
		INSERT INTO position_snapshot
			(source, account, symbol, currency, direction, segment, quantity, price, as_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	r := b.record
	_, err := db.Exec(query,
		r.Source, r.Account, r.Symbol, r.Currency, r.Direction, r.Segment,
		r.Quantity, r.Price, r.AsOf.UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test snapshot: %v", err)
	}

	return r
}

// Convenience functions

// CreateSymbolPrice stores one symbol price point.
//
// Example usage:
//
//	testutil.CreateSymbolPrice(t, db, "TEST", "2024-01-31", 105.0)
func CreateSymbolPrice(t *testing.T, db *sql.DB, symbol, date string, price float64) model.SymbolPrice {
	t.Helper()

	p := model.SymbolPrice{
		Symbol:   symbol,
		Currency: "USD",
		Date:     MustParseTime(date),
		Price:    price,
	}

	_, err := db.Exec(`
		INSERT INTO symbol_price (symbol, currency, date, price)
		VALUES (?, ?, ?, ?)
	`, p.Symbol, p.Currency, p.Date.UTC().Format("2006-01-02"), p.Price)
	if err != nil {
		t.Fatalf("Failed to create test symbol price: %v", err)
	}

	return p
}

// CreateBenchmarkPrice stores one benchmark close.
func CreateBenchmarkPrice(t *testing.T, db *sql.DB, ticker, date string, close float64) model.BenchmarkPrice {
	t.Helper()

	p := model.BenchmarkPrice{
		Ticker: ticker,
		Date:   MustParseTime(date),
		Close:  close,
	}

	_, err := db.Exec(`
		INSERT INTO benchmark_price (ticker, date, close)
		VALUES (?, ?, ?)
	`, p.Ticker, p.Date.UTC().Format("2006-01-02"), p.Close)
	if err != nil {
		t.Fatalf("Failed to create test benchmark price: %v", err)
	}

	return p
}

// CreateRiskFreeRate stores the annual risk-free rate for a rate source.
func CreateRiskFreeRate(t *testing.T, db *sql.DB, source string, annualRate float64) {
	t.Helper()

	_, err := db.Exec(`
		INSERT INTO risk_free_rate (source, annual_rate, observed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			annual_rate = excluded.annual_rate,
			observed_at = excluded.observed_at
	`, source, annualRate, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		t.Fatalf("Failed to create test risk-free rate: %v", err)
	}
}
