package testutil

import (
	"database/sql"
	"testing"

	_ "modernc.org/sqlite" // Test Package
)

// SetupTestDB creates an in-memory SQLite database for testing.
// The database is automatically cleaned up when the test completes.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//	    // db is ready to use with schema created
//	}
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	// In-memory database (destroyed when connection closes)
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	// Configure SQLite for testing
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA timezone = 'UTC'",
		"PRAGMA journal_mode = MEMORY", // Faster for tests
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			t.Fatalf("Failed to set pragma: %v", err)
		}
	}

	// Create schema
	if err := createTestSchema(db); err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	// Cleanup when test ends
	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// createTestSchema creates all database tables for testing.
// Schema is synchronized with the embedded production migrations.
func createTestSchema(db *sql.DB) error {
	schema := `
		-- Canonical transaction ledger
		CREATE TABLE canonical_transaction (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			source VARCHAR(50) NOT NULL,
			account VARCHAR(50) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			direction VARCHAR(5) NOT NULL,
			type VARCHAR(15) NOT NULL,
			segment VARCHAR(10) NOT NULL,
			quantity FLOAT NOT NULL,
			price FLOAT NOT NULL,
			timestamp DATETIME NOT NULL,
			provenance VARCHAR(100)
		);

		-- Cash movement records
		CREATE TABLE flow_event (
			id VARCHAR(36) NOT NULL PRIMARY KEY,
			source VARCHAR(50) NOT NULL,
			account VARCHAR(50) NOT NULL,
			amount FLOAT NOT NULL,
			timestamp DATETIME NOT NULL,
			classification VARCHAR(20) NOT NULL,
			counterparty_account VARCHAR(50),
			is_external BOOLEAN NOT NULL,
			cash_confirmed BOOLEAN NOT NULL DEFAULT TRUE
		);

		-- Instrument valuations
		CREATE TABLE symbol_price (
			symbol VARCHAR(20) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			date DATE NOT NULL,
			price FLOAT NOT NULL,
			PRIMARY KEY (symbol, currency, date)
		);

		-- Benchmark index closes
		CREATE TABLE benchmark_price (
			ticker VARCHAR(20) NOT NULL,
			date DATE NOT NULL,
			close FLOAT NOT NULL,
			PRIMARY KEY (ticker, date)
		);

		-- Latest observed risk-free rate
		CREATE TABLE risk_free_rate (
			source VARCHAR(20) NOT NULL PRIMARY KEY,
			annual_rate FLOAT NOT NULL,
			observed_at DATETIME NOT NULL
		);

		-- Broker-reported current holdings
		CREATE TABLE position_snapshot (
			source VARCHAR(50) NOT NULL,
			account VARCHAR(50) NOT NULL,
			symbol VARCHAR(20) NOT NULL,
			currency VARCHAR(3) NOT NULL,
			direction VARCHAR(5) NOT NULL,
			segment VARCHAR(10) NOT NULL,
			quantity FLOAT NOT NULL,
			price FLOAT NOT NULL,
			as_of DATETIME NOT NULL,
			PRIMARY KEY (source, account, symbol, currency, direction)
		);

		-- Indexes for performance
		CREATE INDEX idx_canonical_transaction_source_account
			ON canonical_transaction (source, account, timestamp);
		CREATE INDEX idx_flow_event_source_account
			ON flow_event (source, account, timestamp);
	`

	_, err := db.Exec(schema)
	return err
}

// CleanDatabase truncates all tables.
// Useful for reusing the same database across multiple tests.
//
// Example usage:
//
//	func TestMultipleThings(t *testing.T) {
//	    db := testutil.SetupTestDB(t)
//
//	    t.Run("First test", func(t *testing.T) {
//	        // Create data
//	        testutil.CleanDatabase(t, db)  // Clean after
//	    })
//
//	    t.Run("Second test", func(t *testing.T) {
//	        // Fresh clean database
//	    })
//	}
func CleanDatabase(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{
		"canonical_transaction",
		"flow_event",
		"symbol_price",
		"benchmark_price",
		"risk_free_rate",
		"position_snapshot",
	}

	for _, table := range tables {
		query := "DELETE FROM " + table
		if _, err := db.Exec(query); err != nil {
			t.Fatalf("Failed to clean table %s: %v", table, err)
		}
	}
}

// CountRows returns the number of rows in a table.
// Useful for assertions in tests.
//
// Example usage:
//
//	count := testutil.CountRows(t, db, "canonical_transaction")
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var count int
	query := "SELECT COUNT(*) FROM " + table
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		t.Fatalf("Failed to count rows in %s: %v", table, err)
	}

	return count
}

// AssertRowCount asserts that a table has the expected number of rows.
//
// Example usage:
//
//	testutil.AssertRowCount(t, db, "flow_event", 2)
func AssertRowCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()

	actual := CountRows(t, db, table)
	if actual != expected {
		t.Errorf("Expected %d rows in %s, got %d", expected, table, actual)
	}
}
