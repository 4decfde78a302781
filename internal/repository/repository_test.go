package repository_test

import (
	"testing"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/repository"
	"github.com/jdewinter/Realized-Performance-Backend/internal/testutil"
)

// TestParseTime verifies both stored timestamp layouts parse to UTC.
func TestParseTime(t *testing.T) {
	t.Run("parses a bare date", func(t *testing.T) {
		parsed, err := repository.ParseTime("2024-03-15")
		if err != nil {
			t.Fatalf("ParseTime failed: %v", err)
		}
		if parsed.Day() != 15 || parsed.Location() != time.UTC {
			t.Errorf("Expected 2024-03-15 UTC, got %v", parsed)
		}
	})

	t.Run("parses an RFC3339 timestamp", func(t *testing.T) {
		parsed, err := repository.ParseTime("2024-03-15T09:30:00Z")
		if err != nil {
			t.Fatalf("ParseTime failed: %v", err)
		}
		if parsed.Hour() != 9 {
			t.Errorf("Expected 09:30 UTC, got %v", parsed)
		}
	})

	t.Run("rejects other layouts", func(t *testing.T) {
		if _, err := repository.ParseTime("15/03/2024"); err == nil {
			t.Error("Expected an error for an unsupported layout")
		}
	})
}

// TestTransactionRepository verifies storage round trips and the per-scope
// grouping the pipeline depends on.
func TestTransactionRepository(t *testing.T) {
	t.Run("groups transactions by scope in timestamp order", func(t *testing.T) {
		// Setup: interleaved records across two accounts.
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		testutil.NewTransaction().Buy(5, 100).On("2024-02-10").Build(t, db)
		testutil.NewTransaction().Buy(10, 90).On("2024-01-10").Build(t, db)
		testutil.NewTransaction().WithAccount("ACC-2").Buy(1, 50).On("2024-01-20").Build(t, db)

		// Execute
		byScope, err := repo.GetTransactions("testbroker")

		// Assert
		if err != nil {
			t.Fatalf("GetTransactions failed: %v", err)
		}
		if len(byScope) != 2 {
			t.Fatalf("Expected 2 scopes, got %d", len(byScope))
		}
		acc1 := byScope[model.ScopeKey{Source: "testbroker", Account: "ACC-1"}]
		if len(acc1) != 2 {
			t.Fatalf("Expected 2 ACC-1 transactions, got %d", len(acc1))
		}
		if !acc1[0].Timestamp.Before(acc1[1].Timestamp) {
			t.Error("Expected transactions ordered by timestamp")
		}
	})

	t.Run("equal account names across institutions group separately", func(t *testing.T) {
		// Setup: both institutions report an ACC-1.
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)
		testutil.NewTransaction().Build(t, db)
		testutil.NewTransaction().WithSource("otherbroker").Build(t, db)

		// Execute
		byScope, err := repo.GetTransactions("all")

		// Assert
		if err != nil {
			t.Fatalf("GetTransactions failed: %v", err)
		}
		if len(byScope) != 2 {
			t.Fatalf("Expected 2 scopes, got %d", len(byScope))
		}
		for _, source := range []string{"testbroker", "otherbroker"} {
			key := model.ScopeKey{Source: source, Account: "ACC-1"}
			if len(byScope[key]) != 1 {
				t.Errorf("Expected 1 transaction for %s, got %d", key, len(byScope[key]))
			}
		}
	})

	t.Run("unknown source yields an empty map", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewTransactionRepository(db)

		// Execute
		byScope, err := repo.GetTransactions("nobroker")

		// Assert
		if err != nil {
			t.Fatalf("GetTransactions failed: %v", err)
		}
		if len(byScope) != 0 {
			t.Errorf("Expected no scopes, got %v", byScope)
		}
	})
}

// TestPriceRepository verifies price retrieval ordering and the risk-free
// upsert.
func TestPriceRepository(t *testing.T) {
	t.Run("returns prices sorted ascending per symbol", func(t *testing.T) {
		// Setup: inserted out of order.
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)
		testutil.CreateSymbolPrice(t, db, "TEST", "2024-02-29", 110)
		testutil.CreateSymbolPrice(t, db, "TEST", "2024-01-31", 100)

		// Execute
		prices, err := repo.GetPrices([]string{"TEST"})

		// Assert
		if err != nil {
			t.Fatalf("GetPrices failed: %v", err)
		}
		series := prices["TEST"]
		if len(series) != 2 {
			t.Fatalf("Expected 2 prices, got %d", len(series))
		}
		if !series[0].Date.Before(series[1].Date) {
			t.Error("Expected prices sorted by date ascending")
		}
	})

	t.Run("empty symbol list skips the query", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)

		// Execute
		prices, err := repo.GetPrices(nil)

		// Assert
		if err != nil {
			t.Fatalf("GetPrices failed: %v", err)
		}
		if len(prices) != 0 {
			t.Errorf("Expected an empty map, got %v", prices)
		}
	})

	t.Run("risk-free upsert replaces the previous observation", func(t *testing.T) {
		// Setup
		db := testutil.SetupTestDB(t)
		repo := repository.NewPriceRepository(db)
		testutil.CreateRiskFreeRate(t, db, "^IRX", 0.05)
		testutil.CreateRiskFreeRate(t, db, "^IRX", 0.0425)

		// Execute
		rate, err := repo.GetRiskFreeRate("^IRX")

		// Assert
		if err != nil {
			t.Fatalf("GetRiskFreeRate failed: %v", err)
		}
		if rate != 0.0425 {
			t.Errorf("Expected the latest rate 0.0425, got %f", rate)
		}
		testutil.AssertRowCount(t, db, "risk_free_rate", 1)
	})
}
