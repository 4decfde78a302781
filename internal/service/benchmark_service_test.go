package service_test

import (
	"errors"
	"math"
	"testing"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
	"github.com/jdewinter/Realized-Performance-Backend/internal/testutil"
)

func benchmarkClose(date string, close float64) model.BenchmarkPrice {
	return model.BenchmarkPrice{Ticker: "^GSPC", Date: testutil.MustParseTime(date), Close: close}
}

// TestCompare verifies benchmark alignment and the comparison statistics.
// WHY: every statistic here is presented to the user as analysis; each is
// pinned against hand-computed values on a short known series so a formula
// regression cannot hide behind plausible-looking output.
func TestCompare(t *testing.T) {
	svc := service.NewBenchmarkService(3)

	// Closes producing monthly benchmark returns of +1%, +2%, -1% for
	// 2024-01 through 2024-03. The December close seeds the first return.
	closes := []model.BenchmarkPrice{
		benchmarkClose("2023-12-29", 100),
		benchmarkClose("2024-01-31", 101),
		benchmarkClose("2024-02-29", 103.02),
		benchmarkClose("2024-03-28", 101.9898),
	}

	t.Run("insufficient overlap is rejected", func(t *testing.T) {
		// Setup: only two scope months align with the benchmark.
		monthly := []model.MonthlyReturn{
			{Month: "2024-01", Return: 0.01},
			{Month: "2024-02", Return: 0.02},
		}

		// Execute
		_, err := svc.Compare("^GSPC", closes, monthly, 0.02)

		// Assert
		if !errors.Is(err, apperrors.ErrInsufficientBenchmarkOverlap) {
			t.Errorf("Expected ErrInsufficientBenchmarkOverlap, got %v", err)
		}
	})

	t.Run("tracking the benchmark yields beta one and zero alpha", func(t *testing.T) {
		// Setup: the scope reproduces the benchmark exactly.
		monthly := []model.MonthlyReturn{
			{Month: "2024-01", Return: 0.01},
			{Month: "2024-02", Return: 0.02},
			{Month: "2024-03", Return: -0.01},
		}

		// Execute
		comparison, err := svc.Compare("^GSPC", closes, monthly, 0.02)

		// Assert
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		if comparison.AlignedPeriods != 3 {
			t.Errorf("Expected 3 aligned periods, got %d", comparison.AlignedPeriods)
		}

		expectedTotal := 1.01*1.02*0.99 - 1
		if !almostEqual(comparison.TotalReturn, expectedTotal, 1e-9) {
			t.Errorf("Expected total return %f, got %f", expectedTotal, comparison.TotalReturn)
		}
		if !almostEqual(comparison.BenchmarkTotalReturn, expectedTotal, 1e-6) {
			t.Errorf("Expected matching benchmark total, got %f", comparison.BenchmarkTotalReturn)
		}

		expectedAnnualized := math.Pow(1+expectedTotal, 4) - 1
		if !almostEqual(comparison.AnnualizedReturn, expectedAnnualized, 1e-9) {
			t.Errorf("Expected annualized return %f, got %f", expectedAnnualized, comparison.AnnualizedReturn)
		}

		// Sample stdev of [0.01, 0.02, -0.01] scaled to annual.
		expectedVolatility := math.Sqrt(2.333333333333333e-4) * math.Sqrt(12)
		if !almostEqual(comparison.Volatility, expectedVolatility, 1e-9) {
			t.Errorf("Expected volatility %f, got %f", expectedVolatility, comparison.Volatility)
		}

		expectedSharpe := (comparison.AnnualizedReturn - 0.02) / comparison.Volatility
		if !almostEqual(comparison.SharpeRatio, expectedSharpe, 1e-9) {
			t.Errorf("Expected Sharpe %f, got %f", expectedSharpe, comparison.SharpeRatio)
		}

		if !almostEqual(comparison.Beta, 1.0, 1e-6) {
			t.Errorf("Expected beta 1, got %f", comparison.Beta)
		}
		if !almostEqual(comparison.Alpha, 0.0, 1e-5) {
			t.Errorf("Expected alpha 0, got %f", comparison.Alpha)
		}

		// The only decline is the final -1% month.
		if !almostEqual(comparison.MaxDrawdown, -0.01, 1e-9) {
			t.Errorf("Expected max drawdown -0.01, got %f", comparison.MaxDrawdown)
		}

		if comparison.RiskFreeRate != 0.02 {
			t.Errorf("Expected risk-free rate carried through, got %f", comparison.RiskFreeRate)
		}
	})

	t.Run("scope months without a benchmark return are skipped", func(t *testing.T) {
		// Setup: 2023-12 has a close but no prior month, and 2024-04 has
		// no benchmark data; neither can align.
		monthly := []model.MonthlyReturn{
			{Month: "2023-12", Return: 0.05},
			{Month: "2024-01", Return: 0.01},
			{Month: "2024-02", Return: 0.02},
			{Month: "2024-03", Return: -0.01},
			{Month: "2024-04", Return: 0.03},
		}

		// Execute
		comparison, err := svc.Compare("^GSPC", closes, monthly, 0.02)

		// Assert
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		if comparison.AlignedPeriods != 3 {
			t.Errorf("Expected 3 aligned periods, got %d", comparison.AlignedPeriods)
		}
	})

	t.Run("zero volatility yields zero sharpe", func(t *testing.T) {
		// Setup: a perfectly flat scope return series.
		monthly := []model.MonthlyReturn{
			{Month: "2024-01", Return: 0},
			{Month: "2024-02", Return: 0},
			{Month: "2024-03", Return: 0},
		}

		// Execute
		comparison, err := svc.Compare("^GSPC", closes, monthly, 0.02)

		// Assert
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		if comparison.Volatility != 0 {
			t.Errorf("Expected zero volatility, got %f", comparison.Volatility)
		}
		if comparison.SharpeRatio != 0 {
			t.Errorf("Expected zero Sharpe for zero volatility, got %f", comparison.SharpeRatio)
		}
	})

	t.Run("the last close inside a month stands for its month end", func(t *testing.T) {
		// Setup: two January closes; only the later one should seed the
		// February return.
		withMidMonth := []model.BenchmarkPrice{
			benchmarkClose("2024-01-15", 90),
			benchmarkClose("2024-01-31", 100),
			benchmarkClose("2024-02-29", 110),
			benchmarkClose("2024-03-28", 110),
			benchmarkClose("2024-04-30", 110),
		}
		monthly := []model.MonthlyReturn{
			{Month: "2024-02", Return: 0.10},
			{Month: "2024-03", Return: 0.0},
			{Month: "2024-04", Return: 0.0},
		}

		// Execute
		comparison, err := svc.Compare("^GSPC", withMidMonth, monthly, 0.0)

		// Assert
		if err != nil {
			t.Fatalf("Compare failed: %v", err)
		}
		// February benchmark return is 110/100, not 110/90.
		if !almostEqual(comparison.BenchmarkTotalReturn, 0.10, 1e-9) {
			t.Errorf("Expected benchmark total 0.10, got %f", comparison.BenchmarkTotalReturn)
		}
	})
}
