package service_test

import (
	"math"
	"testing"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
)

const returnTolerance = 1e-9

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func buildSeries(months []string, nav, netFlow, weightedFlow map[string]float64) *model.MonthlySeries {
	s := model.NewMonthlySeries("ACC-1")
	s.Months = months
	for m, v := range nav {
		s.NAV[m] = v
	}
	for m, v := range netFlow {
		s.NetFlow[m] = v
	}
	for m, v := range weightedFlow {
		s.WeightedFlow[m] = v
	}
	return s
}

// TestComputeMonthlyReturns verifies the Modified Dietz calculation across
// its branches.
// WHY: the bootstrap denominator, the denominator guard, and the long-only
// clamp are the three places where a naive implementation divides by zero or
// reports a return below -100%; each must be pinned down exactly.
func TestComputeMonthlyReturns(t *testing.T) {
	svc := service.NewReturnService(0.5)

	t.Run("inception month uses flow-based denominator", func(t *testing.T) {
		// Setup: 1000 contributed and invested in month one, NAV grows to
		// 1100 then falls to 1050 with no further flows.
		series := buildSeries(
			[]string{"2024-01", "2024-02", "2024-03"},
			map[string]float64{"2024-01": 1000, "2024-02": 1100, "2024-03": 1050},
			map[string]float64{"2024-01": 1000},
			map[string]float64{"2024-01": 1000},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if len(result.Monthly) != 3 {
			t.Fatalf("Expected 3 monthly returns, got %d", len(result.Monthly))
		}
		if !result.Monthly[0].Bootstrap {
			t.Error("Expected first month to be flagged as bootstrap")
		}
		if !almostEqual(result.Monthly[0].Return, 0.0, returnTolerance) {
			t.Errorf("Expected first month return 0, got %f", result.Monthly[0].Return)
		}
		if !almostEqual(result.Monthly[1].Return, 0.10, returnTolerance) {
			t.Errorf("Expected second month return 0.10, got %f", result.Monthly[1].Return)
		}
		if !almostEqual(result.Monthly[2].Return, -50.0/1100.0, returnTolerance) {
			t.Errorf("Expected third month return %f, got %f", -50.0/1100.0, result.Monthly[2].Return)
		}

		total := service.ChainLinked(result.Monthly)
		if !almostEqual(total, 0.05, returnTolerance) {
			t.Errorf("Expected chain-linked total 0.05, got %f", total)
		}
	})

	t.Run("bootstrap month with non-positive flow returns zero", func(t *testing.T) {
		// Setup: prior NAV is zero and the only flow is a withdrawal, so
		// there is no invested base to measure a return against.
		series := buildSeries(
			[]string{"2024-01"},
			map[string]float64{"2024-01": 500},
			map[string]float64{"2024-01": -200},
			map[string]float64{"2024-01": -200},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if !result.Monthly[0].Bootstrap {
			t.Error("Expected bootstrap flag")
		}
		if result.Monthly[0].Return != 0 {
			t.Errorf("Expected return 0 with non-positive bootstrap flow, got %f", result.Monthly[0].Return)
		}
	})

	t.Run("non-positive denominator returns zero instead of exploding", func(t *testing.T) {
		// Setup: a withdrawal large enough that prior NAV plus weighted flow
		// goes negative.
		series := buildSeries(
			[]string{"2024-01", "2024-02"},
			map[string]float64{"2024-01": 1000, "2024-02": 100},
			map[string]float64{"2024-01": 1000, "2024-02": -1600},
			map[string]float64{"2024-01": 1000, "2024-02": -1500},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if result.Monthly[1].Return != 0 {
			t.Errorf("Expected return 0 with non-positive denominator, got %f", result.Monthly[1].Return)
		}
	})

	t.Run("long-only return below -100 percent is clamped and flagged", func(t *testing.T) {
		// Setup: NAV collapses to zero after a mid-month contribution; the
		// raw Modified Dietz value is about -136%.
		series := buildSeries(
			[]string{"2024-01", "2024-02"},
			map[string]float64{"2024-01": 1000, "2024-02": 0},
			map[string]float64{"2024-01": 1000, "2024-02": 500},
			map[string]float64{"2024-01": 1000, "2024-02": 100},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if result.Monthly[1].Return != -1.0 {
			t.Errorf("Expected clamped return -1.0, got %f", result.Monthly[1].Return)
		}
		if !result.Monthly[1].Clamped {
			t.Error("Expected clamped flag on the month")
		}
		if result.ClampedReturns != 1 {
			t.Errorf("Expected 1 clamped return counted, got %d", result.ClampedReturns)
		}
		if !hasWarningCategory(result.Warnings, model.WarningClampedReturn) {
			t.Error("Expected a clamped_return warning")
		}
	})

	t.Run("short-capable scope is never clamped", func(t *testing.T) {
		// Setup: same collapse, but the scope holds short positions.
		series := buildSeries(
			[]string{"2024-01", "2024-02"},
			map[string]float64{"2024-01": 1000, "2024-02": 0},
			map[string]float64{"2024-01": 1000, "2024-02": 500},
			map[string]float64{"2024-01": 1000, "2024-02": 100},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, false)

		// Assert
		expected := (0.0 - 1000.0 - 500.0) / 1100.0
		if !almostEqual(result.Monthly[1].Return, expected, returnTolerance) {
			t.Errorf("Expected raw return %f, got %f", expected, result.Monthly[1].Return)
		}
		if result.Monthly[1].Clamped || result.ClampedReturns != 0 {
			t.Error("Expected no clamping for a short-capable scope")
		}
	})

	t.Run("extreme return is flagged but kept in the chain", func(t *testing.T) {
		// Setup: NAV doubles in one month with no flows, a +100% return
		// above the 50% threshold.
		series := buildSeries(
			[]string{"2024-01", "2024-02"},
			map[string]float64{"2024-01": 1000, "2024-02": 2000},
			map[string]float64{"2024-01": 1000},
			map[string]float64{"2024-01": 1000},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if !result.Monthly[1].Extreme {
			t.Error("Expected extreme flag on the month")
		}
		if result.ExtremeReturns != 1 {
			t.Errorf("Expected 1 extreme return counted, got %d", result.ExtremeReturns)
		}
		if !hasWarningCategory(result.Warnings, model.WarningExtremeReturn) {
			t.Error("Expected an extreme_return warning")
		}

		// The flagged month still compounds into the total.
		total := service.ChainLinked(result.Monthly)
		if !almostEqual(total, 1.0, returnTolerance) {
			t.Errorf("Expected chain-linked total 1.0, got %f", total)
		}
	})

	t.Run("reported values are rounded to cents", func(t *testing.T) {
		// Setup
		series := buildSeries(
			[]string{"2024-01"},
			map[string]float64{"2024-01": 1000.456789},
			map[string]float64{"2024-01": 1000.454},
			map[string]float64{"2024-01": 1000.454},
		)

		// Execute
		result := svc.ComputeMonthlyReturns(series, true)

		// Assert
		if result.Monthly[0].NAV != 1000.46 {
			t.Errorf("Expected NAV rounded to 1000.46, got %f", result.Monthly[0].NAV)
		}
		if result.Monthly[0].NetFlow != 1000.45 {
			t.Errorf("Expected net flow rounded to 1000.45, got %f", result.Monthly[0].NetFlow)
		}
	})
}

// TestChainLinked verifies total-return compounding.
// WHY: summing or averaging monthly returns is the classic reconstruction
// bug; only the product of growth factors survives a volatile series.
func TestChainLinked(t *testing.T) {
	t.Run("compounds instead of summing", func(t *testing.T) {
		monthly := []model.MonthlyReturn{
			{Month: "2024-01", Return: 0.10},
			{Month: "2024-02", Return: -0.10},
		}

		total := service.ChainLinked(monthly)

		// +10% then -10% is a net loss, not zero.
		if !almostEqual(total, -0.01, returnTolerance) {
			t.Errorf("Expected -0.01, got %f", total)
		}
	})

	t.Run("empty series totals zero", func(t *testing.T) {
		if total := service.ChainLinked(nil); total != 0 {
			t.Errorf("Expected 0 for empty series, got %f", total)
		}
	})
}

func hasWarningCategory(warnings []model.Warning, category string) bool {
	for _, w := range warnings {
		if w.Category == category {
			return true
		}
	}
	return false
}
