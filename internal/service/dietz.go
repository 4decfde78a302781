package service

import (
	"fmt"
	"math"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// ReturnService converts a monthly NAV and flow series into per-period
// returns via Modified Dietz, with the safety clamps and diagnostic flags
// that keep implausible values visible instead of silently removed.
type ReturnService struct {
	extremeThreshold float64
}

// NewReturnService creates a ReturnService flagging any monthly return whose
// absolute value exceeds extremeThreshold.
func NewReturnService(extremeThreshold float64) *ReturnService {
	return &ReturnService{extremeThreshold: extremeThreshold}
}

// ReturnResult is the computed return series plus the counts that feed the
// result diagnostics.
type ReturnResult struct {
	Monthly        []model.MonthlyReturn
	ClampedReturns int
	ExtremeReturns int
	Warnings       []model.Warning
}

// ComputeMonthlyReturns produces one Modified Dietz return per month of the
// series, in calendar order.
//
// Bootstrap case (prior NAV near zero): the denominator is the period's net
// external flow; when that is non-positive the return is 0, never a divide
// by zero or negative. Otherwise the denominator is prior NAV plus the
// time-weighted flow, with the same non-positive guard.
//
// For long-only scopes any raw return below -100% is clamped to exactly
// -100% and flagged: a return cannot destroy more value than was invested.
// Returns beyond the extreme threshold are flagged, not removed; excluding
// extreme months from the chain corrupts the compounded series and produces
// materially wrong multi-month totals.
func (s *ReturnService) ComputeMonthlyReturns(series *model.MonthlySeries, longOnly bool) *ReturnResult {
	result := &ReturnResult{}

	var prior float64
	for _, month := range series.Months {
		nav := series.NAV[month]
		flow := series.NetFlow[month]
		weighted := series.WeightedFlow[month]

		mr := model.MonthlyReturn{
			Month:   month,
			NAV:     math.Round(nav*RoundingPrecision) / RoundingPrecision,
			NetFlow: math.Round(flow*RoundingPrecision) / RoundingPrecision,
		}

		if prior < navEpsilon {
			mr.Bootstrap = true
			if flow > 0 {
				mr.Return = (nav - flow) / flow
			}
		} else {
			denominator := prior + weighted
			if denominator > 0 {
				mr.Return = (nav - prior - flow) / denominator
			}
		}

		if longOnly && mr.Return < -1.0 {
			result.ClampedReturns++
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningClampedReturn, model.MonthEnd(month), "", mr.Return,
				fmt.Sprintf("return of %.2f%% in %s clamped to -100%%", mr.Return*100, month),
			))
			mr.Return = -1.0
			mr.Clamped = true
		}

		if math.Abs(mr.Return) > s.extremeThreshold {
			mr.Extreme = true
			result.ExtremeReturns++
			result.Warnings = append(result.Warnings, newWarning(
				model.WarningExtremeReturn, model.MonthEnd(month), "", mr.Return,
				fmt.Sprintf("extreme return of %.2f%% in %s; kept in chain, judge credibility per case", mr.Return*100, month),
			))
		}

		result.Monthly = append(result.Monthly, mr)
		prior = nav
	}

	return result
}

// ChainLinked compounds a return series into the total return,
// Π(1+r) - 1. Never a sum of returns, never an average.
func ChainLinked(monthly []model.MonthlyReturn) float64 {
	total := 1.0
	for _, m := range monthly {
		total *= 1 + m.Return
	}
	return total - 1
}
