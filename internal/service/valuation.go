package service

import (
	"fmt"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// ValuationService marks reconstructed position timelines to market at
// month ends, producing the NAV side of each scope's monthly series.
type ValuationService struct{}

// NewValuationService creates a new ValuationService.
func NewValuationService() *ValuationService {
	return &ValuationService{}
}

// ValuationResult carries one scope's month-end NAV values plus the data
// quality measures of the pricing pass.
type ValuationResult struct {
	NAV             map[string]float64 // month key -> NAV
	ExcludedSymbols []string
	PricedPoints    int // symbol-months successfully priced
	RequiredPoints  int // symbol-months with a non-zero position
	Warnings        []model.Warning
}

// Coverage returns the data-coverage ratio, 1.0 when nothing needed pricing.
func (r *ValuationResult) Coverage() float64 {
	if r.RequiredPoints == 0 {
		return 1.0
	}
	return float64(r.PricedPoints) / float64(r.RequiredPoints)
}

// ValueTimeline computes the scope's NAV at the end of every month in the
// given calendar. Each held key contributes quantity times the last known
// price on or before month end (forward-fill); short-direction keys
// contribute negatively.
//
// Symbols with no price history at all are excluded from NAV entirely, each
// with one counted warning; partially priced symbols count unpriced months
// against the coverage ratio but are never dropped for months that do have
// a price.
func (s *ValuationService) ValueTimeline(
	timeline *model.PositionTimeline,
	pricesBySymbol map[string][]model.SymbolPrice,
	months []string,
) *ValuationResult {

	result := &ValuationResult{NAV: make(map[string]float64)}
	excluded := make(map[string]bool)

	for _, month := range months {
		end := model.MonthEnd(month)
		var nav float64

		for key, entries := range timeline.Entries {
			var qty float64
			for _, e := range entries {
				if e.Timestamp.After(end) {
					break
				}
				qty += e.QuantityDelta
			}
			if qty < qtyEpsilon && qty > -qtyEpsilon {
				continue
			}

			result.RequiredPoints++

			prices := pricesBySymbol[key.Symbol]
			if len(prices) == 0 {
				if !excluded[key.Symbol] {
					excluded[key.Symbol] = true
					result.ExcludedSymbols = append(result.ExcludedSymbols, key.Symbol)
					result.Warnings = append(result.Warnings, newWarning(
						model.WarningUnpriceableSymbol, end, key.Symbol, qty,
						fmt.Sprintf("no price history for %s; positions excluded from NAV", key.Symbol),
					))
				}
				continue
			}

			price := priceOnOrBefore(prices, month)
			if price <= 0 {
				continue
			}

			result.PricedPoints++
			if key.Direction == model.DirectionShort {
				nav -= qty * price
			} else {
				nav += qty * price
			}
		}

		result.NAV[month] = nav
	}

	return result
}

// priceOnOrBefore finds the most recent price on or before the month's end.
// Assumes prices are sorted ASC (oldest first). Returns 0 if no price
// exists on or before the target.
func priceOnOrBefore(prices []model.SymbolPrice, month string) float64 {
	end := model.MonthEnd(month)
	var latest float64

	for _, p := range prices {
		if p.Date.After(end) {
			break
		}
		latest = p.Price
	}

	return latest
}
