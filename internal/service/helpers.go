package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// RoundingPrecision rounds reported monetary values to two decimal places.
const RoundingPrecision = 100

// Numeric tolerances. Quantities and cash amounts come from replayed broker
// records, so equality checks are always tolerance-based.
const (
	// qtyEpsilon is the smallest position quantity treated as non-zero.
	qtyEpsilon = 1e-9

	// navEpsilon is the prior-NAV magnitude below which a period is treated
	// as the bootstrap/inception case in Modified Dietz.
	navEpsilon = 1e-6

	// flowTolerance bounds the acceptable residual when internal transfers
	// inside one aggregation boundary are netted against each other.
	flowTolerance = 1e-6
)

// newWarning builds one audit-ready warning record. Date, symbol, and
// magnitude are optional context; zero values are omitted from JSON.
func newWarning(category string, date time.Time, symbol string, magnitude float64, message string) model.Warning {
	w := model.Warning{
		ID:        uuid.New().String(),
		Category:  category,
		Symbol:    symbol,
		Magnitude: magnitude,
		Message:   message,
	}
	if !date.IsZero() {
		w.Date = date.UTC().Format("2006-01-02")
	}
	return w
}
