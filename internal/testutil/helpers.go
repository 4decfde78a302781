package testutil

import (
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jdewinter/Realized-Performance-Backend/internal/config"
	"github.com/jdewinter/Realized-Performance-Backend/internal/repository"
	"github.com/jdewinter/Realized-Performance-Backend/internal/service"
)

// TestEngineConfig returns the engine configuration used by test services.
// Values mirror the production defaults.
func TestEngineConfig() config.EngineConfig {
	return config.EngineConfig{
		ExtremeReturnThreshold: 0.5,
		RiskFreeFallbackRate:   0.03,
		NeutralizationMode:     "drop_orphans",
		MinBenchmarkOverlap:    3,
		LowCoverageThreshold:   0.8,
		DefaultBenchmark:       "^GSPC",
		CacheTTL:               time.Minute,
		RefreshCronSpec:        "30 5 * * *",
	}
}

func NewTestAggregateService(t *testing.T) *service.AggregateService {
	t.Helper()

	return service.NewAggregateService(
		service.NewTimelineService(),
		service.NewValuationService(),
		service.NewFlowService(),
	)
}

func NewTestPerformanceService(t *testing.T, db *sql.DB) *service.PerformanceService {
	t.Helper()

	return NewTestPerformanceServiceWithConfig(t, db, TestEngineConfig())
}

// NewTestPerformanceServiceWithConfig builds a fully wired PerformanceService
// on the given database with a custom engine configuration, for tests
// exercising threshold and mode knobs.
func NewTestPerformanceServiceWithConfig(t *testing.T, db *sql.DB, cfg config.EngineConfig) *service.PerformanceService {
	t.Helper()

	return service.NewPerformanceService(
		repository.NewTransactionRepository(db),
		repository.NewFlowRepository(db),
		repository.NewPriceRepository(db),
		repository.NewSnapshotRepository(db),
		NewTestAggregateService(t),
		service.NewReturnService(cfg.ExtremeReturnThreshold),
		service.NewBenchmarkService(cfg.MinBenchmarkOverlap),
		cfg,
	)
}

func NewTestSystemService(t *testing.T, db *sql.DB) *service.SystemService {
	t.Helper()

	return service.NewSystemService(db)
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MustParseTime parses a YYYY-MM-DD date string, panicking on malformed
// input. Only for use with literal dates in tests.
func MustParseTime(date string) time.Time {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic("testutil: bad date literal " + date)
	}
	return t.UTC()
}
