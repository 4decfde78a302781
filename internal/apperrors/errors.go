package apperrors

import "errors"

// Domain entity errors represent missing or invalid entities in the system.
// These errors indicate that a requested resource does not exist.
var (
	// ErrSourceNotFound indicates that no records exist for the requested institution.
	ErrSourceNotFound = errors.New("source not found")

	// ErrAccountNotFound indicates that no records exist for the requested account scope.
	ErrAccountNotFound = errors.New("account scope not found")

	// ErrBenchmarkNotFound indicates that no price series exists for the requested benchmark ticker.
	ErrBenchmarkNotFound = errors.New("benchmark not found")
)

// Hard failure errors abort a request with a structured error naming the
// specific condition, rather than returning a number computed on degenerate
// input.
var (
	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (start date after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInsufficientBenchmarkOverlap indicates fewer aligned scope/benchmark
	// periods than the configured minimum; statistics on them would be
	// meaningless.
	ErrInsufficientBenchmarkOverlap = errors.New("insufficient overlapping benchmark data")

	// ErrNoPriceHistory indicates that no requested symbol has any survivable
	// price history, so no NAV series can be valued at all.
	ErrNoPriceHistory = errors.New("no price history for any requested symbol")

	// ErrNoRecords indicates that the requested scope has no canonical
	// records at all.
	ErrNoRecords = errors.New("no records for requested scope")

	// ErrInvalidNeutralizationMode indicates an unrecognized incomplete-trade
	// strategy was requested.
	ErrInvalidNeutralizationMode = errors.New("invalid neutralization mode")

	// ErrInvalidSegment indicates an unrecognized instrument segment filter.
	ErrInvalidSegment = errors.New("invalid segment filter")
)

// Operation failure errors represent system-level failures when retrieving
// or processing data.
var (
	ErrFailedToRetrieveTransactions = errors.New("failed to retrieve transactions")
	ErrFailedToRetrieveFlows        = errors.New("failed to retrieve flow events")
	ErrFailedToRetrieveSnapshots    = errors.New("failed to retrieve position snapshots")
	ErrFailedToRetrievePrices       = errors.New("failed to retrieve symbol prices")
	ErrFailedToRetrieveBenchmark    = errors.New("failed to retrieve benchmark series")
	ErrFailedToRetrieveRiskFree     = errors.New("failed to retrieve risk-free rate")
	ErrFailedToGetVersionInfo       = errors.New("failed to get version information")
)
