package testutil

import (
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/marketdata"
)

// MockMarketDataProvider is a mock implementation of marketdata.Provider for
// testing. It returns predefined test data instead of making actual API calls.
type MockMarketDataProvider struct {
	// MockSeries is the series returned from MonthlyHistory
	MockSeries marketdata.ClosingSeries
	// MockQuote is the quote returned from LatestQuote
	MockQuote marketdata.Quote
	// MockError is the error to return from both methods
	MockError error
	// QueryCount tracks how many times a query method was called
	QueryCount int
}

// NewMockMarketDataProvider creates a mock provider with 12 months of
// default benchmark data ending last month.
func NewMockMarketDataProvider() *MockMarketDataProvider {
	series := CreateMockClosingSeries("TEST", 12, 100.0)
	quote, _ := series.Latest()
	return &MockMarketDataProvider{
		MockSeries: series,
		MockQuote:  quote,
	}
}

// MonthlyHistory returns the configured MockSeries and MockError.
func (m *MockMarketDataProvider) MonthlyHistory(_ string, _, _ time.Time) (marketdata.ClosingSeries, error) {
	m.QueryCount++
	if m.MockError != nil {
		return marketdata.ClosingSeries{}, m.MockError
	}
	return m.MockSeries, nil
}

// LatestQuote returns the configured MockQuote and MockError.
func (m *MockMarketDataProvider) LatestQuote(_ string) (marketdata.Quote, error) {
	m.QueryCount++
	if m.MockError != nil {
		return marketdata.Quote{}, m.MockError
	}
	return m.MockQuote, nil
}

// WithError configures the mock to return the specified error.
func (m *MockMarketDataProvider) WithError(err error) *MockMarketDataProvider {
	m.MockError = err
	return m
}

// WithSeries configures the mock to return the specified series.
func (m *MockMarketDataProvider) WithSeries(series marketdata.ClosingSeries) *MockMarketDataProvider {
	m.MockSeries = series
	return m
}

// CreateMockClosingSeries creates a monthly closing series with `months`
// values ending last month, rising 1% per month from basePrice.
func CreateMockClosingSeries(symbol string, months int, basePrice float64) marketdata.ClosingSeries {
	now := time.Now().UTC()
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	series := marketdata.ClosingSeries{
		Symbol:   symbol,
		Currency: "USD",
	}
	price := basePrice
	for i := months; i >= 1; i-- {
		series.Quotes = append(series.Quotes, marketdata.Quote{
			Date:  firstOfThisMonth.AddDate(0, -i, 0),
			Close: price,
		})
		price *= 1.01
	}
	return series
}
