package marketdata

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider fetches benchmark and rate series from an external market data
// source. The scheduler depends on this interface so tests can substitute a
// canned implementation without network access.
type Provider interface {
	// MonthlyHistory returns one closing value per month for the symbol over
	// the given date range.
	MonthlyHistory(symbol string, startDate, endDate time.Time) (ClosingSeries, error)

	// LatestQuote returns the most recent daily closing value for the symbol.
	LatestQuote(symbol string) (Quote, error)
}

// FinanceClient fetches closing-price series from the Yahoo Finance chart
// API. It wraps an HTTP client and provides the two query shapes the refresh
// job needs: monthly history for benchmarks and a latest daily quote for the
// risk-free yield.
type FinanceClient struct {
	httpClient *http.Client
}

// NewFinanceClient creates a new Yahoo Finance client with default HTTP settings.
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient() *FinanceClient {
	return &FinanceClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// MonthlyHistory fetches one closing value per month for a symbol within a
// date range, using the chart API's period-based query with a 1mo interval.
//
// Parameters:
//   - symbol: Ticker symbol (e.g., "^GSPC", "AAPL")
//   - startDate: Beginning of date range (inclusive)
//   - endDate: End of date range (inclusive)
//
// Returns:
//   - ClosingSeries: Parsed monthly closing series
//   - error: If the HTTP request fails, the API returns an error, or no results found
func (c *FinanceClient) MonthlyHistory(symbol string, startDate, endDate time.Time) (ClosingSeries, error) {
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1mo&period1=%d&period2=%d",
		symbol,
		startDate.Unix(),
		endDate.Unix(),
	)
	response, err := c.query(url)
	if err != nil {
		return ClosingSeries{}, err
	}
	return parseSeries(symbol, response)
}

// LatestQuote fetches the most recent daily close for a symbol, using the
// chart API's range-based query (range=5d) so weekends and holidays still
// yield a quote.
//
// Parameters:
//   - symbol: Ticker symbol (e.g., "^IRX")
//
// Returns:
//   - Quote: The most recent closing value
//   - error: If the HTTP request fails, the API returns an error, or no results found
func (c *FinanceClient) LatestQuote(symbol string) (Quote, error) {
	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s?interval=1d&range=5d", symbol)
	response, err := c.query(url)
	if err != nil {
		return Quote{}, err
	}
	series, err := parseSeries(symbol, response)
	if err != nil {
		return Quote{}, err
	}
	latest, ok := series.Latest()
	if !ok {
		return Quote{}, fmt.Errorf("no quotes returned for symbol %s", symbol)
	}
	return latest, nil
}

// parseSeries converts a raw chart API response into a ClosingSeries,
// validating that timestamps and close prices are present and aligned.
// Periods with a zero close (market holidays inside the range) are skipped.
func parseSeries(symbol string, response Response) (ClosingSeries, error) {
	if len(response.Chart.Result) == 0 {
		return ClosingSeries{}, fmt.Errorf("no results returned for symbol %s", symbol)
	}
	result := response.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return ClosingSeries{}, fmt.Errorf("no price data returned for symbol %s", symbol)
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return ClosingSeries{}, fmt.Errorf("no close prices returned for symbol %s", symbol)
	}
	if len(result.Indicators.Quote[0].Close) != len(result.Timestamp) {
		return ClosingSeries{}, fmt.Errorf("mismatched data lengths for symbol %s", symbol)
	}

	series := ClosingSeries{
		Symbol:   result.Meta.Symbol,
		Currency: result.Meta.Currency,
	}
	for i, ts := range result.Timestamp {
		closePrice := result.Indicators.Quote[0].Close[i]
		if closePrice == 0 {
			continue
		}
		series.Quotes = append(series.Quotes, Quote{
			Date:  time.Unix(ts, 0).UTC(),
			Close: closePrice,
		})
	}
	return series, nil
}

// query is an internal helper that executes HTTP requests to the chart API.
// It handles the common logic for making requests, reading responses,
// parsing JSON, and checking for API errors.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
func (c *FinanceClient) query(url string) (Response, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return Response{}, err
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, err
	}

	var response Response
	if err := json.Unmarshal(data, &response); err != nil {
		return Response{}, err
	}

	if response.Chart.Error != nil {
		return response, fmt.Errorf("market data error: %s", *response.Chart.Error)
	}

	return response, nil
}
