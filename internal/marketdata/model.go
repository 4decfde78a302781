package marketdata

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance
// chart API. The structure includes:
//   - Chart.Result: Array of result objects (typically contains one element)
//   - Chart.Result[].Meta: Symbol metadata (name, currency, exchange)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Closing price arrays
//   - Chart.Error: Optional error message from the API
type Response struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency     string `json:"currency"`
				Symbol       string `json:"symbol"`
				ExchangeName string `json:"exchangeName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *string `json:"error"`
	} `json:"chart"`
}

// ClosingSeries is the parsed internal representation of one instrument's
// closing-price history: the symbol metadata plus one Quote per period.
type ClosingSeries struct {
	Symbol   string  `json:"symbol"`
	Currency string  `json:"currency"`
	Quotes   []Quote `json:"quotes"`
}

// Quote is a single period's closing value.
type Quote struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Latest returns the most recent quote in the series.
func (s ClosingSeries) Latest() (Quote, bool) {
	if len(s.Quotes) == 0 {
		return Quote{}, false
	}
	return s.Quotes[len(s.Quotes)-1], true
}
