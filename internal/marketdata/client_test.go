package marketdata

import (
	"encoding/json"
	"testing"
	"time"
)

func decodeResponse(t *testing.T, payload string) Response {
	t.Helper()

	var response Response
	if err := json.Unmarshal([]byte(payload), &response); err != nil {
		t.Fatalf("Failed to decode fixture: %v", err)
	}
	return response
}

// TestParseSeries verifies chart API payload parsing against the shapes the
// API actually produces, including the degenerate ones.
func TestParseSeries(t *testing.T) {
	t.Run("parses an aligned payload", func(t *testing.T) {
		// Setup: two monthly closes for ^GSPC.
		response := decodeResponse(t, `{
			"chart": {
				"result": [{
					"meta": {"currency": "USD", "symbol": "^GSPC", "exchangeName": "SNP"},
					"timestamp": [1704067200, 1706745600],
					"indicators": {"quote": [{"close": [4769.83, 5096.27]}]}
				}],
				"error": null
			}
		}`)

		// Execute
		series, err := parseSeries("^GSPC", response)

		// Assert
		if err != nil {
			t.Fatalf("parseSeries failed: %v", err)
		}
		if series.Symbol != "^GSPC" || series.Currency != "USD" {
			t.Errorf("Expected meta carried over, got %q/%q", series.Symbol, series.Currency)
		}
		if len(series.Quotes) != 2 {
			t.Fatalf("Expected 2 quotes, got %d", len(series.Quotes))
		}
		expectedDate := time.Unix(1704067200, 0).UTC()
		if !series.Quotes[0].Date.Equal(expectedDate) {
			t.Errorf("Expected date %v, got %v", expectedDate, series.Quotes[0].Date)
		}
		if series.Quotes[1].Close != 5096.27 {
			t.Errorf("Expected close 5096.27, got %f", series.Quotes[1].Close)
		}
	})

	t.Run("skips zero closes", func(t *testing.T) {
		// Setup: the middle period is a holiday with no close.
		response := decodeResponse(t, `{
			"chart": {
				"result": [{
					"meta": {"currency": "USD", "symbol": "TEST"},
					"timestamp": [1704067200, 1706745600, 1709251200],
					"indicators": {"quote": [{"close": [100.0, 0, 110.0]}]}
				}],
				"error": null
			}
		}`)

		// Execute
		series, err := parseSeries("TEST", response)

		// Assert
		if err != nil {
			t.Fatalf("parseSeries failed: %v", err)
		}
		if len(series.Quotes) != 2 {
			t.Errorf("Expected the zero close skipped, got %d quotes", len(series.Quotes))
		}
	})

	t.Run("rejects an empty result", func(t *testing.T) {
		// Setup
		response := decodeResponse(t, `{"chart": {"result": [], "error": null}}`)

		// Execute
		_, err := parseSeries("TEST", response)

		// Assert
		if err == nil {
			t.Error("Expected an error for an empty result")
		}
	})

	t.Run("rejects missing close prices", func(t *testing.T) {
		// Setup
		response := decodeResponse(t, `{
			"chart": {
				"result": [{
					"meta": {"currency": "USD", "symbol": "TEST"},
					"timestamp": [1704067200],
					"indicators": {"quote": []}
				}],
				"error": null
			}
		}`)

		// Execute
		_, err := parseSeries("TEST", response)

		// Assert
		if err == nil {
			t.Error("Expected an error for missing close prices")
		}
	})

	t.Run("rejects misaligned timestamps and closes", func(t *testing.T) {
		// Setup
		response := decodeResponse(t, `{
			"chart": {
				"result": [{
					"meta": {"currency": "USD", "symbol": "TEST"},
					"timestamp": [1704067200, 1706745600],
					"indicators": {"quote": [{"close": [100.0]}]}
				}],
				"error": null
			}
		}`)

		// Execute
		_, err := parseSeries("TEST", response)

		// Assert
		if err == nil {
			t.Error("Expected an error for misaligned arrays")
		}
	})
}

// TestClosingSeriesLatest verifies the latest-quote accessor.
func TestClosingSeriesLatest(t *testing.T) {
	t.Run("returns the last quote", func(t *testing.T) {
		series := ClosingSeries{Quotes: []Quote{
			{Date: time.Unix(1704067200, 0).UTC(), Close: 100},
			{Date: time.Unix(1706745600, 0).UTC(), Close: 110},
		}}

		latest, ok := series.Latest()
		if !ok || latest.Close != 110 {
			t.Errorf("Expected the last quote, got %+v (ok=%v)", latest, ok)
		}
	})

	t.Run("reports an empty series", func(t *testing.T) {
		if _, ok := (ClosingSeries{}).Latest(); ok {
			t.Error("Expected ok=false for an empty series")
		}
	})
}
