package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/apperrors"
	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// PriceRepository provides data access methods for the symbol_price,
// benchmark_price, and risk_free_rate tables.
type PriceRepository struct {
	db *sql.DB
}

// NewPriceRepository creates a new PriceRepository with the provided database connection.
func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetPrices retrieves the full price history for the given symbols, sorted
// by date ascending and grouped by symbol. If symbols is empty, returns an
// empty map. Sorting ASC lets valuation walk forward with forward-fill.
func (s *PriceRepository) GetPrices(symbols []string) (map[string][]model.SymbolPrice, error) {
	if len(symbols) == 0 {
		return make(map[string][]model.SymbolPrice), nil
	}

	placeholders := make([]string, len(symbols))
	for i := range placeholders {
		placeholders[i] = "?"
	}

	query := `
		SELECT symbol, currency, date, price
		FROM symbol_price
		WHERE symbol IN (` + strings.Join(placeholders, ",") + `)
		ORDER BY date ASC
	`

	args := make([]any, len(symbols))
	for i, sym := range symbols {
		args[i] = sym
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbol_price table: %w", err)
	}
	defer rows.Close()

	pricesBySymbol := make(map[string][]model.SymbolPrice)

	for rows.Next() {
		var p model.SymbolPrice
		var dateStr string

		if err := rows.Scan(&p.Symbol, &p.Currency, &dateStr, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan symbol_price table results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil || p.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		pricesBySymbol[p.Symbol] = append(pricesBySymbol[p.Symbol], p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbol_price table: %w", err)
	}

	return pricesBySymbol, nil
}

// UpsertPrice stores or replaces one symbol price point.
func (s *PriceRepository) UpsertPrice(p model.SymbolPrice) error {
	_, err := s.db.Exec(`
		INSERT INTO symbol_price (symbol, currency, date, price)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, currency, date) DO UPDATE SET price = excluded.price
	`, p.Symbol, p.Currency, p.Date.UTC().Format("2006-01-02"), p.Price)
	if err != nil {
		return fmt.Errorf("failed to upsert symbol price: %w", err)
	}
	return nil
}

// GetBenchmarkPrices retrieves the full close history for a benchmark
// ticker, sorted by date ascending.
func (s *PriceRepository) GetBenchmarkPrices(ticker string) ([]model.BenchmarkPrice, error) {
	rows, err := s.db.Query(`
		SELECT ticker, date, close
		FROM benchmark_price
		WHERE ticker = ?
		ORDER BY date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query benchmark_price table: %w", err)
	}
	defer rows.Close()

	prices := []model.BenchmarkPrice{}
	for rows.Next() {
		var p model.BenchmarkPrice
		var dateStr string

		if err := rows.Scan(&p.Ticker, &dateStr, &p.Close); err != nil {
			return nil, fmt.Errorf("failed to scan benchmark_price table results: %w", err)
		}
		p.Date, err = ParseTime(dateStr)
		if err != nil || p.Date.IsZero() {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}

		prices = append(prices, p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating benchmark_price table: %w", err)
	}

	return prices, nil
}

// UpsertBenchmarkPrice stores or replaces one benchmark close.
func (s *PriceRepository) UpsertBenchmarkPrice(p model.BenchmarkPrice) error {
	_, err := s.db.Exec(`
		INSERT INTO benchmark_price (ticker, date, close)
		VALUES (?, ?, ?)
		ON CONFLICT (ticker, date) DO UPDATE SET close = excluded.close
	`, p.Ticker, p.Date.UTC().Format("2006-01-02"), p.Close)
	if err != nil {
		return fmt.Errorf("failed to upsert benchmark price: %w", err)
	}
	return nil
}

// GetRiskFreeRate returns the latest stored annual risk-free rate for a
// rate source. Returns apperrors.ErrFailedToRetrieveRiskFree wrapping
// sql.ErrNoRows semantics when nothing has been stored yet.
func (s *PriceRepository) GetRiskFreeRate(source string) (float64, error) {
	var rate float64
	err := s.db.QueryRow(`
		SELECT annual_rate FROM risk_free_rate WHERE source = ?
	`, source).Scan(&rate)
	if err == sql.ErrNoRows {
		return 0, apperrors.ErrFailedToRetrieveRiskFree
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query risk_free_rate table: %w", err)
	}
	return rate, nil
}

// UpsertRiskFreeRate stores the latest observed annual risk-free rate.
func (s *PriceRepository) UpsertRiskFreeRate(source string, annualRate float64, observedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO risk_free_rate (source, annual_rate, observed_at)
		VALUES (?, ?, ?)
		ON CONFLICT (source) DO UPDATE SET
			annual_rate = excluded.annual_rate,
			observed_at = excluded.observed_at
	`, source, annualRate, observedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to upsert risk-free rate: %w", err)
	}
	return nil
}
