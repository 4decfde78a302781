package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// TransactionRepository provides data access methods for the
// canonical_transaction table. It handles retrieving full transaction
// histories grouped by account scope.
type TransactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository creates a new TransactionRepository with the provided database connection.
func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// GetTransactions retrieves the complete transaction history for an
// institution, sorted by timestamp ascending and grouped by scope key.
// Passing an empty source (or "all") returns records from every institution;
// the grouping key carries the source so equally named accounts at different
// institutions stay separate.
//
// The full history is always loaded; callers that serve a date-filtered
// request filter outputs, never inputs, so timeline reconstruction keeps
// every matched position intact.
func (s *TransactionRepository) GetTransactions(source string) (map[model.ScopeKey][]model.CanonicalTransaction, error) {
	query := `
		SELECT id, source, account, symbol, currency, direction, type, segment,
		       quantity, price, timestamp, provenance
		FROM canonical_transaction
	`
	var args []any
	if source != "" && source != "all" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query canonical_transaction table: %w", err)
	}
	defer rows.Close()

	transactionsByScope := make(map[model.ScopeKey][]model.CanonicalTransaction)

	for rows.Next() {
		var t model.CanonicalTransaction
		var timestampStr string
		var provenance sql.NullString

		err := rows.Scan(
			&t.ID,
			&t.Source,
			&t.Account,
			&t.Symbol,
			&t.Currency,
			&t.Direction,
			&t.Type,
			&t.Segment,
			&t.Quantity,
			&t.Price,
			&timestampStr,
			&provenance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan canonical_transaction table results: %w", err)
		}
		t.Timestamp, err = ParseTime(timestampStr)
		if err != nil || t.Timestamp.IsZero() {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		if provenance.Valid {
			t.Provenance = provenance.String
		}

		key := model.ScopeKey{Source: t.Source, Account: t.Account}
		transactionsByScope[key] = append(transactionsByScope[key], t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating canonical_transaction table: %w", err)
	}

	return transactionsByScope, nil
}

// GetAccounts returns the distinct account scopes known for an institution,
// discovered from both the transaction ledger and the flow event log.
func (s *TransactionRepository) GetAccounts(source string) ([]string, error) {
	query := `
		SELECT account FROM canonical_transaction WHERE source = ?
		UNION
		SELECT account FROM flow_event WHERE source = ?
		ORDER BY account ASC
	`
	rows, err := s.db.Query(query, source, source)
	if err != nil {
		return nil, fmt.Errorf("failed to query account scopes: %w", err)
	}
	defer rows.Close()

	accounts := []string{}
	for rows.Next() {
		var account string
		if err := rows.Scan(&account); err != nil {
			return nil, fmt.Errorf("failed to scan account scope: %w", err)
		}
		accounts = append(accounts, account)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating account scopes: %w", err)
	}

	return accounts, nil
}

// GetSources returns the distinct institutions present in the ledger.
func (s *TransactionRepository) GetSources() ([]string, error) {
	rows, err := s.db.Query(`
		SELECT source FROM canonical_transaction
		UNION
		SELECT source FROM flow_event
		ORDER BY source ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sources: %w", err)
	}
	defer rows.Close()

	sources := []string{}
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, fmt.Errorf("failed to scan source: %w", err)
		}
		sources = append(sources, source)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sources: %w", err)
	}

	return sources, nil
}

// InsertTransaction stores a canonical transaction. Used by the
// normalization layer; records are immutable once written.
func (s *TransactionRepository) InsertTransaction(ctx context.Context, t *model.CanonicalTransaction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO canonical_transaction
			(id, source, account, symbol, currency, direction, type, segment,
			 quantity, price, timestamp, provenance)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID,
		t.Source,
		t.Account,
		t.Symbol,
		t.Currency,
		t.Direction,
		t.Type,
		t.Segment,
		t.Quantity,
		t.Price,
		t.Timestamp.UTC().Format(time.RFC3339),
		t.Provenance,
	)
	if err != nil {
		return fmt.Errorf("failed to insert canonical transaction: %w", err)
	}
	return nil
}
