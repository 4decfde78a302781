package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// SnapshotRepository provides data access methods for the position_snapshot
// table of broker-reported current holdings.
type SnapshotRepository struct {
	db *sql.DB
}

// NewSnapshotRepository creates a new SnapshotRepository with the provided database connection.
func NewSnapshotRepository(db *sql.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// GetSnapshots retrieves current holdings for an institution, grouped by
// scope key. Passing an empty source (or "all") returns every holding, each
// attributed to its own (source, account) scope.
func (s *SnapshotRepository) GetSnapshots(source string) (map[model.ScopeKey][]model.PositionSnapshot, error) {
	query := `
		SELECT source, account, symbol, currency, direction, segment,
		       quantity, price, as_of
		FROM position_snapshot
	`
	var args []any
	if source != "" && source != "all" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY source ASC, account ASC, symbol ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query position_snapshot table: %w", err)
	}
	defer rows.Close()

	snapshotsByScope := make(map[model.ScopeKey][]model.PositionSnapshot)

	for rows.Next() {
		var p model.PositionSnapshot
		var asOfStr string

		err := rows.Scan(
			&p.Source,
			&p.Account,
			&p.Symbol,
			&p.Currency,
			&p.Direction,
			&p.Segment,
			&p.Quantity,
			&p.Price,
			&asOfStr,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position_snapshot table results: %w", err)
		}
		p.AsOf, err = ParseTime(asOfStr)
		if err != nil || p.AsOf.IsZero() {
			return nil, fmt.Errorf("failed to parse as_of: %w", err)
		}

		key := model.ScopeKey{Source: p.Source, Account: p.Account}
		snapshotsByScope[key] = append(snapshotsByScope[key], p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating position_snapshot table: %w", err)
	}

	return snapshotsByScope, nil
}

// UpsertSnapshot stores or replaces one reported holding.
func (s *SnapshotRepository) UpsertSnapshot(ctx context.Context, p model.PositionSnapshot) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO position_snapshot
			(source, account, symbol, currency, direction, segment, quantity, price, as_of)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, account, symbol, currency, direction) DO UPDATE SET
			segment = excluded.segment,
			quantity = excluded.quantity,
			price = excluded.price,
			as_of = excluded.as_of
	`,
		p.Source,
		p.Account,
		p.Symbol,
		p.Currency,
		p.Direction,
		p.Segment,
		p.Quantity,
		p.Price,
		p.AsOf.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert position snapshot: %w", err)
	}
	return nil
}
