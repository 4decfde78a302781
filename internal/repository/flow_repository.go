package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jdewinter/Realized-Performance-Backend/internal/model"
)

// FlowRepository provides data access methods for the flow_event table.
type FlowRepository struct {
	db *sql.DB
}

// NewFlowRepository creates a new FlowRepository with the provided database connection.
func NewFlowRepository(db *sql.DB) *FlowRepository {
	return &FlowRepository{db: db}
}

// GetFlowEvents retrieves the complete flow event history for an
// institution, sorted by timestamp ascending and grouped by scope key.
// Passing an empty source (or "all") returns events from every institution,
// each attributed to its own (source, account) scope.
func (s *FlowRepository) GetFlowEvents(source string) (map[model.ScopeKey][]model.CanonicalFlowEvent, error) {
	query := `
		SELECT id, source, account, amount, timestamp, classification,
		       counterparty_account, is_external, cash_confirmed
		FROM flow_event
	`
	var args []any
	if source != "" && source != "all" {
		query += ` WHERE source = ?`
		args = append(args, source)
	}
	query += ` ORDER BY timestamp ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow_event table: %w", err)
	}
	defer rows.Close()

	flowsByScope := make(map[model.ScopeKey][]model.CanonicalFlowEvent)

	for rows.Next() {
		var f model.CanonicalFlowEvent
		var timestampStr string
		var counterparty sql.NullString

		err := rows.Scan(
			&f.ID,
			&f.Source,
			&f.Account,
			&f.Amount,
			&timestampStr,
			&f.Classification,
			&counterparty,
			&f.IsExternal,
			&f.CashConfirmed,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan flow_event table results: %w", err)
		}
		f.Timestamp, err = ParseTime(timestampStr)
		if err != nil || f.Timestamp.IsZero() {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		if counterparty.Valid {
			f.CounterpartyAccount = counterparty.String
		}

		key := model.ScopeKey{Source: f.Source, Account: f.Account}
		flowsByScope[key] = append(flowsByScope[key], f)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating flow_event table: %w", err)
	}

	return flowsByScope, nil
}

// InsertFlowEvent stores a canonical flow event. Used by the normalization
// layer; records are immutable once written.
func (s *FlowRepository) InsertFlowEvent(ctx context.Context, f *model.CanonicalFlowEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO flow_event
			(id, source, account, amount, timestamp, classification,
			 counterparty_account, is_external, cash_confirmed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		f.ID,
		f.Source,
		f.Account,
		f.Amount,
		f.Timestamp.UTC().Format(time.RFC3339),
		f.Classification,
		f.CounterpartyAccount,
		f.IsExternal,
		f.CashConfirmed,
	)
	if err != nil {
		return fmt.Errorf("failed to insert flow event: %w", err)
	}
	return nil
}
