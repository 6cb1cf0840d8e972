package progress

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/storage"
)

// SQLiteStore implements Store on the SQLite completion_events table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a Store backed by SQLite.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Insert(ctx context.Context, e Event) (bool, error) {
	query := `
		INSERT INTO completion_events (user_id, tool_id, action_key, first_occurred_at, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, tool_id, action_key) DO NOTHING`

	var metadata sql.NullString
	if len(e.Metadata) > 0 {
		metadata = sql.NullString{String: string(e.Metadata), Valid: true}
	}

	res, err := s.db.ExecContext(ctx, query,
		e.UserID.String(), string(e.ToolID), e.ActionKey, e.FirstOccurredAt.UTC().UnixMilli(), metadata)
	if err != nil {
		return false, storage.Unavailable("insert completion", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storage.Unavailable("insert completion", err)
	}
	return n == 1, nil
}

func (s *SQLiteStore) List(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) ([]Event, error) {
	query := `
		SELECT action_key, first_occurred_at, metadata
		FROM completion_events
		WHERE user_id = ? AND tool_id = ?
		ORDER BY first_occurred_at, action_key`

	rows, err := s.db.QueryContext(ctx, query, userID.String(), string(toolID))
	if err != nil {
		return nil, storage.Unavailable("list completions", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        = Event{UserID: userID, ToolID: toolID}
			at       int64
			metadata sql.NullString
		)
		if err := rows.Scan(&e.ActionKey, &at, &metadata); err != nil {
			return nil, fmt.Errorf("scanning completion row: %w", err)
		}
		e.FirstOccurredAt = time.UnixMilli(at).UTC()
		if metadata.Valid {
			e.Metadata = []byte(metadata.String)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("list completions", err)
	}
	return events, nil
}
