package progress

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/storage"
)

// PostgresStore implements Store on the completion_events table, whose
// primary key makes Insert an insert-if-absent.
type PostgresStore struct {
	db storage.DBTX
}

// NewPostgresStore creates a Store backed by PostgreSQL.
func NewPostgresStore(db storage.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, e Event) (bool, error) {
	query := `
		INSERT INTO completion_events (user_id, tool_id, action_key, first_occurred_at, metadata)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, tool_id, action_key) DO NOTHING`

	var metadata any
	if len(e.Metadata) > 0 {
		metadata = string(e.Metadata)
	}

	tag, err := s.db.Exec(ctx, query, e.UserID, string(e.ToolID), e.ActionKey, e.FirstOccurredAt.UTC(), metadata)
	if err != nil {
		return false, storage.Unavailable("insert completion", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) List(ctx context.Context, userID uuid.UUID, toolID catalog.ToolID) ([]Event, error) {
	query := `
		SELECT action_key, first_occurred_at, metadata
		FROM completion_events
		WHERE user_id = $1 AND tool_id = $2
		ORDER BY first_occurred_at, action_key`

	rows, err := s.db.Query(ctx, query, userID, string(toolID))
	if err != nil {
		return nil, storage.Unavailable("list completions", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e := Event{UserID: userID, ToolID: toolID}
		var metadata []byte
		if err := rows.Scan(&e.ActionKey, &e.FirstOccurredAt, &metadata); err != nil {
			return nil, fmt.Errorf("scanning completion row: %w", err)
		}
		e.FirstOccurredAt = e.FirstOccurredAt.UTC()
		e.Metadata = metadata
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storage.Unavailable("list completions", err)
	}
	return events, nil
}
