package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// insertEventTx appends a normalized event to the append-only events
// table. Events are never deduplicated (spec.md §8: re-POSTing the same
// envelope yields a new event_id), so this is always an insert, never
// an upsert.
func insertEventTx(tx *sql.Tx, event models.Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO events (event_id, type, source, ts, json) VALUES (?, ?, ?, ?, ?)`,
		event.EventID, event.Type, event.Source, event.Ts, raw,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// GetEvent looks up a single event by id, used by EPL's idempotence
// check (re-normalizing an already-normalized event is a no-op).
func (s *Store) GetEvent(ctx context.Context, eventID string) (models.Event, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT json FROM events WHERE event_id = ?`, eventID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return models.Event{}, false, nil
		}
		return models.Event{}, false, fmt.Errorf("get event: %w", err)
	}

	var event models.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return models.Event{}, false, fmt.Errorf("unmarshal event: %w", err)
	}
	return event, true, nil
}
