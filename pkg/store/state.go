package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// stateRowKey is the single live state row's primary key. Only one row
// is ever live (spec.md §3); "previous N are kept for audit" is served
// by event_history/action_history/cci_history rather than multiple
// state rows, avoiding a second versioning scheme.
const stateRowKey = "live"

// LoadState reads the current live state snapshot, returning an empty
// snapshot if none has been written yet.
func (s *Store) LoadState(ctx context.Context) (models.StateSnapshot, error) {
	row := s.db.QueryRowContext(ctx, `SELECT json FROM state WHERE key = ?`, stateRowKey)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return models.StateSnapshot{}, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return snapshot, nil
}

// loadStateTx reads the live state snapshot inside an existing write
// transaction, giving a read-then-write caller (e.g. the approval gate's
// budget precondition check) a consistent view alongside its other
// writes.
func loadStateTx(ctx context.Context, tx *sql.Tx) (models.StateSnapshot, error) {
	row := tx.QueryRowContext(ctx, `SELECT json FROM state WHERE key = ?`, stateRowKey)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return models.StateSnapshot{}, nil
		}
		return nil, fmt.Errorf("load state: %w", err)
	}

	var snapshot models.StateSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return snapshot, nil
}

// saveStateTx upserts the live state row inside an existing write
// transaction. Unexported: callers always go through WriteTx so the
// state write is atomic with whatever event/action/transcript rows
// accompany it.
func saveStateTx(tx *sql.Tx, snapshot models.StateSnapshot) error {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO state (key, json, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET json = excluded.json, updated_at = excluded.updated_at`,
		stateRowKey, raw, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}
