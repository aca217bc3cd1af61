package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// insertTranscriptTx appends one transcript item and returns it with its
// store-assigned cursor, the single source of truth for stream/catch-up
// ordering (spec.md §3, §6).
func insertTranscriptTx(tx *sql.Tx, item models.TranscriptItem) (models.TranscriptItem, error) {
	raw, err := json.Marshal(item.Payload)
	if err != nil {
		return models.TranscriptItem{}, fmt.Errorf("marshal transcript payload: %w", err)
	}

	res, err := tx.Exec(
		`INSERT INTO transcript (ts, kind, agent, correlation_id, decision_id, payload_json) VALUES (?, ?, ?, ?, ?, ?)`,
		item.Ts, item.Kind, item.Agent, item.CorrelationID, item.DecisionID, raw,
	)
	if err != nil {
		return models.TranscriptItem{}, fmt.Errorf("insert transcript item: %w", err)
	}

	cursor, err := res.LastInsertId()
	if err != nil {
		return models.TranscriptItem{}, fmt.Errorf("read transcript cursor: %w", err)
	}
	item.Cursor = cursor
	return item, nil
}

// TranscriptSince returns every transcript item with cursor > since,
// ordered oldest-first, backing the catch-up query a reconnecting
// SSE/WebSocket client issues before resuming the live stream.
func (s *Store) TranscriptSince(ctx context.Context, since int64) ([]models.TranscriptItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cursor, ts, kind, agent, correlation_id, decision_id, payload_json
		 FROM transcript WHERE cursor > ? ORDER BY cursor ASC`, since)
	if err != nil {
		return nil, fmt.Errorf("query transcript since %d: %w", since, err)
	}
	defer rows.Close()

	var items []models.TranscriptItem
	for rows.Next() {
		var item models.TranscriptItem
		var agent, correlationID, decisionID sql.NullString
		var raw []byte
		if err := rows.Scan(&item.Cursor, &item.Ts, &item.Kind, &agent, &correlationID, &decisionID, &raw); err != nil {
			return nil, fmt.Errorf("scan transcript item: %w", err)
		}
		item.Agent = agent.String
		item.CorrelationID = correlationID.String
		item.DecisionID = decisionID.String
		if err := json.Unmarshal(raw, &item.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal transcript payload: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// LatestCursor returns the highest assigned transcript cursor, 0 if the
// log is empty. New SSE/WebSocket subscribers use this as their initial
// "since" watermark.
func (s *Store) LatestCursor(ctx context.Context) (int64, error) {
	row := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(cursor), 0) FROM transcript`)
	var cursor int64
	if err := row.Scan(&cursor); err != nil {
		return 0, fmt.Errorf("read latest transcript cursor: %w", err)
	}
	return cursor, nil
}
