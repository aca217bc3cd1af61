package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// insertActionTx appends a completed action record, the source CCI
// reads its last-W window from.
func insertActionTx(tx *sql.Tx, action models.CompletedAction) error {
	raw, err := json.Marshal(action)
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO actions (action_id, decision_id, ts, json) VALUES (?, ?, ?, ?)`,
		action.ActionID, action.DecisionID, action.CompletedAt, raw,
	)
	if err != nil {
		return fmt.Errorf("insert action: %w", err)
	}
	return nil
}

// RecentActions returns the last limit completed actions ordered by
// completed_at ascending, the window CCI's consistency/stability/
// contradiction_rate/predictive_accuracy components are computed over.
func (s *Store) RecentActions(ctx context.Context, limit int) ([]models.CompletedAction, error) {
	return recentActions(ctx, s.db, limit)
}

// recentActionsTx is RecentActions' transaction-scoped twin, used by
// Tx.RecentActions so the Decision Engine can read the action window
// from inside the same write transaction that will append to it —
// required because Store's single physical connection would otherwise
// deadlock against a concurrent s.db query while a Tx holds it.
func recentActionsTx(ctx context.Context, tx *sql.Tx, limit int) ([]models.CompletedAction, error) {
	return recentActions(ctx, tx, limit)
}

func recentActions(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, limit int) ([]models.CompletedAction, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT json FROM actions ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent actions: %w", err)
	}
	defer rows.Close()

	var actions []models.CompletedAction
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan action: %w", err)
		}
		var action models.CompletedAction
		if err := json.Unmarshal(raw, &action); err != nil {
			return nil, fmt.Errorf("unmarshal action: %w", err)
		}
		actions = append(actions, action)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate actions: %w", err)
	}

	// Query returned newest-first (DESC); callers want ascending
	// completed_at order to match spec.md §4.4's "ordered by
	// completed_at" window semantics.
	for i, j := 0, len(actions)-1; i < j; i, j = i+1, j-1 {
		actions[i], actions[j] = actions[j], actions[i]
	}
	return actions, nil
}
