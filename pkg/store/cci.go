package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// insertCCISnapshotTx appends one CCI snapshot, produced after every
// completed action or terminal approval resolution (spec.md §4.4).
func insertCCISnapshotTx(tx *sql.Tx, snapshot models.CCISnapshot) error {
	raw, err := json.Marshal(snapshot.Components)
	if err != nil {
		return fmt.Errorf("marshal cci components: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO cci (ts, cci, components_json) VALUES (?, ?, ?)
		 ON CONFLICT(ts) DO UPDATE SET cci = excluded.cci, components_json = excluded.components_json`,
		snapshot.Ts, snapshot.CCI, raw,
	)
	if err != nil {
		return fmt.Errorf("insert cci snapshot: %w", err)
	}
	return nil
}

// LatestCCI returns the most recently computed CCI snapshot, or the
// cold-start default (cci=0.5, components unknown) if none exists yet.
func (s *Store) LatestCCI(ctx context.Context) (models.CCISnapshot, error) {
	return latestCCI(ctx, s.db)
}

// latestCCITx is LatestCCI's transaction-scoped twin (see
// recentActionsTx for why this is needed).
func latestCCITx(ctx context.Context, tx *sql.Tx) (models.CCISnapshot, error) {
	return latestCCI(ctx, tx)
}

func latestCCI(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}) (models.CCISnapshot, error) {
	row := q.QueryRowContext(ctx, `SELECT ts, cci, components_json FROM cci ORDER BY ts DESC LIMIT 1`)

	var snapshot models.CCISnapshot
	var raw []byte
	if err := row.Scan(&snapshot.Ts, &snapshot.CCI, &raw); err != nil {
		if err == sql.ErrNoRows {
			return models.CCISnapshot{CCI: 0.5, Components: models.CCIComponents{Unknown: true}}, nil
		}
		return models.CCISnapshot{}, fmt.Errorf("load latest cci: %w", err)
	}
	if err := json.Unmarshal(raw, &snapshot.Components); err != nil {
		return models.CCISnapshot{}, fmt.Errorf("unmarshal cci components: %w", err)
	}
	return snapshot, nil
}

// CCIHistory returns up to limit snapshots ordered oldest-first, backing
// GET /cci/history.
func (s *Store) CCIHistory(ctx context.Context, limit int) ([]models.CCISnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT ts, cci, components_json FROM cci ORDER BY ts DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query cci history: %w", err)
	}
	defer rows.Close()

	var history []models.CCISnapshot
	for rows.Next() {
		var snapshot models.CCISnapshot
		var raw []byte
		if err := rows.Scan(&snapshot.Ts, &snapshot.CCI, &raw); err != nil {
			return nil, fmt.Errorf("scan cci snapshot: %w", err)
		}
		if err := json.Unmarshal(raw, &snapshot.Components); err != nil {
			return nil, fmt.Errorf("unmarshal cci components: %w", err)
		}
		history = append(history, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cci history: %w", err)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}
