package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// TrimHistories implements retention.HistoryTrimmer. ISI bounds the
// event_history/action_history/cci_history rings inline on every write
// via models.AppendBounded, so the re-clamp here is a backstop against
// drift (e.g. a Config.HistoryBound change shrinking an existing ring)
// rather than the primary bounding mechanism. The transcript prune is
// the primary mechanism for that table: it is append-only with no
// inline trim, so rows older than the retention horizon accumulate
// until this sweep removes them.
func (s *Store) TrimHistories(ctx context.Context) (int, error) {
	var removed int

	err := s.WriteTx(ctx, func(t *Tx) error {
		snapshot, err := t.LoadState()
		if err != nil {
			return fmt.Errorf("load state for trim: %w", err)
		}
		if len(snapshot) == 0 {
			return nil
		}

		trimmed, n := trimRings(snapshot, s.historyBound)
		if n > 0 {
			if err := t.SaveState(trimmed); err != nil {
				return fmt.Errorf("save trimmed state: %w", err)
			}
			removed += n
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-s.transcriptRetention).UnixMilli()
	n, err := s.pruneTranscriptBefore(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("prune transcript: %w", err)
	}
	return removed + n, nil
}

// trimRings re-clamps the three bounded-ring keys to bound entries each,
// returning the adjusted snapshot and how many entries were dropped
// across all three rings combined.
func trimRings(snapshot models.StateSnapshot, bound int) (models.StateSnapshot, int) {
	out := snapshot.Clone()
	dropped := 0

	dropped += clampRing(out, models.StateKeyEventHistory, snapshot.EventHistory(), bound)
	dropped += clampRing(out, models.StateKeyActionHistory, snapshot.ActionHistory(), bound)
	dropped += clampRing(out, models.StateKeyCCIHistory, snapshot.CCIHistory(), bound)

	return out, dropped
}

func clampRing[T any](out models.StateSnapshot, key string, items []T, bound int) int {
	if len(items) <= bound {
		return 0
	}
	dropped := len(items) - bound
	out[key] = items[dropped:]
	return dropped
}

// pruneTranscriptBefore deletes transcript rows with ts < cutoff,
// returning how many rows were removed. Runs as its own write
// transaction since it isn't part of any single pipeline invocation's
// atomic write.
func (s *Store) pruneTranscriptBefore(ctx context.Context, cutoff int64) (int, error) {
	var removed int
	err := s.WriteTx(ctx, func(t *Tx) error {
		res, err := t.tx.ExecContext(ctx, `DELETE FROM transcript WHERE ts < ?`, cutoff)
		if err != nil {
			return fmt.Errorf("delete old transcript rows: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read rows affected: %w", err)
		}
		removed = int(n)
		return nil
	})
	return removed, err
}
