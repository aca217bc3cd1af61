package store

import (
	"context"
	"database/sql"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// Tx wraps one write transaction, exposing the narrow set of per-entity
// operations callers (chiefly pkg/pipeline's orchestrator) compose to
// make an event's multi-table write atomic: event insert, state upsert,
// optional action/approval/CCI rows, and transcript append all commit
// together or not at all.
type Tx struct {
	tx  *sql.Tx
	ctx context.Context
}

// InsertEvent appends a normalized event to the append-only events table.
func (t *Tx) InsertEvent(event models.Event) error {
	return insertEventTx(t.tx, event)
}

// SaveState upserts the live state row.
func (t *Tx) SaveState(snapshot models.StateSnapshot) error {
	return saveStateTx(t.tx, snapshot)
}

// InsertAction appends a completed action record.
func (t *Tx) InsertAction(action models.CompletedAction) error {
	return insertActionTx(t.tx, action)
}

// InsertCCISnapshot appends a CCI snapshot.
func (t *Tx) InsertCCISnapshot(snapshot models.CCISnapshot) error {
	return insertCCISnapshotTx(t.tx, snapshot)
}

// InsertApproval creates a new pending approval record.
func (t *Tx) InsertApproval(approval models.PendingApproval) error {
	return insertApprovalTx(t.tx, approval)
}

// ResolveApproval transitions a pending approval to a terminal state,
// failing with ErrApprovalAlreadyTerminal if it is no longer pending.
func (t *Tx) ResolveApproval(approvalID, newStatus, actor, notes string, resolvedAt int64) (models.PendingApproval, error) {
	return resolveApprovalTx(t.ctx, t.tx, approvalID, newStatus, actor, notes, resolvedAt)
}

// GetApproval reads one approval within the transaction (for callers
// that need a consistent read-then-write, e.g. the budget precondition
// check on approve).
func (t *Tx) GetApproval(approvalID string) (models.PendingApproval, error) {
	return getApproval(t.ctx, t.tx, approvalID)
}

// LoadState reads the live state snapshot within the transaction.
func (t *Tx) LoadState() (models.StateSnapshot, error) {
	return loadStateTx(t.ctx, t.tx)
}

// RecentActions reads the completed-action window within the
// transaction, so the Decision Engine's CCI(before) read is consistent
// with whatever this same transaction is about to append.
func (t *Tx) RecentActions(limit int) ([]models.CompletedAction, error) {
	return recentActionsTx(t.ctx, t.tx, limit)
}

// LatestCCI reads the most recent CCI snapshot within the transaction.
func (t *Tx) LatestCCI() (models.CCISnapshot, error) {
	return latestCCITx(t.ctx, t.tx)
}

// AppendTranscript inserts one transcript item, returning it with its
// assigned cursor.
func (t *Tx) AppendTranscript(item models.TranscriptItem) (models.TranscriptItem, error) {
	return insertTranscriptTx(t.tx, item)
}
