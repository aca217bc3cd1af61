package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sbrunomello/pce-engine/pkg/models"
)

// Sentinel errors surfaced by approval resolution, mapped to HTTP status
// codes by pkg/api (spec.md §7).
var (
	ErrApprovalNotFound        = errors.New("approval_not_found")
	ErrApprovalAlreadyTerminal = errors.New("approval_already_terminal")
)

// insertApprovalTx creates a new pending approval record.
func insertApprovalTx(tx *sql.Tx, approval models.PendingApproval) error {
	raw, err := json.Marshal(approval)
	if err != nil {
		return fmt.Errorf("marshal approval: %w", err)
	}
	_, err = tx.Exec(
		`INSERT INTO approvals (approval_id, status, json, created_at, resolved_at) VALUES (?, ?, ?, ?, NULL)`,
		approval.ApprovalID, approval.Status, raw, approval.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// GetApproval looks up a single approval by id.
func (s *Store) GetApproval(ctx context.Context, approvalID string) (models.PendingApproval, error) {
	return getApproval(ctx, s.db, approvalID)
}

func getApproval(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, approvalID string) (models.PendingApproval, error) {
	row := q.QueryRowContext(ctx, `SELECT json FROM approvals WHERE approval_id = ?`, approvalID)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if err == sql.ErrNoRows {
			return models.PendingApproval{}, ErrApprovalNotFound
		}
		return models.PendingApproval{}, fmt.Errorf("get approval: %w", err)
	}

	var approval models.PendingApproval
	if err := json.Unmarshal(raw, &approval); err != nil {
		return models.PendingApproval{}, fmt.Errorf("unmarshal approval: %w", err)
	}
	return approval, nil
}

// ListApprovals returns every approval, newest first. PCE-OS handlers
// split pending vs. all from this single list (spec.md §6:
// {pending:[...], items:[...]}).
func (s *Store) ListApprovals(ctx context.Context) ([]models.PendingApproval, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT json FROM approvals ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []models.PendingApproval
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		var approval models.PendingApproval
		if err := json.Unmarshal(raw, &approval); err != nil {
			return nil, fmt.Errorf("unmarshal approval: %w", err)
		}
		approvals = append(approvals, approval)
	}
	return approvals, rows.Err()
}

// resolveApprovalTx transitions a pending approval to a terminal state
// inside an existing write transaction. Enforces the state-machine
// invariant (spec.md §8: "at most one terminal transition exists") by
// re-reading the row under the transaction and rejecting anything that
// isn't currently pending.
func resolveApprovalTx(ctx context.Context, tx *sql.Tx, approvalID, newStatus, actor, notes string, resolvedAt int64) (models.PendingApproval, error) {
	approval, err := getApproval(ctx, tx, approvalID)
	if err != nil {
		return models.PendingApproval{}, err
	}
	if approval.Status != models.ApprovalPending {
		return models.PendingApproval{}, ErrApprovalAlreadyTerminal
	}

	approval.Status = newStatus
	approval.Actor = actor
	approval.Notes = notes
	approval.ResolvedAt = resolvedAt

	raw, err := json.Marshal(approval)
	if err != nil {
		return models.PendingApproval{}, fmt.Errorf("marshal approval: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE approvals SET status = ?, json = ?, resolved_at = ? WHERE approval_id = ? AND status = ?`,
		newStatus, raw, resolvedAt, approvalID, models.ApprovalPending,
	)
	if err != nil {
		return models.PendingApproval{}, fmt.Errorf("resolve approval: %w", err)
	}
	return approval, nil
}

// ExpirePendingApprovals implements retention.ApprovalExpirer: it moves
// every pending approval whose TTL has elapsed to the expired terminal
// state. Runs as its own write transaction since it is not part of any
// single event's pipeline invocation.
func (s *Store) ExpirePendingApprovals(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl).UnixMilli()
	now := time.Now().UnixMilli()

	var expired int
	err := s.WriteTx(ctx, func(t *Tx) error {
		rows, err := t.tx.QueryContext(ctx,
			`SELECT approval_id FROM approvals WHERE status = ? AND created_at <= ?`,
			models.ApprovalPending, cutoff)
		if err != nil {
			return fmt.Errorf("query expirable approvals: %w", err)
		}
		var ids []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return fmt.Errorf("scan expirable approval: %w", err)
			}
			ids = append(ids, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, id := range ids {
			if _, err := t.ResolveApproval(id, models.ApprovalExpired, "", "", now); err != nil {
				return fmt.Errorf("expire approval %s: %w", id, err)
			}
		}
		expired = len(ids)
		return nil
	})
	return expired, err
}
