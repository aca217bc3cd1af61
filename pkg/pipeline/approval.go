package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/notify"
	"github.com/sbrunomello/pce-engine/pkg/pipelineerr"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// budgetGatedActionTypes names the ActionPlan.ActionType values the
// approval gate's budget precondition applies to (spec.md §4.6).
var budgetGatedActionTypes = map[string]bool{
	"purchase":      true,
	"budget_commit": true,
}

// createPendingApproval builds and persists a PendingApproval from plan,
// called from within Process's write transaction when DE set
// RequiresApproval.
func createPendingApproval(tx *store.Tx, decisionID string, plan models.ActionPlan, event models.Event) (models.PendingApproval, error) {
	approval := models.PendingApproval{
		ApprovalID:    uuid.NewString(),
		DecisionID:    decisionID,
		Status:        models.ApprovalPending,
		Action:        plan,
		ProjectedCost: fieldFloat(plan.Fields, "projected_cost"),
		Risk:          fieldString(plan.Fields, "risk"),
		Rationale:     plan.Rationale,
		CreatedAt:     event.Ts,
	}
	if err := tx.InsertApproval(approval); err != nil {
		return models.PendingApproval{}, err
	}
	return approval, nil
}

// Approve resolves a pending approval to approved, enforcing the budget
// precondition for purchase/budget_commit actions (spec.md §4.6:
// projected_cost must not exceed the domain twin's budget_remaining,
// which defaults to 0 when absent so a domain must initialize it before
// any purchase can clear), then processes the synthesized
// <action_type>.completed event as a separate pipeline invocation.
func (p *Pipeline) Approve(ctx context.Context, approvalID, actor, notes string) (models.PendingApproval, error) {
	resolved, err := p.resolveApproval(ctx, approvalID, models.ApprovalApproved, actor, notes, true)
	if err != nil {
		return models.PendingApproval{}, err
	}
	p.notifyResolved(ctx, resolved)
	p.synthesizeAndProcess(ctx, resolved, resolved.Action.ActionType+".completed", false)
	return resolved, nil
}

// Reject resolves a pending approval to rejected, with no budget check,
// and processes the synthesized <action_type>.rejected event.
func (p *Pipeline) Reject(ctx context.Context, approvalID, actor, reason string) (models.PendingApproval, error) {
	resolved, err := p.resolveApproval(ctx, approvalID, models.ApprovalRejected, actor, reason, false)
	if err != nil {
		return models.PendingApproval{}, err
	}
	p.notifyResolved(ctx, resolved)
	p.synthesizeAndProcess(ctx, resolved, resolved.Action.ActionType+".rejected", false)
	return resolved, nil
}

// Override resolves a pending approval to overridden, bypassing the
// budget precondition a human operator is explicitly accepting the risk
// of, and processes the synthesized <action_type>.completed event with
// an override flag.
func (p *Pipeline) Override(ctx context.Context, approvalID, actor, notes string) (models.PendingApproval, error) {
	resolved, err := p.resolveApproval(ctx, approvalID, models.ApprovalOverridden, actor, notes, false)
	if err != nil {
		return models.PendingApproval{}, err
	}
	p.notifyResolved(ctx, resolved)
	p.synthesizeAndProcess(ctx, resolved, resolved.Action.ActionType+".completed", true)
	return resolved, nil
}

func (p *Pipeline) resolveApproval(ctx context.Context, approvalID, newStatus, actor, notes string, checkBudget bool) (models.PendingApproval, error) {
	var resolved models.PendingApproval
	var transcriptItem models.TranscriptItem
	err := p.store.WriteTx(ctx, func(tx *store.Tx) error {
		approval, err := tx.GetApproval(approvalID)
		if err != nil {
			return err
		}

		if checkBudget && budgetGatedActionTypes[approval.Action.ActionType] {
			snapshot, err := tx.LoadState()
			if err != nil {
				return err
			}
			if approval.ProjectedCost > budgetRemaining(snapshot, approval.Action.Domain) {
				return pipelineerr.ErrInsufficientBudget
			}
		}

		resolvedAt := time.Now().UnixMilli()
		resolved, err = tx.ResolveApproval(approvalID, newStatus, actor, notes, resolvedAt)
		if err != nil {
			return err
		}

		transcriptItem, err = tx.AppendTranscript(models.TranscriptItem{
			Ts:         resolvedAt,
			Kind:       models.KindApprovalUpdated,
			DecisionID: resolved.DecisionID,
			Payload: map[string]any{
				"approval_id": resolved.ApprovalID,
				"status":      resolved.Status,
				"actor":       resolved.Actor,
			},
		})
		return err
	})
	if err != nil {
		return models.PendingApproval{}, err
	}
	p.broadcastAll([]models.TranscriptItem{transcriptItem})
	return resolved, nil
}

// synthesizeAndProcess enqueues the downstream event an approval
// resolution triggers as its own pipeline invocation (spec.md §4.6: the
// approve/reject/override call does not itself execute the action; it
// unblocks a fresh event that does). Failures are logged, not returned:
// the resolution itself already committed and must not be undone by a
// downstream fault.
func (p *Pipeline) synthesizeAndProcess(ctx context.Context, approval models.PendingApproval, eventType string, override bool) {
	payload := map[string]any{
		"domain":         approval.Action.Domain,
		"correlation_id": approval.DecisionID,
		"approval_id":    approval.ApprovalID,
		"projected_cost": approval.ProjectedCost,
	}
	for k, v := range approval.Action.Fields {
		payload[k] = v
	}
	if override {
		payload["override"] = true
	}

	if _, err := p.Process(ctx, RawEnvelope{EventType: eventType, Source: "approval_gate", Payload: payload}); err != nil {
		p.logger.Error("Approval gate: failed to process synthesized event",
			"event_type", eventType, "approval_id", approval.ApprovalID, "error", err)
	}
}

func (p *Pipeline) notifyResolved(ctx context.Context, approval models.PendingApproval) {
	p.notify.NotifyApprovalResolved(ctx, notify.ApprovalResolvedInput{
		ApprovalID: approval.ApprovalID,
		ActionKind: approval.Action.ActionType,
		Status:     approval.Status,
		ActorID:    approval.Actor,
	}, p.approvalThread(approval.ApprovalID))
}

func budgetRemaining(snapshot models.StateSnapshot, domain string) float64 {
	substate, ok := snapshot[models.StateKeyForDomain(domain)].(map[string]any)
	if !ok {
		return 0
	}
	remaining, _ := substate["budget_remaining"].(float64)
	return remaining
}

func fieldFloat(fields map[string]any, key string) float64 {
	v, _ := fields[key].(float64)
	return v
}

func fieldString(fields map[string]any, key string) string {
	v, _ := fields[key].(string)
	return v
}
