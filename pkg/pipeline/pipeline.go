// Package pipeline implements the seven-stage cognition pipeline
// (spec.md §4): EPL validates, ISI integrates, VEL scores, the Decision
// Engine deliberates behind the Approval Gate, the Action Orchestrator
// executes, and the Adaptive Feedback Stage folds outcomes back into
// state. One call to Pipeline.Process is one event's trip through every
// stage that applies to it, committed as a single store.WriteTx so
// spec.md §8's invariant ("exactly one response, 0 or 1 completed
// actions, 0 or 1 pending approvals") holds even under a crash mid-write.
//
// Grounded on the teacher's pkg/services orchestration layer (a facade
// composing narrower stage types rather than one monolith method), with
// the stage split itself dictated by spec.md §4's numbered subsections.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sbrunomello/pce-engine/pkg/models"
	"github.com/sbrunomello/pce-engine/pkg/notify"
	"github.com/sbrunomello/pce-engine/pkg/plugins"
	"github.com/sbrunomello/pce-engine/pkg/store"
)

// Result is Process's return value, the shape pkg/api serializes as the
// ingress response (spec.md §6).
type Result struct {
	EventID          string              `json:"event_id"`
	ValueScore       float64             `json:"value_score"`
	CCI              float64             `json:"cci"`
	CCIComponents    models.CCIComponents `json:"cci_components"`
	Action           models.ActionPlan   `json:"action"`
	Success          bool                `json:"success"`
	RequiresApproval bool                `json:"requires_approval"`
	ApprovalID       string              `json:"approval_id,omitempty"`
}

// Broadcaster fans a committed transcript item out to live subscribers
// (spec.md §4.9's SSE/WebSocket surfaces). Optional: a Pipeline with no
// broadcaster still appends every item to the store, just with nothing
// pushed live — a reconnecting client's catch-up call still sees it.
type Broadcaster interface {
	Publish(item models.TranscriptItem)
}

// Config holds Pipeline's tunables, all with spec.md-derived defaults
// applied by New.
type Config struct {
	// HistoryBound bounds event_history/action_history/cci_history and
	// is the CCI window size W. Zero uses spec.md §4.4's default of 50.
	HistoryBound int
}

const defaultHistoryBound = 50

// Pipeline wires the seven stages to one store.Store and one
// plugins.Registry. Construct once at boot; Process and the
// approval-resolution methods are safe for concurrent use.
type Pipeline struct {
	store  *store.Store
	notify *notify.Service
	logger *slog.Logger

	epl *EventValidator
	isi *StateIntegrator
	vel *ValueEvaluator
	cci *CoherenceEngine
	de  *DecisionEngine
	afs *Adaptation
	seq *Sequencer

	registry     *plugins.Registry
	historyBound int

	// threadMu guards approvalThreads, the Slack message timestamp each
	// pending approval's creation notice posted under, so its eventual
	// resolution notice threads beneath it. Best-effort: an approval
	// created before the process last restarted has no entry and its
	// resolution notice simply posts unthreaded.
	threadMu        sync.Mutex
	approvalThreads map[string]string

	broadcaster Broadcaster
}

// SetBroadcaster wires a live transcript fan-out, mirroring the
// teacher's Server.SetEventPublisher optional-wiring pattern. Nil-safe:
// call it or don't, Process never checks for it being set before
// writing to the store.
func (p *Pipeline) SetBroadcaster(b Broadcaster) {
	p.broadcaster = b
}

func (p *Pipeline) broadcastAll(items []models.TranscriptItem) {
	if p.broadcaster == nil {
		return
	}
	for _, item := range items {
		p.broadcaster.Publish(item)
	}
}

// New constructs a Pipeline. schemas must already have every known
// event_type registered (cmd/pceserver/main.go does this before the
// HTTP server accepts ingress).
func New(st *store.Store, registry *plugins.Registry, schemas *SchemaRegistry, notifier *notify.Service, cfg Config) *Pipeline {
	historyBound := cfg.HistoryBound
	if historyBound <= 0 {
		historyBound = defaultHistoryBound
	}

	return &Pipeline{
		store:  st,
		notify: notifier,
		logger: slog.Default().With("component", "pipeline"),

		epl: NewEventValidator(schemas),
		isi: NewStateIntegrator(historyBound),
		vel: NewValueEvaluator(),
		cci: NewCoherenceEngine(historyBound, DefaultCCIWeights),
		de:  NewDecisionEngine(registry),
		afs: NewAdaptation(registry),
		seq: NewSequencer(),

		registry:     registry,
		historyBound: historyBound,

		approvalThreads: make(map[string]string),
	}
}

// Process runs raw through every pipeline stage that applies to it,
// committing its effects atomically. EPL validation happens outside any
// transaction: an invalid envelope is rejected before anything is
// persisted (spec.md §4.1).
//
// Events sharing a correlation_id are serialized by Sequencer so the
// ordering guarantee spec.md §5 asks for holds regardless of the
// caller's concurrency.
func (p *Pipeline) Process(ctx context.Context, raw RawEnvelope) (*Result, error) {
	event, err := p.epl.Validate(raw)
	if err != nil {
		return nil, err
	}

	var result *Result
	var procErr error
	p.seq.Run(event.CorrelationID(), func() {
		result, procErr = p.processNormalized(ctx, event)
	})
	return result, procErr
}

func (p *Pipeline) processNormalized(ctx context.Context, event models.Event) (*Result, error) {
	decisionID := uuid.NewString()
	var result *Result
	var appended []models.TranscriptItem

	err := p.store.WriteTx(ctx, func(tx *store.Tx) error {
		if err := tx.InsertEvent(event); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		item, err := tx.AppendTranscript(transcriptItem(event, models.KindEventIngested, nil, decisionID))
		if err != nil {
			return err
		}
		appended = append(appended, item)

		priorState, err := tx.LoadState()
		if err != nil {
			return fmt.Errorf("load state: %w", err)
		}

		candidate, isiViolations := p.isi.Integrate(priorState, event)

		domain, _ := p.registry.Get(event.Domain())

		valueScore, velViolations := p.vel.Evaluate(domain.ValueScorer, candidate, event)
		violations := append(append([]string{}, isiViolations...), velViolations...)

		cciBefore, err := tx.LatestCCI()
		if err != nil {
			return fmt.Errorf("load latest cci: %w", err)
		}

		plan := p.de.Decide(candidate, valueScore, cciBefore, event)

		item, err = tx.AppendTranscript(transcriptItem(event, models.KindActionsProposed,
			map[string]any{"action_type": plan.ActionType, "requires_approval": plan.RequiresApproval}, decisionID))
		if err != nil {
			return err
		}
		appended = append(appended, item)

		if reply, ok := plan.Fields["reply"].(string); ok && reply != "" {
			item, err = tx.AppendTranscript(transcriptItem(event, models.KindAgentMessage,
				map[string]any{"content": reply, "domain": plan.Domain}, decisionID))
			if err != nil {
				return err
			}
			appended = append(appended, item)
		}

		if IsFeedbackEvent(event.Type) {
			candidate = p.afs.Apply(candidate, event)
		}

		var approvalID string
		var completed *models.CompletedAction

		if plan.RequiresApproval {
			approval, err := createPendingApproval(tx, decisionID, plan, event)
			if err != nil {
				return fmt.Errorf("create pending approval: %w", err)
			}
			approvalID = approval.ApprovalID
			item, err := tx.AppendTranscript(transcriptItem(event, models.KindApprovalCreated,
				map[string]any{"approval_id": approvalID, "action_type": plan.ActionType}, decisionID))
			if err != nil {
				return err
			}
			appended = append(appended, item)
		} else {
			action := Execute(plan, decisionID, violations)
			if err := tx.InsertAction(action); err != nil {
				return fmt.Errorf("insert action: %w", err)
			}
			completed = &action
			candidate = models.AppendBounded(candidate, models.StateKeyActionHistory, action, p.historyBound)
		}

		cciAfter := cciBefore
		if completed != nil {
			recent, err := tx.RecentActions(p.historyBound)
			if err != nil {
				return fmt.Errorf("load recent actions: %w", err)
			}
			cciAfter = p.cci.Compute(recent)
			if err := tx.InsertCCISnapshot(cciAfter); err != nil {
				return fmt.Errorf("insert cci snapshot: %w", err)
			}
			candidate = models.AppendBounded(candidate, models.StateKeyCCIHistory, cciAfter, p.historyBound)
		}

		if err := tx.SaveState(candidate); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
		item, err = tx.AppendTranscript(transcriptItem(event, models.KindStateUpdated,
			map[string]any{"action_type": plan.ActionType, "value_score": valueScore}, decisionID))
		if err != nil {
			return err
		}
		appended = append(appended, item)

		result = &Result{
			EventID:          event.EventID,
			ValueScore:       valueScore,
			CCI:              cciAfter.CCI,
			CCIComponents:    cciAfter.Components,
			Action:           plan,
			Success:          completed == nil || completed.Success,
			RequiresApproval: plan.RequiresApproval,
			ApprovalID:       approvalID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.broadcastAll(appended)
	if result.RequiresApproval {
		p.notifyApprovalCreated(ctx, result)
	}
	return result, nil
}

// notifyApprovalCreated posts a best-effort Slack notification for a
// newly-created pending approval, gated to HIGH/MEDIUM risk
// (SPEC_FULL.md §5's supplement to spec.md §4.6, silent on operator
// paging). Always called after the transaction that created the
// approval has committed, never from inside WriteTx, so a slow or
// failing notification never holds the single write lock.
func (p *Pipeline) notifyApprovalCreated(ctx context.Context, result *Result) {
	risk, _ := result.Action.Fields["risk"].(string)
	if risk != "HIGH" && risk != "MEDIUM" {
		return
	}

	cost := ""
	if projected, ok := result.Action.Fields["projected_cost"].(float64); ok {
		cost = fmt.Sprintf("%.2f", projected)
	}

	ts := p.notify.NotifyApprovalCreated(ctx, notify.ApprovalCreatedInput{
		ApprovalID:  result.ApprovalID,
		ActionKind:  result.Action.ActionType,
		Description: result.Action.Rationale,
		Amount:      cost,
	})
	if ts != "" {
		p.threadMu.Lock()
		p.approvalThreads[result.ApprovalID] = ts
		p.threadMu.Unlock()
	}
}

// approvalThread returns the Slack thread timestamp recorded for
// approvalID's creation notice, if any, and forgets it — a resolution
// notice is only ever posted once per approval.
func (p *Pipeline) approvalThread(approvalID string) string {
	p.threadMu.Lock()
	defer p.threadMu.Unlock()
	ts := p.approvalThreads[approvalID]
	delete(p.approvalThreads, approvalID)
	return ts
}

func transcriptItem(event models.Event, kind string, payload map[string]any, decisionID string) models.TranscriptItem {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["event_id"] = event.EventID
	payload["event_type"] = event.Type
	return models.TranscriptItem{
		Ts:            event.Ts,
		Kind:          kind,
		Payload:       payload,
		CorrelationID: event.CorrelationID(),
		DecisionID:    decisionID,
	}
}
