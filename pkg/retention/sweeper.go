// Package retention runs the background jobs that keep the State Store's
// append-only logs and bounded rings within their configured limits: the
// approval TTL sweep (spec.md §4.6, §4.9) and bounded-ring/transcript
// pruning (SPEC_FULL.md §4, supplementing spec.md's "bounded ring of last
// N" data model with the housekeeping that actually bounds it).
//
// Adapted from the teacher's pkg/cleanup.Service: same start/stop/ticker
// shape, retargeted at PCE's own retention concerns.
package retention

import (
	"context"
	"log/slog"
	"time"
)

// ApprovalExpirer moves pending approvals whose TTL has elapsed to the
// terminal "expired" state. Implemented by pkg/store.Store.
type ApprovalExpirer interface {
	ExpirePendingApprovals(ctx context.Context, ttl time.Duration) (int, error)
}

// HistoryTrimmer enforces the bounded-ring sizes on event/action/CCI history
// and prunes transcript rows beyond the retention horizon. Implemented by
// pkg/store.Store.
type HistoryTrimmer interface {
	TrimHistories(ctx context.Context) (int, error)
}

// Sweeper periodically expires stale approvals and trims bounded histories.
type Sweeper struct {
	approvals ApprovalExpirer
	history   HistoryTrimmer

	ttl      time.Duration
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewSweeper creates a Sweeper. ttl is the approval pending-to-expired
// window (spec.md §4.6 default 24h); interval is how often the loop runs
// (spec.md §4.9 default 60s).
func NewSweeper(approvals ApprovalExpirer, history HistoryTrimmer, ttl, interval time.Duration) *Sweeper {
	return &Sweeper{approvals: approvals, history: history, ttl: ttl, interval: interval}
}

// RunOnce executes a single sweep pass synchronously. Per spec.md's Open
// Question resolution ("Approval state machine across restarts"), this
// MUST be called at boot, before the HTTP server starts accepting ingress,
// so that any approvals that expired while the process was down are
// terminal before a new purchase.completed could be synthesized against
// them.
func (s *Sweeper) RunOnce(ctx context.Context) {
	if n, err := s.approvals.ExpirePendingApprovals(ctx, s.ttl); err != nil {
		slog.Error("Retention: approval expiry sweep failed", "error", err)
	} else if n > 0 {
		slog.Info("Retention: expired pending approvals", "count", n)
	}

	if n, err := s.history.TrimHistories(ctx); err != nil {
		slog.Error("Retention: history trim failed", "error", err)
	} else if n > 0 {
		slog.Info("Retention: trimmed bounded histories", "rows_removed", n)
	}
}

// Start launches the periodic background sweep loop. Safe to call once.
func (s *Sweeper) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)
	slog.Info("Retention sweeper started", "ttl", s.ttl, "interval", s.interval)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Retention sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}
