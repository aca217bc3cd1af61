package notify

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the parameters needed to construct a Service.
type ServiceConfig struct {
	Token   string
	Channel string
}

// Service delivers approval-gate notifications to Slack.
// Nil-safe: all methods are no-ops when the service is nil, which lets
// callers construct it unconditionally from config.SlackConfig and not
// branch on whether notifications are enabled.
type Service struct {
	client *Client
	logger *slog.Logger
}

// NewService creates a Service. Returns nil if Token or Channel is empty,
// so notifications are silently disabled rather than erroring at boot.
func NewService(cfg ServiceConfig) *Service {
	if cfg.Token == "" || cfg.Channel == "" {
		return nil
	}
	return &Service{
		client: NewClient(cfg.Token, cfg.Channel),
		logger: slog.Default().With("component", "notify-service"),
	}
}

// NewServiceWithClient creates a Service backed by a pre-built Client.
// Useful for testing against a mock API server.
func NewServiceWithClient(client *Client) *Service {
	return &Service{client: client, logger: slog.Default().With("component", "notify-service")}
}

// NotifyApprovalCreated announces a new pending approval. Returns the
// message timestamp for threading the eventual resolution notice.
// Fail-open: errors are logged, never returned.
func (s *Service) NotifyApprovalCreated(ctx context.Context, input ApprovalCreatedInput) string {
	if s == nil {
		return ""
	}

	blocks := BuildApprovalCreatedMessage(input)
	ts, err := s.client.PostMessage(ctx, blocks, "", 5*time.Second)
	if err != nil {
		s.logger.Error("Failed to send approval-created notification",
			"approval_id", input.ApprovalID, "error", err)
	}
	return ts
}

// NotifyApprovalResolved announces how a pending approval was resolved,
// threaded under the creation message when threadTS is known.
// Fail-open: errors are logged, never returned.
func (s *Service) NotifyApprovalResolved(ctx context.Context, input ApprovalResolvedInput, threadTS string) {
	if s == nil {
		return
	}

	blocks := BuildApprovalResolvedMessage(input)
	if _, err := s.client.PostMessage(ctx, blocks, threadTS, 5*time.Second); err != nil {
		s.logger.Error("Failed to send approval-resolved notification",
			"approval_id", input.ApprovalID, "status", input.Status, "error", err)
	}
}
