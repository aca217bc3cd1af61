package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var resolutionEmoji = map[string]string{
	"approved":   ":white_check_mark:",
	"rejected":   ":x:",
	"overridden": ":warning:",
	"expired":    ":hourglass:",
}

var resolutionLabel = map[string]string{
	"approved":   "Approved",
	"rejected":   "Rejected",
	"overridden": "Overridden",
	"expired":    "Expired (no response within TTL)",
}

// ApprovalCreatedInput carries the data needed to announce a new pending
// approval.
type ApprovalCreatedInput struct {
	ApprovalID  string
	ActionKind  string
	Description string
	Amount      string // formatted amount/cost, empty if not applicable
}

// ApprovalResolvedInput carries the data needed to announce how a pending
// approval was resolved.
type ApprovalResolvedInput struct {
	ApprovalID string
	ActionKind string
	Status     string // approved, rejected, overridden, expired
	ActorID    string
}

// BuildApprovalCreatedMessage creates Block Kit blocks announcing a new
// action awaiting operator approval.
func BuildApprovalCreatedMessage(input ApprovalCreatedInput) []goslack.Block {
	text := fmt.Sprintf(":bell: *Action awaiting approval* (`%s`)\n*Kind:* %s\n%s",
		input.ApprovalID, input.ActionKind, input.Description)
	if input.Amount != "" {
		text += fmt.Sprintf("\n*Amount:* %s", input.Amount)
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(text), false, false),
			nil, nil,
		),
	}
}

// BuildApprovalResolvedMessage creates Block Kit blocks announcing the
// resolution of a previously pending approval.
func BuildApprovalResolvedMessage(input ApprovalResolvedInput) []goslack.Block {
	emoji := resolutionEmoji[input.Status]
	if emoji == "" {
		emoji = ":question:"
	}
	label := resolutionLabel[input.Status]
	if label == "" {
		label = input.Status
	}

	text := fmt.Sprintf("%s *%s* (`%s`, %s)", emoji, label, input.ApprovalID, input.ActionKind)
	if input.ActorID != "" {
		text += fmt.Sprintf("\n*By:* %s", input.ActorID)
	}

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(text), false, false),
			nil, nil,
		),
	}
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
