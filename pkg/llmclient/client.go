// Package llmclient is the assistant domain plugin's LLM reply side
// channel (spec.md §9 "LLM side-channel"): a single hard-deadlined HTTP
// call to OpenRouter's chat-completions endpoint, never a blocking
// pipeline dependency. Replaces the teacher's pkg/agent gRPC sidecar
// (llm_client.go/llm_grpc.go's streaming Generate/Chunk interface) with
// one synchronous request/response call, since spec.md's decision plugin
// needs exactly one reply or a fallback, not a token stream — see
// DESIGN.md for why the gRPC dependency was dropped rather than adapted.
package llmclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sbrunomello/pce-engine/pkg/sanitize"
)

const defaultTimeout = 12 * time.Second

const defaultBaseURL = "https://openrouter.ai/api/v1"

// Config configures Client, grounded on config.OpenRouterConfig.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	HTTPReferer string
	XTitle      string
}

// ReplyRequest is one assistant decision plugin turn.
type ReplyRequest struct {
	System string
	Prompt string
}

// ReplyResponse is a successful completion.
type ReplyResponse struct {
	Content string
	Model   string
}

// Client calls OpenRouter's OpenAI-compatible chat completions endpoint.
// Every call is bounded by cfg.Timeout (default 12s, spec.md §5); a
// timed-out or failed call returns an error the caller's fallback plan
// absorbs, never propagated as a pipeline fault.
type Client struct {
	http      *resty.Client
	model     string
	timeout   time.Duration
	sanitizer *sanitize.Service
}

// New constructs a Client. sanitizer strips secrets from error strings
// before they are ever formatted into an error the caller might log or
// write to the transcript (SPEC_FULL.md §8).
func New(cfg Config, sanitizer *sanitize.Service) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetHeader("Content-Type", "application/json")
	if cfg.HTTPReferer != "" {
		http.SetHeader("HTTP-Referer", cfg.HTTPReferer)
	}
	if cfg.XTitle != "" {
		http.SetHeader("X-Title", cfg.XTitle)
	}

	return &Client{http: http, model: cfg.Model, timeout: timeout, sanitizer: sanitizer}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Reply sends one chat-completion request, failing closed on any
// transport error, non-2xx status, or an empty choices list. Callers
// (the assistant Decider) are expected to catch the error and fall back
// to a safe default profile, recording a sanitized openrouter_error
// string in metadata.explain.de per spec.md §4.5.
func (c *Client) Reply(ctx context.Context, req ReplyRequest) (ReplyResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
	}

	var parsed chatResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&parsed).
		Post("/chat/completions")
	if err != nil {
		return ReplyResponse{}, fmt.Errorf("openrouter request: %w", c.sanitizedErr(err))
	}
	if resp.IsError() {
		return ReplyResponse{}, fmt.Errorf("openrouter status %d: %s", resp.StatusCode(), c.sanitize(resp.String()))
	}
	if len(parsed.Choices) == 0 {
		return ReplyResponse{}, errors.New("openrouter: empty choices")
	}

	return ReplyResponse{Content: parsed.Choices[0].Message.Content, Model: c.model}, nil
}

func (c *Client) sanitizedErr(err error) error {
	return errors.New(c.sanitize(err.Error()))
}

func (c *Client) sanitize(s string) string {
	if c.sanitizer == nil {
		return s
	}
	return c.sanitizer.Sanitize(s)
}
