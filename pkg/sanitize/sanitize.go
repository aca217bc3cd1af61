// Package sanitize redacts secrets from strings before they are persisted
// to the transcript or state store. It is grounded on the teacher's
// pkg/masking: eagerly compiled regex patterns applied in sequence, with
// fail-closed behavior on an internal error. Unlike the teacher's version
// (which resolved masking patterns per-MCP-server from an MCP registry),
// PCE has no per-server masking concept — error strings come from a single
// LLM client, so this package ships one fixed built-in pattern set.
//
// SPEC_FULL.md §8 requires openrouter_error detail strings to be
// sanitized before they reach the transcript or any client response.
package sanitize

import (
	"log/slog"
	"regexp"
)

// compiledPattern pairs a compiled regex with its replacement text.
type compiledPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// builtinPatterns covers the secret shapes most likely to leak into an
// OpenRouter/LLM HTTP client error: bearer tokens, API keys embedded in
// URLs, and common provider key prefixes.
var builtinPatterns = []struct {
	name        string
	pattern     string
	replacement string
}{
	{"bearer_token", `(?i)bearer\s+[a-z0-9._\-]+`, "bearer [REDACTED]"},
	{"authorization_header", `(?i)authorization:\s*\S+`, "authorization: [REDACTED]"},
	{"url_userinfo", `://[^/\s:@]+:[^/\s:@]+@`, "://[REDACTED]@"},
	{"openrouter_key", `sk-or-[a-zA-Z0-9-]+`, "[REDACTED]"},
	{"generic_api_key", `sk-[a-zA-Z0-9]{16,}`, "[REDACTED]"},
	{"query_api_key", `(?i)([?&]api_key=)[^&\s]+`, "${1}[REDACTED]"},
}

// Service applies the compiled pattern set to arbitrary strings.
type Service struct {
	patterns []*compiledPattern
}

// NewService compiles the built-in pattern set. Invalid patterns (there
// are none in the built-in set, but a future addition might introduce
// one) are logged and skipped rather than failing startup.
func NewService() *Service {
	s := &Service{}
	for _, p := range builtinPatterns {
		re, err := regexp.Compile(p.pattern)
		if err != nil {
			slog.Error("Sanitize: failed to compile built-in pattern, skipping", "pattern", p.name, "error", err)
			continue
		}
		s.patterns = append(s.patterns, &compiledPattern{name: p.name, regex: re, replacement: p.replacement})
	}
	return s
}

// Sanitize applies every compiled pattern to text in sequence. On panic
// recovery it fails closed, returning a redaction notice rather than the
// original (possibly secret-bearing) text.
func (s *Service) Sanitize(text string) (result string) {
	if text == "" {
		return text
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Sanitize: panic during sanitization, redacting (fail-closed)", "recover", r)
			result = "[REDACTED: sanitization failure]"
		}
	}()

	masked := text
	for _, p := range s.patterns {
		masked = p.regex.ReplaceAllString(masked, p.replacement)
	}
	return masked
}
