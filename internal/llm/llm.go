// Package llm wraps the hosted model APIs behind a single completion
// interface. Two providers are supported: OpenAI chat completions and the
// Anthropic Messages API.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

// Request is a single-turn completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int
}

// Client produces a text completion for a request.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
	Model() string
}

// RetryableError indicates a transient API failure (429 or 5xx).
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// StripCodeBlock removes a surrounding markdown code fence, which models
// add around JSON output despite instructions not to.
func StripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
