package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/raggest/internal/llm"
)

const judgePromptTemplate = `You are a strict evaluator. Decide whether the answer below actually answers the query.
Respond with ONLY a JSON object, no other text:
{"verdict": "yes" or "no", "feedback": "if no, one sentence on what is missing or wrong"}

Query: %s

Answer: %s`

const rewritePromptTemplate = `A search query did not retrieve the information needed to answer well.
Original query: %s
Evaluator feedback: %s

Rewrite the query to address the feedback. Keep it a single question. Respond with ONLY the rewritten query.`

// Attempt records one round of the iterative loop.
type Attempt struct {
	Query    string `json:"query"`
	Answer   string `json:"answer"`
	Verdict  string `json:"verdict"`
	Feedback string `json:"feedback,omitempty"`
}

// IterativeAnswer is the final answer plus the retry transcript.
type IterativeAnswer struct {
	Answer
	Accepted bool      `json:"accepted"`
	Attempts []Attempt `json:"attempts"`
}

type judgeResult struct {
	Verdict  string `json:"verdict"`
	Feedback string `json:"feedback"`
}

// QueryIterative answers the query, has a judge evaluate the answer, and on
// rejection folds the feedback into a rewritten query and retries. Bounded
// by maxAttempts; the last answer is returned even if never accepted.
func (e *Engine) QueryIterative(ctx context.Context, query string, topK, maxAttempts int) (*IterativeAnswer, error) {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	result := &IterativeAnswer{}
	current := query

	for attempt := 0; attempt < maxAttempts; attempt++ {
		answer, err := e.Query(ctx, current, topK)
		if err != nil {
			return nil, err
		}
		result.Answer = *answer

		verdict, err := e.judge(ctx, query, answer.Text)
		if err != nil {
			return nil, fmt.Errorf("judge attempt %d: %w", attempt+1, err)
		}
		result.Attempts = append(result.Attempts, Attempt{
			Query:    current,
			Answer:   answer.Text,
			Verdict:  verdict.Verdict,
			Feedback: verdict.Feedback,
		})

		if verdict.Verdict == "yes" {
			result.Accepted = true
			return result, nil
		}
		if attempt == maxAttempts-1 {
			break
		}

		current, err = e.rewrite(ctx, current, verdict.Feedback)
		if err != nil {
			return nil, fmt.Errorf("rewrite attempt %d: %w", attempt+1, err)
		}
	}

	return result, nil
}

// judge evaluates an answer against the original query.
func (e *Engine) judge(ctx context.Context, query, answer string) (*judgeResult, error) {
	prompt := fmt.Sprintf(judgePromptTemplate, query, answer)
	text, err := e.client.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: 256,
	})
	if err != nil {
		return nil, err
	}

	var result judgeResult
	cleaned := llm.StripCodeBlock(text)
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("parse verdict json: %w (raw: %s)", err, truncate(cleaned, 200))
	}
	result.Verdict = strings.ToLower(strings.TrimSpace(result.Verdict))
	if result.Verdict != "yes" && result.Verdict != "no" {
		return nil, fmt.Errorf("unexpected verdict %q", result.Verdict)
	}
	return &result, nil
}

// rewrite folds judge feedback into a new query.
func (e *Engine) rewrite(ctx context.Context, query, feedback string) (string, error) {
	prompt := fmt.Sprintf(rewritePromptTemplate, query, feedback)
	text, err := e.client.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: 128,
	})
	if err != nil {
		return "", err
	}
	rewritten := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"`))
	if rewritten == "" {
		return query, nil
	}
	return rewritten, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
