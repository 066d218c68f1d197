// Package engine answers queries: retrieve context, build the prompt, call
// the model. The iterative mode adds a judge loop that rewrites the query
// from feedback until the answer passes or attempts run out.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/retrieve"
)

const answerPromptTemplate = `You are a helpful assistant that answers questions using the provided context.
Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %s
Answer: `

// Source identifies where a piece of answer context came from.
type Source struct {
	NodeID   string  `json:"node_id"`
	Document string  `json:"document"`
	Section  string  `json:"section,omitempty"`
	Score    float32 `json:"score"`
}

// Answer is a query response with attribution.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Engine answers queries against the index.
type Engine struct {
	retriever *retrieve.Retriever
	client    llm.Client
	topK      int
	maxTokens int
}

func New(retriever *retrieve.Retriever, client llm.Client, topK int) *Engine {
	if topK <= 0 {
		topK = 5
	}
	return &Engine{
		retriever: retriever,
		client:    client,
		topK:      topK,
		maxTokens: 1024,
	}
}

// Query retrieves context for the query and generates an answer.
func (e *Engine) Query(ctx context.Context, query string, topK int) (*Answer, error) {
	if topK <= 0 {
		topK = e.topK
	}

	hits, err := e.retriever.Retrieve(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Answer{
			Text:    "No relevant information was found in the index.",
			Sources: []Source{},
		}, nil
	}

	prompt := fmt.Sprintf(answerPromptTemplate, contextBlock(hits), query)
	text, err := e.client.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: e.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	answer := &Answer{
		Text:    strings.TrimSpace(text),
		Sources: make([]Source, 0, len(hits)),
	}
	for _, h := range hits {
		answer.Sources = append(answer.Sources, Source{
			NodeID:   h.Node.ID,
			Document: h.Node.DocTitle,
			Section:  h.Node.Section(),
			Score:    h.Score,
		})
	}
	return answer, nil
}

// contextBlock joins retrieved snippets, each tagged with its origin so the
// model can cite sources.
func contextBlock(hits []retrieve.Hit) string {
	var sb strings.Builder
	for i, h := range hits {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		origin := h.Node.DocTitle
		if sec := h.Node.Section(); sec != "" {
			origin += ", " + sec
		}
		sb.WriteString(h.Node.Text)
		sb.WriteString(fmt.Sprintf(" (source: %s)", origin))
	}
	return sb.String()
}
