// Package finetune builds supervised fine-tuning datasets from the indexed
// corpus: generated questions per chunk, answered against the chunk alone,
// written as OpenAI chat-format JSONL.
package finetune

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/node"
)

const questionsPrompt = `Generate %d questions that the following document section answers. Questions must be specific and answerable from the section alone.
Respond with ONLY a JSON array of strings.

---
Document: %q
---
%s`

const answerPrompt = `Answer the question using only the context below.
Context:
---------------------
%s
---------------------
Question: %s
Answer: `

const defaultSystemMessage = "You are a helpful assistant that answers questions about the document corpus accurately and concisely."

// Message is one turn of a chat-format training example.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Example is one JSONL record in the OpenAI fine-tuning format.
type Example struct {
	Messages []Message `json:"messages"`
}

// Config controls dataset generation.
type Config struct {
	QuestionsPerChunk int
	SystemMessage     string
}

// Generator produces training examples from indexed chunks.
type Generator struct {
	client llm.Client
	cfg    Config
}

func NewGenerator(client llm.Client, cfg Config) *Generator {
	if cfg.QuestionsPerChunk <= 0 {
		cfg.QuestionsPerChunk = 2
	}
	if cfg.SystemMessage == "" {
		cfg.SystemMessage = defaultSystemMessage
	}
	return &Generator{client: client, cfg: cfg}
}

// FromChunk generates question/answer examples for one chunk.
func (g *Generator) FromChunk(ctx context.Context, src *node.Node) ([]Example, error) {
	questions, err := g.generateQuestions(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("generate questions: %w", err)
	}

	var examples []Example
	for _, q := range questions {
		// The user turn carries the same context block the model will see
		// at inference time, not the bare question.
		userMsg := fmt.Sprintf(answerPrompt, src.Text, q)
		answer, err := g.client.Complete(ctx, llm.Request{
			Prompt:    userMsg,
			MaxTokens: 512,
		})
		if err != nil {
			return nil, fmt.Errorf("answer question: %w", err)
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			continue
		}
		examples = append(examples, Example{
			Messages: []Message{
				{Role: "system", Content: g.cfg.SystemMessage},
				{Role: "user", Content: userMsg},
				{Role: "assistant", Content: answer},
			},
		})
	}
	return examples, nil
}

func (g *Generator) generateQuestions(ctx context.Context, src *node.Node) ([]string, error) {
	text, err := g.client.Complete(ctx, llm.Request{
		Prompt:    fmt.Sprintf(questionsPrompt, g.cfg.QuestionsPerChunk, src.DocTitle, src.Text),
		MaxTokens: 512,
	})
	if err != nil {
		return nil, err
	}

	var questions []string
	cleaned := llm.StripCodeBlock(text)
	if err := json.Unmarshal([]byte(cleaned), &questions); err != nil {
		return nil, fmt.Errorf("parse questions json: %w", err)
	}

	valid := questions[:0]
	for _, q := range questions {
		q = strings.TrimSpace(q)
		if len(q) < 5 {
			continue
		}
		valid = append(valid, q)
		if len(valid) >= g.cfg.QuestionsPerChunk {
			break
		}
	}
	return valid, nil
}

// WriteJSONL writes examples as one JSON object per line.
func WriteJSONL(w io.Writer, examples []Example) error {
	enc := json.NewEncoder(w)
	for i, ex := range examples {
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("encode example %d: %w", i, err)
		}
	}
	return nil
}
