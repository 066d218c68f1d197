package finetune

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/node"
)

// fakeClient answers question-generation prompts with a canned question list
// and everything else with a canned answer.
type fakeClient struct {
	questionsJSON string
	answer        string
	prompts       []string
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	if strings.Contains(req.Prompt, "JSON array of strings") {
		return f.questionsJSON, nil
	}
	return f.answer, nil
}

func (f *fakeClient) Model() string { return "fake" }

func chunk() *node.Node {
	return &node.Node{
		ID:       "chunk-1",
		DocID:    "doc-1",
		DocTitle: "Whiskeyjack",
		Kind:     node.KindParent,
		Text:     "Whiskeyjack commanded the Bridgeburners during the siege of Pale.",
	}
}

func TestFromChunk_GeneratesExamples(t *testing.T) {
	client := &fakeClient{
		questionsJSON: `["Who commanded the Bridgeburners?", "Where did the siege take place?"]`,
		answer:        "Whiskeyjack commanded them.",
	}
	g := NewGenerator(client, Config{QuestionsPerChunk: 2})

	examples, err := g.FromChunk(context.Background(), chunk())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(examples) != 2 {
		t.Fatalf("expected 2 examples, got %d", len(examples))
	}

	ex := examples[0]
	if len(ex.Messages) != 3 {
		t.Fatalf("expected 3 messages per example, got %d", len(ex.Messages))
	}
	if ex.Messages[0].Role != "system" || ex.Messages[0].Content == "" {
		t.Errorf("expected system message first, got %+v", ex.Messages[0])
	}
	if ex.Messages[1].Role != "user" {
		t.Errorf("expected user message second, got %+v", ex.Messages[1])
	}
	if !strings.Contains(ex.Messages[1].Content, "Who commanded the Bridgeburners?") {
		t.Errorf("expected question in user message, got %q", ex.Messages[1].Content)
	}
	if !strings.Contains(ex.Messages[1].Content, "siege of Pale") {
		t.Errorf("expected chunk context in user message, got %q", ex.Messages[1].Content)
	}
	if ex.Messages[2].Role != "assistant" || ex.Messages[2].Content != "Whiskeyjack commanded them." {
		t.Errorf("expected answer as assistant message, got %+v", ex.Messages[2])
	}

	// 1 question-generation call + 2 answer calls.
	if len(client.prompts) != 3 {
		t.Fatalf("expected 3 model calls, got %d", len(client.prompts))
	}
	if !strings.Contains(client.prompts[1], "siege of Pale") {
		t.Error("expected answer prompt to include the chunk text")
	}
	if !strings.Contains(client.prompts[1], "using only the context") {
		t.Error("expected answer prompt to restrict to context")
	}
}

func TestFromChunk_CustomSystemMessage(t *testing.T) {
	client := &fakeClient{
		questionsJSON: `["A valid question?"]`,
		answer:        "An answer.",
	}
	g := NewGenerator(client, Config{SystemMessage: "You answer questions about the Malazan world."})

	examples, err := g.FromChunk(context.Background(), chunk())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if examples[0].Messages[0].Content != "You answer questions about the Malazan world." {
		t.Errorf("expected custom system message, got %q", examples[0].Messages[0].Content)
	}
}

func TestFromChunk_ClampsQuestionCount(t *testing.T) {
	client := &fakeClient{
		questionsJSON: `["Question one?", "Question two?", "Question three?"]`,
		answer:        "Answer.",
	}
	g := NewGenerator(client, Config{QuestionsPerChunk: 2})

	examples, err := g.FromChunk(context.Background(), chunk())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(examples) != 2 {
		t.Errorf("expected question count clamped to 2, got %d examples", len(examples))
	}
}

func TestFromChunk_FencedQuestionJSON(t *testing.T) {
	client := &fakeClient{
		questionsJSON: "```json\n[\"A fenced question?\"]\n```",
		answer:        "Answer.",
	}
	g := NewGenerator(client, Config{})

	examples, err := g.FromChunk(context.Background(), chunk())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(examples) != 1 {
		t.Errorf("expected 1 example from fenced JSON, got %d", len(examples))
	}
}

func TestFromChunk_MalformedQuestionJSON(t *testing.T) {
	client := &fakeClient{questionsJSON: "Here are some questions for you!"}
	g := NewGenerator(client, Config{})

	if _, err := g.FromChunk(context.Background(), chunk()); err == nil {
		t.Fatal("expected error for non-JSON question list")
	}
}

func TestFromChunk_SkipsEmptyAnswers(t *testing.T) {
	client := &fakeClient{
		questionsJSON: `["A question nobody can answer?"]`,
		answer:        "   ",
	}
	g := NewGenerator(client, Config{})

	examples, err := g.FromChunk(context.Background(), chunk())
	if err != nil {
		t.Fatalf("generation failed: %v", err)
	}
	if len(examples) != 0 {
		t.Errorf("expected empty answers skipped, got %d examples", len(examples))
	}
}

func TestWriteJSONL(t *testing.T) {
	examples := []Example{
		{Messages: []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "q1"}, {Role: "assistant", Content: "a1"}}},
		{Messages: []Message{{Role: "system", Content: "s"}, {Role: "user", Content: "q2"}, {Role: "assistant", Content: "a2"}}},
	}

	var buf bytes.Buffer
	if err := WriteJSONL(&buf, examples); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for i, line := range lines {
		var ex Example
		if err := json.Unmarshal([]byte(line), &ex); err != nil {
			t.Fatalf("line %d is not valid JSON: %v", i, err)
		}
		if len(ex.Messages) != 3 {
			t.Errorf("line %d: expected 3 messages, got %d", i, len(ex.Messages))
		}
	}
}
