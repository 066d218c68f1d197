package engine

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/node"
	"github.com/dgallion1/raggest/internal/retrieve"
	"github.com/dgallion1/raggest/internal/vecstore"
)

// fakeClient routes prompts to canned responses: judge prompts get verdicts
// in order, rewrite prompts get rewrites in order, everything else gets the
// answer text.
type fakeClient struct {
	answer   string
	verdicts []string
	rewrites []string
	prompts  []string

	verdictIdx int
	rewriteIdx int
}

func (f *fakeClient) Complete(_ context.Context, req llm.Request) (string, error) {
	f.prompts = append(f.prompts, req.Prompt)
	switch {
	case strings.Contains(req.Prompt, "strict evaluator"):
		v := f.verdicts[f.verdictIdx]
		f.verdictIdx++
		return v, nil
	case strings.Contains(req.Prompt, "Rewrite the query"):
		r := f.rewrites[f.rewriteIdx]
		f.rewriteIdx++
		return r, nil
	default:
		return f.answer, nil
	}
}

func (f *fakeClient) Model() string { return "fake-model" }

type fakeEmbedder struct{}

func (fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}

func (fakeEmbedder) Dimension() int { return 1 }

type fakeVecStore struct {
	matches []vecstore.Match
}

func (f *fakeVecStore) Upsert(context.Context, []vecstore.Item) error { return nil }
func (f *fakeVecStore) Search(_ context.Context, _ []float32, topK int) ([]vecstore.Match, error) {
	if topK < len(f.matches) {
		return f.matches[:topK], nil
	}
	return f.matches, nil
}
func (f *fakeVecStore) DeleteByDoc(context.Context, string) error { return nil }
func (f *fakeVecStore) Count(context.Context) (int64, error)      { return 0, nil }
func (f *fakeVecStore) Close(context.Context) error               { return nil }

func newTestEngine(t *testing.T, client llm.Client, nodes []*node.Node, matches []vecstore.Match) *Engine {
	t.Helper()
	docs, err := docstore.Open(filepath.Join(t.TempDir(), "docstore.json"))
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	docs.PutDocument(docstore.DocInfo{DocID: "doc-1", Title: "Doc"}, nodes)
	retriever := retrieve.New(fakeEmbedder{}, &fakeVecStore{matches: matches}, docs)
	return New(retriever, client, 5)
}

func malazanNodes() []*node.Node {
	return []*node.Node{
		{
			ID: "n1", DocID: "doc-1", DocTitle: "Anomander Rake",
			Kind: node.KindParent, Text: "Anomander Rake is the Lord of Moon's Spawn.",
			Breadcrumb: []string{"Biography"},
		},
		{
			ID: "n2", DocID: "doc-1", DocTitle: "Anomander Rake",
			Kind: node.KindParent, Text: "He wields the sword Dragnipur.", Index: 1,
			Breadcrumb: []string{"Biography", "Weapons"},
		},
	}
}

func TestQuery_BuildsContextAndSources(t *testing.T) {
	client := &fakeClient{answer: "He is the Lord of Moon's Spawn."}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{
		{NodeID: "n1", Score: 0.9},
		{NodeID: "n2", Score: 0.8},
	})

	answer, err := eng.Query(context.Background(), "Who is Anomander Rake?", 5)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if answer.Text != "He is the Lord of Moon's Spawn." {
		t.Errorf("unexpected answer text: %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if answer.Sources[0].NodeID != "n1" || answer.Sources[0].Score != 0.9 {
		t.Errorf("unexpected first source: %+v", answer.Sources[0])
	}
	if answer.Sources[1].Section != "Biography > Weapons" {
		t.Errorf("expected section breadcrumb, got %q", answer.Sources[1].Section)
	}

	if len(client.prompts) != 1 {
		t.Fatalf("expected 1 prompt, got %d", len(client.prompts))
	}
	prompt := client.prompts[0]
	if !strings.Contains(prompt, "Lord of Moon's Spawn") {
		t.Error("expected prompt to include retrieved context")
	}
	if !strings.Contains(prompt, "(source: Anomander Rake, Biography)") {
		t.Errorf("expected source tag in context block, got:\n%s", prompt)
	}
	if !strings.Contains(prompt, "Query: Who is Anomander Rake?") {
		t.Error("expected prompt to include the query")
	}
	if !strings.Contains(prompt, "not prior knowledge") {
		t.Error("expected prompt to instruct context-only answering")
	}
}

func TestQuery_NoHitsSkipsModel(t *testing.T) {
	client := &fakeClient{answer: "should not be called"}
	eng := newTestEngine(t, client, nil, nil)

	answer, err := eng.Query(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(client.prompts) != 0 {
		t.Errorf("expected no model calls with empty index, got %d", len(client.prompts))
	}
	if len(answer.Sources) != 0 {
		t.Errorf("expected no sources, got %d", len(answer.Sources))
	}
	if answer.Text == "" {
		t.Error("expected a fallback answer text")
	}
}

func TestQueryIterative_AcceptedFirstTry(t *testing.T) {
	client := &fakeClient{
		answer:   "A complete answer.",
		verdicts: []string{`{"verdict": "yes"}`},
	}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{{NodeID: "n1", Score: 0.9}})

	result, err := eng.QueryIterative(context.Background(), "Who?", 5, 3)
	if err != nil {
		t.Fatalf("iterative query failed: %v", err)
	}
	if !result.Accepted {
		t.Error("expected accepted result")
	}
	if len(result.Attempts) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Verdict != "yes" {
		t.Errorf("expected verdict yes, got %q", result.Attempts[0].Verdict)
	}
}

func TestQueryIterative_RewritesAfterRejection(t *testing.T) {
	client := &fakeClient{
		answer: "Some answer.",
		verdicts: []string{
			`{"verdict": "no", "feedback": "missing the sword name"}`,
			`{"verdict": "yes"}`,
		},
		rewrites: []string{`"What sword does Anomander Rake wield?"`},
	}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{{NodeID: "n2", Score: 0.9}})

	result, err := eng.QueryIterative(context.Background(), "Who is Rake?", 5, 3)
	if err != nil {
		t.Fatalf("iterative query failed: %v", err)
	}
	if !result.Accepted {
		t.Error("expected eventual acceptance")
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(result.Attempts))
	}
	if result.Attempts[0].Feedback != "missing the sword name" {
		t.Errorf("expected feedback recorded, got %q", result.Attempts[0].Feedback)
	}
	// Surrounding quotes from the model get stripped.
	if result.Attempts[1].Query != "What sword does Anomander Rake wield?" {
		t.Errorf("expected rewritten query on attempt 2, got %q", result.Attempts[1].Query)
	}

	// The rewrite prompt carries the feedback.
	var rewritePrompt string
	for _, p := range client.prompts {
		if strings.Contains(p, "Rewrite the query") {
			rewritePrompt = p
		}
	}
	if !strings.Contains(rewritePrompt, "missing the sword name") {
		t.Error("expected rewrite prompt to include judge feedback")
	}
}

func TestQueryIterative_BoundedAttempts(t *testing.T) {
	client := &fakeClient{
		answer: "Still wrong.",
		verdicts: []string{
			`{"verdict": "no", "feedback": "f1"}`,
			`{"verdict": "no", "feedback": "f2"}`,
			`{"verdict": "no", "feedback": "f3"}`,
		},
		rewrites: []string{"rewrite one", "rewrite two"},
	}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{{NodeID: "n1", Score: 0.9}})

	result, err := eng.QueryIterative(context.Background(), "Who?", 5, 3)
	if err != nil {
		t.Fatalf("iterative query failed: %v", err)
	}
	if result.Accepted {
		t.Error("expected rejection after exhausting attempts")
	}
	if len(result.Attempts) != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", len(result.Attempts))
	}
	// The final answer is still returned.
	if result.Text != "Still wrong." {
		t.Errorf("expected last answer returned, got %q", result.Text)
	}
	// No rewrite after the final rejection.
	if client.rewriteIdx != 2 {
		t.Errorf("expected 2 rewrites for 3 attempts, got %d", client.rewriteIdx)
	}
}

func TestQueryIterative_FencedVerdictJSON(t *testing.T) {
	client := &fakeClient{
		answer:   "Answer.",
		verdicts: []string{"```json\n{\"verdict\": \"yes\"}\n```"},
	}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{{NodeID: "n1", Score: 0.9}})

	result, err := eng.QueryIterative(context.Background(), "Who?", 5, 3)
	if err != nil {
		t.Fatalf("iterative query failed: %v", err)
	}
	if !result.Accepted {
		t.Error("expected fenced verdict to parse")
	}
}

func TestQueryIterative_MalformedVerdict(t *testing.T) {
	client := &fakeClient{
		answer:   "Answer.",
		verdicts: []string{"I think the answer looks fine to me"},
	}
	eng := newTestEngine(t, client, malazanNodes(), []vecstore.Match{{NodeID: "n1", Score: 0.9}})

	_, err := eng.QueryIterative(context.Background(), "Who?", 5, 3)
	if err == nil {
		t.Fatal("expected error for non-JSON verdict")
	}
	if !strings.Contains(err.Error(), "verdict") {
		t.Errorf("expected verdict parse error, got %v", err)
	}
}
