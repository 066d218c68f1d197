// Package enrich generates retrieval metadata for chunks: a summary and a
// short list of questions each chunk answers. The generated text is indexed
// as extra nodes that resolve back to the source chunk.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dgallion1/raggest/internal/llm"
	"github.com/dgallion1/raggest/internal/node"
)

const metadataPrompt = `Read the following document section and produce retrieval metadata for it. Return a JSON object with these fields:

- "summary": a one-paragraph summary of the section (string, max 500 chars)
- "questions": questions this section answers, phrased as a reader would ask them (list of strings, max %d)

Rules:
- The summary must be self-contained and name the entities it mentions
- Questions must be answerable from this section alone
- Respond with ONLY the JSON object, no other text.`

// Metadata is the parsed model output for one chunk.
type Metadata struct {
	Summary   string   `json:"summary"`
	Questions []string `json:"questions"`
}

// Enricher calls the model to generate chunk metadata.
type Enricher struct {
	client       llm.Client
	maxQuestions int
}

func New(client llm.Client, maxQuestions int) *Enricher {
	if maxQuestions <= 0 {
		maxQuestions = 3
	}
	return &Enricher{
		client:       client,
		maxQuestions: maxQuestions,
	}
}

// Enrich generates metadata for a source chunk and returns it as nodes
// referencing the source. The returned nodes still need embedding.
func (e *Enricher) Enrich(ctx context.Context, src *node.Node) ([]*node.Node, error) {
	prompt := buildPrompt(src, e.maxQuestions)
	text, err := e.client.Complete(ctx, llm.Request{
		Prompt:    prompt,
		MaxTokens: 1024,
	})
	if err != nil {
		return nil, err
	}

	var meta Metadata
	cleaned := llm.StripCodeBlock(text)
	if err := json.Unmarshal([]byte(cleaned), &meta); err != nil {
		return nil, fmt.Errorf("parse metadata json: %w", err)
	}
	if !Validate(&meta, e.maxQuestions) {
		return nil, fmt.Errorf("metadata failed validation")
	}

	var nodes []*node.Node
	ref := &node.Ref{NodeID: src.ID, Kind: node.RefSource}
	if meta.Summary != "" {
		nodes = append(nodes, &node.Node{
			ID:         node.NewID(),
			DocID:      src.DocID,
			DocTitle:   src.DocTitle,
			Kind:       node.KindSummary,
			Text:       meta.Summary,
			Index:      src.Index,
			Breadcrumb: src.Breadcrumb,
			Ref:        ref,
		})
	}
	for _, q := range meta.Questions {
		nodes = append(nodes, &node.Node{
			ID:         node.NewID(),
			DocID:      src.DocID,
			DocTitle:   src.DocTitle,
			Kind:       node.KindQuestion,
			Text:       q,
			Index:      src.Index,
			Breadcrumb: src.Breadcrumb,
			Ref:        ref,
		})
	}
	return nodes, nil
}

// buildPrompt includes the document title and section breadcrumb so the
// model can produce self-contained metadata.
func buildPrompt(src *node.Node, maxQuestions int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(metadataPrompt, maxQuestions))
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("Document: %q\n", src.DocTitle))
	if len(src.Breadcrumb) > 0 {
		sb.WriteString("Section: ")
		sb.WriteString(strings.Join(src.Breadcrumb, " > "))
		sb.WriteString("\n")
	}
	sb.WriteString("---\n")
	sb.WriteString(src.Text)
	return sb.String()
}
