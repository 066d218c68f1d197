// Package retrieve maps vector search hits back to docstore nodes and
// resolves node references, so a match on a small child chunk or a generated
// summary surfaces the full source chunk.
package retrieve

import (
	"context"
	"fmt"

	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/embed"
	"github.com/dgallion1/raggest/internal/node"
	"github.com/dgallion1/raggest/internal/vecstore"
)

// Hit is a retrieved node with its similarity score. When the matched node
// carried a reference, Node is the resolution target and MatchedID is the
// node the vector search actually hit.
type Hit struct {
	Node      *node.Node
	Score     float32
	MatchedID string
}

// Retriever runs embed-search-resolve for a query.
type Retriever struct {
	embedder embed.Embedder
	store    vecstore.Store
	docs     *docstore.Store
}

func New(embedder embed.Embedder, store vecstore.Store, docs *docstore.Store) *Retriever {
	return &Retriever{
		embedder: embedder,
		store:    store,
		docs:     docs,
	}
}

// Retrieve returns up to topK resolved hits, best first. Several matches
// resolving to the same node collapse into one hit with the best score.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = 5
	}

	vectors, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	// Over-fetch: resolution can collapse multiple matches into one node.
	matches, err := r.store.Search(ctx, vectors[0], topK*3)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	seen := make(map[string]bool)
	hits := make([]Hit, 0, topK)
	for _, m := range matches {
		if len(hits) >= topK {
			break
		}
		matched := r.docs.Get(m.NodeID)
		if matched == nil {
			continue // Node was deleted after indexing.
		}
		resolved := r.resolve(matched)
		if seen[resolved.ID] {
			continue // Matches are score-ordered, so the first one wins.
		}
		seen[resolved.ID] = true
		hits = append(hits, Hit{
			Node:      resolved,
			Score:     m.Score,
			MatchedID: matched.ID,
		})
	}

	return hits, nil
}

// resolve follows a node's reference through the docstore mapping. A single
// level of indirection: referenced nodes do not chain further.
func (r *Retriever) resolve(n *node.Node) *node.Node {
	if n.Ref == nil {
		return n
	}
	target := r.docs.Get(n.Ref.NodeID)
	if target == nil {
		return n // Dangling ref, fall back to the matched node itself.
	}
	return target
}
