// Package vecstore is the vector index behind retrieval. Two backends: a
// brute-force in-memory store with JSON snapshot persistence, and Milvus.
package vecstore

import "context"

// Item is one indexed vector, keyed by the node it embeds.
type Item struct {
	NodeID string    `json:"node_id"`
	DocID  string    `json:"doc_id"`
	Vector []float32 `json:"vector"`
}

// Match is a search hit.
type Match struct {
	NodeID string
	Score  float32
}

// Store indexes node vectors and serves top-k similarity search.
type Store interface {
	Upsert(ctx context.Context, items []Item) error
	Search(ctx context.Context, vector []float32, topK int) ([]Match, error)
	DeleteByDoc(ctx context.Context, docID string) error
	Count(ctx context.Context) (int64, error)
	Close(ctx context.Context) error
}
