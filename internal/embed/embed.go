// Package embed produces vector embeddings for node text and queries.
package embed

import "context"

// Embedder turns texts into float32 vectors. Implementations must return
// one vector per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
