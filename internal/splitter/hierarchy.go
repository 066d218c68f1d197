package splitter

import (
	"github.com/dgallion1/raggest/internal/document"
	"github.com/dgallion1/raggest/internal/node"
)

// HierarchyConfig controls parent/child splitting for recursive retrieval.
type HierarchyConfig struct {
	Parent Config // Large chunks that end up in answers
	Child  Config // Small chunks that get embedded and matched
}

// DefaultHierarchyConfig keeps a 4:1 parent-to-child size ratio.
func DefaultHierarchyConfig() HierarchyConfig {
	return HierarchyConfig{
		Parent: Config{ChunkSize: 2048, ChunkOverlap: 0, MinChunk: 20},
		Child:  Config{ChunkSize: 512, ChunkOverlap: 64, MinChunk: 20},
	}
}

// Hierarchy is the result of hierarchical splitting. Parents carry the
// context that reaches the model; children carry the embeddings that get
// matched. Each child references its parent for resolution at query time.
type Hierarchy struct {
	Parents  []*node.Node
	Children []*node.Node
}

// All returns parents followed by children, the order they go into the
// docstore.
func (h *Hierarchy) All() []*node.Node {
	out := make([]*node.Node, 0, len(h.Parents)+len(h.Children))
	out = append(out, h.Parents...)
	out = append(out, h.Children...)
	return out
}

// SplitHierarchy splits a document into parent chunks, then re-splits each
// parent into children that point back at it.
func SplitHierarchy(doc *document.Document, cfg HierarchyConfig) *Hierarchy {
	parentCfg := cfg.Parent.withDefaults()
	childCfg := cfg.Child.withDefaults()

	h := &Hierarchy{}
	breadcrumbs := doc.Breadcrumbs()
	parentIndex := 0
	childIndex := 0

	for i, sec := range doc.Sections {
		if sec.Text == "" {
			continue
		}
		for _, parentText := range SplitText(sec.Text, parentCfg) {
			if EstimateTokens(parentText) < parentCfg.MinChunk {
				continue
			}
			parent := &node.Node{
				ID:         node.NewID(),
				DocID:      doc.ID,
				DocTitle:   doc.Title,
				Kind:       node.KindParent,
				Text:       parentText,
				Index:      parentIndex,
				Breadcrumb: breadcrumbs[i],
				Page:       sec.Page,
			}
			h.Parents = append(h.Parents, parent)
			parentIndex++

			for _, childText := range SplitText(parentText, childCfg) {
				if EstimateTokens(childText) < childCfg.MinChunk {
					continue
				}
				h.Children = append(h.Children, &node.Node{
					ID:         node.NewID(),
					DocID:      doc.ID,
					DocTitle:   doc.Title,
					Kind:       node.KindText,
					Text:       childText,
					Index:      childIndex,
					Breadcrumb: breadcrumbs[i],
					Page:       sec.Page,
					Ref:        &node.Ref{NodeID: parent.ID, Kind: node.RefParent},
				})
				childIndex++
			}
		}
	}

	return h
}
