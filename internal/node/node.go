package node

// Kind distinguishes what a node's text is.
type Kind string

const (
	// KindText is a chunk of source document text.
	KindText Kind = "text"
	// KindParent is a larger chunk that child nodes reference.
	KindParent Kind = "parent"
	// KindSummary is a generated summary of a parent chunk.
	KindSummary Kind = "summary"
	// KindQuestion is a generated question a parent chunk answers.
	KindQuestion Kind = "question"
)

// RefKind says how a reference should be resolved at retrieval time.
type RefKind string

const (
	// RefParent substitutes the referenced (larger) chunk's content.
	RefParent RefKind = "parent"
	// RefSource substitutes the source chunk a metadata node was derived from.
	RefSource RefKind = "source"
)

// Ref points a node at another node in the docstore. When a retriever hits a
// node carrying a ref, it swaps in the target's content.
type Ref struct {
	NodeID string  `json:"node_id"`
	Kind   RefKind `json:"kind"`
}

// Node is a retrievable unit: a chunk of document text or a piece of
// generated metadata that indexes on its own text but resolves elsewhere.
type Node struct {
	ID         string            `json:"id"`
	DocID      string            `json:"doc_id"`
	DocTitle   string            `json:"doc_title,omitempty"`
	Kind       Kind              `json:"kind"`
	Text       string            `json:"text"`
	Index      int               `json:"index"`
	Breadcrumb []string          `json:"breadcrumb,omitempty"`
	Page       int               `json:"page,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Ref        *Ref              `json:"ref,omitempty"`
}

// Section formats the breadcrumb for display, e.g. "History > Early years".
func (n *Node) Section() string {
	if len(n.Breadcrumb) == 0 {
		return ""
	}
	out := n.Breadcrumb[0]
	for _, b := range n.Breadcrumb[1:] {
		out += " > " + b
	}
	return out
}
