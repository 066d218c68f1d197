// Package docstore holds the flat node-ID-to-node mapping that retrieval
// resolves references through, persisted as a single JSON file.
package docstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/raggest/internal/node"
)

// DocInfo is per-document bookkeeping kept alongside the nodes.
type DocInfo struct {
	DocID       string    `json:"doc_id"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	ContentHash string    `json:"content_hash"`
	NodeCount   int       `json:"node_count"`
	IndexedAt   time.Time `json:"indexed_at"`
}

// Store is a thread-safe in-memory docstore with JSON file persistence.
type Store struct {
	mu    sync.RWMutex
	path  string
	nodes map[string]*node.Node
	docs  map[string]*DocInfo
	byDoc map[string][]string // doc ID -> node IDs in insertion order
}

type fileFormat struct {
	Nodes map[string]*node.Node `json:"nodes"`
	Docs  map[string]*DocInfo   `json:"docs"`
}

// Open loads the docstore from path, or starts empty if the file is missing.
func Open(path string) (*Store, error) {
	s := &Store{
		path:  path,
		nodes: make(map[string]*node.Node),
		docs:  make(map[string]*DocInfo),
		byDoc: make(map[string][]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read docstore: %w", err)
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode docstore %s: %w", path, err)
	}
	if f.Nodes != nil {
		s.nodes = f.Nodes
	}
	if f.Docs != nil {
		s.docs = f.Docs
	}
	for id, n := range s.nodes {
		s.byDoc[n.DocID] = append(s.byDoc[n.DocID], id)
	}
	// Keep per-doc node lists in chunk order.
	for docID := range s.byDoc {
		ids := s.byDoc[docID]
		sort.Slice(ids, func(i, j int) bool {
			return s.nodes[ids[i]].Index < s.nodes[ids[j]].Index
		})
	}

	return s, nil
}

// Save writes the docstore to disk atomically (temp file + rename).
func (s *Store) Save() error {
	s.mu.RLock()
	f := fileFormat{Nodes: s.nodes, Docs: s.docs}
	data, err := json.Marshal(f)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encode docstore: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create docstore dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".docstore-*.json")
	if err != nil {
		return fmt.Errorf("create temp docstore: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write docstore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close docstore: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename docstore: %w", err)
	}
	return nil
}

// PutDocument registers a document and its nodes, replacing any previous
// nodes for the same doc ID.
func (s *Store) PutDocument(info DocInfo, nodes []*node.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.byDoc[info.DocID] {
		delete(s.nodes, id)
	}
	delete(s.byDoc, info.DocID)

	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		s.nodes[n.ID] = n
		ids = append(ids, n.ID)
	}
	info.NodeCount = len(nodes)
	s.docs[info.DocID] = &info
	s.byDoc[info.DocID] = ids
}

// Get returns a node by ID, or nil.
func (s *Store) Get(id string) *node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nodes[id]
}

// DocumentNodes returns a document's nodes in chunk order.
func (s *Store) DocumentNodes(docID string) []*node.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDoc[docID]
	out := make([]*node.Node, 0, len(ids))
	for _, id := range ids {
		if n := s.nodes[id]; n != nil {
			out = append(out, n)
		}
	}
	return out
}

// Documents returns all registered documents sorted by title.
func (s *Store) Documents() []DocInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DocInfo, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out
}

// FindByHash returns the document with the given content hash, or nil.
func (s *Store) FindByHash(hash string) *DocInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.docs {
		if d.ContentHash == hash {
			cp := *d
			return &cp
		}
	}
	return nil
}

// DeleteDocument removes a document and all its nodes. Returns the removed
// node IDs so the vector index can be cleaned up too.
func (s *Store) DeleteDocument(docID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.byDoc[docID]
	for _, id := range ids {
		delete(s.nodes, id)
	}
	delete(s.byDoc, docID)
	delete(s.docs, docID)
	return ids
}

// NodeCount returns the total number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}
