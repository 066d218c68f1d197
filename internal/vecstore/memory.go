package vecstore

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// MemoryStore is a brute-force cosine-similarity index. If a snapshot path
// is set, Save writes the whole index to a JSON file and Open reloads it.
type MemoryStore struct {
	mu    sync.RWMutex
	path  string
	items map[string]Item // node ID -> item
}

// OpenMemoryStore loads a snapshot from path if it exists. An empty path
// means no persistence.
func OpenMemoryStore(path string) (*MemoryStore, error) {
	s := &MemoryStore{
		path:  path,
		items: make(map[string]Item),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read vector snapshot: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode vector snapshot %s: %w", path, err)
	}
	for _, it := range items {
		s.items[it.NodeID] = it
	}
	return s, nil
}

func (s *MemoryStore) Upsert(_ context.Context, items []Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range items {
		s.items[it.NodeID] = it
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, topK int) ([]Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]Match, 0, len(s.items))
	for _, it := range s.items {
		matches = append(matches, Match{NodeID: it.NodeID, Score: cosine(vector, it.Vector)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	if topK < len(matches) {
		matches = matches[:topK]
	}
	return matches, nil
}

func (s *MemoryStore) DeleteByDoc(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, it := range s.items {
		if it.DocID == docID {
			delete(s.items, id)
		}
	}
	return nil
}

func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}

// Save writes the index snapshot atomically. A no-op without a path.
func (s *MemoryStore) Save() error {
	if s.path == "" {
		return nil
	}

	s.mu.RLock()
	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	s.mu.RUnlock()

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode vector snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".vectors-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshot: %w", err)
	}
	return nil
}

func (s *MemoryStore) Close(_ context.Context) error {
	return s.Save()
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
