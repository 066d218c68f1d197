package api

import (
	"encoding/json"
	"net/http"

	"github.com/dgallion1/raggest/internal/finetune"
	"github.com/dgallion1/raggest/internal/node"
)

type finetuneRequest struct {
	DocIDs    []string `json:"doc_ids"`    // Empty means all documents
	MaxChunks int      `json:"max_chunks"` // Cap on source chunks, default 50
}

// handleFinetuneDataset generates a chat-format JSONL training dataset from
// indexed parent chunks and streams it back. Generation is synchronous; the
// chunk cap keeps request times bounded.
func (s *Server) handleFinetuneDataset(w http.ResponseWriter, r *http.Request) {
	var req finetuneRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.MaxChunks <= 0 {
		req.MaxChunks = 50
	}

	docs := s.orchestrator.Docstore()
	docIDs := req.DocIDs
	if len(docIDs) == 0 {
		for _, d := range docs.Documents() {
			docIDs = append(docIDs, d.DocID)
		}
	}

	var parents []*node.Node
	for _, docID := range docIDs {
		for _, n := range docs.DocumentNodes(docID) {
			if n.Kind != node.KindParent {
				continue
			}
			parents = append(parents, n)
			if len(parents) >= req.MaxChunks {
				break
			}
		}
		if len(parents) >= req.MaxChunks {
			break
		}
	}
	if len(parents) == 0 {
		jsonError(w, "no indexed chunks to generate from", http.StatusNotFound)
		return
	}

	var examples []finetune.Example
	for _, p := range parents {
		ex, err := s.generator.FromChunk(r.Context(), p)
		if err != nil {
			s.log.Warn("dataset generation failed for chunk", "node_id", p.ID, "error", err)
			continue
		}
		examples = append(examples, ex...)
	}
	if len(examples) == 0 {
		jsonError(w, "dataset generation produced no examples", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/jsonl")
	w.Header().Set("Content-Disposition", `attachment; filename="dataset.jsonl"`)
	if err := finetune.WriteJSONL(w, examples); err != nil {
		s.log.Error("jsonl write failed", "error", err)
	}
}
