package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleListDocuments lists all indexed documents.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.orchestrator.Docstore().Documents()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"documents": docs,
		"count":     len(docs),
	})
}

// handleDeleteDocument removes a document's nodes from the docstore and its
// vectors from the index.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := chi.URLParam(r, "docID")

	docs := s.orchestrator.Docstore()
	removed := docs.DeleteDocument(docID)
	if len(removed) == 0 {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}

	if err := s.orchestrator.VectorStore().DeleteByDoc(r.Context(), docID); err != nil {
		s.log.Error("vector delete failed", "doc_id", docID, "error", err)
		jsonError(w, "failed to delete vectors: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := docs.Save(); err != nil {
		s.log.Error("docstore save failed", "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"doc_id":        docID,
		"nodes_removed": len(removed),
	})
}
