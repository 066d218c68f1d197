package api

import (
	"encoding/json"
	"net/http"
)

type queryRequest struct {
	Query       string `json:"query"`
	TopK        int    `json:"top_k"`
	Mode        string `json:"mode"` // "simple" (default) or "iterative"
	MaxAttempts int    `json:"max_attempts"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Query == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	w.Header().Set("Content-Type", "application/json")

	switch req.Mode {
	case "", "simple":
		answer, err := s.engine.Query(ctx, req.Query, req.TopK)
		if err != nil {
			s.log.Error("query failed", "error", err)
			jsonError(w, "query failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(answer)

	case "iterative":
		maxAttempts := req.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = s.cfg.MaxRefineAttempts
		}
		answer, err := s.engine.QueryIterative(ctx, req.Query, req.TopK, maxAttempts)
		if err != nil {
			s.log.Error("iterative query failed", "error", err)
			jsonError(w, "query failed: "+err.Error(), http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(answer)

	default:
		jsonError(w, "unknown mode: "+req.Mode, http.StatusBadRequest)
	}
}
