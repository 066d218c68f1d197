package api

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dgallion1/raggest/internal/parser"
	"github.com/dgallion1/raggest/internal/pipeline"
	"github.com/dgallion1/raggest/internal/wiki"
	"github.com/go-chi/chi/v5"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	// Read file data.
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	docID := r.FormValue("doc_id")
	if docID == "" {
		docID = pipeline.ContentHashHex(data)[:16]
	}

	job := s.newJob(docID, filename, r.FormValue("title"))
	job.SetFileData(data)
	job.SetOptions(r.FormValue("force") == "true", s.enrichEnabled(r.FormValue("enrich")))

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"doc_id":   job.DocID,
		"status":   job.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
	})
}

type wikiIngestRequest struct {
	Articles []string `json:"articles"`
	Force    bool     `json:"force"`
	Enrich   *bool    `json:"enrich"`
}

// handleIngestWiki fetches wiki articles, writes them to the docs directory
// as markdown, and queues each for indexing.
func (s *Server) handleIngestWiki(w http.ResponseWriter, r *http.Request) {
	var req wikiIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Articles) == 0 {
		jsonError(w, "articles is required", http.StatusBadRequest)
		return
	}

	enrich := s.cfg.EnrichChunks
	if req.Enrich != nil {
		enrich = *req.Enrich
	}

	var results []map[string]any
	for _, title := range req.Articles {
		page, err := s.wikiClient.FetchPage(r.Context(), title)
		if err != nil {
			s.log.Warn("wiki fetch failed", "article", title, "error", err)
			results = append(results, map[string]any{
				"article": title,
				"error":   err.Error(),
			})
			continue
		}

		path, err := wiki.SaveMarkdown(page, s.cfg.DocsDir)
		if err != nil {
			results = append(results, map[string]any{
				"article": title,
				"error":   err.Error(),
			})
			continue
		}

		data := []byte(wiki.RenderMarkdown(page))
		job := s.newJob(pipeline.ContentHashHex(data)[:16], wiki.Filename(page.Title), page.Title)
		job.SetFileData(data)
		job.SetOptions(req.Force, enrich)

		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{
				"article": title,
				"error":   err.Error(),
			})
			continue
		}

		results = append(results, map[string]any{
			"article":  title,
			"file":     path,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   job.Status,
			"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

type dirIngestRequest struct {
	Force  bool  `json:"force"`
	Enrich *bool `json:"enrich"`
}

// handleIngestDir walks the docs directory and queues every supported file,
// the bulk-load counterpart to single-file upload.
func (s *Server) handleIngestDir(w http.ResponseWriter, r *http.Request) {
	var req dirIngestRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			jsonError(w, "invalid json: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	paths, err := listIngestableFiles(s.cfg.DocsDir)
	if err != nil {
		jsonError(w, "scan docs dir: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if len(paths) == 0 {
		jsonError(w, fmt.Sprintf("no supported files under %s", s.cfg.DocsDir), http.StatusNotFound)
		return
	}

	enrich := s.cfg.EnrichChunks
	if req.Enrich != nil {
		enrich = *req.Enrich
	}

	var results []map[string]any
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			results = append(results, map[string]any{"file": path, "error": err.Error()})
			continue
		}
		if int64(len(data)) > s.cfg.MaxUploadBytes {
			results = append(results, map[string]any{
				"file":  path,
				"error": fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes),
			})
			continue
		}

		job := s.newJob(pipeline.ContentHashHex(data)[:16], filepath.Base(path), "")
		job.SetFileData(data)
		job.SetOptions(req.Force, enrich)

		if err := s.orchestrator.Submit(job); err != nil {
			results = append(results, map[string]any{"file": path, "error": err.Error()})
			continue
		}
		results = append(results, map[string]any{
			"file":     path,
			"job_id":   job.ID,
			"doc_id":   job.DocID,
			"status":   job.Status,
			"poll_url": fmt.Sprintf("/api/ingest/%s/status", job.ID),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{"jobs": results})
}

// listIngestableFiles returns the supported files under dir, sorted,
// descending into subdirectories but skipping hidden ones.
func listIngestableFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if parser.IsSupportedExtension(d.Name()) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   snap.ID,
		"doc_id":   snap.DocID,
		"status":   snap.Status,
		"phase":    snap.Phase,
		"progress": snap.Progress,
	})
}

func (s *Server) newJob(docID, filename, title string) *pipeline.Job {
	now := time.Now()
	return &pipeline.Job{
		ID:        pipeline.ContentHashHex([]byte(fmt.Sprintf("%s-%d", filename, now.UnixNano())))[:20],
		DocID:     docID,
		Status:    pipeline.StatusQueued,
		Phase:     "queued",
		Filename:  filename,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *Server) enrichEnabled(formValue string) bool {
	switch formValue {
	case "true":
		return true
	case "false":
		return false
	default:
		return s.cfg.EnrichChunks
	}
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
