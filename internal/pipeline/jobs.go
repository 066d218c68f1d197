package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sync"
	"time"
)

// JobStatus represents the state of an indexing job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusParsing    JobStatus = "parsing"
	StatusSplitting  JobStatus = "splitting"
	StatusEnriching  JobStatus = "enriching"
	StatusEmbedding  JobStatus = "embedding"
	StatusIndexing   JobStatus = "indexing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
	StatusPartial    JobStatus = "partial"
	StatusDupSkipped JobStatus = "duplicate_skipped"
)

// Job tracks the state of a single document indexing run.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Progress Progress `json:"progress"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	force    bool
	enrich   bool
	errors   []string
}

// Progress tracks indexing progress.
type Progress struct {
	ParentChunks  int      `json:"parent_chunks"`
	ChildChunks   int      `json:"child_chunks"`
	MetadataNodes int      `json:"metadata_nodes"`
	NodesIndexed  int      `json:"nodes_indexed"`
	Errors        []string `json:"errors"`
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Cleanup removes expired jobs.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		if now.Sub(job.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Progress.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetChunkCounts records split results.
func (j *Job) SetChunkCounts(parents, children int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.ParentChunks = parents
	j.Progress.ChildChunks = children
	j.UpdatedAt = time.Now()
}

// AddMetadataNodes increments the generated metadata node count.
func (j *Job) AddMetadataNodes(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.MetadataNodes += n
	j.UpdatedAt = time.Now()
}

// SetNodesIndexed records the total indexed node count.
func (j *Job) SetNodesIndexed(n int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Progress.NodesIndexed = n
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
}

// SetOptions sets per-job processing flags.
func (j *Job) SetOptions(force, enrich bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.force = force
	j.enrich = enrich
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID       string    `json:"job_id"`
	DocID    string    `json:"doc_id"`
	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`
	Progress Progress  `json:"progress"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := j.Progress.Errors
	if errs == nil {
		errs = []string{}
	}
	return JobSnapshot{
		ID:       j.ID,
		DocID:    j.DocID,
		Status:   j.Status,
		Phase:    j.Phase,
		Filename: j.Filename,
		Title:    j.Title,
		Progress: Progress{
			ParentChunks:  j.Progress.ParentChunks,
			ChildChunks:   j.Progress.ChildChunks,
			MetadataNodes: j.Progress.MetadataNodes,
			NodesIndexed:  j.Progress.NodesIndexed,
			Errors:        errs,
		},
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
