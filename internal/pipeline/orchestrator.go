package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/raggest/internal/config"
	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/embed"
	"github.com/dgallion1/raggest/internal/enrich"
	"github.com/dgallion1/raggest/internal/splitter"
	"github.com/dgallion1/raggest/internal/vecstore"
)

// Orchestrator manages the document indexing pipeline.
type Orchestrator struct {
	jobs     *JobStore
	queue    chan *Job
	docs     *docstore.Store
	vectors  vecstore.Store
	embedder embed.Embedder
	enricher *enrich.Enricher
	log      *slog.Logger
	cfg      config.Config
	splitCfg splitter.HierarchyConfig

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewOrchestrator creates the pipeline.
func NewOrchestrator(cfg config.Config, docs *docstore.Store, vectors vecstore.Store, embedder embed.Embedder, enricher *enrich.Enricher, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:     NewJobStore(cfg.JobTTL),
		queue:    make(chan *Job, cfg.MaxQueueSize),
		docs:     docs,
		vectors:  vectors,
		embedder: embedder,
		enricher: enricher,
		log:      log,
		cfg:      cfg,
		splitCfg: splitter.HierarchyConfig{
			Parent: splitter.Config{ChunkSize: cfg.ParentChunkSize, MinChunk: 20},
			Child:  splitter.Config{ChunkSize: cfg.DefaultChunkSize, ChunkOverlap: cfg.DefaultChunkOverlap, MinChunk: 20},
		},
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.docs, o.vectors, o.embedder, o.enricher, o.log, o.splitCfg, o.cfg.MaxConcurrentEnrich)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline. Safe to call more than once.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	o.stopped = true
	o.mu.Unlock()

	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing. The mutex orders Submit against
// Stop so a late submission fails instead of sending on the closed queue.
func (o *Orchestrator) Submit(job *Job) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		job.SetStatus(StatusFailed, "shutting_down")
		return fmt.Errorf("pipeline is shutting down")
	}
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Docstore returns the docstore for direct use by API handlers.
func (o *Orchestrator) Docstore() *docstore.Store {
	return o.docs
}

// VectorStore returns the vector store for direct use by API handlers.
func (o *Orchestrator) VectorStore() vecstore.Store {
	return o.vectors
}
