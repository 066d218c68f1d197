package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/embed"
	"github.com/dgallion1/raggest/internal/enrich"
	"github.com/dgallion1/raggest/internal/node"
	"github.com/dgallion1/raggest/internal/parser"
	"github.com/dgallion1/raggest/internal/splitter"
	"github.com/dgallion1/raggest/internal/vecstore"
)

// Worker processes a single document indexing job: parse, split into
// parent/child chunks, optionally enrich, embed, and index.
type Worker struct {
	docs     *docstore.Store
	vectors  vecstore.Store
	embedder embed.Embedder
	enricher *enrich.Enricher
	log      *slog.Logger
	splitCfg splitter.HierarchyConfig

	maxConcurrentEnrich int
}

func NewWorker(docs *docstore.Store, vectors vecstore.Store, embedder embed.Embedder, enricher *enrich.Enricher, log *slog.Logger, splitCfg splitter.HierarchyConfig, maxEnrich int) *Worker {
	return &Worker{
		docs:                docs,
		vectors:             vectors,
		embedder:            embedder,
		enricher:            enricher,
		log:                 log,
		splitCfg:            splitCfg,
		maxConcurrentEnrich: maxEnrich,
	}
}

// Process runs the full indexing pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID)

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.fileData), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	doc.ID = job.DocID
	if job.Title != "" {
		doc.Title = job.Title
	}

	// Dedup check against the docstore.
	job.ContentHash = doc.ContentHash()
	if existing := w.docs.FindByHash(job.ContentHash); existing != nil && !job.force {
		log.Info("duplicate document, skipping", "existing_doc_id", existing.DocID)
		job.SetStatus(StatusDupSkipped, "dedup")
		return
	}

	// Phase 2: Split
	job.SetStatus(StatusSplitting, "splitting")
	h := splitter.SplitHierarchy(doc, w.splitCfg)
	job.SetChunkCounts(len(h.Parents), len(h.Children))
	log.Info("split document", "parents", len(h.Parents), "children", len(h.Children))

	if len(h.Parents) == 0 {
		log.Warn("no chunks produced")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	nodes := h.All()

	// Phase 3: Enrich parent chunks with bounded concurrency.
	partial := false
	if w.enricher != nil && job.enrich {
		job.SetStatus(StatusEnriching, "enriching")
		metaNodes, failures := w.enrichParents(ctx, job, h.Parents)
		nodes = append(nodes, metaNodes...)
		job.AddMetadataNodes(len(metaNodes))
		if failures > 0 {
			partial = true
			log.Warn("enrichment partially failed", "failures", failures)
		}
	}

	// Phase 4: Embed everything that should be searchable. Parents are
	// reached through child refs, so only children and metadata nodes
	// get vectors.
	job.SetStatus(StatusEmbedding, "embedding")
	searchable := make([]*node.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.Kind != node.KindParent {
			searchable = append(searchable, n)
		}
	}
	texts := make([]string, len(searchable))
	for i, n := range searchable {
		texts[i] = n.Text
	}
	vectors, err := w.embedder.Embed(ctx, texts)
	if err != nil {
		log.Error("embedding failed", "error", err)
		job.AddError(fmt.Sprintf("embed: %s", err))
		job.SetStatus(StatusFailed, "embedding")
		return
	}

	// Phase 5: Index
	job.SetStatus(StatusIndexing, "indexing")
	items := make([]vecstore.Item, len(searchable))
	for i, n := range searchable {
		items[i] = vecstore.Item{NodeID: n.ID, DocID: doc.ID, Vector: vectors[i]}
	}

	// Replacing a re-ingested document: old vectors go first.
	if err := w.vectors.DeleteByDoc(ctx, doc.ID); err != nil {
		log.Warn("stale vector cleanup failed", "error", err)
	}
	if err := w.upsertWithRetry(ctx, items); err != nil {
		log.Error("vector upsert failed", "error", err)
		job.AddError(fmt.Sprintf("index: %s", err))
		job.SetStatus(StatusFailed, "indexing")
		return
	}

	w.docs.PutDocument(docstore.DocInfo{
		DocID:       doc.ID,
		Title:       doc.Title,
		Source:      doc.Source,
		ContentHash: job.ContentHash,
		IndexedAt:   time.Now(),
	}, nodes)
	if err := w.docs.Save(); err != nil {
		log.Error("docstore save failed", "error", err)
		job.AddError(fmt.Sprintf("docstore: %s", err))
	}

	job.SetNodesIndexed(len(items))
	if partial {
		job.SetStatus(StatusPartial, "done")
	} else {
		job.SetStatus(StatusCompleted, "done")
	}
	log.Info("indexed document", "nodes", len(items))
}

// enrichParents generates metadata nodes for parent chunks, a bounded number
// at a time. Returns the nodes and the count of chunks that failed.
func (w *Worker) enrichParents(ctx context.Context, job *Job, parents []*node.Node) ([]*node.Node, int) {
	type result struct {
		nodes []*node.Node
		err   error
	}
	results := make(chan result, len(parents))
	sem := make(chan struct{}, w.maxConcurrentEnrich)

	var wg sync.WaitGroup
	for _, parent := range parents {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			nodes, err := w.enrichWithRetry(ctx, parent)
			results <- result{nodes: nodes, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var metaNodes []*node.Node
	failures := 0
	for r := range results {
		if r.err != nil {
			failures++
			job.AddError(fmt.Sprintf("enrich: %s", r.err))
			continue
		}
		metaNodes = append(metaNodes, r.nodes...)
	}
	return metaNodes, failures
}

func (w *Worker) enrichWithRetry(ctx context.Context, parent *node.Node) ([]*node.Node, error) {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}
		nodes, err := w.enricher.Enrich(ctx, parent)
		if err == nil {
			return nodes, nil
		}
		lastErr = err
		if !IsRetryable(err) {
			break
		}
	}
	return nil, lastErr
}

func (w *Worker) upsertWithRetry(ctx context.Context, items []vecstore.Item) error {
	var lastErr error
	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(Backoff(attempt - 1)):
			}
		}
		if err := w.vectors.Upsert(ctx, items); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
