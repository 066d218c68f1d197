package pipeline

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgallion1/raggest/internal/config"
	"github.com/dgallion1/raggest/internal/docstore"
	"github.com/dgallion1/raggest/internal/vecstore"
)

func testOrchestrator(t *testing.T, queueSize int) *Orchestrator {
	t.Helper()
	docs, err := docstore.Open(filepath.Join(t.TempDir(), "docstore.json"))
	if err != nil {
		t.Fatalf("open docstore: %v", err)
	}
	vectors, _ := vecstore.OpenMemoryStore("")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		WorkerCount:  1,
		MaxQueueSize: queueSize,
		JobTTL:       time.Hour,
	}
	return NewOrchestrator(cfg, docs, vectors, &fakeEmbedder{}, nil, log)
}

func TestOrchestrator_SubmitAfterStopFails(t *testing.T) {
	o := testOrchestrator(t, 4)
	o.Start(context.Background())
	o.Stop()

	job := markdownJob("1")
	if err := o.Submit(job); err == nil {
		t.Fatal("expected error submitting after stop")
	}
	if job.Status != StatusFailed {
		t.Errorf("expected failed status, got %q", job.Status)
	}
}

func TestOrchestrator_StopIsIdempotent(t *testing.T) {
	o := testOrchestrator(t, 4)
	o.Start(context.Background())
	o.Stop()
	o.Stop()
}

func TestOrchestrator_QueueFull(t *testing.T) {
	// No workers started, so the first job fills the queue.
	o := testOrchestrator(t, 1)

	if err := o.Submit(markdownJob("1")); err != nil {
		t.Fatalf("first submit failed: %v", err)
	}
	overflow := markdownJob("2")
	if err := o.Submit(overflow); err == nil {
		t.Fatal("expected error when queue is full")
	}
	if overflow.Status != StatusFailed {
		t.Errorf("expected failed status, got %q", overflow.Status)
	}
}
