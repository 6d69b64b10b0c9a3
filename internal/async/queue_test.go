package async

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/budgidesk/invoice-engine/internal/pipeline"
)

type fakeProcessor struct {
	mu    sync.Mutex
	paths []string
	fail  map[string]bool
}

func (f *fakeProcessor) ProcessFile(_ context.Context, path string) (pipeline.Result, error) {
	f.mu.Lock()
	f.paths = append(f.paths, path)
	f.mu.Unlock()
	if f.fail[path] {
		return pipeline.Result{}, errors.New("boom")
	}
	return pipeline.Result{Supplier: "Acme Ltd", Confidence: pipeline.ConfidenceHigh}, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestQueueProcessesAllJobs(t *testing.T) {
	proc := &fakeProcessor{}

	var mu sync.Mutex
	done := map[string]pipeline.Result{}
	q := NewExtractQueue(proc, discard(),
		WithWorkers(3),
		WithQueueSize(8),
		WithSink(func(job Job, res pipeline.Result, err error) {
			mu.Lock()
			done[job.Path] = res
			mu.Unlock()
		}),
	)

	paths := []string{"a.pdf", "b.pdf", "c.png", "d.jpg", "e.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p, SubmittedAt: time.Now(), TraceID: uuid.New()}); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	q.Shutdown(context.Background())

	if len(done) != len(paths) {
		t.Fatalf("completed jobs = %d, want %d", len(done), len(paths))
	}
	for _, p := range paths {
		if done[p].Supplier != "Acme Ltd" {
			t.Errorf("job %s result = %+v", p, done[p])
		}
	}
}

func TestQueueReportsFailuresToSink(t *testing.T) {
	proc := &fakeProcessor{fail: map[string]bool{"bad.pdf": true}}

	var mu sync.Mutex
	errs := map[string]error{}
	q := NewExtractQueue(proc, discard(),
		WithWorkers(1),
		WithSink(func(job Job, _ pipeline.Result, err error) {
			mu.Lock()
			errs[job.Path] = err
			mu.Unlock()
		}),
	)

	_ = q.Enqueue(context.Background(), Job{Path: "good.pdf"})
	_ = q.Enqueue(context.Background(), Job{Path: "bad.pdf"})
	q.Shutdown(context.Background())

	if errs["good.pdf"] != nil {
		t.Errorf("good.pdf err = %v", errs["good.pdf"])
	}
	if errs["bad.pdf"] == nil {
		t.Error("bad.pdf should have reported an error")
	}
}

func TestEnqueueAfterShutdownIsNoop(t *testing.T) {
	proc := &fakeProcessor{}
	q := NewExtractQueue(proc, discard(), WithWorkers(1))
	q.Shutdown(context.Background())

	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); err != nil {
		t.Fatalf("Enqueue after shutdown: %v", err)
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if len(proc.paths) != 0 {
		t.Errorf("late job was processed: %v", proc.paths)
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	q := NewExtractQueue(&fakeProcessor{}, discard(), WithWorkers(1))
	q.Shutdown(context.Background())
	q.Shutdown(context.Background()) // must not panic on a closed channel
}
