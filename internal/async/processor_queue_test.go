package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/fiscal-extract/constants"
	"github.com/joseph-ayodele/fiscal-extract/internal/common"
	"github.com/joseph-ayodele/fiscal-extract/internal/entity"
	"github.com/joseph-ayodele/fiscal-extract/internal/pipeline"
)

type procFunc func(ctx context.Context, path string, family constants.DocumentFamily) (*pipeline.Outcome, error)

func (f procFunc) ProcessFile(ctx context.Context, path string, family constants.DocumentFamily) (*pipeline.Outcome, error) {
	return f(ctx, path, family)
}

func TestProcessorQueueDrains(t *testing.T) {
	var (
		mu    sync.Mutex
		seen  = map[string]bool{}
		fails int
		trace = map[string]bool{}
	)
	proc := procFunc(func(ctx context.Context, path string, _ constants.DocumentFamily) (*pipeline.Outcome, error) {
		if path == "bad.pdf" {
			return nil, common.ErrNothingExtracted
		}
		mu.Lock()
		trace[common.RequestIDFromContext(ctx)] = true
		mu.Unlock()
		return &pipeline.Outcome{Items: []entity.CanonicalItem{{Code: path}}}, nil
	})
	q := NewProcessorQueue(proc, nil, WithWorkers(3), WithQueueSize(2),
		WithResultFunc(func(job Job, out *pipeline.Outcome, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				fails++
				return
			}
			seen[out.Items[0].Code] = true
		}))

	paths := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "bad.pdf", "e.pdf"}
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p, Family: constants.FamilyTaxStatus}); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 5 || fails != 1 {
		t.Errorf("seen = %v, fails = %d", seen, fails)
	}
	if len(trace) != 5 || trace[""] {
		t.Errorf("trace ids = %v, want 5 distinct non-empty", trace)
	}

	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after shutdown = %v, want ErrQueueClosed", err)
	}
	if err := q.Shutdown(context.Background()); err != nil {
		t.Errorf("second Shutdown = %v", err)
	}
}

func TestProcessorQueueBackpressure(t *testing.T) {
	gate := make(chan struct{})
	proc := procFunc(func(ctx context.Context, _ string, _ constants.DocumentFamily) (*pipeline.Outcome, error) {
		<-gate
		return &pipeline.Outcome{}, nil
	})
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	for _, p := range []string{"a.pdf", "b.pdf"} {
		if err := q.Enqueue(context.Background(), Job{Path: p}); err != nil {
			t.Fatalf("Enqueue(%s): %v", p, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(ctx, Job{Path: "c.pdf"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Enqueue on full queue = %v, want DeadlineExceeded", err)
	}

	close(gate)
	if err := q.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}

func TestProcessorQueueShutdownTimeout(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	proc := procFunc(func(ctx context.Context, _ string, _ constants.DocumentFamily) (*pipeline.Outcome, error) {
		<-gate
		return &pipeline.Outcome{}, nil
	})
	q := NewProcessorQueue(proc, nil, WithWorkers(1))
	if err := q.Enqueue(context.Background(), Job{Path: "slow.pdf"}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want DeadlineExceeded", err)
	}
}

func TestProcessorQueueShutdownReleasesBlockedEnqueue(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	started := make(chan struct{}, 1)
	proc := procFunc(func(ctx context.Context, _ string, _ constants.DocumentFamily) (*pipeline.Outcome, error) {
		started <- struct{}{}
		<-gate
		return &pipeline.Outcome{}, nil
	})
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	if err := q.Enqueue(context.Background(), Job{Path: "a.pdf"}); err != nil {
		t.Fatal(err)
	}
	<-started
	if err := q.Enqueue(context.Background(), Job{Path: "b.pdf"}); err != nil {
		t.Fatal(err)
	}

	blocked := make(chan error, 1)
	go func() { blocked <- q.Enqueue(context.Background(), Job{Path: "c.pdf"}) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := q.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Shutdown = %v, want DeadlineExceeded", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Shutdown took %s with a blocked sender", elapsed)
	}

	select {
	case err := <-blocked:
		if !errors.Is(err, ErrQueueClosed) {
			t.Errorf("blocked Enqueue = %v, want ErrQueueClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatal("blocked Enqueue never returned")
	}
}
