package queue

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueProcessesJob(t *testing.T) {
	q := New(10, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	var processed int32
	done := make(chan struct{})
	ok := q.Enqueue(Job{
		ID:     "job1",
		Source: "test",
		Work: func(ctx context.Context) error {
			atomic.AddInt32(&processed, 1)
			close(done)
			return nil
		},
	})
	if !ok {
		t.Fatalf("expected enqueue to succeed")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("job did not complete")
	}
	if atomic.LoadInt32(&processed) != 1 {
		t.Fatalf("job not processed")
	}
}

func TestQueueTimeoutAndBounded(t *testing.T) {
	q := New(1, 0, 100*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	ok := q.Enqueue(Job{ID: "slow", Source: "test", Work: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})
	if !ok {
		t.Fatalf("expected first enqueue to succeed")
	}

	if ok := q.Enqueue(Job{ID: "drop", Source: "test", Work: func(ctx context.Context) error { return nil }}); ok {
		t.Fatalf("expected enqueue to be rejected when queue is full")
	}
}

func TestJobTimeoutReachesWork(t *testing.T) {
	q := New(1, 1, 20*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	result := make(chan error, 1)
	q.Enqueue(Job{
		ID:       "slow",
		Source:   "test",
		Work:     func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() },
		OnFinish: func(err error) { result <- err },
	})
	select {
	case err := <-result:
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("expected deadline exceeded, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("job timeout not enforced")
	}
}

func TestEnqueueWithRetryDropsWhenFull(t *testing.T) {
	q := New(1, 0, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	// Fill the queue so the retry path triggers.
	first := q.Enqueue(Job{ID: "first", Source: "test", Work: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }})
	if !first {
		t.Fatalf("expected initial enqueue to succeed")
	}

	enqueued, dropped := q.EnqueueWithRetry(ctx, Job{ID: "retry", Source: "test", Work: func(ctx context.Context) error { return nil }}, 200*time.Millisecond, 50*time.Millisecond)
	if enqueued {
		t.Fatalf("expected enqueue to fail due to full queue")
	}
	if !dropped {
		t.Fatalf("expected enqueue to be reported as dropped after retries")
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	capacity  int
	workers   int
	completed int
	failed    int
}

func (o *recordingObserver) UpdateQueue(length, capacity, workers int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.capacity = capacity
	o.workers = workers
}

func (o *recordingObserver) RecordJobCompletion(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.completed++
	if err != nil {
		o.failed++
	}
}

func TestPanicIsRecoveredAndCounted(t *testing.T) {
	obs := &recordingObserver{}
	q := New(4, 1, time.Second).WithObserver(obs)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)

	result := make(chan error, 1)
	q.Enqueue(Job{
		ID:       "boom",
		Source:   "test",
		Work:     func(context.Context) error { panic("bad audio") },
		OnFinish: func(err error) { result <- err },
	})
	select {
	case err := <-result:
		if err == nil || !strings.Contains(err.Error(), "bad audio") {
			t.Fatalf("expected panic surfaced as error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("panicking job never finished")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	q.Stop(stopCtx)

	stats := q.Stats()
	if stats.Processed != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.completed != 1 || obs.failed != 1 || obs.capacity != 4 || obs.workers != 1 {
		t.Fatalf("unexpected observer state %+v", obs)
	}
}

func TestEnqueueAfterStopIsRejected(t *testing.T) {
	q := New(2, 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	q.Stop(context.Background())

	if q.Enqueue(Job{ID: "late", Work: func(context.Context) error { return nil }}) {
		t.Fatalf("expected enqueue after stop to fail")
	}
	if q.Healthy() {
		t.Fatalf("stopped queue should not report healthy")
	}
}
