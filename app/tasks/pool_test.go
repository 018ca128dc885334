package tasks

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type funcTask struct {
	Task
	fn func(ctx context.Context) error
}

func newFuncTask(fn func(ctx context.Context) error) *funcTask {
	return &funcTask{Task: NewTask(TaskTypeFetchFeed, "test"), fn: fn}
}

func (t *funcTask) Execute(ctx context.Context) error {
	return t.fn(ctx)
}

func TestPoolRunsTasks(t *testing.T) {
	pool := startPool(t, 2)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 5; i++ {
		wg.Add(1)
		task := newFuncTask(func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		})
		if err := pool.Submit(context.Background(), task); err != nil {
			t.Fatalf("Expected submit to succeed, got: %v", err)
		}
	}

	wg.Wait()
	if ran != 5 {
		t.Errorf("Expected 5 tasks to run, got: %d", ran)
	}
}

func TestPoolSurvivesFailingAndPanickingTasks(t *testing.T) {
	pool := startPool(t, 1)

	pool.EnqueueTask(newFuncTask(func(ctx context.Context) error { return errors.New("boom") }))
	pool.EnqueueTask(newFuncTask(func(ctx context.Context) error { panic("boom") }))

	done := make(chan struct{})
	pool.EnqueueTask(newFuncTask(func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected worker to keep running after failures")
	}
}

func TestPoolEnqueueWhenFull(t *testing.T) {
	pool := NewPool("full", 1, 1)

	if err := pool.EnqueueTask(newFuncTask(func(ctx context.Context) error { return nil })); err != nil {
		t.Fatalf("Expected first enqueue to succeed, got: %v", err)
	}
	if err := pool.EnqueueTask(newFuncTask(func(ctx context.Context) error { return nil })); err == nil {
		t.Error("Expected error when queue is full")
	}

	pool.Stop()
	if err := pool.Submit(context.Background(), newFuncTask(func(ctx context.Context) error { return nil })); err == nil {
		t.Error("Expected error when pool is stopped")
	}
}
