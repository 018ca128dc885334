package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var _ TaskPoolInterface = (*Pool)(nil)

const defaultTaskTimeout = 5 * time.Minute

// Pool is a bounded worker pool. Tasks are executed at most once; a failing
// task is logged and dropped.
type Pool struct {
	name        string
	workerCount int
	taskTimeout time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewPool(name string, workerCount int, queueSize int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		name:        name,
		workerCount: workerCount,
		taskTimeout: defaultTaskTimeout,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, queueSize),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	slog.Debug("Worker pool started", "pool", p.name, "workers", p.workerCount)
}

func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
	slog.Debug("Worker pool stopped", "pool", p.name)
}

// Submit blocks until the task is queued, ctx is done or the pool stops.
func (p *Pool) Submit(ctx context.Context, task TaskInterface) error {
	select {
	case p.taskQueue <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-p.ctx.Done():
		return fmt.Errorf("%s pool is stopped", p.name)
	}
}

// EnqueueTask queues the task without waiting.
func (p *Pool) EnqueueTask(task TaskInterface) error {
	select {
	case <-p.ctx.Done():
		return p.ctx.Err()
	default:
	}

	select {
	case p.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("%s task queue is full", p.name)
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task := <-p.taskQueue:
			p.executeTask(id, task)
		case <-p.ctx.Done():
			return
		}
	}
}

func (p *Pool) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(p.ctx, p.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Worker task panicked", "pool", p.name, "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "panic", r)
		}
	}()

	if err := task.Execute(taskCtx); err != nil {
		slog.Warn("Worker task failed", "pool", p.name, "worker_id", workerID, "type", string(task.GetType()), "feed", task.GetFeedName(), "id", task.GetID(), "duration", task.GetDuration(), "error", err)
	}
}
