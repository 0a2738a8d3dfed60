package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

type Task = func()

var ErrStopped = errors.New("background tasks are stopped")

// BackgroudTasks is a fixed pool of workers draining a bounded queue.
// Photo cleanup and welcome emails run here so requests don't wait on them.
type BackgroudTasks struct {
	log        *slog.Logger
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
	once    sync.Once
}

func New(log *slog.Logger, maxWorkers int, maxTasksQueueSize int) *BackgroudTasks {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &BackgroudTasks{
		log:        log,
		maxWorkers: maxWorkers,
		tasks:      make(chan Task, maxTasksQueueSize),
	}
}

func (t *BackgroudTasks) Run() {
	t.wg.Add(t.maxWorkers)
	for i := 0; i < t.maxWorkers; i++ {
		go func() {
			defer t.wg.Done()
			log := t.log.With("worker", i)
			for task := range t.tasks {
				t.execute(log, task)
			}
		}()
	}
}

func (t *BackgroudTasks) execute(log *slog.Logger, task Task) {
	defer func() {
		if err := recover(); err != nil {
			log.Error("panic", "err", err)
		}
	}()
	task()
	log.Debug("task done")
}

// Add enqueues the task, blocking while the queue is full.
// Tasks added after Shutdown are dropped.
func (t *BackgroudTasks) Add(task Task) {
	if err := t.TryAdd(task); err != nil {
		t.log.Warn("task dropped", "err", err)
	}
}

func (t *BackgroudTasks) TryAdd(task Task) error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.stopped {
		return ErrStopped
	}
	t.tasks <- task
	return nil
}

func (t *BackgroudTasks) Shutdown(ctx context.Context) error {
	const op = "tasks.BackgroudTasks.Shutdown"
	log := t.log.With("op", op)
	log.Info("shutting down background tasks")
	t.once.Do(func() {
		t.mu.Lock()
		t.stopped = true
		close(t.tasks)
		t.mu.Unlock()
	})
	shutdownCh := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(shutdownCh)
	}()
	select {
	case <-ctx.Done():
		log.Warn("graceful shutdown timed out.. forcing exit", "timeout", ctx.Err())
		return ctx.Err()
	case <-shutdownCh:
		log.Info("Background tasks succesfully stopped")
		return nil
	}
}
