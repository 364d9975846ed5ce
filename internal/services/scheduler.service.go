package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// PeriodicTask runs fn once immediately and then again interval after each run
// completes, so a slow run delays the next one instead of stacking up.
// It stops when its context is cancelled or Stop is called.
type PeriodicTask struct {
	name     string
	interval time.Duration
	fn       func(ctx context.Context)
	log      *zap.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once

	mu   sync.Mutex
	runs uint64
}

// StartPeriodic launches a task on its own goroutine.
func StartPeriodic(ctx context.Context, name string, interval time.Duration, fn func(ctx context.Context), log *zap.Logger) *PeriodicTask {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	t := &PeriodicTask{
		name:     name,
		interval: interval,
		fn:       fn,
		log:      log.With(zap.String("task", name)),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go t.loop(ctx)
	t.log.Debug("task started", zap.Duration("interval", interval))
	return t
}

func (t *PeriodicTask) loop(ctx context.Context) {
	defer close(t.done)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			t.runOnce(ctx)
			if ctx.Err() != nil {
				return
			}
			timer.Reset(t.interval)
		}
	}
}

func (t *PeriodicTask) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("task panicked", zap.Any("panic", r))
		}
		t.mu.Lock()
		t.runs++
		t.mu.Unlock()
	}()
	t.fn(ctx)
}

// Runs returns how many times the task has run.
func (t *PeriodicTask) Runs() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.runs
}

// Name returns the task name.
func (t *PeriodicTask) Name() string { return t.name }

// Stop cancels the task and waits for an in-flight run to finish. Safe to call
// more than once.
func (t *PeriodicTask) Stop() {
	t.stopOnce.Do(func() {
		t.cancel()
		<-t.done
		t.log.Debug("task stopped")
	})
}

// Done is closed once the task loop has exited.
func (t *PeriodicTask) Done() <-chan struct{} { return t.done }
