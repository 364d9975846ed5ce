package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestPeriodicTask_RunsImmediatelyAndRepeats(t *testing.T) {
	var calls atomic.Int64
	task := StartPeriodic(context.Background(), "test", 5*time.Millisecond, func(context.Context) {
		calls.Add(1)
	}, nil)
	defer task.Stop()

	waitFor(t, func() bool { return calls.Load() >= 3 })
	if task.Runs() < 3 {
		t.Errorf("expected at least 3 runs, got %d", task.Runs())
	}
}

func TestPeriodicTask_StopIsDeterministic(t *testing.T) {
	var calls atomic.Int64
	task := StartPeriodic(context.Background(), "test", time.Millisecond, func(context.Context) {
		calls.Add(1)
	}, nil)

	waitFor(t, func() bool { return calls.Load() >= 1 })
	task.Stop()
	task.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Errorf("task ran after Stop returned: %d -> %d", after, calls.Load())
	}

	select {
	case <-task.Done():
	default:
		t.Error("expected Done to be closed after Stop")
	}
}

func TestPeriodicTask_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	task := StartPeriodic(ctx, "test", time.Hour, func(context.Context) {}, nil)

	waitFor(t, func() bool { return task.Runs() == 1 })
	cancel()

	select {
	case <-task.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("task did not exit after context cancel")
	}
}

func TestPeriodicTask_SurvivesPanic(t *testing.T) {
	var calls atomic.Int64
	task := StartPeriodic(context.Background(), "test", time.Millisecond, func(context.Context) {
		if calls.Add(1) == 1 {
			panic("first run fails")
		}
	}, nil)
	defer task.Stop()

	waitFor(t, func() bool { return calls.Load() >= 3 })
}

func TestPeriodicTask_NoOverlap(t *testing.T) {
	var running, overlaps atomic.Int64
	task := StartPeriodic(context.Background(), "test", time.Millisecond, func(context.Context) {
		if running.Add(1) > 1 {
			overlaps.Add(1)
		}
		time.Sleep(3 * time.Millisecond)
		running.Add(-1)
	}, nil)

	waitFor(t, func() bool { return task.Runs() >= 3 })
	task.Stop()

	if overlaps.Load() != 0 {
		t.Errorf("expected runs never to overlap, saw %d", overlaps.Load())
	}
}
