package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestCronSchedulerInvalidSpec(t *testing.T) {
	t.Parallel()

	sched := NewCronScheduler("not a cron spec", time.UTC)

	err := sched.Start(context.Background(), func(time.Time) {})
	if err == nil {
		t.Fatal("expected an error for an invalid cron expression")
	}
}

func TestCronSchedulerRunsJob(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	triggered := make(chan time.Time, 1)
	sched := NewCronScheduler("@every 10ms", time.UTC)

	if err := sched.Start(ctx, func(now time.Time) {
		select {
		case triggered <- now:
		default:
		}
	}); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
		defer stopCancel()
		_ = sched.Stop(stopCtx)
	}()

	select {
	case <-triggered:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not triggered")
	}
}

func TestCronSchedulerStopWithoutStart(t *testing.T) {
	t.Parallel()

	sched := NewCronScheduler("@daily", time.UTC)
	if err := sched.Stop(context.Background()); err != nil {
		t.Fatalf("Stop without Start must be a no-op, got %v", err)
	}
}
