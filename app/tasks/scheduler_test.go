package tasks

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingTask struct {
	Task
}

func (t *failingTask) Execute(ctx context.Context) error {
	return errors.New("task failed")
}

func newBareScheduler() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sourceNextFetch: make(map[string]time.Time),
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 10),
	}
}

func TestFailedTaskRetryEnqueued(t *testing.T) {
	s := newBareScheduler()

	task := &failingTask{Task: NewTask(TaskTypePollTelegraph, "telegraph")}
	s.executeTask(0, task)

	if task.GetRetryCount() != 1 {
		t.Fatalf("Expected retry count 1 after failure, got %d", task.GetRetryCount())
	}

	select {
	case got := <-s.taskQueue:
		if got.GetID() != task.GetID() {
			t.Errorf("Expected the failed task re-enqueued, got %s", got.GetID())
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Expected the failed task re-enqueued for retry")
	}

	s.Stop()
}

func TestStopWaitsForPendingRetry(t *testing.T) {
	s := newBareScheduler()

	task := &failingTask{Task: NewTask(TaskTypePollTelegraph, "telegraph")}
	s.executeTask(0, task)

	// Stop must cancel the pending retry and return without touching a
	// closed queue.
	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return while a retry was pending")
	}

	if _, ok := <-s.taskQueue; ok {
		t.Error("Expected no task enqueued after Stop")
	}
}

func TestExhaustedTaskNotRetried(t *testing.T) {
	s := newBareScheduler()

	task := &failingTask{Task: NewTask(TaskTypePollTelegraph, "telegraph")}
	task.RetryCount = task.MaxRetries
	s.executeTask(0, task)

	s.Stop()

	if _, ok := <-s.taskQueue; ok {
		t.Error("Expected no retry for an exhausted task")
	}
}
