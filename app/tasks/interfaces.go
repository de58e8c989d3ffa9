package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. The API handlers use it to trigger manual refreshes and
// pagination without owning any pipeline dependencies.
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
	EnqueueTelegraphPoll() error
	EnqueueLoadMore() error
}
