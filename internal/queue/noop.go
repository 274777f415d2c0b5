package queue

import "context"

// NoOpQueue drops tasks. Used when QUEUE_PROVIDER=none so the planner runs
// without a recorder.
type NoOpQueue struct{}

func NewNoOpQueue() *NoOpQueue {
	return &NoOpQueue{}
}

func (q *NoOpQueue) Enqueue(context.Context, Task) error {
	return nil
}

// Worker blocks until ctx is done; there is never anything to consume.
func (q *NoOpQueue) Worker(ctx context.Context, _ TaskType, _ Handler) error {
	<-ctx.Done()
	return nil
}
