package queue

import (
	"context"
	"time"

	"github.com/google/uuid"

	"meal-planner/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	// TaskTypeConsultation carries a finished consultation to the recorder.
	TaskTypeConsultation TaskType = "consultation"
)

// Task represents a unit of work passed from the planner to workers.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	return retry.Do(ctx, attempts, base, func(ctx context.Context) error {
		return q.Enqueue(ctx, task)
	})
}
