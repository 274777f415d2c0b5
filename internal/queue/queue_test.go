package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
)

func TestEnqueueWithRetry(t *testing.T) {
	task := Task{Type: TaskTypeConsultation, Payload: []byte(`{}`)}

	tests := []struct {
		name     string
		setup    func(*MockQueue)
		attempts int
		wantErr  bool
	}{
		{
			name: "first attempt succeeds",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, task).Return(nil).Once()
			},
			attempts: 3,
		},
		{
			name: "succeeds after transient failure",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, task).Return(errors.New("nats: timeout")).Once()
				q.On("Enqueue", mock.Anything, task).Return(nil).Once()
			},
			attempts: 3,
		},
		{
			name: "gives up after all attempts",
			setup: func(q *MockQueue) {
				q.On("Enqueue", mock.Anything, task).Return(errors.New("nats: no responders")).Times(2)
			},
			attempts: 2,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := new(MockQueue)
			tt.setup(q)

			err := EnqueueWithRetry(context.Background(), q, task, tt.attempts, time.Millisecond)
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr=%v, got %v", tt.wantErr, err)
			}
			q.AssertExpectations(t)
		})
	}
}

func TestNoOpQueue(t *testing.T) {
	q := NewNoOpQueue()
	if err := q.Enqueue(context.Background(), Task{Type: TaskTypeConsultation}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- q.Worker(ctx, TaskTypeConsultation, nil) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected nil error, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}
}

func TestSubject(t *testing.T) {
	if got := subject(TaskTypeConsultation); got != "mealplan.tasks.consultation" {
		t.Errorf("unexpected subject %q", got)
	}
}
