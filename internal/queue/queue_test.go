package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask(TaskTypeParse, ParsePayload{BookID: 7})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, task.ID)
	assert.Equal(t, TaskTypeParse, task.Type)
	assert.Equal(t, DefaultMaxAttempts, task.MaxAttempts)

	var payload ParsePayload
	require.NoError(t, json.Unmarshal(task.Payload, &payload))
	assert.Equal(t, int64(7), payload.BookID)
}

func TestNewTaskUnencodablePayload(t *testing.T) {
	_, err := NewTask(TaskTypeParse, make(chan int))
	assert.Error(t, err)
}

func TestEnqueueWithRetry(t *testing.T) {
	task := Task{ID: uuid.New(), Type: TaskTypeSummarize}

	t.Run("succeeds after transient failure", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(errors.New("nats down")).Once()
		q.On("Enqueue", mock.Anything, task).Return(nil).Once()

		err := EnqueueWithRetry(context.Background(), q, task, 3, time.Millisecond)
		require.NoError(t, err)
		q.AssertNumberOfCalls(t, "Enqueue", 2)
	})

	t.Run("returns last error when attempts run out", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(errors.New("nats down"))

		err := EnqueueWithRetry(context.Background(), q, task, 2, time.Millisecond)
		assert.EqualError(t, err, "nats down")
		q.AssertNumberOfCalls(t, "Enqueue", 2)
	})

	t.Run("zero attempts still tries once", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(nil).Once()

		require.NoError(t, EnqueueWithRetry(context.Background(), q, task, 0, time.Millisecond))
		q.AssertExpectations(t)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		q := new(MockQueue)
		q.On("Enqueue", mock.Anything, task).Return(errors.New("nats down"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := EnqueueWithRetry(ctx, q, task, 5, time.Hour)
		assert.ErrorIs(t, err, context.Canceled)
		q.AssertNumberOfCalls(t, "Enqueue", 1)
	})
}

func TestNextAttempt(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	next, ok := nextAttempt(Task{Type: TaskTypeParse}, now)
	assert.True(t, ok)
	assert.Equal(t, 1, next.Attempts)
	assert.Equal(t, DefaultMaxAttempts, next.MaxAttempts)
	assert.Equal(t, now.Add(2*time.Second), next.NotBefore)

	_, ok = nextAttempt(Task{Type: TaskTypeParse, Attempts: 4, MaxAttempts: 5}, now)
	assert.False(t, ok)

	next, ok = nextAttempt(Task{Type: TaskTypeParse, Attempts: 20, MaxAttempts: 100}, now)
	assert.True(t, ok)
	assert.Equal(t, now.Add(maxRetryDelay), next.NotBefore)
}
