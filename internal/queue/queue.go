package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"bookshelf-ai/internal/retry"
)

// TaskType enumerates supported task categories.
type TaskType string

const (
	// TaskTypeParse splits uploaded book content into stored chunks.
	TaskTypeParse TaskType = "parse"
	// TaskTypeSummarize generates and stores a book summary from its chunks.
	TaskTypeSummarize TaskType = "summarize"
)

// DefaultMaxAttempts bounds redelivery of a failing task.
const DefaultMaxAttempts = 5

// Task represents a unit of background work.
type Task struct {
	ID          uuid.UUID
	Type        TaskType
	Payload     []byte
	Attempts    int
	MaxAttempts int
	NotBefore   time.Time
}

// ParsePayload references content already saved with the book; messages
// carry ids only so their size does not grow with the upload.
type ParsePayload struct {
	BookID int64 `json:"book_id"`
}

type SummarizePayload struct {
	BookID int64 `json:"book_id"`
}

type Handler func(context.Context, Task) error

// Queue exposes a minimal contract to enqueue and consume tasks.
type Queue interface {
	Enqueue(ctx context.Context, task Task) error
	Worker(ctx context.Context, taskType TaskType, handler Handler) error
	Close() error
}

// NewTask encodes payload into a fresh task of the given type.
func NewTask(taskType TaskType, payload any) (Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return Task{}, err
	}
	return Task{
		ID:          uuid.New(),
		Type:        taskType,
		Payload:     body,
		MaxAttempts: DefaultMaxAttempts,
	}, nil
}

// EnqueueWithRetry attempts to enqueue with retries and exponential backoff.
func EnqueueWithRetry(ctx context.Context, q Queue, task Task, attempts int, base time.Duration) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 0; attempt < attempts; attempt++ {
		if err := q.Enqueue(ctx, task); err == nil {
			return nil
		} else if attempt == attempts-1 {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retry.ExponentialBackoff(attempt, base)):
		}
	}
	return nil
}
