package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"bookshelf-ai/internal/app"
	"bookshelf-ai/internal/cache"
	"bookshelf-ai/internal/chunker"
	"bookshelf-ai/internal/httputil"
	"bookshelf-ai/internal/metrics"
	"bookshelf-ai/internal/queue"
	"bookshelf-ai/internal/store"
)

var chunkOptions = chunker.Options{MaxTokens: 400, Overlap: 80}

// maxSummaryChunks bounds how much of a book is sent to the model.
const maxSummaryChunks = 8

func main() {
	deps, err := app.Build()
	if err != nil {
		slog.Default().Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer func() {
		if err := deps.Close(); err != nil {
			deps.Log.Warn("error while closing dependencies", "err", err)
		}
	}()
	deps.Log.Info("worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeParse, instrument(deps, queue.TaskTypeParse, func(ctx context.Context, task queue.Task) error {
			var payload queue.ParsePayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleParse(ctx, deps, payload)
		}))
	})

	g.Go(func() error {
		return deps.Queue.Worker(ctx, queue.TaskTypeSummarize, instrument(deps, queue.TaskTypeSummarize, func(ctx context.Context, task queue.Task) error {
			var payload queue.SummarizePayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				return err
			}
			return handleSummarize(ctx, deps, payload)
		}))
	})

	g.Go(func() error {
		return httputil.ServeHealth(ctx, deps, "worker")
	})

	if err := g.Wait(); err != nil {
		deps.Log.Error("worker stopped", "err", err)
		return
	}
	deps.Log.Info("worker shut down")
}

// instrument logs and counts the outcome of every task.
func instrument(deps app.Deps, taskType queue.TaskType, handler queue.Handler) queue.Handler {
	return func(ctx context.Context, task queue.Task) error {
		start := time.Now()
		err := handler(ctx, task)
		log := deps.Log.With("task_id", task.ID, "type", taskType, "attempt", task.Attempts, "duration_ms", time.Since(start).Milliseconds())
		if err != nil {
			metrics.TasksProcessed.WithLabelValues(string(taskType), "error").Inc()
			log.Error("task failed", "err", err)
			return err
		}
		metrics.TasksProcessed.WithLabelValues(string(taskType), "ok").Inc()
		log.Info("task done")
		return nil
	}
}

func handleParse(ctx context.Context, deps app.Deps, payload queue.ParsePayload) error {
	content, err := deps.Store.GetContent(ctx, payload.BookID)
	if errors.Is(err, store.ErrNotFound) {
		// Book deleted since upload.
		deps.Log.Warn("no content to parse", "book_id", payload.BookID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get content: %w", err)
	}

	chunks := chunker.ChunkText(content, chunkOptions)
	storeChunks := make([]store.Chunk, 0, len(chunks))
	for _, c := range chunks {
		storeChunks = append(storeChunks, store.Chunk{
			BookID:     payload.BookID,
			Index:      c.Index,
			Text:       c.Text,
			TokenCount: c.TokenCount,
		})
	}
	if err := deps.Store.SaveChunks(ctx, payload.BookID, storeChunks); err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}
	if len(storeChunks) == 0 {
		deps.Log.Warn("content produced no chunks", "book_id", payload.BookID)
		return nil
	}

	task, err := queue.NewTask(queue.TaskTypeSummarize, queue.SummarizePayload{BookID: payload.BookID})
	if err != nil {
		return err
	}
	return queue.EnqueueWithRetry(ctx, deps.Queue, task, 3, 200*time.Millisecond)
}

func handleSummarize(ctx context.Context, deps app.Deps, payload queue.SummarizePayload) error {
	stored, err := deps.Store.ListChunks(ctx, payload.BookID)
	if err != nil {
		return fmt.Errorf("list chunks: %w", err)
	}
	if len(stored) == 0 {
		deps.Log.Warn("no chunks to summarize", "book_id", payload.BookID)
		return nil
	}
	if len(stored) > maxSummaryChunks {
		stored = stored[:maxSummaryChunks]
	}

	chunks := make([]chunker.Chunk, len(stored))
	for i, c := range stored {
		chunks[i] = chunker.Chunk{Index: c.Index, Text: c.Text, TokenCount: c.TokenCount}
	}
	content := chunker.Join(chunks, chunkOptions.Overlap)

	key := cache.SummaryKey(content)
	summary := ""
	if cached, err := deps.Cache.GetSummary(ctx, key); err != nil {
		deps.Log.Warn("summary cache lookup failed", "err", err)
	} else if cached != nil {
		summary = cached.Summary
	}

	if summary == "" {
		if summary, err = deps.AI.GenerateSummary(ctx, content); err != nil {
			return err
		}
		result := &cache.SummaryResult{Summary: summary, GeneratedAt: time.Now().UTC()}
		if err := deps.Cache.SetSummary(ctx, key, result, deps.Config.CacheExpiry()); err != nil {
			deps.Log.Warn("failed to cache summary", "err", err)
		}
	}

	return deps.Store.SaveSummary(ctx, payload.BookID, summary)
}
