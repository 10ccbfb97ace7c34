package app

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf-ai/internal/cache"
	"bookshelf-ai/internal/config"
	"bookshelf-ai/internal/llm"
	"bookshelf-ai/internal/logger"
	"bookshelf-ai/internal/queue"
	"bookshelf-ai/internal/store"
)

func TestBuildLLM(t *testing.T) {
	log := logger.Discard()

	gen, err := buildLLM(config.Config{LLMProvider: "llama", Llama: config.LlamaConfig{Host: "model", Port: 9000}}, log)
	require.NoError(t, err)
	assert.IsType(t, &llm.LlamaClient{}, gen)

	gen, err = buildLLM(config.Config{LLMProvider: "openai", OpenAIKey: "sk-test", LLMModel: "gpt-4o-mini"}, log)
	require.NoError(t, err)
	assert.IsType(t, &llm.OpenAIClient{}, gen)

	_, err = buildLLM(config.Config{LLMProvider: "openai"}, log)
	assert.ErrorContains(t, err, "OPENAI_API_KEY")

	_, err = buildLLM(config.Config{LLMProvider: "bard"}, log)
	assert.ErrorContains(t, err, "invalid LLM_PROVIDER")
}

func TestBuildStoreAndQueueValidation(t *testing.T) {
	log := logger.Discard()

	_, err := buildStore(config.Config{StoreProvider: "postgres"}, log)
	assert.ErrorContains(t, err, "DB_URL is required")

	_, err = buildStore(config.Config{StoreProvider: "sqlite"}, log)
	assert.ErrorContains(t, err, "invalid STORE_PROVIDER")

	_, err = buildQueue(config.Config{QueueProvider: "nats"}, log)
	assert.ErrorContains(t, err, "QUEUE_URL is required")

	_, err = buildQueue(config.Config{QueueProvider: "kafka"}, log)
	assert.ErrorContains(t, err, "invalid QUEUE_PROVIDER")
}

func TestBuildCacheFallsBackToNoOp(t *testing.T) {
	log := logger.Discard()

	assert.IsType(t, &cache.NoOpCache{}, buildCache(config.Config{CacheProvider: "none"}, log))
	assert.IsType(t, &cache.NoOpCache{}, buildCache(config.Config{CacheProvider: "memcached"}, log))
	// Nothing listens on port 1.
	assert.IsType(t, &cache.NoOpCache{}, buildCache(config.Config{CacheProvider: "redis", RedisAddr: "127.0.0.1:1"}, log))
}

func TestDepsClose(t *testing.T) {
	gen := new(llm.MockGenerator)
	gen.On("Close").Return(nil)
	c := new(cache.MockCache)
	c.On("Close").Return(nil)
	q := new(queue.MockQueue)
	q.On("Close").Return(errors.New("drain failed"))
	st := new(store.MockStore)
	st.On("Close").Return(nil)

	err := Deps{LLM: gen, Cache: c, Queue: q, Store: st}.Close()
	assert.EqualError(t, err, "drain failed")

	gen.AssertExpectations(t)
	c.AssertExpectations(t)
	q.AssertExpectations(t)
	st.AssertExpectations(t)

	assert.NoError(t, Deps{}.Close())
}
