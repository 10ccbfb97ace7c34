package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	summaryKeyPrefix        = "summary:"
	recommendationKeyPrefix = "recs:"
)

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects and pings Redis.
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return NewRedisCacheFromClient(client), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) GetSummary(ctx context.Context, key string) (*SummaryResult, error) {
	var result SummaryResult
	ok, err := c.get(ctx, summaryKeyPrefix+key, &result)
	if !ok || err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) SetSummary(ctx context.Context, key string, result *SummaryResult, ttl time.Duration) error {
	return c.set(ctx, summaryKeyPrefix+key, result, ttl)
}

func (c *RedisCache) GetRecommendations(ctx context.Context, key string) (*RecommendationResult, error) {
	var result RecommendationResult
	ok, err := c.get(ctx, recommendationKeyPrefix+key, &result)
	if !ok || err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *RedisCache) SetRecommendations(ctx context.Context, key string, result *RecommendationResult, ttl time.Duration) error {
	return c.set(ctx, recommendationKeyPrefix+key, result, ttl)
}

// InvalidateUser removes all cached recommendations for a user.
func (c *RedisCache) InvalidateUser(ctx context.Context, userID int64) error {
	pattern := recommendationKeyPrefix + strconv.FormatInt(userID, 10) + ":*"
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	pipe := c.client.Pipeline()
	count := 0
	for iter.Next(ctx) {
		pipe.Del(ctx, iter.Val())
		count++
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if count > 0 {
		_, err := pipe.Exec(ctx)
		return err
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) get(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}
