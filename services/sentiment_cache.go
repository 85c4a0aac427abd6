package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/singleflight"

	"influencer-feedback-server/storage"
)

// SentimentCache memoizes per-row sentiment buckets so re-renders of the
// same profile do not re-invoke the model.
type SentimentCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key string, value string)
}

// MemorySentimentCache is the in-process default.
type MemorySentimentCache struct {
	mu      sync.RWMutex
	buckets map[string]string
}

func NewMemorySentimentCache() *MemorySentimentCache {
	return &MemorySentimentCache{buckets: map[string]string{}}
}

func (c *MemorySentimentCache) Get(ctx context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.buckets[key]
	return v, ok
}

func (c *MemorySentimentCache) Set(ctx context.Context, key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[key] = value
}

// RedisSentimentCache keeps buckets in Redis so restarts of the server do
// not re-classify an unchanged dataset. TTL bounds staleness after the
// underlying export changes.
type RedisSentimentCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func (c *RedisSentimentCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := c.Client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, true
}

func (c *RedisSentimentCache) Set(ctx context.Context, key, value string) {
	c.Client.Set(ctx, key, value, c.TTL)
}

var (
	sentimentCache     SentimentCache
	sentimentCacheOnce sync.Once
	classifyGroup      singleflight.Group
)

// InitializeSentimentCache picks Redis when storage.InitializeRedis
// connected a client, in-memory otherwise.
func InitializeSentimentCache() SentimentCache {
	sentimentCacheOnce.Do(func() {
		if storage.Redis != nil {
			sentimentCache = &RedisSentimentCache{Client: storage.Redis, TTL: 24 * time.Hour}
			return
		}
		sentimentCache = NewMemorySentimentCache()
	})
	return sentimentCache
}

// ResetSentimentCacheForTest clears the singleton between test cases.
func ResetSentimentCacheForTest() {
	sentimentCache = nil
	sentimentCacheOnce = sync.Once{}
}

// SentimentKey identifies one classified cell: the row index is stable for
// the process lifetime because the dataset is immutable after load.
func SentimentKey(perfil string, row int) string {
	return fmt.Sprintf("sentiment:%s:%d", perfil, row)
}

// CachedSentiment classifies through the memo cache. Concurrent misses on
// the same key collapse into a single model call. Fallback values are not
// cached, so a later render can recover from a transient model failure.
func CachedSentiment(ctx context.Context, key, text string) string {
	cache := InitializeSentimentCache()
	if v, ok := cache.Get(ctx, key); ok {
		return v
	}
	v, _, _ := classifyGroup.Do(key, func() (interface{}, error) {
		if v, ok := cache.Get(ctx, key); ok {
			return v, nil
		}
		bucket := AnalyzeSentiment(ctx, text)
		if bucket != SentimentFallback {
			cache.Set(ctx, key, bucket)
		}
		return bucket, nil
	})
	return v.(string)
}
