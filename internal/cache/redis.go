// Package cache implements C13: a hash-bucket cache-aside decorator
// around a store.ModelStore, grounded on this stack's Redis wrapper
// but narrowed to the one read path worth caching — candidate
// gathering by (table_index, hash_key) — since that lookup is by far
// the hottest path in a query and its result set is small.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	fperrors "github.com/zfogg/soundfp/internal/errors"
	"github.com/zfogg/soundfp/internal/metrics"
	"github.com/zfogg/soundfp/internal/store"
)

// NewClient builds a redis.Client with a pool of 10 connections (5
// kept idle), up to 3 retries and fixed dial/read/write timeouts.
func NewClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})
}

// CachedStore wraps a store.ModelStore, caching
// ReadSubFingerprintsByHash results. Every other method passes
// straight through: the write paths (InsertTrack,
// InsertSubFingerprints) neither populate nor invalidate the cache.
// A bucket first read after an ingest is filled from the wrapped
// store; a bucket already cached (including an empty one) keeps
// serving its cached refs, without entries ingested later, until its
// TTL expires or Invalidate is called.
type CachedStore struct {
	store.ModelStore
	redis *redis.Client
	ttl   time.Duration
}

// NewCachedStore decorates next with a Redis-backed cache-aside layer.
// A zero ttl means entries never expire.
func NewCachedStore(next store.ModelStore, redisClient *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{ModelStore: next, redis: redisClient, ttl: ttl}
}

func bucketKey(tableIndex int, key uint32) string {
	return fmt.Sprintf("hashbucket:%d:%d", tableIndex, key)
}

// ReadSubFingerprintsByHash serves from Redis when present, else
// falls through to the wrapped store and populates the cache before
// returning.
func (c *CachedStore) ReadSubFingerprintsByHash(ctx context.Context, tableIndex int, key uint32) ([]store.SubFpRef, error) {
	k := bucketKey(tableIndex, key)

	start := time.Now()
	raw, err := c.redis.LRange(ctx, k, 0, -1).Result()
	metrics.Get().CacheOperationDuration.WithLabelValues("get").Observe(time.Since(start).Seconds())

	if err == nil && len(raw) > 0 {
		metrics.Get().CacheHitsTotal.WithLabelValues().Inc()
		return decodeRefs(raw)
	}
	if err != nil && err != redis.Nil {
		return nil, fperrors.StoreFailuref(err, "hash-bucket cache read")
	}
	metrics.Get().CacheMissesTotal.WithLabelValues().Inc()

	refs, err := c.ModelStore.ReadSubFingerprintsByHash(ctx, tableIndex, key)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, k, refs)
	return refs, nil
}

func (c *CachedStore) populate(ctx context.Context, k string, refs []store.SubFpRef) {
	if len(refs) == 0 {
		// Cache an empty marker so repeated misses for a bucket that
		// genuinely has no entries don't keep hitting the store.
		c.redis.RPush(ctx, k, "")
	} else {
		values := make([]interface{}, len(refs))
		for i, r := range refs {
			values[i] = strconv.FormatUint(uint64(r), 10)
		}
		c.redis.RPush(ctx, k, values...)
	}
	if c.ttl > 0 {
		c.redis.Expire(ctx, k, c.ttl)
	}
}

func decodeRefs(raw []string) ([]store.SubFpRef, error) {
	if len(raw) == 1 && raw[0] == "" {
		return nil, nil
	}
	refs := make([]store.SubFpRef, 0, len(raw))
	for _, s := range raw {
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fperrors.StoreFailuref(err, "decoding cached sub-fingerprint ref %q", s)
		}
		refs = append(refs, store.SubFpRef(n))
	}
	return refs, nil
}

// Invalidate drops every cached bucket. Nothing in this module calls
// it; it is exported for callers that manage the cache themselves.
func (c *CachedStore) Invalidate(ctx context.Context) error {
	iter := c.redis.Scan(ctx, 0, "hashbucket:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fperrors.StoreFailuref(err, "scanning hash-bucket cache keys")
	}
	if len(keys) == 0 {
		return nil
	}
	return c.redis.Del(ctx, keys...).Err()
}

// Health pings the Redis connection.
func (c *CachedStore) Health(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *CachedStore) Close() error {
	return c.redis.Close()
}
