package utils

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const (
	cacheNamespace  = "vc:"
	defaultCacheTTL = 10 * time.Minute
)

// CacheKey joins parts under the application namespace, e.g. CacheKey("group", "3", "posts").
func CacheKey(parts ...string) string {
	return cacheNamespace + strings.Join(parts, ":")
}

// CacheGetBytes returns cached bytes for a key from Redis.
func CacheGetBytes(key string) ([]byte, bool) {
	rc := GetRedis()
	if rc == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	b, err := rc.Get(ctx, key).Bytes()
	if err != nil {
		Sugar.Debugw("cache miss", "key", key, "error", err)
		return nil, false
	}
	return b, true
}

// CacheGetJSON decodes a cached value into v. It reports false on a miss or a stale shape.
func CacheGetJSON(key string, v interface{}) bool {
	b, ok := CacheGetBytes(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(b, v); err != nil {
		Sugar.Warnw("cache entry undecodable, ignoring", "key", key, "error", err)
		return false
	}
	return true
}

// CacheSetBytes stores bytes; ttl <= 0 uses the default.
func CacheSetBytes(key string, b []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rc.Set(ctx, key, b, ttl).Err(); err != nil {
		Sugar.Warnw("cache set failed", "key", key, "error", err)
	}
}

// CacheSetJSON marshals v and stores JSON bytes.
func CacheSetJSON(key string, v interface{}, ttl time.Duration) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	CacheSetBytes(key, b, ttl)
}

// InvalidateByPrefix deletes keys that match the given prefix using SCAN.
func InvalidateByPrefix(prefix string) {
	rc := GetRedis()
	if rc == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	var cursor uint64
	for round := 0; round < 10; round++ {
		keys, next, err := rc.Scan(ctx, cursor, prefix+"*", 500).Result()
		if err != nil {
			Sugar.Warnw("cache invalidate scan failed", "prefix", prefix, "error", err)
			return
		}
		if len(keys) > 0 {
			if err := rc.Del(ctx, keys...).Err(); err != nil {
				Sugar.Warnw("cache invalidate delete failed", "prefix", prefix, "error", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return
		}
	}
}
