package utils

import (
	"context"
	"sync"
	"time"
)

const blacklistPrefix = cacheNamespace + "jwt:blacklist:"

var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.Mutex
)

// BlacklistToken revokes a token until its natural expiry. Redis is used when available,
// otherwise an in-process map.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, blacklistPrefix+token, "1", ttl).Err(); err == nil {
			return
		}
		Sugar.Warn("redis blacklist write failed, keeping token in memory")
	}
	blacklistMu.Lock()
	blacklist[token] = expiresAt
	sweepBlacklistLocked(time.Now())
	blacklistMu.Unlock()
}

// IsTokenBlacklisted checks if a token was revoked before natural expiration.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, blacklistPrefix+token).Result()
		if err == nil && n > 0 {
			return true
		}
	}
	blacklistMu.Lock()
	defer blacklistMu.Unlock()
	expiresAt, ok := blacklist[token]
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		delete(blacklist, token)
		return false
	}
	return true
}

func sweepBlacklistLocked(now time.Time) {
	for token, expiresAt := range blacklist {
		if now.After(expiresAt) {
			delete(blacklist, token)
		}
	}
}
