package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/vitalcircle/vitalcircle/config"
	"github.com/vitalcircle/vitalcircle/utils"
)

const limiterIdleTTL = 5 * time.Minute

type rateLimiter struct {
	limiter *rate.Limiter
	expires time.Time
}

// limiterSet is a keyed collection of token buckets that forgets idle keys.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rateLimiter
	limit    rate.Limit
	burst    int
}

func newLimiterSet(perMinute int) *limiterSet {
	perMinute = maxInt(perMinute, 1)
	return &limiterSet{
		limiters: map[string]*rateLimiter{},
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    maxInt(perMinute/2, 1),
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for k, l := range s.limiters {
		if now.After(l.expires) {
			delete(s.limiters, k)
		}
	}

	l, ok := s.limiters[key]
	if !ok {
		l = &rateLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = l
	}
	l.expires = now.Add(limiterIdleTTL)
	return l.limiter.Allow()
}

// RateLimitMiddleware applies a token bucket per client, keyed by user id when authenticated
// and by IP otherwise.
func RateLimitMiddleware() gin.HandlerFunc {
	set := newLimiterSet(config.Get().RateLimitPerMinute)

	return func(ctx *gin.Context) {
		key := "ip:" + ctx.ClientIP()
		if id, ok := ctx.Get(ContextUserIDKey); ok {
			if uid, ok := id.(uint); ok {
				key = "user:" + strconv.FormatUint(uint64(uid), 10)
			}
		}
		if !set.allow(key) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
