package utils

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vitalcircle/vitalcircle/config"
)

// Registration guard. Every check fails open when Redis is unavailable.

func regKey(parts ...string) string {
	return CacheKey(append([]string{"reg"}, parts...)...)
}

func regContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 500*time.Millisecond)
}

// RegistrationCooldownTry enforces a short cooldown between attempts per IP.
func RegistrationCooldownTry(ip string) bool {
	sec := config.Get().RegisterAttemptCooldownSec
	cli := GetRedis()
	if sec <= 0 || cli == nil {
		return true
	}
	ctx, cancel := regContext()
	defer cancel()
	ok, err := cli.SetNX(ctx, regKey("cooldown", ip), "1", time.Duration(sec)*time.Second).Result()
	if err != nil {
		return true
	}
	return ok
}

// RegistrationDailyLimitCheck allows up to N successful registrations per day per IP.
func RegistrationDailyLimitCheck(ip string) bool {
	limit := config.Get().RegisterMaxPerIPPerDay
	cli := GetRedis()
	if limit <= 0 || cli == nil {
		return true
	}
	ctx, cancel := regContext()
	defer cancel()
	n, err := cli.Get(ctx, regKey("succday", ip, time.Now().UTC().Format("20060102"))).Int()
	if err == redis.Nil {
		n = 0
	} else if err != nil {
		return true
	}
	return n < limit
}

// RegistrationDailyIncrement increments the success counter for today.
func RegistrationDailyIncrement(ip string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	ctx, cancel := regContext()
	defer cancel()
	now := time.Now().UTC()
	key := regKey("succday", ip, now.Format("20060102"))
	if err := cli.Incr(ctx, key).Err(); err == nil {
		_ = cli.Expire(ctx, key, time.Until(now.Truncate(24*time.Hour).Add(24*time.Hour))).Err()
	}
}

// RegistrationFailRecord increments the failure count for the current hour and returns it.
// Reaching the configured maximum bans the IP temporarily.
func RegistrationFailRecord(ip string) int {
	cli := GetRedis()
	if cli == nil {
		return 0
	}
	ctx, cancel := regContext()
	defer cancel()
	key := regKey("failhour", ip, time.Now().UTC().Format("2006010215"))
	n, err := cli.Incr(ctx, key).Result()
	if err != nil {
		return 0
	}
	_ = cli.Expire(ctx, key, time.Hour).Err()
	if limit := config.Get().RegisterFailedMaxPerIPPerHour; limit > 0 && int(n) >= limit {
		RegistrationBan(ip)
	}
	return int(n)
}

// RegistrationIsBanned checks temporary ban status for IP.
func RegistrationIsBanned(ip string) bool {
	cli := GetRedis()
	if cli == nil {
		return false
	}
	ctx, cancel := regContext()
	defer cancel()
	exists, err := cli.Exists(ctx, regKey("ban", ip)).Result()
	if err != nil {
		return false
	}
	return exists > 0
}

// RegistrationBan sets a temporary ban for IP.
func RegistrationBan(ip string) {
	cli := GetRedis()
	if cli == nil {
		return
	}
	minutes := config.Get().RegisterTempBanMinutes
	if minutes <= 0 {
		minutes = 60
	}
	ctx, cancel := regContext()
	defer cancel()
	_ = cli.Set(ctx, regKey("ban", ip), "ban-"+strings.ReplaceAll(ip, ":", "_"), time.Duration(minutes)*time.Minute).Err()
}
