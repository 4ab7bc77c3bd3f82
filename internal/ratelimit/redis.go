package ratelimit

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// admitScript increments the window counter and starts the window TTL on the
// first hit. Returns {count, pttl}.
var admitScript = goredis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {count, ttl}
`)

// Redis is a fixed-window limiter shared by every process using the same Redis.
type Redis struct {
	rdb    goredis.UniversalClient
	prefix string
	max    int
	window time.Duration
}

// NewRedis creates a Redis-backed limiter. Keys are stored as prefix:key.
func NewRedis(rdb goredis.UniversalClient, prefix string, max int, windowLen time.Duration) *Redis {
	if max < 1 {
		max = 1
	}
	if windowLen <= 0 {
		windowLen = DefaultWindow
	}
	if prefix == "" {
		prefix = "coderooms:rl"
	}
	return &Redis{rdb: rdb, prefix: prefix, max: max, window: windowLen}
}

// Admit counts one request for key atomically on the server.
func (r *Redis) Admit(ctx context.Context, key string) (Decision, error) {
	res, err := admitScript.Run(ctx, r.rdb, []string{r.prefix + ":" + key}, r.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("redis admit: %w", err)
	}
	if len(res) != 2 {
		return Decision{}, fmt.Errorf("redis admit: unexpected reply %v", res)
	}

	count, ttl := int(res[0]), time.Duration(res[1])*time.Millisecond
	if count > r.max {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: ttl}, nil
	}
	return Decision{Allowed: true, Remaining: r.max - count, RetryAfter: ttl}, nil
}
