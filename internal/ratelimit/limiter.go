package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Limiter keeps a sliding log of hits per key in a Redis sorted set. A burst
// of keystrokes is judged against the last Window, not a calendar bucket.
// A Limiter without a client or with Limit <= 0 allows everything.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Limit  int
	Window time.Duration

	now func() time.Time
}

// KEYS[1] log key; ARGV now_ms, window_ms, limit, member.
// Returns {allowed, retry_after_ms}.
var slidingLog = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", now - window)
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
  local oldest = redis.call("ZRANGE", KEYS[1], 0, 0, "WITHSCORES")
  local retry = window
  if oldest[2] then
    retry = tonumber(oldest[2]) + window - now
  end
  return {0, retry}
end
redis.call("ZADD", KEYS[1], now, ARGV[4])
redis.call("PEXPIRE", KEYS[1], window)
return {1, 0}
`)

func (l *Limiter) Enabled() bool {
	return l != nil && l.Client != nil && l.Limit > 0
}

func (l *Limiter) window() time.Duration {
	if l.Window > 0 {
		return l.Window
	}
	return time.Second
}

func (l *Limiter) clock() time.Time {
	if l.now != nil {
		return l.now()
	}
	return time.Now()
}

// Allow records one hit for key unless Limit hits already fall inside the
// window. When refused it also returns how long until the oldest hit ages out.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	if !l.Enabled() {
		return true, 0, nil
	}

	res, err := slidingLog.Run(ctx, l.Client,
		[]string{l.Prefix + key},
		l.clock().UnixMilli(), l.window().Milliseconds(), l.Limit, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return false, 0, err
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("ratelimit: unexpected reply %v", res)
	}
	if res[0] == 1 {
		return true, 0, nil
	}
	return false, max(time.Duration(res[1])*time.Millisecond, time.Millisecond), nil
}
