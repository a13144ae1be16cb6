package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxFailures = 10
	defaultWindow      = 15 * time.Minute
)

// LoginThrottle counts failed logins per key in Redis.
// Key format: login:failures:<key>
//
// The counter expires one window after the first failure, so a burst of
// failures locks the key for at most one window.
type LoginThrottle struct {
	client      *redis.Client
	maxFailures int64
	window      time.Duration
}

// NewLoginThrottle creates a LoginThrottle. Non-positive limits fall back to
// 10 failures per 15 minutes.
func NewLoginThrottle(client *redis.Client, maxFailures int, window time.Duration) *LoginThrottle {
	if maxFailures <= 0 {
		maxFailures = defaultMaxFailures
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &LoginThrottle{client: client, maxFailures: int64(maxFailures), window: window}
}

// Allow reports whether key is still below the failure limit.
func (t *LoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := t.client.Get(ctx, t.key(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("throttle check: %w", err)
	}
	return n < t.maxFailures, nil
}

// recordFailure increments the counter and, in the same step, gives it a
// TTL whenever it has none. A counter can therefore never outlive a window.
var recordFailure = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// RecordFailure increments the counter and starts the window on the first
// failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, key string) error {
	if err := recordFailure.Run(ctx, t.client, []string{t.key(key)}, t.window.Milliseconds()).Err(); err != nil {
		return fmt.Errorf("throttle record: %w", err)
	}
	return nil
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, key string) error {
	return t.client.Del(ctx, t.key(key)).Err()
}

// Ping checks the Redis connection.
func (t *LoginThrottle) Ping(ctx context.Context) error {
	return t.client.Ping(ctx).Err()
}

func (t *LoginThrottle) key(key string) string {
	return "login:failures:" + key
}
