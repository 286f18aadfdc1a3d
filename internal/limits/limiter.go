package limits

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrLimitExceeded = errors.New("rate limit exceeded")

// Decision describes the caller's standing in the current window.
type Decision struct {
	Limit     int
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter is a fixed-window requests-per-minute limiter backed by Redis.
// A nil limiter, a nil client or a zero limit allows everything.
type RateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
}

func NewRateLimiter(client *redis.Client, requestsPerMinute int) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  requestsPerMinute,
		window: time.Minute,
		now:    time.Now,
	}
}

// Enabled reports whether Allow can ever reject.
func (l *RateLimiter) Enabled() bool {
	return l != nil && l.client != nil && l.limit > 0
}

// Allow counts one request for key. It returns ErrLimitExceeded once the
// window's budget is spent; other errors come from Redis.
func (l *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	if !l.Enabled() {
		return Decision{}, nil
	}

	now := l.now().UTC()
	bucket := now.Unix() / int64(l.window.Seconds())
	windowEnd := time.Unix((bucket+1)*int64(l.window.Seconds()), 0)
	redisKey := fmt.Sprintf("rpm:%s:%d", key, bucket)

	cnt, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit incr: %w", err)
	}
	if cnt == 1 {
		l.client.Expire(ctx, redisKey, l.window)
	}

	decision := Decision{
		Limit:     l.limit,
		Remaining: max(l.limit-int(cnt), 0),
		ResetIn:   windowEnd.Sub(now),
	}
	if int(cnt) > l.limit {
		return decision, ErrLimitExceeded
	}
	return decision, nil
}
