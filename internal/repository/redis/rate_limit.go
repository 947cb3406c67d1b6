package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/arklim/social-platform-auth/internal/core/port"
)

// RateLimitRepository persists sliding-window attempt records in Redis sorted
// sets, scored by attempt time.
type RateLimitRepository struct {
	client *red.Client
	prefix string
	ttl    time.Duration
}

// NewRateLimitRepository constructs a repository using the provided client.
// The TTL caps how long an idle window key survives.
func NewRateLimitRepository(client *red.Client, keyPrefix string, ttl time.Duration) *RateLimitRepository {
	return &RateLimitRepository{client: client, prefix: keyPrefix, ttl: ttl}
}

// RecordAttempt stores the provided timestamp in the window and refreshes the
// key TTL.
func (r *RateLimitRepository) RecordAttempt(ctx context.Context, identifier string, at time.Time) error {
	key := r.key(identifier)
	member := red.Z{Score: float64(at.UnixNano()), Member: at.UnixNano()}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, key, member)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis record attempt: %w", err)
	}

	return nil
}

// CountAttempts returns how many attempts fall inside the window ending at
// the reference time.
func (r *RateLimitRepository) CountAttempts(ctx context.Context, identifier string, window time.Duration, reference time.Time) (int, error) {
	if window <= 0 {
		return 0, errors.New("window must be positive")
	}

	count, err := r.client.ZCount(ctx, r.key(identifier), windowMin(window, reference), windowMax(reference)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis zcount: %w", err)
	}

	return int(count), nil
}

// TrimWindow removes attempts older than the window relative to the
// reference time.
func (r *RateLimitRepository) TrimWindow(ctx context.Context, identifier string, window time.Duration, reference time.Time) error {
	if window <= 0 {
		return errors.New("window must be positive")
	}

	if err := r.client.ZRemRangeByScore(ctx, r.key(identifier), "-inf", windowMin(window, reference)).Err(); err != nil {
		return fmt.Errorf("redis zremrangebyscore: %w", err)
	}

	return nil
}

// OldestAttempt returns the oldest attempt remaining inside the active
// window, used to compute retry-after durations.
func (r *RateLimitRepository) OldestAttempt(ctx context.Context, identifier string, window time.Duration, reference time.Time) (time.Time, bool, error) {
	if window <= 0 {
		return time.Time{}, false, errors.New("window must be positive")
	}

	values, err := r.client.ZRangeByScore(ctx, r.key(identifier), &red.ZRangeBy{
		Min:   windowMin(window, reference),
		Max:   windowMax(reference),
		Count: 1,
	}).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("redis zrangebyscore: %w", err)
	}
	if len(values) == 0 {
		return time.Time{}, false, nil
	}

	nanos, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse attempt timestamp: %w", err)
	}

	return time.Unix(0, nanos), true, nil
}

func (r *RateLimitRepository) key(identifier string) string {
	if r.prefix == "" {
		return identifier
	}
	return fmt.Sprintf("%s:%s", r.prefix, identifier)
}

func windowMin(window time.Duration, reference time.Time) string {
	return strconv.FormatInt(reference.Add(-window).UnixNano(), 10)
}

func windowMax(reference time.Time) string {
	return strconv.FormatInt(reference.UnixNano(), 10)
}

var _ port.RateLimitStore = (*RateLimitRepository)(nil)
