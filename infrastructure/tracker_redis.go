package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"interview-prep/domain"
)

const runKeyPrefix = "interview-prep:run:"

// RedisTracker stores run state as JSON values that expire ttl after their last write.
// Updates go through WATCH/MULTI so a merge never overwrites a concurrent one.
type RedisTracker struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisTracker(rdb *redis.Client, ttl time.Duration) *RedisTracker {
	return &RedisTracker{rdb: rdb, ttl: ttl, now: time.Now}
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

func (t *RedisTracker) Create(ctx context.Context, id, jobURL, linkedinURL string) (*domain.InterviewPrepRequest, error) {
	rec := domain.NewInterviewPrepRequest(id, jobURL, linkedinURL, t.now())
	if err := t.write(ctx, t.rdb, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (t *RedisTracker) Get(ctx context.Context, id string) (*domain.InterviewPrepRequest, error) {
	return t.read(ctx, t.rdb, id)
}

func (t *RedisTracker) Update(ctx context.Context, id string, u domain.RunUpdate) (*domain.InterviewPrepRequest, error) {
	var out *domain.InterviewPrepRequest
	key := runKeyPrefix + id

	err := t.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rec, err := t.read(ctx, tx, id)
		if err != nil {
			return err
		}
		if rec.Status.Terminal() {
			out = rec
			return domain.ErrRunFinished
		}
		u.Apply(rec, t.now())

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return t.write(ctx, pipe, rec)
		})
		out = rec
		return err
	}, key)
	if err != nil {
		return out, err
	}
	return out, nil
}

func (t *RedisTracker) read(ctx context.Context, c redis.Cmdable, id string) (*domain.InterviewPrepRequest, error) {
	raw, err := c.Get(ctx, runKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get run %s: %w", id, err)
	}

	var rec domain.InterviewPrepRequest
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	if _, err := domain.ParseAgentStep(string(rec.Progress)); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &rec, nil
}

func (t *RedisTracker) write(ctx context.Context, c redis.Cmdable, rec *domain.InterviewPrepRequest) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.ID, err)
	}
	if err := c.Set(ctx, runKeyPrefix+rec.ID, raw, t.ttl).Err(); err != nil {
		return fmt.Errorf("redis set run %s: %w", rec.ID, err)
	}
	return nil
}
