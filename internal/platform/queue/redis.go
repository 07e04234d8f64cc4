package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/payflow/gateway/pkg/tool"
)

// RedisQueue is the durable broker. Layout under the configured prefix:
//
//	<p>:jobs:scheduled  zset, member = job JSON, score = run-at unix seconds
//	<p>:jobs:ready      list of job JSON, eligible now
//	<p>:jobs:inflight   list of job JSON claimed by a consumer
//	<p>:jobs:claims     hash job-id -> claim unix seconds
//	<p>:workers         zset worker-id -> last heartbeat unix seconds
//
// A claim moves the job atomically from ready to inflight (BLMOVE); Ack
// removes it. Jobs whose claim outlives the visibility timeout are pushed
// back to ready, which is what makes delivery at-least-once.
type RedisQueue struct {
	rdb        *redis.Client
	log        *zap.SugaredLogger
	prefix     string
	workerID   string
	visibility time.Duration
	lastReap   atomic.Int64
}

const (
	workerHeartbeatTTL = 15 * time.Second
	reapInterval       = 5 * time.Second
)

type RedisQueueOptions struct {
	Client     *redis.Client
	Logger     *zap.SugaredLogger
	Prefix     string
	Visibility time.Duration
}

func NewRedis(opts RedisQueueOptions) *RedisQueue {
	if opts.Prefix == "" {
		opts.Prefix = "payflow"
	}
	if opts.Visibility <= 0 {
		opts.Visibility = 2 * time.Minute
	}
	return &RedisQueue{
		rdb:        opts.Client,
		log:        opts.Logger,
		prefix:     opts.Prefix,
		workerID:   tool.GenerateUUIDV7(),
		visibility: opts.Visibility,
	}
}

func (q *RedisQueue) scheduledKey() string { return q.prefix + ":jobs:scheduled" }
func (q *RedisQueue) readyKey() string     { return q.prefix + ":jobs:ready" }
func (q *RedisQueue) inflightKey() string  { return q.prefix + ":jobs:inflight" }
func (q *RedisQueue) claimsKey() string    { return q.prefix + ":jobs:claims" }
func (q *RedisQueue) workersKey() string   { return q.prefix + ":workers" }

func (q *RedisQueue) Enqueue(ctx context.Context, typ string, payload any, delay time.Duration) error {
	job, err := NewJob(typ, payload)
	if err != nil {
		return err
	}
	return q.push(ctx, job, delay)
}

func (q *RedisQueue) push(ctx context.Context, job *Job, delay time.Duration) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal job: %w", err)
	}
	if delay > 0 {
		score := float64(time.Now().Add(delay).Unix())
		if err := q.rdb.ZAdd(ctx, q.scheduledKey(), redis.Z{Score: score, Member: raw}).Err(); err != nil {
			return fmt.Errorf("queue: schedule %s: %w", job.Type, err)
		}
		return nil
	}
	if err := q.rdb.LPush(ctx, q.readyKey(), raw).Err(); err != nil {
		return fmt.Errorf("queue: enqueue %s: %w", job.Type, err)
	}
	return nil
}

// promoteDue moves scheduled jobs whose run-at has passed onto the ready
// list. ZRem arbitrates between concurrent workers: only the remover wins.
func (q *RedisQueue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	members, err := q.rdb.ZRangeByScore(ctx, q.scheduledKey(), &redis.ZRangeBy{
		Min: "-inf", Max: now, Count: 100,
	}).Result()
	if err != nil {
		return err
	}
	for _, m := range members {
		removed, err := q.rdb.ZRem(ctx, q.scheduledKey(), m).Result()
		if err != nil {
			return err
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, q.readyKey(), m).Err(); err != nil {
			return err
		}
	}
	return nil
}

// reapStale returns inflight jobs with an expired claim to the ready list.
func (q *RedisQueue) reapStale(ctx context.Context) error {
	entries, err := q.rdb.LRange(ctx, q.inflightKey(), 0, -1).Result()
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-q.visibility).Unix()
	for _, raw := range entries {
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			q.rdb.LRem(ctx, q.inflightKey(), 1, raw)
			continue
		}
		claimStr, err := q.rdb.HGet(ctx, q.claimsKey(), job.ID).Result()
		if err == redis.Nil {
			// claim record lost; adopt it so the next pass can judge age
			q.rdb.HSet(ctx, q.claimsKey(), job.ID, time.Now().Unix())
			continue
		}
		if err != nil {
			return err
		}
		claimedAt, _ := strconv.ParseInt(claimStr, 10, 64)
		if claimedAt >= cutoff {
			continue
		}
		removed, err := q.rdb.LRem(ctx, q.inflightKey(), 1, raw).Result()
		if err != nil {
			return err
		}
		if removed > 0 {
			q.rdb.HDel(ctx, q.claimsKey(), job.ID)
			if err := q.rdb.LPush(ctx, q.readyKey(), raw).Err(); err != nil {
				return err
			}
			q.log.Warnw("reclaimed stale job", "job_id", job.ID, "type", job.Type)
		}
	}
	return nil
}

// maybeReap runs reapStale at most once per reapInterval across all
// consumer goroutines sharing this queue.
func (q *RedisQueue) maybeReap(ctx context.Context) {
	now := time.Now().Unix()
	last := q.lastReap.Load()
	if now-last < int64(reapInterval/time.Second) {
		return
	}
	if !q.lastReap.CompareAndSwap(last, now) {
		return
	}
	if err := q.reapStale(ctx); err != nil {
		q.log.Warnw("reap stale jobs failed", "err", err)
	}
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := q.promoteDue(ctx); err != nil {
			q.log.Warnw("promote scheduled jobs failed", "err", err)
		}
		q.maybeReap(ctx)
		q.heartbeat(ctx)

		raw, err := q.rdb.BLMove(ctx, q.readyKey(), q.inflightKey(), "RIGHT", "LEFT", time.Second).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("queue: dequeue: %w", err)
		}
		var job Job
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			q.log.Errorw("discarding undecodable job", "err", err)
			q.rdb.LRem(ctx, q.inflightKey(), 1, raw)
			continue
		}
		q.rdb.HSet(ctx, q.claimsKey(), job.ID, time.Now().Unix())
		return &job, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LRem(ctx, q.inflightKey(), 1, raw).Err(); err != nil {
		return fmt.Errorf("queue: ack %s: %w", job.ID, err)
	}
	return q.rdb.HDel(ctx, q.claimsKey(), job.ID).Err()
}

// Requeue pushes the fresh copy before dropping the claimed one so a crash
// in between duplicates the job instead of losing it.
func (q *RedisQueue) Requeue(ctx context.Context, job *Job, delay time.Duration) error {
	if err := q.push(ctx, job, delay); err != nil {
		return err
	}
	return q.Ack(ctx, job)
}

func (q *RedisQueue) heartbeat(ctx context.Context) {
	now := float64(time.Now().Unix())
	if err := q.rdb.ZAdd(ctx, q.workersKey(), redis.Z{Score: now, Member: q.workerID}).Err(); err != nil {
		q.log.Warnw("worker heartbeat failed", "err", err)
	}
}

func (q *RedisQueue) Stats(ctx context.Context) (Stats, error) {
	ready, err := q.rdb.LLen(ctx, q.readyKey()).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("queue: stats: %w", err)
	}
	scheduled, err := q.rdb.ZCard(ctx, q.scheduledKey()).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("queue: stats: %w", err)
	}
	inflight, err := q.rdb.LLen(ctx, q.inflightKey()).Result()
	if err != nil {
		return Stats{}, fmt.Errorf("queue: stats: %w", err)
	}
	cutoff := strconv.FormatInt(time.Now().Add(-workerHeartbeatTTL).Unix(), 10)
	workers, err := q.rdb.ZCount(ctx, q.workersKey(), cutoff, "+inf").Result()
	if err != nil {
		return Stats{}, fmt.Errorf("queue: stats: %w", err)
	}
	return Stats{
		Pending:     ready + scheduled,
		Processing:  inflight,
		WorkerAlive: workers > 0,
	}, nil
}

// Ping verifies broker connectivity; used by the health endpoint.
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}
