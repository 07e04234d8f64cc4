package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is a process-local Queue/Consumer used by tests and dev mode.
// It keeps the broker's semantics (delayed eligibility, claim before ack,
// redelivery via Requeue or an expired claim) without Redis.
type MemoryQueue struct {
	mu         sync.Mutex
	waiting    []*memoryEntry
	inflight   map[string]*memoryClaim
	visibility time.Duration
}

type memoryEntry struct {
	job   *Job
	runAt time.Time
}

type memoryClaim struct {
	job       *Job
	claimedAt time.Time
}

func NewMemory() *MemoryQueue {
	return NewMemoryWithVisibility(2 * time.Minute)
}

// NewMemoryWithVisibility sets how long a claimed job may sit unacked before
// it is handed out again.
func NewMemoryWithVisibility(visibility time.Duration) *MemoryQueue {
	return &MemoryQueue{
		inflight:   make(map[string]*memoryClaim),
		visibility: visibility,
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, typ string, payload any, delay time.Duration) error {
	job, err := NewJob(typ, payload)
	if err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiting = append(q.waiting, &memoryEntry{job: job, runAt: time.Now().Add(delay)})
	return nil
}

// Dequeue claims the first due job, polling until one becomes eligible or
// ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		if job := q.claimDue(); job != nil {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *MemoryQueue) claimDue() *Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	now := time.Now()
	for id, c := range q.inflight {
		if now.Sub(c.claimedAt) < q.visibility {
			continue
		}
		delete(q.inflight, id)
		q.waiting = append(q.waiting, &memoryEntry{job: c.job, runAt: now})
	}
	for i, e := range q.waiting {
		if e.runAt.After(now) {
			continue
		}
		q.waiting = append(q.waiting[:i], q.waiting[i+1:]...)
		q.inflight[e.job.ID] = &memoryClaim{job: e.job, claimedAt: now}
		return e.job
	}
	return nil
}

func (q *MemoryQueue) Ack(_ context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.inflight, job.ID)
	return nil
}

func (q *MemoryQueue) Requeue(_ context.Context, job *Job, delay time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.waiting = append(q.waiting, &memoryEntry{job: job, runAt: time.Now().Add(delay)})
	delete(q.inflight, job.ID)
	return nil
}

func (q *MemoryQueue) Stats(_ context.Context) (Stats, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:     int64(len(q.waiting)),
		Processing:  int64(len(q.inflight)),
		WorkerAlive: true,
	}, nil
}
