package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/payflow/gateway/pkg/tool"
)

// Job is the durable work envelope. Payload is opaque to the queue; the
// worker dispatches on Type.
type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// NewJob marshals payload and wraps it in an envelope.
func NewJob(typ string, payload any) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s payload: %w", typ, err)
	}
	return &Job{
		ID:         tool.GenerateUUIDV7(),
		Type:       typ,
		Payload:    raw,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Stats is the live introspection surface exposed to the job-status API.
type Stats struct {
	Pending     int64 `json:"pending"`
	Processing  int64 `json:"processing"`
	WorkerAlive bool  `json:"worker_alive"`
}

// Queue schedules durable units of work. Enqueue with delay d makes the job
// eligible at-or-after now+d; d=0 means as soon as a worker is free.
// Delivery is at-least-once: a consumer crash before Ack results in
// redelivery after the visibility timeout.
type Queue interface {
	Enqueue(ctx context.Context, typ string, payload any, delay time.Duration) error
	Stats(ctx context.Context) (Stats, error)
}

// Consumer is the worker-side contract. Dequeue blocks until a job is
// claimed or ctx is done.
type Consumer interface {
	Dequeue(ctx context.Context) (*Job, error)
	Ack(ctx context.Context, job *Job) error
	Requeue(ctx context.Context, job *Job, delay time.Duration) error
}

// RetryDirective is returned (as an error) by a job handler that wants the
// harness to re-enqueue the same job type with a new payload after a delay.
// Handlers never talk to the queue directly; the retry policy stays a pure
// decision the harness executes.
type RetryDirective struct {
	After   time.Duration
	Payload any
}

func (d *RetryDirective) Error() string {
	return fmt.Sprintf("retry after %s", d.After)
}

// Retry builds a RetryDirective.
func Retry(after time.Duration, payload any) *RetryDirective {
	return &RetryDirective{After: after, Payload: payload}
}
