package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/metrics"
)

// ErrBadPayload marks a payload that can never be decoded. Jobs failing
// with it are dropped instead of redelivered.
var ErrBadPayload = errors.New("bad job payload")

// Handler executes one job payload. Returning a *queue.RetryDirective asks
// the pool to re-enqueue the job type with a new payload after a delay; any
// other error causes redelivery of the original job after the requeue
// delay. nil acknowledges the job.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Registry maps job types to handlers.
type Registry map[string]Handler

// Pool runs N consumer goroutines against the queue.
type Pool struct {
	queue        queue.Queue
	consumer     queue.Consumer
	registry     Registry
	log          *zap.SugaredLogger
	jobMetrics   *metrics.JobMetrics
	concurrency  int
	requeueDelay time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type PoolOptions struct {
	Queue        queue.Queue
	Consumer     queue.Consumer
	Registry     Registry
	Logger       *zap.SugaredLogger
	JobMetrics   *metrics.JobMetrics
	Concurrency  int
	RequeueDelay time.Duration
}

func NewPool(opts PoolOptions) *Pool {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.RequeueDelay <= 0 {
		opts.RequeueDelay = 5 * time.Second
	}
	return &Pool{
		queue:        opts.Queue,
		consumer:     opts.Consumer,
		registry:     opts.Registry,
		log:          opts.Logger,
		jobMetrics:   opts.JobMetrics,
		concurrency:  opts.Concurrency,
		requeueDelay: opts.RequeueDelay,
	}
}

// Start launches the consumer goroutines. They run until Stop.
func (p *Pool) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.consume(ctx)
		}()
	}
	p.log.Infow("worker pool started", "concurrency", p.concurrency)
}

// Stop cancels the consumers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Infow("worker pool stopped")
}

func (p *Pool) consume(ctx context.Context) {
	for {
		job, err := p.consumer.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Errorw("dequeue failed", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		p.dispatch(ctx, job)
	}
}

func (p *Pool) dispatch(ctx context.Context, job *queue.Job) {
	if p.jobMetrics != nil {
		p.jobMetrics.InFlight.Inc()
		defer p.jobMetrics.InFlight.Dec()
	}
	result := "ok"
	defer func() {
		if p.jobMetrics != nil {
			p.jobMetrics.Processed.WithLabelValues(job.Type, result).Inc()
		}
	}()

	handler, ok := p.registry[job.Type]
	if !ok {
		// unroutable; redelivering it would loop forever
		p.log.Errorw("no handler for job type, dropping", "type", job.Type, "job_id", job.ID)
		result = "drop"
		p.ackOrWarn(ctx, job)
		return
	}

	err := handler(ctx, job.Payload)
	if err == nil {
		p.ackOrWarn(ctx, job)
		return
	}

	if errors.Is(err, ErrBadPayload) {
		p.log.Errorw("malformed job payload, dropping", "type", job.Type, "job_id", job.ID, "err", err)
		result = "drop"
		p.ackOrWarn(ctx, job)
		return
	}

	var retry *queue.RetryDirective
	if errors.As(err, &retry) {
		result = "retry"
		if err := p.queue.Enqueue(ctx, job.Type, retry.Payload, retry.After); err != nil {
			// leave the original claimed so the reaper redelivers it
			p.log.Errorw("re-enqueue for retry failed", "type", job.Type, "err", err)
			result = "requeue"
			return
		}
		if p.jobMetrics != nil {
			p.jobMetrics.Enqueued.WithLabelValues(job.Type).Inc()
		}
		p.ackOrWarn(ctx, job)
		return
	}

	// persistence or other transient failure: redeliver the same job
	result = "requeue"
	p.log.Errorw("job failed, redelivering", "type", job.Type, "job_id", job.ID, "err", err)
	if err := p.consumer.Requeue(ctx, job, p.requeueDelay); err != nil {
		p.log.Errorw("requeue failed", "type", job.Type, "err", err)
	}
}

func (p *Pool) ackOrWarn(ctx context.Context, job *queue.Job) {
	if err := p.consumer.Ack(ctx, job); err != nil {
		p.log.Warnw("ack failed", "job_id", job.ID, "err", err)
	}
}

// decode unmarshals a job payload into T. Failures wrap ErrBadPayload so
// the pool drops the job instead of redelivering it.
func decode[T any](payload json.RawMessage) (*T, error) {
	var v T
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return &v, nil
}
