package worker

import (
	"context"
	"encoding/json"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/payflow/gateway/internal/app/service/payment"
	"github.com/payflow/gateway/internal/app/service/refund"
	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/platform/queue"
	"github.com/payflow/gateway/pkg/config"
	"github.com/payflow/gateway/pkg/metrics"
)

// NewRegistry wires every job type to its service handler.
func NewRegistry(payments *payment.Service, refunds *refund.Service, webhooks *webhook.Service) Registry {
	return Registry{
		payment.JobTypeProcess: func(ctx context.Context, payload json.RawMessage) error {
			job, err := decode[payment.ProcessJob](payload)
			if err != nil {
				return err
			}
			return payments.Process(ctx, job.PaymentID)
		},
		refund.JobTypeProcess: func(ctx context.Context, payload json.RawMessage) error {
			job, err := decode[refund.ProcessJob](payload)
			if err != nil {
				return err
			}
			return refunds.Process(ctx, job.RefundID)
		},
		webhook.JobTypeDeliver: func(ctx context.Context, payload json.RawMessage) error {
			job, err := decode[webhook.DeliveryJob](payload)
			if err != nil {
				return err
			}
			return webhooks.Deliver(ctx, job)
		},
	}
}

func newPool(cfg *config.Config, q queue.Queue, c queue.Consumer, registry Registry, jm *metrics.JobMetrics, log *zap.SugaredLogger) *Pool {
	return NewPool(PoolOptions{
		Queue:        q,
		Consumer:     c,
		Registry:     registry,
		Logger:       log,
		JobMetrics:   jm,
		Concurrency:  cfg.Worker.Concurrency,
		RequeueDelay: cfg.Worker.RequeueDelay(),
	})
}

func runPool(lc fx.Lifecycle, pool *Pool) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			pool.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			pool.Stop()
			return nil
		},
	})
}

func runPoolIfEmbedded(lc fx.Lifecycle, cfg *config.Config, pool *Pool, log *zap.SugaredLogger) {
	if !cfg.Worker.Embedded {
		return
	}
	log.Infow("embedded worker pool enabled")
	runPool(lc, pool)
}

// Module runs the pool unconditionally (worker binary).
var Module = fx.Options(
	fx.Provide(metrics.NewJobMetrics),
	fx.Provide(NewRegistry, newPool),
	fx.Invoke(runPool),
)

// EmbeddedModule runs the pool inside the API process when
// worker.embedded is set.
var EmbeddedModule = fx.Options(
	fx.Provide(metrics.NewJobMetrics),
	fx.Provide(NewRegistry, newPool),
	fx.Invoke(runPoolIfEmbedded),
)
