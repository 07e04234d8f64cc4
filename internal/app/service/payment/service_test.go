package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/payflow/gateway/internal/app/service/webhook"
	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/internal/platform/queue"
)

type captureQueue struct {
	err   error
	types []string
	jobs  []any
}

func (q *captureQueue) Enqueue(_ context.Context, typ string, payload any, _ time.Duration) error {
	if q.err != nil {
		return q.err
	}
	q.types = append(q.types, typ)
	q.jobs = append(q.jobs, payload)
	return nil
}

func (q *captureQueue) Stats(context.Context) (queue.Stats, error) {
	return queue.Stats{}, nil
}

func webhookTestService(q queue.Queue) *Service {
	return &Service{queue: q, clock: clock.NewMock(), log: zap.NewNop().Sugar()}
}

func TestEnqueueWebhook_SchedulesFirstAttempt(t *testing.T) {
	q := &captureQueue{}
	s := webhookTestService(q)
	p := &models.Payment{ID: "pay_x", MerchantID: "m1", Status: models.PaymentStatusSuccess}

	require.NoError(t, s.enqueueWebhook(context.Background(), p, webhook.EventPaymentSuccess))
	require.Equal(t, []string{webhook.JobTypeDeliver}, q.types)

	job := q.jobs[0].(*webhook.DeliveryJob)
	require.Equal(t, "m1", job.MerchantID)
	require.Equal(t, webhook.EventPaymentSuccess, job.Event)
	require.Equal(t, 1, job.Attempt)
}

func TestEnqueueWebhook_PropagatesBrokerFailure(t *testing.T) {
	brokerDown := errors.New("broker unavailable")
	s := webhookTestService(&captureQueue{err: brokerDown})
	p := &models.Payment{ID: "pay_x", MerchantID: "m1", Status: models.PaymentStatusFailed}

	err := s.enqueueWebhook(context.Background(), p, webhook.EventPaymentFailed)
	require.ErrorIs(t, err, brokerDown)
}

func TestSettlementEvent(t *testing.T) {
	event, ok := settlementEvent(models.PaymentStatusSuccess)
	require.True(t, ok)
	require.Equal(t, webhook.EventPaymentSuccess, event)

	event, ok = settlementEvent(models.PaymentStatusFailed)
	require.True(t, ok)
	require.Equal(t, webhook.EventPaymentFailed, event)

	// refunded payments are announced by the refund pipeline, pending ones
	// have nothing to announce yet
	_, ok = settlementEvent(models.PaymentStatusRefunded)
	require.False(t, ok)
	_, ok = settlementEvent(models.PaymentStatusPending)
	require.False(t, ok)
}
