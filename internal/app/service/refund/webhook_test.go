package refund

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

func processedRefund() *models.Refund {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	return &models.Refund{
		ID:          "rfnd_x",
		PaymentID:   "pay_x",
		MerchantID:  "m1",
		Amount:      4000,
		Status:      models.RefundStatusProcessed,
		ProcessedAt: &now,
	}
}

func TestEnqueueWebhook_SchedulesFirstAttempt(t *testing.T) {
	q := &captureQueue{}
	s := &Service{queue: q, clock: clock.NewMock(), log: zap.NewNop().Sugar()}

	require.NoError(t, s.enqueueWebhook(context.Background(), processedRefund()))
	require.Equal(t, []string{webhook.JobTypeDeliver}, q.types)

	job := q.jobs[0].(*webhook.DeliveryJob)
	require.Equal(t, "m1", job.MerchantID)
	require.Equal(t, webhook.EventRefundProcessed, job.Event)
	require.Equal(t, 1, job.Attempt)
}

func TestEnqueueWebhook_PropagatesBrokerFailure(t *testing.T) {
	brokerDown := errors.New("broker unavailable")
	s := &Service{queue: &captureQueue{err: brokerDown}, clock: clock.NewMock(), log: zap.NewNop().Sugar()}

	err := s.enqueueWebhook(context.Background(), processedRefund())
	require.ErrorIs(t, err, brokerDown)
}
