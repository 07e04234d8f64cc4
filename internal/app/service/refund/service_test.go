package refund

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/config"
)

func refundRows(statuses map[int64]models.RefundStatus) []*models.Refund {
	var out []*models.Refund
	for amount, status := range statuses {
		out = append(out, &models.Refund{Amount: amount, Status: status})
	}
	return out
}

func TestReservedTotal_CountsPendingAndProcessed(t *testing.T) {
	rows := refundRows(map[int64]models.RefundStatus{
		4000: models.RefundStatusProcessed,
		3000: models.RefundStatusPending,
		2000: models.RefundStatusFailed,
	})
	require.EqualValues(t, 7000, reservedTotal(rows))
}

func TestProcessedTotal_OnlyProcessed(t *testing.T) {
	rows := refundRows(map[int64]models.RefundStatus{
		4000: models.RefundStatusProcessed,
		3000: models.RefundStatusPending,
		2000: models.RefundStatusFailed,
	})
	require.EqualValues(t, 4000, processedTotal(rows))
}

// The 10000-payment scenario: a 4000 refund fits, the following 7000 refund
// exceeds the remaining balance and must be rejected at creation.
func TestRefundBalance_PartialThenOverdraw(t *testing.T) {
	paymentAmount := int64(10000)

	var existing []*models.Refund
	require.LessOrEqual(t, int64(4000), paymentAmount-reservedTotal(existing))

	existing = append(existing, &models.Refund{Amount: 4000, Status: models.RefundStatusProcessed})
	require.Greater(t, int64(7000), paymentAmount-reservedTotal(existing))
	require.LessOrEqual(t, int64(6000), paymentAmount-reservedTotal(existing))
}

func TestProcessedTotal_FullRefundReachesAmount(t *testing.T) {
	rows := []*models.Refund{
		{Amount: 4000, Status: models.RefundStatusProcessed},
		{Amount: 6000, Status: models.RefundStatusProcessed},
	}
	require.GreaterOrEqual(t, processedTotal(rows), int64(10000))
}

func TestProcessingDelay(t *testing.T) {
	cfg := config.SettlementConfig{TestMode: true, TestDelayMillis: 50}
	require.Equal(t, 50*time.Millisecond, processingDelay(cfg, 0.7))

	cfg.TestMode = false
	require.Equal(t, 3*time.Second, processingDelay(cfg, 0))
	require.Equal(t, 4*time.Second, processingDelay(cfg, 0.5))
	require.Less(t, processingDelay(cfg, 0.999), 5*time.Second)
}
