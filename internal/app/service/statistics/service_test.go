package statistics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/payflow/gateway/internal/models"
)

func TestCompute_Empty(t *testing.T) {
	stats := Compute(nil)
	require.Equal(t, 0, stats.TotalTransactions)
	require.EqualValues(t, 0, stats.TotalAmount)
	require.Zero(t, stats.SuccessRate)
}

func TestCompute_MixedOutcomes(t *testing.T) {
	payments := []*models.Payment{
		{Amount: 10000, Status: models.PaymentStatusSuccess},
		{Amount: 5000, Status: models.PaymentStatusSuccess},
		{Amount: 2000, Status: models.PaymentStatusFailed},
		{Amount: 3000, Status: models.PaymentStatusPending},
	}
	stats := Compute(payments)
	require.Equal(t, 4, stats.TotalTransactions)
	require.EqualValues(t, 15000, stats.TotalAmount)
	require.Equal(t, 50.0, stats.SuccessRate)
}

func TestCompute_RefundedCountsAsSettledOutcome(t *testing.T) {
	payments := []*models.Payment{
		{Amount: 10000, Status: models.PaymentStatusRefunded},
		{Amount: 4000, Status: models.PaymentStatusFailed},
		{Amount: 6000, Status: models.PaymentStatusFailed},
	}
	stats := Compute(payments)
	require.EqualValues(t, 0, stats.TotalAmount)
	require.Equal(t, 33.33, stats.SuccessRate)
}
