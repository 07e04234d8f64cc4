package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payflow/gateway/internal/models"
)

func TestIdempotencyKey_Expired(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := &models.IdempotencyKey{
		Key:        "idem-1",
		MerchantID: "m1",
		CreatedAt:  created,
		ExpiresAt:  created.Add(TTL),
	}

	require.False(t, rec.Expired(created))
	require.False(t, rec.Expired(created.Add(TTL-time.Second)))
	// the boundary itself counts as expired
	require.True(t, rec.Expired(created.Add(TTL)))
	require.True(t, rec.Expired(created.Add(TTL+time.Hour)))
}
