package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/payflow/gateway/internal/models"
)

func TestPaymentEventPayload_CanonicalForm(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC)
	p := &models.Payment{
		ID:        "pay_Ab3xK9qRt2LmPzW0",
		OrderID:   "order_Zz1xK9qRt2LmPzW0",
		Amount:    10000,
		Currency:  "INR",
		Method:    models.PaymentMethodUPI,
		Status:    models.PaymentStatusSuccess,
		CreatedAt: created,
	}
	now := time.Unix(1767225600, 0)

	raw, err := PaymentEventPayload(EventPaymentSuccess, p, now)
	require.NoError(t, err)

	want := `{"event":"payment.success","timestamp":1767225600,` +
		`"data":{"payment":{"id":"pay_Ab3xK9qRt2LmPzW0",` +
		`"order_id":"order_Zz1xK9qRt2LmPzW0","amount":10000,"currency":"INR",` +
		`"method":"upi","status":"success","created_at":"2026-03-01T12:30:45Z"}}}`
	// exact bytes matter: the signature covers this string
	require.Equal(t, want, string(raw))
}

func TestRefundEventPayload_IncludesProcessedAt(t *testing.T) {
	processed := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	r := &models.Refund{
		ID:          "rfnd_Qw2eR4tY6uI8oP0a",
		PaymentID:   "pay_Ab3xK9qRt2LmPzW0",
		Amount:      4000,
		Status:      models.RefundStatusProcessed,
		ProcessedAt: &processed,
	}

	raw, err := RefundEventPayload(EventRefundProcessed, r, time.Unix(100, 0))
	require.NoError(t, err)
	require.Contains(t, string(raw), `"refund":{"id":"rfnd_Qw2eR4tY6uI8oP0a"`)
	require.Contains(t, string(raw), `"processed_at":"2026-03-02T08:00:00Z"`)

	// repeat builds with the same inputs are byte-identical
	again, err := RefundEventPayload(EventRefundProcessed, r, time.Unix(100, 0))
	require.NoError(t, err)
	require.Equal(t, raw, again)
}
