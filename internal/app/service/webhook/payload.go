package webhook

import (
	"encoding/json"
	"time"

	"github.com/payflow/gateway/internal/models"
	"github.com/payflow/gateway/pkg/tool"
)

// Event payloads are marshaled exactly once, when the triggering job decides
// to notify. The resulting bytes ride through the queue and the log row, so
// every delivery attempt signs and transmits the same bytes. Field order is
// fixed by these struct definitions; encoding/json emits compact output with
// keys in declaration order, which is the canonical form the signature
// covers.

const (
	EventPaymentCreated  = "payment.created"
	EventPaymentSuccess  = "payment.success"
	EventPaymentFailed   = "payment.failed"
	EventRefundProcessed = "refund.processed"
)

type envelope struct {
	Event     string `json:"event"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

type paymentData struct {
	Payment paymentSnapshot `json:"payment"`
}

type paymentSnapshot struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type refundData struct {
	Refund refundSnapshot `json:"refund"`
}

type refundSnapshot struct {
	ID          string `json:"id"`
	PaymentID   string `json:"payment_id"`
	Amount      int64  `json:"amount"`
	Status      string `json:"status"`
	ProcessedAt string `json:"processed_at"`
}

// PaymentEventPayload snapshots a payment's public fields for event at now.
func PaymentEventPayload(event string, p *models.Payment, now time.Time) (json.RawMessage, error) {
	return json.Marshal(envelope{
		Event:     event,
		Timestamp: now.Unix(),
		Data: paymentData{Payment: paymentSnapshot{
			ID:        p.ID,
			OrderID:   p.OrderID,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Method:    string(p.Method),
			Status:    string(p.Status),
			CreatedAt: tool.RFC3339Micro(p.CreatedAt),
		}},
	})
}

// RefundEventPayload snapshots a refund for the refund.processed event.
func RefundEventPayload(event string, r *models.Refund, now time.Time) (json.RawMessage, error) {
	processedAt := ""
	if r.ProcessedAt != nil {
		processedAt = tool.RFC3339Micro(*r.ProcessedAt)
	}
	return json.Marshal(envelope{
		Event:     event,
		Timestamp: now.Unix(),
		Data: refundData{Refund: refundSnapshot{
			ID:          r.ID,
			PaymentID:   r.PaymentID,
			Amount:      r.Amount,
			Status:      string(r.Status),
			ProcessedAt: processedAt,
		}},
	})
}
