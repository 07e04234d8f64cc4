package payment

import "errors"

// JobTypeProcess is the queue job type for payment settlement.
const JobTypeProcess = "payment.process"

// ProcessJob is the payload of a payment.process job.
type ProcessJob struct {
	PaymentID string `json:"payment_id"`
}

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrInvalidVPA        = errors.New("invalid vpa")
	ErrInvalidCard       = errors.New("invalid card details")
	ErrUnsupportedMethod = errors.New("unsupported payment method")
	ErrNotCapturable     = errors.New("payment not in capturable state")
)

type CardInput struct {
	Number      string `json:"number"`
	ExpiryMonth int    `json:"expiry_month"`
	ExpiryYear  int    `json:"expiry_year"`
	CVV         string `json:"cvv"`
	HolderName  string `json:"holder_name"`
}

type CreateRequest struct {
	OrderID string     `json:"order_id" binding:"required"`
	Method  string     `json:"method" binding:"required"`
	VPA     string     `json:"vpa,omitempty"`
	Card    *CardInput `json:"card,omitempty"`
}

// CreateResponse is the payment body returned at creation time and cached
// under the idempotency key. Field order is stable so replays are
// byte-identical.
type CreateResponse struct {
	ID        string `json:"id"`
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Status    string `json:"status"`
	Method    string `json:"method"`
	CreatedAt string `json:"created_at"`
}
