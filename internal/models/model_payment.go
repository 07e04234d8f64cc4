package models

import "time"

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCard PaymentMethod = "card"
)

// Payment moves pending -> success|failed, and success -> refunded once the
// processed refund total reaches the payment amount. failed and refunded are
// terminal. Captured may only be set while status is success.
type Payment struct {
	ID               string        `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	OrderID          string        `gorm:"column:order_id;type:varchar(64);not null;index" json:"order_id"`
	MerchantID       string        `gorm:"column:merchant_id;type:uuid;not null;index" json:"merchant_id"`
	Amount           int64         `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency         string        `gorm:"column:currency;type:varchar(3);default:'INR'" json:"currency"`
	Method           PaymentMethod `gorm:"column:method;type:varchar(20);not null" json:"method"`
	VPA              string        `gorm:"column:vpa;type:varchar(255)" json:"vpa,omitempty"`
	CardNetwork      string        `gorm:"column:card_network;type:varchar(20)" json:"card_network,omitempty"`
	CardLast4        string        `gorm:"column:card_last4;type:varchar(4)" json:"card_last4,omitempty"`
	Status           PaymentStatus `gorm:"column:status;type:varchar(20);default:'pending'" json:"status"`
	Captured         bool          `gorm:"column:captured;default:false" json:"captured"`
	ErrorCode        string        `gorm:"column:error_code;type:varchar(50)" json:"error_code,omitempty"`
	ErrorDescription string        `gorm:"column:error_description;type:varchar(255)" json:"error_description,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// Refundable reports whether a refund may be created against this payment.
func (p *Payment) Refundable() bool {
	return p != nil && p.Status == PaymentStatusSuccess
}
