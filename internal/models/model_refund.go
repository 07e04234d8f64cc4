package models

import "time"

type RefundStatus string

const (
	RefundStatusPending   RefundStatus = "pending"
	RefundStatusProcessed RefundStatus = "processed"
	RefundStatusFailed    RefundStatus = "failed"
)

// Refund amounts of processed refunds for one payment never exceed that
// payment's amount; creation-time validation reserves pending amounts too.
type Refund struct {
	ID          string       `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	PaymentID   string       `gorm:"column:payment_id;type:varchar(64);not null;index:idx_refunds_payment_id" json:"payment_id"`
	MerchantID  string       `gorm:"column:merchant_id;type:uuid;not null;index" json:"merchant_id"`
	Amount      int64        `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Reason      string       `gorm:"column:reason;type:text" json:"reason,omitempty"`
	Status      RefundStatus `gorm:"column:status;type:varchar(20);default:'pending'" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	ProcessedAt *time.Time   `gorm:"column:processed_at;default:null" json:"processed_at,omitempty"`
}

func (Refund) TableName() string { return "refunds" }
