package models

import (
	"time"

	"gorm.io/datatypes"
)

type WebhookStatus string

const (
	WebhookStatusPending WebhookStatus = "pending"
	WebhookStatusSuccess WebhookStatus = "success"
	WebhookStatusFailed  WebhookStatus = "failed"
)

// WebhookLog tracks one delivery sequence: the row is created on the first
// attempt and updated in place on each retry. Payload holds the exact bytes
// that were signed and sent; it is never rebuilt from the live record.
type WebhookLog struct {
	ID            string         `gorm:"column:id;type:uuid;primary_key" json:"id"`
	MerchantID    string         `gorm:"column:merchant_id;type:uuid;not null;index:idx_webhook_logs_merchant_id" json:"merchant_id"`
	Event         string         `gorm:"column:event;type:varchar(50);not null" json:"event"`
	Payload       datatypes.JSON `gorm:"column:payload;type:jsonb;not null" json:"payload"`
	Status        WebhookStatus  `gorm:"column:status;type:varchar(20);default:'pending';index:idx_webhook_logs_status" json:"status"`
	Attempts      int            `gorm:"column:attempts;default:0" json:"attempts"`
	LastAttemptAt *time.Time     `gorm:"column:last_attempt_at;default:null" json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time     `gorm:"column:next_retry_at;default:null;index:idx_webhook_logs_next_retry,where:status = 'pending'" json:"next_retry_at,omitempty"`
	ResponseCode  *int           `gorm:"column:response_code" json:"response_code,omitempty"`
	ResponseBody  string         `gorm:"column:response_body;type:text" json:"response_body,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (WebhookLog) TableName() string { return "webhook_logs" }

// Terminal reports whether the delivery sequence is finished.
func (l *WebhookLog) Terminal() bool {
	return l != nil && (l.Status == WebhookStatusSuccess || l.Status == WebhookStatusFailed)
}
