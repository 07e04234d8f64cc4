package models

import (
	"time"

	"gorm.io/datatypes"
)

// IdempotencyKey caches the response of an accepted payment-creation request,
// scoped to (key, merchant). Rows are written once and lazily deleted when a
// lookup finds them expired.
type IdempotencyKey struct {
	Key        string         `gorm:"column:key;type:varchar(255);primary_key" json:"key"`
	MerchantID string         `gorm:"column:merchant_id;type:uuid;primary_key" json:"merchant_id"`
	Response   datatypes.JSON `gorm:"column:response;type:jsonb;not null" json:"response"`
	CreatedAt  time.Time      `json:"created_at"`
	ExpiresAt  time.Time      `gorm:"column:expires_at;not null" json:"expires_at"`
}

func (IdempotencyKey) TableName() string { return "idempotency_keys" }

// Expired reports whether the record is past its 24h window at now.
func (k *IdempotencyKey) Expired(now time.Time) bool {
	return k != nil && !k.ExpiresAt.After(now)
}
