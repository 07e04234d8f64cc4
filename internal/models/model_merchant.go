package models

import "time"

// Merchant is read-only from the processing pipeline's perspective; rows are
// created by seeding or operator tooling.
type Merchant struct {
	ID            string    `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Name          string    `gorm:"column:name;type:varchar(100);not null" json:"name"`
	Email         string    `gorm:"column:email;type:varchar(100);uniqueIndex;not null" json:"email"`
	APIKey        string    `gorm:"column:api_key;type:varchar(64);uniqueIndex;not null" json:"-"`
	APISecret     string    `gorm:"column:api_secret;type:varchar(64);not null" json:"-"`
	WebhookURL    string    `gorm:"column:webhook_url;type:varchar(255)" json:"webhook_url"`
	WebhookSecret string    `gorm:"column:webhook_secret;type:varchar(64)" json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Merchant) TableName() string { return "merchants" }
