package models

import (
	"time"

	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusCreated OrderStatus = "created"
	OrderStatusPaid    OrderStatus = "paid"
)

type Order struct {
	ID         string         `gorm:"column:id;type:varchar(64);primary_key" json:"id"`
	MerchantID string         `gorm:"column:merchant_id;type:uuid;not null;index" json:"merchant_id"`
	Amount     int64          `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Currency   string         `gorm:"column:currency;type:varchar(3);default:'INR'" json:"currency"`
	Status     OrderStatus    `gorm:"column:status;type:varchar(20);default:'created'" json:"status"`
	Receipt    string         `gorm:"column:receipt;type:varchar(100)" json:"receipt,omitempty"`
	Notes      datatypes.JSON `gorm:"column:notes;type:jsonb" json:"notes,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

func (Order) TableName() string { return "orders" }
