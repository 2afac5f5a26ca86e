package models

import (
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
)

// Payment tracks gateway settlement for an order, one row per order. The
// transaction id is reassigned on every initiation attempt; a row leaves
// INITIATED at most once.
type Payment struct {
	OrderID       int64               `gorm:"column:order_id;primaryKey"`
	AmountCents   int64               `gorm:"column:amount_cents;not null"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'UNINITIATED'"`
	TransactionID *string             `gorm:"column:transaction_id;index"`
	ValidationID  *string             `gorm:"column:validation_id"`
	RefundRefID   *string             `gorm:"column:refund_ref_id"`
	CompletedAt   *time.Time          `gorm:"column:completed_at"`
	RefundedAt    *time.Time          `gorm:"column:refunded_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
