package models

import (
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
)

// Order is the marketplace order aggregate. Status mutates only through the
// validated transition in internal/orders.
type Order struct {
	ID           int64             `gorm:"column:id;primaryKey;autoIncrement"`
	RestaurantID int64             `gorm:"column:restaurant_id;not null;index"`
	UserID       int64             `gorm:"column:user_id;not null;index"`
	RiderID      *int64            `gorm:"column:rider_id;index"`
	TotalCents   int64             `gorm:"column:total_cents;not null"`
	Status       enums.OrderStatus `gorm:"column:status;type:text;not null;default:'PENDING'"`
	ConfirmedAt  *time.Time        `gorm:"column:confirmed_at"`
	DeliveredAt  *time.Time        `gorm:"column:delivered_at"`
	CanceledAt   *time.Time        `gorm:"column:canceled_at"`
	Payment      *Payment          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
