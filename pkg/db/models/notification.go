package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
)

// Notification stores order status events per user. Rows back the list
// endpoint clients use to reconcile after a missed realtime push.
type Notification struct {
	ID             uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID         int64             `gorm:"column:user_id;not null;index"`
	OrderID        int64             `gorm:"column:order_id;not null;index"`
	RestaurantName string            `gorm:"column:restaurant_name;type:text;not null"`
	Status         enums.OrderStatus `gorm:"column:status;type:text;not null"`
	Message        string            `gorm:"column:message;type:text;not null"`
	ReadAt         *time.Time        `gorm:"column:read_at"`
	CreatedAt      time.Time         `gorm:"column:created_at;autoCreateTime"`
}
