package notifications

import (
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"github.com/google/uuid"
)

// EventTypeOrderStatus is the realtime event name clients subscribe to.
const EventTypeOrderStatus = "order:statusUpdate"

// OrderStatusEvent is the wire shape pushed over the realtime channel.
type OrderStatusEvent struct {
	Type           string            `json:"type"`
	ID             uuid.UUID         `json:"id"`
	OrderID        int64             `json:"orderId"`
	RestaurantName string            `json:"restaurantName"`
	Status         enums.OrderStatus `json:"status"`
	Message        string            `json:"message"`
	Timestamp      time.Time         `json:"timestamp"`
	IsRead         bool              `json:"isRead"`
}

func eventFromModel(n *models.Notification) OrderStatusEvent {
	return OrderStatusEvent{
		Type:           EventTypeOrderStatus,
		ID:             n.ID,
		OrderID:        n.OrderID,
		RestaurantName: n.RestaurantName,
		Status:         n.Status,
		Message:        n.Message,
		Timestamp:      n.CreatedAt,
		IsRead:         n.ReadAt != nil,
	}
}
