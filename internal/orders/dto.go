package orders

import (
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
)

// TransitionResult reports the status edge an order moved across.
type TransitionResult struct {
	OrderID int64             `json:"order_id"`
	From    enums.OrderStatus `json:"from"`
	To      enums.OrderStatus `json:"to"`
}

// OrderDTO is the outward shape of an order.
type OrderDTO struct {
	ID           int64             `json:"id"`
	RestaurantID int64             `json:"restaurant_id"`
	UserID       int64             `json:"user_id"`
	RiderID      *int64            `json:"rider_id,omitempty"`
	TotalCents   int64             `json:"total_cents"`
	Status       enums.OrderStatus `json:"status"`
	ConfirmedAt  *time.Time        `json:"confirmed_at,omitempty"`
	DeliveredAt  *time.Time        `json:"delivered_at,omitempty"`
	CanceledAt   *time.Time        `json:"canceled_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// FromModel converts a persisted order into its DTO.
func FromModel(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	return &OrderDTO{
		ID:           order.ID,
		RestaurantID: order.RestaurantID,
		UserID:       order.UserID,
		RiderID:      order.RiderID,
		TotalCents:   order.TotalCents,
		Status:       order.Status,
		ConfirmedAt:  order.ConfirmedAt,
		DeliveredAt:  order.DeliveredAt,
		CanceledAt:   order.CanceledAt,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
	}
}
