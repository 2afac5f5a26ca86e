package orders

import (
	"context"

	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"gorm.io/gorm"
)

// Repository defines persistence operations for orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Order, error)
	// UpdateStatusFrom performs a conditional status update and reports the
	// number of rows touched. Zero rows means the order no longer holds the
	// expected status.
	UpdateStatusFrom(ctx context.Context, id int64, from, to enums.OrderStatus, updates map[string]any) (int64, error)
	FindRestaurantName(ctx context.Context, restaurantID int64) (string, error)
}
