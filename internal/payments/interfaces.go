package payments

import (
	"context"

	"github.com/farzana24/RideN-Bite-sub001/internal/orders"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	"github.com/farzana24/RideN-Bite-sub001/pkg/sslcommerz"
	"gorm.io/gorm"
)

// Repository defines persistence operations for payments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payment *models.Payment) (*models.Payment, error)
	FindByOrderID(ctx context.Context, orderID int64) (*models.Payment, error)
	// MarkInitiated assigns a fresh transaction id and moves the payment to
	// INITIATED unless it already settled. Returns the number of rows touched.
	MarkInitiated(ctx context.Context, orderID int64, tranID string) (int64, error)
	// CASStatus performs the conditional status update. Zero rows means the
	// payment no longer holds the expected status.
	CASStatus(ctx context.Context, orderID int64, from, to enums.PaymentStatus, updates map[string]any) (int64, error)
}

// Gateway is the processor surface the reconciler depends on.
type Gateway interface {
	CreateSession(ctx context.Context, params sslcommerz.SessionParams) (*sslcommerz.Session, error)
	ValidateTransaction(ctx context.Context, validationID string) (*sslcommerz.Validation, error)
	InitiateRefund(ctx context.Context, params sslcommerz.RefundParams) (*sslcommerz.Refund, error)
}

// OrderAccess is the slice of the order service the reconciler uses.
type OrderAccess interface {
	Transition(ctx context.Context, orderID int64, target enums.OrderStatus) (*orders.TransitionResult, error)
	RestaurantName(ctx context.Context, restaurantID int64) (string, error)
}

// OrderReader loads raw orders, bypassing ownership scoping. Callbacks carry
// no authenticated user.
type OrderReader interface {
	FindByID(ctx context.Context, id int64) (*models.Order, error)
}

// Notifier publishes an order status event to the owning user.
type Notifier interface {
	NotifyOrderStatus(ctx context.Context, userID, orderID int64, restaurantName string, status enums.OrderStatus, message string) error
}

// FinalizeGuard short-circuits duplicate callbacks.
type FinalizeGuard interface {
	CheckAndMark(ctx context.Context, orderID int64, tranID string) (bool, error)
	Release(ctx context.Context, orderID int64, tranID string) error
}
