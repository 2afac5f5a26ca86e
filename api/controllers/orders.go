package controllers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/farzana24/RideN-Bite-sub001/api/middleware"
	"github.com/farzana24/RideN-Bite-sub001/api/responses"
	"github.com/farzana24/RideN-Bite-sub001/api/validators"
	"github.com/farzana24/RideN-Bite-sub001/internal/notifications"
	"github.com/farzana24/RideN-Bite-sub001/internal/orders"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func orderIDParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "orderId must be a positive integer")
	}
	return id, nil
}

// UpdateOrderStatus moves an order along the kitchen/dispatch flow. The
// transition is validated against the closed status table; an unreachable
// target leaves the order untouched.
func UpdateOrderStatus(svc orders.Service, notifier notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateOrderStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		result, err := svc.Transition(r.Context(), orderID, target)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		notifyOrderTransition(r, svc, notifier, logg, orderID, result.To)
		responses.WriteSuccess(w, result)
	}
}

// notifyOrderTransition pushes the status event to the order owner,
// best-effort.
func notifyOrderTransition(r *http.Request, svc orders.Service, notifier notifications.Service, logg *logger.Logger, orderID int64, status enums.OrderStatus) {
	if notifier == nil {
		return
	}
	ctx := r.Context()

	order, err := svc.Get(ctx, orderID)
	if err != nil {
		if logg != nil {
			logg.Error(logg.WithOrderID(ctx, orderID), "order.notify_load_failed", err)
		}
		return
	}
	name, err := svc.RestaurantName(ctx, order.RestaurantID)
	if err != nil {
		name = ""
	}
	if err := notifier.NotifyOrderStatus(ctx, order.UserID, orderID, name, status, statusMessage(status)); err != nil {
		if logg != nil {
			logg.Error(logg.WithOrderID(ctx, orderID), "order.notify_failed", err)
		}
	}
}

func statusMessage(status enums.OrderStatus) string {
	switch status {
	case enums.OrderStatusConfirmed:
		return "Your order has been confirmed"
	case enums.OrderStatusPreparing:
		return "The restaurant is preparing your order"
	case enums.OrderStatusReady:
		return "Your order is ready for pickup"
	case enums.OrderStatusAssigned:
		return "A rider has been assigned to your order"
	case enums.OrderStatusPickedUp:
		return "Your order is on the way"
	case enums.OrderStatusDelivered:
		return "Your order has been delivered"
	case enums.OrderStatusCancelled:
		return "Your order has been cancelled"
	default:
		return "Your order status changed"
	}
}

// ListOrders returns the caller's orders, newest first.
func ListOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": list})
	}
}

// GetOrder returns one of the caller's orders with its payment state. This is
// the authoritative-state lookup clients fall back to after a missed push.
func GetOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForUser(r.Context(), userID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
