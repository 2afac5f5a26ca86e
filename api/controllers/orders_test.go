package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/farzana24/RideN-Bite-sub001/api/middleware"
	"github.com/farzana24/RideN-Bite-sub001/internal/orders"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/go-chi/chi/v5"
)

type stubOrderService struct {
	transitionResult *orders.TransitionResult
	transitionErr    error
	order            *orders.OrderDTO
	list             []orders.OrderDTO
	restaurant       string
}

func (s *stubOrderService) Transition(ctx context.Context, orderID int64, target enums.OrderStatus) (*orders.TransitionResult, error) {
	if s.transitionErr != nil {
		return nil, s.transitionErr
	}
	return s.transitionResult, nil
}

func (s *stubOrderService) Get(ctx context.Context, orderID int64) (*orders.OrderDTO, error) {
	if s.order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrderService) GetForUser(ctx context.Context, userID, orderID int64) (*orders.OrderDTO, error) {
	if s.order == nil || s.order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.order, nil
}

func (s *stubOrderService) ListForUser(ctx context.Context, userID int64) ([]orders.OrderDTO, error) {
	return s.list, nil
}

func (s *stubOrderService) RestaurantName(ctx context.Context, restaurantID int64) (string, error) {
	return s.restaurant, nil
}

func routeWithOrderID(req *http.Request, orderID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("orderId", orderID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestUpdateOrderStatusSuccess(t *testing.T) {
	svc := &stubOrderService{
		transitionResult: &orders.TransitionResult{OrderID: 7, From: enums.OrderStatusConfirmed, To: enums.OrderStatusPreparing},
		order:            &orders.OrderDTO{ID: 7, UserID: 42, RestaurantID: 1, Status: enums.OrderStatusPreparing},
		restaurant:       "Kacchi Bhai",
	}
	handler := UpdateOrderStatus(svc, nil, nil)

	body, _ := json.Marshal(map[string]string{"status": "PREPARING"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/status", bytes.NewReader(body))
	req = routeWithOrderID(req, "7")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data orders.TransitionResult `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.To != enums.OrderStatusPreparing {
		t.Fatalf("expected PREPARING got %s", envelope.Data.To)
	}
}

func TestUpdateOrderStatusRejectsUnknownStatus(t *testing.T) {
	handler := UpdateOrderStatus(&stubOrderService{}, nil, nil)

	body, _ := json.Marshal(map[string]string{"status": "TELEPORTED"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/status", bytes.NewReader(body))
	req = routeWithOrderID(req, "7")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestUpdateOrderStatusInvalidTransition(t *testing.T) {
	svc := &stubOrderService{transitionErr: pkgerrors.New(pkgerrors.CodeStateConflict, "InvalidTransition: PENDING -> DELIVERED")}
	handler := UpdateOrderStatus(svc, nil, nil)

	body, _ := json.Marshal(map[string]string{"status": "DELIVERED"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/7/status", bytes.NewReader(body))
	req = routeWithOrderID(req, "7")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	svc := &stubOrderService{order: &orders.OrderDTO{ID: 7, UserID: 42, Status: enums.OrderStatusPending}}
	handler := GetOrder(svc, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders/7", nil)
	req = routeWithOrderID(req, "7")
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/orders/7", nil)
	req = routeWithOrderID(req, "7")
	req = req.WithContext(middleware.WithUserID(req.Context(), 99))
	rec = httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestListOrdersRequiresAuth(t *testing.T) {
	handler := ListOrders(&stubOrderService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
