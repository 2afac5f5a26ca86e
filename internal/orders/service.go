package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"gorm.io/gorm"
)

// Service exposes the validated order status transition plus the read surface
// clients use to re-fetch authoritative state.
type Service interface {
	Transition(ctx context.Context, orderID int64, target enums.OrderStatus) (*TransitionResult, error)
	Get(ctx context.Context, orderID int64) (*OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID int64) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID int64) ([]OrderDTO, error)
	RestaurantName(ctx context.Context, restaurantID int64) (string, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  func() time.Time
}

// NewService builds the order service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

// Transition moves an order to the target status. The write is conditional on
// the status observed at read time, so a concurrent transition makes at most
// one caller win.
func (s *service) Transition(ctx context.Context, orderID int64, target enums.OrderStatus) (*TransitionResult, error) {
	if !target.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", target))
	}

	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	prev := order.Status
	if !prev.CanTransitionTo(target) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("InvalidTransition: %s -> %s", prev, target))
	}

	updates := s.stamps(target)
	rows, err := s.repo.UpdateStatusFrom(ctx, orderID, prev, target, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order status")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("InvalidTransition: order %d left %s concurrently", orderID, prev))
	}

	if s.logg != nil {
		lctx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID), map[string]any{
			"from": string(prev),
			"to":   string(target),
		})
		s.logg.Info(lctx, "order.transition")
	}

	return &TransitionResult{OrderID: orderID, From: prev, To: target}, nil
}

func (s *service) stamps(target enums.OrderStatus) map[string]any {
	now := s.now()
	switch target {
	case enums.OrderStatusConfirmed:
		return map[string]any{"confirmed_at": now}
	case enums.OrderStatusDelivered:
		return map[string]any{"delivered_at": now}
	case enums.OrderStatusCancelled:
		return map[string]any{"canceled_at": now}
	default:
		return nil
	}
}

// Get loads an order without ownership scoping. Internal callers only; the
// HTTP surface goes through GetForUser.
func (s *service) Get(ctx context.Context, orderID int64) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return FromModel(order), nil
}

func (s *service) GetForUser(ctx context.Context, userID, orderID int64) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return FromModel(order), nil
}

func (s *service) ListForUser(ctx context.Context, userID int64) ([]OrderDTO, error) {
	list, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out, nil
}

func (s *service) RestaurantName(ctx context.Context, restaurantID int64) (string, error) {
	name, err := s.repo.FindRestaurantName(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", pkgerrors.New(pkgerrors.CodeNotFound, "restaurant not found")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load restaurant")
	}
	return name, nil
}
