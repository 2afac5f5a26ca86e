package notifications

import (
	"context"
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/farzana24/RideN-Bite-sub001/pkg/pagination"
	"github.com/google/uuid"
)

// Publisher fans an event out to a user's live connections and reports how
// many sessions received it.
type Publisher interface {
	Publish(userID int64, event any) int
}

// Service persists order status notifications and pushes them in realtime.
type Service interface {
	NotifyOrderStatus(ctx context.Context, userID, orderID int64, restaurantName string, status enums.OrderStatus, message string) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, userID int64, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID int64) (int64, error)
}

type service struct {
	repo      Repository
	publisher Publisher
	logg      *logger.Logger
}

// ListParams configures pagination for notifications.
type ListParams struct {
	UserID     int64
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

// NewService wires notifications dependencies.
func NewService(repo Repository, publisher Publisher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if publisher == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "realtime publisher required")
	}
	return &service{repo: repo, publisher: publisher, logg: logg}, nil
}

// NotifyOrderStatus writes the durable row first; the realtime push that
// follows is best-effort and delivers zero copies when the user is offline.
func (s *service) NotifyOrderStatus(ctx context.Context, userID, orderID int64, restaurantName string, status enums.OrderStatus, message string) error {
	notification := &models.Notification{
		ID:             uuid.New(),
		UserID:         userID,
		OrderID:        orderID,
		RestaurantName: restaurantName,
		Status:         status,
		Message:        message,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist notification")
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}

	delivered := s.publisher.Publish(userID, eventFromModel(notification))
	if s.logg != nil {
		lctx := s.logg.WithFields(s.logg.WithOrderID(ctx, orderID), map[string]any{
			"notification_id": notification.ID.String(),
			"user_id":         userID,
			"delivered":       delivered,
		})
		s.logg.Info(lctx, "notification.published")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.UserID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	query := listNotificationsParams{
		UserID:     params.UserID,
		Limit:      pagination.LimitWithBuffer(params.Limit),
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}

	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, userID int64, notificationID uuid.UUID) error {
	if userID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, userID, notificationID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	count, err := s.repo.MarkAllRead(ctx, userID, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}
