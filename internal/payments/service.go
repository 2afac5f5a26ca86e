package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db"
	"github.com/farzana24/RideN-Bite-sub001/pkg/db/models"
	"github.com/farzana24/RideN-Bite-sub001/pkg/enums"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/farzana24/RideN-Bite-sub001/pkg/metrics"
	"github.com/farzana24/RideN-Bite-sub001/pkg/sslcommerz"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const paymentCurrency = "BDT"

// Service reconciles gateway outcomes into a single settled payment state.
type Service interface {
	Initiate(ctx context.Context, userID, orderID int64) (*InitiateResult, error)
	Finalize(ctx context.Context, orderID int64, evidence Evidence) (*FinalizeResult, error)
	Fail(ctx context.Context, orderID int64, evidence Evidence) error
	Cancel(ctx context.Context, orderID int64, evidence Evidence) error
	Refund(ctx context.Context, orderID int64, amountCents *int64) (*RefundResult, error)
}

type service struct {
	repo     Repository
	orders   OrderAccess
	reader   OrderReader
	gateway  Gateway
	guard    FinalizeGuard
	notifier Notifier
	metrics  *metrics.PaymentMetrics
	cfg      config.GatewayConfig
	logg     *logger.Logger
	now      func() time.Time
}

// NewService builds the payment reconciler.
func NewService(
	repo Repository,
	orderAccess OrderAccess,
	reader OrderReader,
	gateway Gateway,
	guard FinalizeGuard,
	notifier Notifier,
	paymentMetrics *metrics.PaymentMetrics,
	cfg config.GatewayConfig,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if orderAccess == nil {
		return nil, fmt.Errorf("order access required")
	}
	if reader == nil {
		return nil, fmt.Errorf("order reader required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway required")
	}
	if guard == nil {
		return nil, fmt.Errorf("finalize guard required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier required")
	}
	return &service{
		repo:     repo,
		orders:   orderAccess,
		reader:   reader,
		gateway:  gateway,
		guard:    guard,
		notifier: notifier,
		metrics:  paymentMetrics,
		cfg:      cfg,
		logg:     logg,
		now:      time.Now,
	}, nil
}

// Initiate opens a hosted checkout session for a pending order. Every call
// mints a fresh merchant transaction id, so an abandoned or cancelled attempt
// never blocks a retry.
func (s *service) Initiate(ctx context.Context, userID, orderID int64) (*InitiateResult, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order %d is not awaiting payment", orderID))
	}

	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
		}
		payment, err = s.repo.Create(ctx, &models.Payment{
			OrderID:     orderID,
			AmountCents: order.TotalCents,
		})
		if err != nil {
			if !db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment")
			}
			// Lost a concurrent first-initiation race; the row exists now.
			payment, err = s.repo.FindByOrderID(ctx, orderID)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
			}
		}
	}
	if payment.Status.IsFinalized() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d already settled", orderID))
	}

	tranID := fmt.Sprintf("rnb-%d-%s", orderID, uuid.NewString())

	started := s.now()
	session, err := s.gateway.CreateSession(ctx, sslcommerz.SessionParams{
		OrderID:       orderID,
		TransactionID: tranID,
		AmountCents:   payment.AmountCents,
		Currency:      paymentCurrency,
		SuccessURL:    s.cfg.CallbackBaseURL + "/api/v1/payments/gateway/success",
		FailURL:       s.cfg.CallbackBaseURL + "/api/v1/payments/gateway/fail",
		CancelURL:     s.cfg.CallbackBaseURL + "/api/v1/payments/gateway/cancel",
		IPNURL:        s.cfg.CallbackBaseURL + "/api/v1/payments/gateway/ipn",
	})
	s.observeGateway("create_session", started)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.MarkInitiated(ctx, orderID, tranID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment initiated")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d settled concurrently", orderID))
	}

	s.log(ctx, orderID, "payment.initiated", map[string]any{"tran_id": tranID})
	return &InitiateResult{PaymentURL: session.GatewayPageURL, SessionKey: session.SessionKey}, nil
}

// Finalize settles a payment from callback evidence. Duplicate callbacks for
// an already settled payment succeed without side effects; at most one caller
// moves the payment out of INITIATED.
func (s *service) Finalize(ctx context.Context, orderID int64, evidence Evidence) (*FinalizeResult, error) {
	payment, err := s.loadPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status.IsFinalized() {
		s.countFinalize("duplicate")
		return &FinalizeResult{OrderID: orderID, Outcome: FinalizeOutcomeDuplicate}, nil
	}
	if payment.Status != enums.PaymentStatusInitiated {
		s.countFinalize("error")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d is not awaiting settlement", orderID))
	}

	duplicate, err := s.guard.CheckAndMark(ctx, orderID, evidence.TransactionID)
	if err != nil {
		// The guard is a shortcut; the conditional update below stays safe
		// without it.
		s.log(ctx, orderID, "payment.guard_unavailable", map[string]any{"error": err.Error()})
	} else if duplicate {
		// A duplicate is only a success once the first caller actually
		// settled; while it is in flight the honest answer is a conflict.
		current, err := s.loadPayment(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.Status.IsFinalized() {
			s.countFinalize("duplicate")
			return &FinalizeResult{OrderID: orderID, Outcome: FinalizeOutcomeDuplicate}, nil
		}
		s.countFinalize("error")
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("settlement for order %d is already in progress", orderID))
	}

	started := s.now()
	validation, err := s.gateway.ValidateTransaction(ctx, evidence.ValidationID)
	s.observeGateway("validate", started)
	if err != nil {
		s.releaseGuard(ctx, orderID, evidence.TransactionID)
		s.countFinalize("error")
		return nil, err
	}
	if verr := s.checkValidation(payment, evidence, validation); verr != nil {
		s.releaseGuard(ctx, orderID, evidence.TransactionID)
		s.countFinalize("unverified")
		return nil, verr
	}

	now := s.now()
	rows, err := s.repo.CASStatus(ctx, orderID, enums.PaymentStatusInitiated, enums.PaymentStatusCompleted, map[string]any{
		"transaction_id": evidence.TransactionID,
		"validation_id":  evidence.ValidationID,
		"completed_at":   now,
	})
	if err != nil {
		s.releaseGuard(ctx, orderID, evidence.TransactionID)
		s.countFinalize("error")
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle payment")
	}
	if rows == 0 {
		// Lost the race. Re-read to distinguish a concurrent settlement from
		// evidence that refers to a dead attempt.
		current, err := s.loadPayment(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if current.Status.IsFinalized() {
			s.countFinalize("duplicate")
			return &FinalizeResult{OrderID: orderID, Outcome: FinalizeOutcomeDuplicate}, nil
		}
		s.countFinalize("error")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d is not awaiting settlement", orderID))
	}

	// Winning call only: confirm the order and notify.
	if _, err := s.orders.Transition(ctx, orderID, enums.OrderStatusConfirmed); err != nil {
		s.log(ctx, orderID, "payment.confirm_order_failed", map[string]any{"error": err.Error()})
	} else {
		s.notify(ctx, orderID, enums.OrderStatusConfirmed, "Your order has been confirmed")
	}

	s.countFinalize("settled")
	s.log(ctx, orderID, "payment.settled", map[string]any{"tran_id": evidence.TransactionID})
	return &FinalizeResult{OrderID: orderID, Outcome: FinalizeOutcomeSettled}, nil
}

// Fail records a gateway failure outcome and cancels the order. The caller
// must present the transaction id minted for the active attempt; the fail
// redirect is unauthenticated and forged form fields carry no such id.
func (s *service) Fail(ctx context.Context, orderID int64, evidence Evidence) error {
	payment, err := s.loadPayment(ctx, orderID)
	if err != nil {
		return err
	}
	if payment.Status != enums.PaymentStatusInitiated {
		return nil
	}
	if err := s.checkAttempt(payment, evidence); err != nil {
		return err
	}

	rows, err := s.repo.CASStatus(ctx, orderID, enums.PaymentStatusInitiated, enums.PaymentStatusFailed, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment failed")
	}
	if rows == 0 {
		return nil
	}

	if _, err := s.orders.Transition(ctx, orderID, enums.OrderStatusCancelled); err != nil {
		s.log(ctx, orderID, "payment.cancel_order_failed", map[string]any{"error": err.Error()})
	} else {
		s.notify(ctx, orderID, enums.OrderStatusCancelled, "Your order was cancelled because the payment failed")
	}

	s.log(ctx, orderID, "payment.failed", map[string]any{"tran_id": evidence.TransactionID})
	return nil
}

// Cancel records a customer abandoning the hosted checkout page. The order
// stays PENDING so the customer can initiate again.
func (s *service) Cancel(ctx context.Context, orderID int64, evidence Evidence) error {
	payment, err := s.loadPayment(ctx, orderID)
	if err != nil {
		return err
	}
	if payment.Status != enums.PaymentStatusInitiated {
		return nil
	}
	if err := s.checkAttempt(payment, evidence); err != nil {
		return err
	}

	rows, err := s.repo.CASStatus(ctx, orderID, enums.PaymentStatusInitiated, enums.PaymentStatusCancelled, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment cancelled")
	}
	if rows > 0 {
		s.log(ctx, orderID, "payment.cancelled", map[string]any{"tran_id": evidence.TransactionID})
	}
	return nil
}

// Refund reverses a settled payment through the processor. With no explicit
// amount the full paid amount is refunded.
func (s *service) Refund(ctx context.Context, orderID int64, amountCents *int64) (*RefundResult, error) {
	payment, err := s.loadPayment(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment.Status != enums.PaymentStatusCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d is not refundable", orderID))
	}
	if payment.TransactionID == nil || *payment.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settled payment is missing its transaction id")
	}

	amount := payment.AmountCents
	if amountCents != nil {
		if *amountCents <= 0 || *amountCents > payment.AmountCents {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount out of range")
		}
		amount = *amountCents
	}

	started := s.now()
	refund, err := s.gateway.InitiateRefund(ctx, sslcommerz.RefundParams{
		TransactionID: *payment.TransactionID,
		AmountCents:   amount,
		Remarks:       fmt.Sprintf("refund for order %d", orderID),
	})
	s.observeGateway("refund", started)
	if err != nil {
		return nil, err
	}

	now := s.now()
	rows, err := s.repo.CASStatus(ctx, orderID, enums.PaymentStatusCompleted, enums.PaymentStatusRefunded, map[string]any{
		"refund_ref_id": refund.RefundRefID,
		"refunded_at":   now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark payment refunded")
	}
	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("payment for order %d left COMPLETED concurrently", orderID))
	}

	s.notify(ctx, orderID, "", "Your payment has been refunded")
	s.log(ctx, orderID, "payment.refunded", map[string]any{"refund_ref_id": refund.RefundRefID})
	return &RefundResult{OrderID: orderID, RefundRefID: refund.RefundRefID, AmountCents: amount}, nil
}

// checkAttempt refuses evidence that does not carry the merchant transaction
// id minted for the current attempt. The id is unguessable; presenting it is
// the proof the caller went through the hosted checkout for this order.
func (s *service) checkAttempt(payment *models.Payment, evidence Evidence) error {
	if payment.TransactionID == nil || *payment.TransactionID == "" ||
		evidence.TransactionID != *payment.TransactionID {
		return pkgerrors.New(pkgerrors.CodeUnverified,
			"PaymentUnverified: transaction id does not match the active attempt")
	}
	return nil
}

func (s *service) checkValidation(payment *models.Payment, evidence Evidence, validation *sslcommerz.Validation) error {
	if err := s.checkAttempt(payment, evidence); err != nil {
		return err
	}
	if validation == nil || !validation.Valid {
		return pkgerrors.New(pkgerrors.CodeUnverified, "PaymentUnverified: gateway validation returned invalid")
	}
	if validation.TransactionID != "" && validation.TransactionID != evidence.TransactionID {
		return pkgerrors.New(pkgerrors.CodeUnverified, "PaymentUnverified: transaction id mismatch")
	}
	if validation.AmountCents != payment.AmountCents {
		return pkgerrors.New(pkgerrors.CodeUnverified,
			fmt.Sprintf("PaymentUnverified: amount mismatch, expected %d got %d", payment.AmountCents, validation.AmountCents))
	}
	return nil
}

func (s *service) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.reader.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) loadPayment(ctx context.Context, orderID int64) (*models.Payment, error) {
	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment")
	}
	return payment, nil
}

// notify publishes best-effort; an empty status means "report the order's
// current status".
func (s *service) notify(ctx context.Context, orderID int64, status enums.OrderStatus, message string) {
	order, err := s.reader.FindByID(ctx, orderID)
	if err != nil {
		s.log(ctx, orderID, "payment.notify_load_failed", map[string]any{"error": err.Error()})
		return
	}
	if status == "" {
		status = order.Status
	}
	name, err := s.orders.RestaurantName(ctx, order.RestaurantID)
	if err != nil {
		s.log(ctx, orderID, "payment.notify_restaurant_failed", map[string]any{"error": err.Error()})
		name = ""
	}
	if err := s.notifier.NotifyOrderStatus(ctx, order.UserID, orderID, name, status, message); err != nil {
		s.log(ctx, orderID, "payment.notify_failed", map[string]any{"error": err.Error()})
	}
}

func (s *service) releaseGuard(ctx context.Context, orderID int64, tranID string) {
	if err := s.guard.Release(ctx, orderID, tranID); err != nil {
		s.log(ctx, orderID, "payment.guard_release_failed", map[string]any{"error": err.Error()})
	}
}

func (s *service) observeGateway(operation string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveGatewayCall(operation, s.now().Sub(started))
	}
}

func (s *service) countFinalize(result string) {
	if s.metrics != nil {
		s.metrics.IncFinalize(result)
	}
}

func (s *service) log(ctx context.Context, orderID int64, event string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	lctx := s.logg.WithOrderID(ctx, orderID)
	if len(fields) > 0 {
		lctx = s.logg.WithFields(lctx, fields)
	}
	s.logg.Info(lctx, event)
}
