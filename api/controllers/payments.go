package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/farzana24/RideN-Bite-sub001/api/middleware"
	"github.com/farzana24/RideN-Bite-sub001/api/responses"
	"github.com/farzana24/RideN-Bite-sub001/api/validators"
	"github.com/farzana24/RideN-Bite-sub001/internal/payments"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
	"github.com/farzana24/RideN-Bite-sub001/pkg/metrics"
)

type initiatePaymentRequest struct {
	OrderID int64 `json:"orderId" validate:"required,gt=0"`
}

type refundPaymentRequest struct {
	OrderID     int64  `json:"orderId" validate:"required,gt=0"`
	AmountCents *int64 `json:"amountCents,omitempty" validate:"omitempty,gt=0"`
}

// callbackFields is the field set the processor posts on every channel.
type callbackFields struct {
	OrderID      int64
	ValidationID string
	TranID       string
	Status       string
}

// InitiatePayment opens a hosted checkout session for the caller's order.
func InitiatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if userID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user identity"))
			return
		}

		var req initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Initiate(r.Context(), userID, req.OrderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"paymentUrl": result.PaymentURL,
			"sessionKey": result.SessionKey,
		})
	}
}

func parseCallback(r *http.Request) (*callbackFields, error) {
	if err := r.ParseForm(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid callback body")
	}
	orderIDRaw := strings.TrimSpace(r.PostFormValue("value_a"))
	orderID, err := strconv.ParseInt(orderIDRaw, 10, 64)
	if err != nil || orderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order reference %q", orderIDRaw))
	}
	return &callbackFields{
		OrderID:      orderID,
		ValidationID: strings.TrimSpace(r.PostFormValue("val_id")),
		TranID:       strings.TrimSpace(r.PostFormValue("tran_id")),
		Status:       strings.ToUpper(strings.TrimSpace(r.PostFormValue("status"))),
	}, nil
}

func redirectToOutcome(w http.ResponseWriter, r *http.Request, cfg config.GatewayConfig, orderID int64, outcome string) {
	target := fmt.Sprintf("%s/payment/result?orderId=%d&outcome=%s", cfg.ClientBaseURL, orderID, outcome)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// GatewaySuccess handles the browser redirect after a successful checkout.
// The browser always lands on a success page when the payment is settled,
// even if the IPN already finalized it.
func GatewaySuccess(svc payments.Service, cfg config.GatewayConfig, pm *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := parseCallback(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		_, err = svc.Finalize(r.Context(), fields.OrderID, payments.Evidence{
			ValidationID:  fields.ValidationID,
			TransactionID: fields.TranID,
		})
		outcome := "success"
		if err != nil {
			outcome = "failed"
			logCallbackError(r, logg, "redirect_success", fields.OrderID, err)
		}
		if pm != nil {
			pm.IncCallback("redirect_success", outcome)
		}
		redirectToOutcome(w, r, cfg, fields.OrderID, outcome)
	}
}

// GatewayFail handles the browser redirect after the processor declined.
func GatewayFail(svc payments.Service, cfg config.GatewayConfig, pm *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := parseCallback(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Fail(r.Context(), fields.OrderID, payments.Evidence{
			ValidationID:  fields.ValidationID,
			TransactionID: fields.TranID,
		}); err != nil {
			logCallbackError(r, logg, "redirect_fail", fields.OrderID, err)
		}
		if pm != nil {
			pm.IncCallback("redirect_fail", "failed")
		}
		redirectToOutcome(w, r, cfg, fields.OrderID, "failed")
	}
}

// GatewayCancel handles the browser redirect after the customer abandoned
// the checkout page. The order stays open for another attempt.
func GatewayCancel(svc payments.Service, cfg config.GatewayConfig, pm *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fields, err := parseCallback(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Cancel(r.Context(), fields.OrderID, payments.Evidence{
			ValidationID:  fields.ValidationID,
			TransactionID: fields.TranID,
		}); err != nil {
			logCallbackError(r, logg, "redirect_cancel", fields.OrderID, err)
		}
		if pm != nil {
			pm.IncCallback("redirect_cancel", "cancelled")
		}
		redirectToOutcome(w, r, cfg, fields.OrderID, "cancelled")
	}
}

// GatewayIPN handles the processor's server-to-server notification. The
// processor only wants an acknowledgement; surfacing an internal failure as
// an HTTP error would trigger its retry storm, so errors are logged only.
func GatewayIPN(svc payments.Service, pm *metrics.PaymentMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acknowledge := func() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]bool{"received": true})
		}

		fields, err := parseCallback(r)
		if err != nil {
			logCallbackError(r, logg, "ipn", 0, err)
			acknowledge()
			return
		}

		evidence := payments.Evidence{
			ValidationID:  fields.ValidationID,
			TransactionID: fields.TranID,
		}
		outcome := "success"
		switch fields.Status {
		case "VALID", "VALIDATED":
			_, err = svc.Finalize(r.Context(), fields.OrderID, evidence)
		case "FAILED":
			outcome = "failed"
			err = svc.Fail(r.Context(), fields.OrderID, evidence)
		case "CANCELLED":
			outcome = "cancelled"
			err = svc.Cancel(r.Context(), fields.OrderID, evidence)
		default:
			outcome = "ignored"
		}
		if err != nil {
			outcome = "error"
			logCallbackError(r, logg, "ipn", fields.OrderID, err)
		}
		if pm != nil {
			pm.IncCallback("ipn", outcome)
		}
		acknowledge()
	}
}

// RefundPayment reverses a settled payment. Admin only.
func RefundPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var req refundPaymentRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Refund(r.Context(), req.OrderID, req.AmountCents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"success":     true,
			"refundId":    result.RefundRefID,
			"amountCents": result.AmountCents,
		})
	}
}

func logCallbackError(r *http.Request, logg *logger.Logger, channel string, orderID int64, err error) {
	if logg == nil {
		return
	}
	ctx := logg.WithFields(r.Context(), map[string]any{
		"channel":  channel,
		"order_id": orderID,
	})
	logg.Error(ctx, "payment.callback_failed", err)
}
