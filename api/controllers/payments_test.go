package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/farzana24/RideN-Bite-sub001/api/middleware"
	"github.com/farzana24/RideN-Bite-sub001/internal/payments"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
)

type stubPaymentService struct {
	initiateResult *payments.InitiateResult
	initiateErr    error
	finalizeResult *payments.FinalizeResult
	finalizeErr    error
	failErr        error
	cancelErr      error
	refundResult   *payments.RefundResult
	refundErr      error

	finalizeCalls []payments.Evidence
	failCalls     []int64
	cancelCalls   []int64
}

func (s *stubPaymentService) Initiate(ctx context.Context, userID, orderID int64) (*payments.InitiateResult, error) {
	if s.initiateErr != nil {
		return nil, s.initiateErr
	}
	return s.initiateResult, nil
}

func (s *stubPaymentService) Finalize(ctx context.Context, orderID int64, evidence payments.Evidence) (*payments.FinalizeResult, error) {
	s.finalizeCalls = append(s.finalizeCalls, evidence)
	if s.finalizeErr != nil {
		return nil, s.finalizeErr
	}
	return s.finalizeResult, nil
}

func (s *stubPaymentService) Fail(ctx context.Context, orderID int64, evidence payments.Evidence) error {
	s.failCalls = append(s.failCalls, orderID)
	return s.failErr
}

func (s *stubPaymentService) Cancel(ctx context.Context, orderID int64, evidence payments.Evidence) error {
	s.cancelCalls = append(s.cancelCalls, orderID)
	return s.cancelErr
}

func (s *stubPaymentService) Refund(ctx context.Context, orderID int64, amountCents *int64) (*payments.RefundResult, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	return s.refundResult, nil
}

func callbackForm(orderID, valID, tranID, status string) *http.Request {
	form := url.Values{}
	form.Set("value_a", orderID)
	form.Set("val_id", valID)
	form.Set("tran_id", tranID)
	form.Set("status", status)
	form.Set("amount", "450.00")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

var testGatewayCfg = config.GatewayConfig{ClientBaseURL: "https://app.ridenbite.test"}

func TestInitiatePaymentSuccess(t *testing.T) {
	svc := &stubPaymentService{initiateResult: &payments.InitiateResult{PaymentURL: "https://gw/pay", SessionKey: "sess-1"}}
	handler := InitiatePayment(svc, nil)

	body, _ := json.Marshal(map[string]any{"orderId": 7})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", bytes.NewReader(body))
	req = req.WithContext(middleware.WithUserID(req.Context(), 42))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]string `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["paymentUrl"] != "https://gw/pay" {
		t.Fatalf("unexpected payment url %q", envelope.Data["paymentUrl"])
	}
}

func TestInitiatePaymentRequiresAuth(t *testing.T) {
	handler := InitiatePayment(&stubPaymentService{}, nil)

	body, _ := json.Marshal(map[string]any{"orderId": 7})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestGatewaySuccessRedirects(t *testing.T) {
	svc := &stubPaymentService{finalizeResult: &payments.FinalizeResult{OrderID: 7, Outcome: payments.FinalizeOutcomeSettled}}
	handler := GatewaySuccess(svc, testGatewayCfg, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "val-x", "rnb-7-a", "VALID"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rec.Code)
	}
	location := rec.Header().Get("Location")
	if location != "https://app.ridenbite.test/payment/result?orderId=7&outcome=success" {
		t.Fatalf("unexpected redirect %q", location)
	}
	if len(svc.finalizeCalls) != 1 || svc.finalizeCalls[0].ValidationID != "val-x" {
		t.Fatalf("finalize not invoked with evidence: %+v", svc.finalizeCalls)
	}
}

func TestGatewaySuccessDuplicateStillReportsSuccess(t *testing.T) {
	// The IPN settled the payment already; the browser redirect that follows
	// must still land on the success page.
	svc := &stubPaymentService{finalizeResult: &payments.FinalizeResult{OrderID: 7, Outcome: payments.FinalizeOutcomeDuplicate}}
	handler := GatewaySuccess(svc, testGatewayCfg, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "val-x", "rnb-7-a", "VALID"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "outcome=success") {
		t.Fatalf("expected success outcome, got %q", rec.Header().Get("Location"))
	}
}

func TestGatewaySuccessUnverifiedRedirectsFailed(t *testing.T) {
	svc := &stubPaymentService{finalizeErr: pkgerrors.New(pkgerrors.CodeUnverified, "PaymentUnverified")}
	handler := GatewaySuccess(svc, testGatewayCfg, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "val-x", "rnb-7-a", "VALID"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "outcome=failed") {
		t.Fatalf("expected failed outcome, got %q", rec.Header().Get("Location"))
	}
}

func TestGatewayCancelRedirects(t *testing.T) {
	svc := &stubPaymentService{}
	handler := GatewayCancel(svc, testGatewayCfg, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "", "rnb-7-a", "CANCELLED"))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", rec.Code)
	}
	if !strings.Contains(rec.Header().Get("Location"), "outcome=cancelled") {
		t.Fatalf("expected cancelled outcome, got %q", rec.Header().Get("Location"))
	}
	if len(svc.cancelCalls) != 1 {
		t.Fatalf("expected one cancel call, got %d", len(svc.cancelCalls))
	}
}

func assertIPNAck(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var body map[string]bool
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode ack: %v", err)
	}
	if !body["received"] {
		t.Fatalf("expected received=true, got %v", body)
	}
}

func TestGatewayIPNFinalizesValidStatus(t *testing.T) {
	svc := &stubPaymentService{finalizeResult: &payments.FinalizeResult{OrderID: 7, Outcome: payments.FinalizeOutcomeSettled}}
	handler := GatewayIPN(svc, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "val-x", "rnb-7-a", "VALID"))

	assertIPNAck(t, rec)
	if len(svc.finalizeCalls) != 1 {
		t.Fatalf("expected one finalize call, got %d", len(svc.finalizeCalls))
	}
}

func TestGatewayIPNRoutesFailedStatus(t *testing.T) {
	svc := &stubPaymentService{}
	handler := GatewayIPN(svc, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("9", "", "rnb-9-a", "FAILED"))

	assertIPNAck(t, rec)
	if len(svc.failCalls) != 1 || svc.failCalls[0] != 9 {
		t.Fatalf("expected fail call for order 9, got %v", svc.failCalls)
	}
}

func TestGatewayIPNAcksEvenWhenProcessingFails(t *testing.T) {
	svc := &stubPaymentService{finalizeErr: pkgerrors.New(pkgerrors.CodeDependency, "GatewayUnavailable")}
	handler := GatewayIPN(svc, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("7", "val-x", "rnb-7-a", "VALID"))

	assertIPNAck(t, rec)
}

func TestGatewayIPNAcksMalformedPayload(t *testing.T) {
	handler := GatewayIPN(&stubPaymentService{}, nil, nil)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callbackForm("not-a-number", "val-x", "rnb-7-a", "VALID"))

	assertIPNAck(t, rec)
}

func TestRefundPaymentSuccess(t *testing.T) {
	svc := &stubPaymentService{refundResult: &payments.RefundResult{OrderID: 7, RefundRefID: "ref-1", AmountCents: 45000}}
	handler := RefundPayment(svc, nil)

	body, _ := json.Marshal(map[string]any{"orderId": 7})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payments/refund", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data["refundId"] != "ref-1" {
		t.Fatalf("unexpected refund id %v", envelope.Data["refundId"])
	}
}

func TestRefundPaymentPreconditionFailure(t *testing.T) {
	svc := &stubPaymentService{refundErr: pkgerrors.New(pkgerrors.CodeStateConflict, "payment is not refundable")}
	handler := RefundPayment(svc, nil)

	body, _ := json.Marshal(map[string]any{"orderId": 7})
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payments/refund", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", rec.Code)
	}
}
