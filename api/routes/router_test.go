package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/farzana24/RideN-Bite-sub001/internal/payments"
	"github.com/farzana24/RideN-Bite-sub001/internal/realtime"
	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubPaymentsService struct{}

func (stubPaymentsService) Initiate(ctx context.Context, userID, orderID int64) (*payments.InitiateResult, error) {
	return &payments.InitiateResult{PaymentURL: "https://gw/pay", SessionKey: "sess"}, nil
}

func (stubPaymentsService) Finalize(ctx context.Context, orderID int64, evidence payments.Evidence) (*payments.FinalizeResult, error) {
	return &payments.FinalizeResult{OrderID: orderID, Outcome: payments.FinalizeOutcomeSettled}, nil
}

func (stubPaymentsService) Fail(ctx context.Context, orderID int64, evidence payments.Evidence) error {
	return nil
}

func (stubPaymentsService) Cancel(ctx context.Context, orderID int64, evidence payments.Evidence) error {
	return nil
}

func (stubPaymentsService) Refund(ctx context.Context, orderID int64, amountCents *int64) (*payments.RefundResult, error) {
	return &payments.RefundResult{OrderID: orderID, RefundRefID: "ref-1"}, nil
}

func testRouter() http.Handler {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 10}
	cfg.Gateway = config.GatewayConfig{ClientBaseURL: "https://app.test"}

	return NewRouter(Deps{
		Config: cfg,
		Logger: logger.New(logger.Options{
			ServiceName: "router-test",
			Level:       zerolog.Disabled,
			Output:      io.Discard,
		}),
		DB:       stubPinger{},
		Redis:    stubPinger{},
		Hub:      realtime.NewHub(),
		Payments: stubPaymentsService{},
	})
}

func TestHealthEndpoints(t *testing.T) {
	router := testRouter()

	for _, path := range []string{"/health/live", "/health/ready"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestGatewayCallbacksArePublic(t *testing.T) {
	router := testRouter()

	body := strings.NewReader("value_a=7&val_id=val-x&tran_id=rnb-7-a&status=VALID")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/gateway/ipn", body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestAuthenticatedRoutesRejectAnonymous(t *testing.T) {
	router := testRouter()

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/payments/initiate"},
		{http.MethodGet, "/api/v1/orders"},
		{http.MethodGet, "/api/v1/notifications"},
		{http.MethodPost, "/api/admin/v1/payments/refund"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401 got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestRealtimeHandshakeRequiresToken(t *testing.T) {
	router := testRouter()

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
