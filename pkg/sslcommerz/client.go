package sslcommerz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/farzana24/RideN-Bite-sub001/pkg/config"
	pkgerrors "github.com/farzana24/RideN-Bite-sub001/pkg/errors"
	"github.com/farzana24/RideN-Bite-sub001/pkg/logger"
)

const (
	sessionPath    = "/gwprocess/v4/api.php"
	validationPath = "/validator/api/validationserverAPI.php"
	refundPath     = "/validator/api/merchantTransIDvalidationAPI.php"
)

var (
	errStoreIDRequired  = errors.New("sslcommerz store id is required")
	errPasswordRequired = errors.New("sslcommerz store password is required")
	errLoggerRequired   = errors.New("sslcommerz logger is required")
)

// Client is a stateless translation layer to the SSLCommerz processor. It
// performs no retries; retry policy stays with the caller.
type Client struct {
	baseURL       string
	storeID       string
	storePassword string
	httpClient    *http.Client
	logger        *logger.Logger
}

// SessionParams carries the inputs for a hosted checkout session.
type SessionParams struct {
	OrderID       int64
	TransactionID string
	AmountCents   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
}

// Session is the processor's answer to a session request.
type Session struct {
	SessionKey     string
	GatewayPageURL string
}

// Validation is the server-to-server verdict on a callback's val_id.
type Validation struct {
	Valid         bool
	Status        string
	TransactionID string
	AmountCents   int64
}

// RefundParams identifies the settled transaction to refund.
type RefundParams struct {
	TransactionID string
	AmountCents   int64
	Remarks       string
}

// Refund is the processor's refund acknowledgement.
type Refund struct {
	RefundRefID string
}

// NewClient initializes the SSLCommerz wrapper and validates the credentials.
func NewClient(cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	storeID := strings.TrimSpace(cfg.StoreID)
	if storeID == "" {
		return nil, errStoreIDRequired
	}
	storePassword := strings.TrimSpace(cfg.StorePassword)
	if storePassword == "" {
		return nil, errPasswordRequired
	}

	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		storeID:       storeID,
		storePassword: storePassword,
		httpClient:    &http.Client{Timeout: cfg.Timeout},
		logger:        logg,
	}, nil
}

// MajorUnits renders a minor-unit amount as the major-unit decimal string the
// processor expects: 45000 cents -> "450.00".
func MajorUnits(amountCents int64) string {
	return decimal.NewFromInt(amountCents).Div(decimal.NewFromInt(100)).StringFixed(2)
}

type sessionResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	SessionKey     string `json:"sessionkey"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// CreateSession asks the processor for a hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, params SessionParams) (*Session, error) {
	if params.OrderID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if params.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	currency := params.Currency
	if currency == "" {
		currency = "BDT"
	}

	form := url.Values{}
	form.Set("store_id", c.storeID)
	form.Set("store_passwd", c.storePassword)
	form.Set("tran_id", params.TransactionID)
	form.Set("total_amount", MajorUnits(params.AmountCents))
	form.Set("currency", currency)
	form.Set("success_url", params.SuccessURL)
	form.Set("fail_url", params.FailURL)
	form.Set("cancel_url", params.CancelURL)
	form.Set("ipn_listener_url", params.IPNURL)
	form.Set("value_a", fmt.Sprintf("%d", params.OrderID))
	form.Set("cus_name", params.CustomerName)
	form.Set("cus_email", params.CustomerEmail)
	form.Set("cus_phone", params.CustomerPhone)
	form.Set("shipping_method", "NO")
	form.Set("product_name", "food order")
	form.Set("product_category", "food")
	form.Set("product_profile", "general")

	c.log(ctx, "request", "create_session", map[string]any{
		"order_id": params.OrderID,
		"tran_id":  params.TransactionID,
		"amount":   MajorUnits(params.AmountCents),
	})

	var resp sessionResponse
	if err := c.postForm(ctx, sessionPath, form, &resp); err != nil {
		c.log(ctx, "error", "create_session", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !strings.EqualFold(resp.Status, "SUCCESS") {
		reason := resp.FailedReason
		if reason == "" {
			reason = "session rejected"
		}
		c.log(ctx, "error", "create_session", map[string]any{"reason": reason})
		return nil, pkgerrors.New(pkgerrors.CodeGatewayReject, reason)
	}
	if resp.GatewayPageURL == "" || resp.SessionKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "malformed session response")
	}

	c.log(ctx, "response", "create_session", map[string]any{"sessionkey": resp.SessionKey})
	return &Session{SessionKey: resp.SessionKey, GatewayPageURL: resp.GatewayPageURL}, nil
}

type validationResponse struct {
	Status        string `json:"status"`
	TransactionID string `json:"tran_id"`
	Amount        string `json:"amount"`
}

// ValidateTransaction performs the server-to-server check required before any
// callback is trusted. Redirect parameters are client-supplied and spoofable.
func (c *Client) ValidateTransaction(ctx context.Context, validationID string) (*Validation, error) {
	if validationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation id required")
	}

	query := url.Values{}
	query.Set("val_id", validationID)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	c.log(ctx, "request", "validate_transaction", map[string]any{"val_id": validationID})

	var resp validationResponse
	if err := c.get(ctx, validationPath, query, &resp); err != nil {
		c.log(ctx, "error", "validate_transaction", map[string]any{"error": err.Error()})
		return nil, err
	}

	valid := strings.EqualFold(resp.Status, "VALID") || strings.EqualFold(resp.Status, "VALIDATED")
	amountCents, err := minorUnits(resp.Amount)
	if err != nil && valid {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "malformed validation amount")
	}

	c.log(ctx, "response", "validate_transaction", map[string]any{
		"status": resp.Status,
		"valid":  valid,
	})
	return &Validation{
		Valid:         valid,
		Status:        resp.Status,
		TransactionID: resp.TransactionID,
		AmountCents:   amountCents,
	}, nil
}

type refundResponse struct {
	Status      string `json:"status"`
	RefundRefID string `json:"refund_ref_id"`
	ErrorReason string `json:"errorReason"`
}

// InitiateRefund asks the processor to refund a settled transaction.
func (c *Client) InitiateRefund(ctx context.Context, params RefundParams) (*Refund, error) {
	if params.TransactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id required")
	}
	if params.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	query := url.Values{}
	query.Set("tran_id", params.TransactionID)
	query.Set("refund_amount", MajorUnits(params.AmountCents))
	query.Set("refund_remarks", params.Remarks)
	query.Set("store_id", c.storeID)
	query.Set("store_passwd", c.storePassword)
	query.Set("format", "json")

	c.log(ctx, "request", "initiate_refund", map[string]any{
		"tran_id": params.TransactionID,
		"amount":  MajorUnits(params.AmountCents),
	})

	var resp refundResponse
	if err := c.get(ctx, refundPath, query, &resp); err != nil {
		c.log(ctx, "error", "initiate_refund", map[string]any{"error": err.Error()})
		return nil, err
	}

	if !strings.EqualFold(resp.Status, "success") {
		reason := resp.ErrorReason
		if reason == "" {
			reason = "refund refused"
		}
		c.log(ctx, "error", "initiate_refund", map[string]any{"reason": reason})
		return nil, pkgerrors.New(pkgerrors.CodeRefundFailed, reason)
	}

	c.log(ctx, "response", "initiate_refund", map[string]any{"refund_ref_id": resp.RefundRefID})
	return &Refund{RefundRefID: resp.RefundRefID}, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build gateway request")
	}
	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "gateway unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("gateway returned status %d", resp.StatusCode))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode gateway response")
	}
	return nil
}

func minorUnits(amount string) (int64, error) {
	if amount == "" {
		return 0, nil
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	return d.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func (c *Client) log(ctx context.Context, phase, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	enriched := map[string]any{"gateway_op": operation, "phase": phase}
	for k, v := range fields {
		enriched[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, enriched), "sslcommerz."+operation)
}
