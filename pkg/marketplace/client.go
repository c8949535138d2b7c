package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
	"github.com/leulderebe/wedding-front-end-sub001/pkg/logger"
)

const (
	bookingsPath        = "/client/bookings"
	paymentInitiatePath = "/client/payment/initiate"
	paymentVerifyPath   = "/client/payment/verify"

	errorBodyReadLimit int64 = 2048
)

var (
	errBaseURLRequired = errors.New("marketplace base url is required")
	errLoggerRequired  = errors.New("marketplace logger is required")
)

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client wraps the marketplace REST API used by the checkout and
// confirmation flows, with centralized auth, logging, and error mapping.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	logger     *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout overrides the default request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient builds the marketplace client for the configured base URL.
func NewClient(baseURL string, tokens TokenSource, logg *logger.Logger, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if logg == nil {
		return nil, errLoggerRequired
	}

	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    trimmed,
		tokens:     tokens,
		logger:     logg,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// CreateBooking submits the booking request and returns the created record.
func (c *Client) CreateBooking(ctx context.Context, req CreateBookingRequest) (*Booking, error) {
	c.log(ctx, "request", "create_booking", map[string]any{"service_id": req.ServiceID})

	var resp struct {
		Booking Booking `json:"booking"`
	}
	if err := c.post(ctx, bookingsPath, req, &resp, "failed to create booking"); err != nil {
		c.log(ctx, "error", "create_booking", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "create_booking", map[string]any{"booking_id": resp.Booking.ID})
	return &resp.Booking, nil
}

// InitiatePayment starts a payment session for a booking. Every attempt
// carries a fresh idempotency key so a resubmitted request cannot double
// charge.
func (c *Client) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*PaymentInitiation, error) {
	c.log(ctx, "request", "initiate_payment", map[string]any{
		"booking_id": req.BookingID,
		"vendor_id":  req.VendorID,
		"amount":     req.Amount.String(),
		"currency":   req.Currency,
	})

	var resp PaymentInitiation
	err := c.do(ctx, http.MethodPost, paymentInitiatePath, req, &resp, "failed to initiate payment", func(httpReq *http.Request) {
		httpReq.Header.Set("Idempotency-Key", fmt.Sprintf("pay-%s", uuid.NewString()))
	})
	if err != nil {
		c.log(ctx, "error", "initiate_payment", map[string]any{"error": err.Error()})
		return nil, err
	}
	if strings.TrimSpace(resp.CheckoutURL) == "" {
		err := pkgerrors.New(pkgerrors.CodeRemote, "payment initiation returned no checkout url")
		c.log(ctx, "error", "initiate_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "initiate_payment", map[string]any{"tx_ref": resp.TxRef})
	return &resp, nil
}

// VerifyPayment reads the current status of a payment session. The call is
// read-only server-side; repeating it with the same reference is safe.
func (c *Client) VerifyPayment(ctx context.Context, txRef, paymentID string) (*PaymentStatusResult, error) {
	c.log(ctx, "request", "verify_payment", map[string]any{"tx_ref": txRef})

	body := struct {
		TxRef     string `json:"tx_ref"`
		PaymentID string `json:"paymentId"`
	}{TxRef: txRef, PaymentID: paymentID}

	var resp PaymentStatusResult
	if err := c.post(ctx, paymentVerifyPath, body, &resp, "failed to verify payment"); err != nil {
		c.log(ctx, "error", "verify_payment", map[string]any{"error": err.Error()})
		return nil, err
	}

	c.log(ctx, "response", "verify_payment", map[string]any{"status": string(resp.Status)})
	return &resp, nil
}

func (c *Client) post(ctx context.Context, path string, body, dest any, fallbackMsg string) error {
	return c.do(ctx, http.MethodPost, path, body, dest, fallbackMsg, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any, fallbackMsg string, decorate func(*http.Request)) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marshal request body")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return err
		}
		if token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if decorate != nil {
		decorate(httpReq)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, fallbackMsg)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.remoteError(resp, fallbackMsg)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeRemote, err, "decode response body")
	}
	return nil
}

// remoteError surfaces the server's message when the payload carries one,
// otherwise the per-endpoint fallback.
func (c *Client) remoteError(resp *http.Response, fallbackMsg string) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	message := fallbackMsg
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if strings.TrimSpace(payload.Message) != "" {
			message = payload.Message
		} else if strings.TrimSpace(payload.Error) != "" {
			message = payload.Error
		}
	}

	code := pkgerrors.CodeRemote
	if resp.StatusCode == http.StatusUnauthorized {
		code = pkgerrors.CodeUnauthorized
	}
	return pkgerrors.Wrap(code, fmt.Errorf("status %d", resp.StatusCode), message)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = v
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Warn(ctx, fmt.Sprintf("marketplace %s failed", op))
	default:
		c.logger.Debug(ctx, fmt.Sprintf("marketplace %s", phase))
	}
}
