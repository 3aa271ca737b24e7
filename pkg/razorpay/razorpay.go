package razorpay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

// Config contains credentials required to talk to the payment gateway.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
}

// Order mirrors the gateway's order resource returned at creation time.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Gateway is the subset of the payment provider this service depends on.
// Splitting it out keeps the application workflow testable without network
// access.
type Gateway interface {
	Configured() bool
	KeyID() string
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
}

// Client implements Gateway against the Razorpay REST API.
type Client struct {
	keyID     string
	keySecret string
	http      *resty.Client
	logger    zerolog.Logger
}

// New constructs a gateway client. Missing credentials are not an error here;
// callers must check Configured before creating orders so that an unconfigured
// gateway surfaces as a configuration failure, not a panic.
func New(cfg Config, logger zerolog.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(cfg.KeyID, cfg.KeySecret).
		SetHeader("Content-Type", "application/json")

	return &Client{
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		http:      http,
		logger:    logger.With().Str("component", "razorpay").Logger(),
	}
}

// Configured reports whether gateway credentials are present.
func (c *Client) Configured() bool {
	return c.keyID != "" && c.keySecret != ""
}

// KeyID returns the public key id handed to browser checkout widgets.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder registers an order with the gateway before the user pays.
// Failure here is side-effect-free: nothing has been persisted locally.
func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (Order, error) {
	if !c.Configured() {
		return Order{}, fmt.Errorf("payment gateway credentials not configured")
	}

	var order Order
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"amount":   amount,
			"currency": currency,
			"receipt":  receipt,
		}).
		SetResult(&order).
		Post("/orders")
	if err != nil {
		return Order{}, fmt.Errorf("failed to create gateway order: %w", err)
	}
	if resp.IsError() {
		return Order{}, fmt.Errorf("gateway rejected order creation: status %d", resp.StatusCode())
	}

	c.logger.Info().Str("order_id", order.ID).Int64("amount", order.Amount).Msg("gateway order created")

	return order, nil
}

// VerifySignature recomputes the callback signature and compares it to the
// client-supplied value. The format is fixed by the provider:
// hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return Sign(c.keySecret, orderID, paymentID) == signature
}

// Sign computes the provider's payment signature for an order/payment pair.
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}
