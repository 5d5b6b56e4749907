package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

type paymentGateway struct {
	client *utils.HTTPClient
	cfg    config.Payment

	logger *logger.Logger
}

type orderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type refundRequest struct {
	Amount int64 `json:"amount"`
}

// NewPaymentGateway constructs a Razorpay-compatible [PaymentGateway]. The
// base URL is normalised and validated; requests authenticate with HTTP
// basic auth using the key id and secret.
//
// When cfg carries no credentials the returned gateway still verifies
// signatures but fails CreateOrder and Refund with [ErrGatewayDisabled].
func NewPaymentGateway(cfg config.Payment, logger *logger.Logger) (PaymentGateway, error) {
	baseURL, err := normalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid payment gateway url: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, cfg.RequestTimeout)
	client.SetBasicAuth(cfg.KeyID, cfg.KeySecret)

	if !cfg.Enabled() {
		logger.Warn().Str("func", "NewPaymentGateway").Msg("payment gateway credentials are not configured; payments are disabled")
	}

	return &paymentGateway{client: client, cfg: cfg, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// KeyID implements [PaymentGateway].
func (g *paymentGateway) KeyID() string {
	return g.cfg.KeyID
}

// CreateOrder implements [PaymentGateway]. It POSTs the order to /orders.
func (g *paymentGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (models.GatewayOrder, error) {
	if !g.cfg.Enabled() {
		return models.GatewayOrder{}, ErrGatewayDisabled
	}

	var order models.GatewayOrder
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(orderRequest{
			Amount:   amount,
			Currency: currency,
			Receipt:  receipt,
			Notes:    map[string]string{"booking_id": receipt},
		}).
		SetResult(&order).
		Post("/orders")
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*paymentGateway.CreateOrder").Str("receipt", receipt).Msg("order request failed")
		return models.GatewayOrder{}, fmt.Errorf("create order request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*paymentGateway.CreateOrder").Str("receipt", receipt).Msg("gateway rejected order")
		return models.GatewayOrder{}, err
	}
	if order.ID == "" {
		return models.GatewayOrder{}, fmt.Errorf("%w: order without id", ErrBadGateway)
	}

	return order, nil
}

// Refund implements [PaymentGateway]. It POSTs to /payments/{id}/refund.
func (g *paymentGateway) Refund(ctx context.Context, paymentID string, amount int64) (models.GatewayRefund, error) {
	if !g.cfg.Enabled() {
		return models.GatewayRefund{}, ErrGatewayDisabled
	}

	var refund models.GatewayRefund
	resp, err := g.client.R().
		SetContext(ctx).
		SetPathParam("paymentID", paymentID).
		SetBody(refundRequest{Amount: amount}).
		SetResult(&refund).
		Post("/payments/{paymentID}/refund")
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*paymentGateway.Refund").Str("payment_id", paymentID).Msg("refund request failed")
		return models.GatewayRefund{}, fmt.Errorf("refund request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*paymentGateway.Refund").Str("payment_id", paymentID).Msg("gateway rejected refund")
		return models.GatewayRefund{}, err
	}

	return refund, nil
}

// VerifyPaymentSignature implements [PaymentGateway]. The checkout signs
// "order_id|payment_id" with the key secret.
func (g *paymentGateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	if g.cfg.KeySecret == "" {
		return false
	}
	return utils.VerifySignature([]byte(orderID+"|"+paymentID), signature, g.cfg.KeySecret)
}

// VerifyWebhookSignature implements [PaymentGateway]. Webhook bodies are
// signed with the webhook secret.
func (g *paymentGateway) VerifyWebhookSignature(body []byte, signature string) bool {
	if g.cfg.WebhookSecret == "" {
		return false
	}
	return utils.VerifySignature(body, signature, g.cfg.WebhookSecret)
}
