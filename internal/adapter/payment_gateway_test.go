// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPaymentConfig(baseURL string) config.Payment {
	return config.Payment{
		BaseURL:        baseURL,
		KeyID:          "rzp_test_key",
		KeySecret:      "secret",
		WebhookSecret:  "whsec",
		Currency:       "INR",
		RequestTimeout: 2 * time.Second,
	}
}

func newTestGateway(t *testing.T, serverURL string) PaymentGateway {
	t.Helper()
	g, err := NewPaymentGateway(testPaymentConfig(serverURL), logger.Nop())
	require.NoError(t, err)
	return g
}

// ── CreateOrder ─────────────────────────────────────────────────────────────

func TestCreateOrder_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		var body orderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(250000), body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.Equal(t, "booking-1", body.Receipt)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_1","amount":250000,"currency":"INR","receipt":"booking-1","status":"created"}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL+"/v1/")
	order, err := g.CreateOrder(context.Background(), 250000, "INR", "booking-1")

	require.NoError(t, err)
	assert.Equal(t, "order_1", order.ID)
	assert.Equal(t, int64(250000), order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrder_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"amount must be at least 100"}}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.CreateOrder(context.Background(), 1, "INR", "booking-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
	assert.Contains(t, err.Error(), "amount must be at least 100")
}

func TestCreateOrder_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("authentication failed"))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.CreateOrder(context.Background(), 100, "INR", "booking-1")

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreateOrder_RetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_2","amount":100,"currency":"INR"}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	order, err := g.CreateOrder(context.Background(), 100, "INR", "booking-1")

	require.NoError(t, err)
	assert.Equal(t, "order_2", order.ID)
	assert.Equal(t, 2, calls)
}

func TestCreateOrder_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.CreateOrder(context.Background(), 100, "INR", "booking-1")

	assert.ErrorIs(t, err, ErrBadGateway)
}

func TestCreateOrder_Disabled(t *testing.T) {
	cfg := testPaymentConfig("https://api.razorpay.com/v1")
	cfg.KeySecret = ""

	g, err := NewPaymentGateway(cfg, logger.Nop())
	require.NoError(t, err)

	_, err = g.CreateOrder(context.Background(), 100, "INR", "booking-1")
	assert.ErrorIs(t, err, ErrGatewayDisabled)

	_, err = g.Refund(context.Background(), "pay_1", 100)
	assert.ErrorIs(t, err, ErrGatewayDisabled)
}

// ── Refund ──────────────────────────────────────────────────────────────────

func TestRefund_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/pay_1/refund", r.URL.Path)

		var body refundRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(5000), body.Amount)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"rfnd_1","payment_id":"pay_1","amount":5000,"status":"processed"}`))
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	refund, err := g.Refund(context.Background(), "pay_1", 5000)

	require.NoError(t, err)
	assert.Equal(t, "rfnd_1", refund.ID)
	assert.Equal(t, "processed", refund.Status)
}

func TestRefund_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := newTestGateway(t, srv.URL)
	_, err := g.Refund(context.Background(), "pay_missing", 5000)

	assert.ErrorIs(t, err, ErrNotFound)
}

// ── Signatures ──────────────────────────────────────────────────────────────

func TestVerifyPaymentSignature(t *testing.T) {
	g := newTestGateway(t, "https://api.razorpay.com/v1")
	valid := utils.HashString("order_1|pay_1", "secret")

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid", orderID: "order_1", paymentID: "pay_1", signature: valid, want: true},
		{name: "other payment", orderID: "order_1", paymentID: "pay_2", signature: valid, want: false},
		{name: "not hex", orderID: "order_1", paymentID: "pay_1", signature: "zz", want: false},
		{name: "empty", orderID: "order_1", paymentID: "pay_1", signature: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.VerifyPaymentSignature(tt.orderID, tt.paymentID, tt.signature))
		})
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	g := newTestGateway(t, "https://api.razorpay.com/v1")
	body := []byte(`{"event":"payment.captured"}`)

	assert.True(t, g.VerifyWebhookSignature(body, utils.HashBytes(body, "whsec")))
	assert.False(t, g.VerifyWebhookSignature(body, utils.HashBytes(body, "secret")))
	assert.False(t, g.VerifyWebhookSignature([]byte(`{}`), utils.HashBytes(body, "whsec")))
}

func TestVerifyWebhookSignature_NoSecret(t *testing.T) {
	cfg := testPaymentConfig("https://api.razorpay.com/v1")
	cfg.WebhookSecret = ""
	g, err := NewPaymentGateway(cfg, logger.Nop())
	require.NoError(t, err)

	body := []byte(`{}`)
	assert.False(t, g.VerifyWebhookSignature(body, utils.HashBytes(body, "")))
}

// ── Construction ────────────────────────────────────────────────────────────

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "https://api.razorpay.com/v1/", want: "https://api.razorpay.com/v1"},
		{raw: "api.razorpay.com/v1", want: "https://api.razorpay.com/v1"},
		{raw: "http://localhost:9000", want: "http://localhost:9000"},
		{raw: "  ", wantErr: true},
		{raw: "http://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := normalizeBaseURL(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyID(t *testing.T) {
	g := newTestGateway(t, "https://api.razorpay.com/v1")
	assert.Equal(t, "rzp_test_key", g.KeyID())
}
