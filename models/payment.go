// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus is the state of a payment attempt.
type TransactionStatus string

const (
	TransactionCreated  TransactionStatus = "created"
	TransactionCaptured TransactionStatus = "captured"
	TransactionFailed   TransactionStatus = "failed"
	TransactionRefunded TransactionStatus = "refunded"
)

// Transaction records a single payment attempt for a booking, keyed by the
// order created at the payment gateway.
type Transaction struct {
	ID            string            `json:"id" bson:"_id"`
	BookingID     string            `json:"booking_id" bson:"booking_id"`
	UserID        string            `json:"user_id" bson:"user_id"`
	OrderID       string            `json:"order_id" bson:"order_id"`
	PaymentID     string            `json:"payment_id,omitempty" bson:"payment_id,omitempty"`
	Signature     string            `json:"-" bson:"signature,omitempty"`
	Amount        decimal.Decimal   `json:"amount" bson:"amount"`
	Currency      string            `json:"currency" bson:"currency"`
	Status        TransactionStatus `json:"status" bson:"status"`
	FailureReason string            `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" bson:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Transaction model.
func (t Transaction) TableName() string {
	return "transactions"
}

// TransactionFilter narrows a transaction listing.
type TransactionFilter struct {
	UserID    string
	BookingID string
	Status    TransactionStatus
	Pagination
}

// ToMinorUnits converts an amount to the smallest currency unit (paise,
// cents) as expected by the payment gateway.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

// FromMinorUnits converts an amount in the smallest currency unit back to a
// decimal amount.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -2)
}

// CreateOrderRequest is the body of POST /api/payments/orders.
type CreateOrderRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

// OrderResponse is what the client needs to open the gateway checkout.
type OrderResponse struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"key_id"`
	BookingID string `json:"booking_id"`
}

// VerifyPaymentRequest is the body of POST /api/payments/verify. The
// signature is returned to the client by the gateway checkout.
type VerifyPaymentRequest struct {
	OrderID   string `json:"order_id" validate:"required,max=64"`
	PaymentID string `json:"payment_id" validate:"required,max=64"`
	Signature string `json:"signature" validate:"required,hexadecimal,len=64"`
}

// GatewayOrder is an order registered at the payment gateway.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// GatewayRefund is a refund registered at the payment gateway.
type GatewayRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// Webhook event names sent by the payment gateway.
const (
	WebhookPaymentCaptured = "payment.captured"
	WebhookPaymentFailed   = "payment.failed"
	WebhookRefundProcessed = "refund.processed"
)

// WebhookEvent is the envelope of a payment gateway webhook.
type WebhookEvent struct {
	Event   string         `json:"event"`
	Payload WebhookPayload `json:"payload"`
}

// WebhookPayload carries the entities an event refers to.
type WebhookPayload struct {
	Payment *WebhookEntity[WebhookPayment] `json:"payment,omitempty"`
	Refund  *WebhookEntity[WebhookRefund]  `json:"refund,omitempty"`
}

// WebhookEntity is the wrapper the gateway puts around every entity.
type WebhookEntity[T any] struct {
	Entity T `json:"entity"`
}

// WebhookPayment is the payment entity of a webhook.
type WebhookPayment struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	Amount           int64  `json:"amount"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	ErrorDescription string `json:"error_description"`
}

// WebhookRefund is the refund entity of a webhook.
type WebhookRefund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}
