// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides clients for the external systems the marketplace
// talks to: the payment gateway and the mail relay.
//
// [PaymentGateway] is implemented over a resty HTTP client
// ([NewPaymentGateway]); [Mailer] is implemented over SMTP ([NewSMTPMailer])
// with a log-only fallback ([NewLogMailer]) for deployments without a relay.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrBadRequest] for 400, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-tour-guide/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// PaymentGateway creates orders and refunds at the payment provider and
// checks the signatures it produces.
type PaymentGateway interface {
	// KeyID returns the public key the checkout is opened with.
	KeyID() string

	// CreateOrder registers an order of amount minor units. receipt is the
	// merchant reference shown in the gateway dashboard; the booking id is
	// used.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (models.GatewayOrder, error)

	// Refund refunds amount minor units of a captured payment.
	Refund(ctx context.Context, paymentID string, amount int64) (models.GatewayRefund, error)

	// VerifyPaymentSignature checks the signature the checkout returns for a
	// completed payment.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool

	// VerifyWebhookSignature checks the signature header of a webhook body.
	VerifyWebhookSignature(body []byte, signature string) bool
}

// Mailer delivers plain-text emails.
type Mailer interface {
	Send(ctx context.Context, email models.Email) error
}
