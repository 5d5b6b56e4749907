// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

// webhookSignatureHeader carries the hex HMAC-SHA256 of a webhook body.
const webhookSignatureHeader = "X-Razorpay-Signature"

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.CreateOrderRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid order request")
		return
	}

	order, err := h.services.PaymentService.CreateOrder(r.Context(), p, req.BookingID)
	if err != nil {
		writeError(w, r, err, "order creation failed")
		return
	}

	_, _ = utils.WriteJSON(w, order, http.StatusCreated)
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.VerifyPaymentRequest
	if err = h.decodeBody(w, r, &req); err != nil {
		writeError(w, r, err, "invalid payment verification")
		return
	}

	tx, err := h.services.PaymentService.VerifyPayment(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err, "payment verification failed")
		return
	}

	_, _ = utils.WriteJSON(w, tx, http.StatusOK)
}

// paymentWebhook needs the raw body because the signature covers the exact
// bytes sent by the gateway.
func (h *Handler) paymentWebhook(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, utils.MaxJSONBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, utils.ErrInvalidJSON, "webhook body too large")
			return
		}
		writeError(w, r, err, "reading webhook body failed")
		return
	}

	if err = h.services.PaymentService.HandleWebhook(r.Context(), body, r.Header.Get(webhookSignatureHeader)); err != nil {
		writeError(w, r, err, "webhook handling failed")
		return
	}

	log.Debug().Int("size", len(body)).Msg("webhook processed")
	_, _ = utils.WriteJSON(w, statusResponse{Status: "ok"}, http.StatusOK)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	q := r.URL.Query()
	pagination, err := queryPagination(q)
	if err != nil {
		writeError(w, r, err, "invalid pagination")
		return
	}

	filter := models.TransactionFilter{
		BookingID:  q.Get("booking_id"),
		Status:     models.TransactionStatus(q.Get("status")),
		Pagination: pagination,
	}

	page, err := h.services.PaymentService.ListTransactions(r.Context(), p, filter)
	if err != nil {
		writeError(w, r, err, "transaction listing failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}
