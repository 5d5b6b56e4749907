// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/go-chi/chi/v5"
)

// Booking bodies are only decoded here. The booking service is wrapped by a
// validating decorator.

func (h *Handler) createBooking(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.BookingRequest
	if err = utils.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "invalid booking request")
		return
	}

	booking, err := h.services.BookingService.CreateBooking(r.Context(), p, req)
	if err != nil {
		writeError(w, r, err, "booking creation failed")
		return
	}

	logger.FromRequest(r).Info().Str("booking_id", booking.ID).Str("tour_id", booking.TourID).Msg("booking created")
	_, _ = utils.WriteJSON(w, booking, http.StatusCreated)
}

// listBookings serves the traveler, guide and admin listings. The service
// scopes the result by the role of the caller.
func (h *Handler) listBookings(w http.ResponseWriter, r *http.Request) {
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

	filter := models.BookingFilter{
		TourID:     q.Get("tour_id"),
		Status:     models.BookingStatus(q.Get("status")),
		Pagination: pagination,
	}

	page, err := h.services.BookingService.ListBookings(r.Context(), p, filter)
	if err != nil {
		writeError(w, r, err, "booking listing failed")
		return
	}

	_, _ = utils.WriteJSON(w, page, http.StatusOK)
}

func (h *Handler) getBooking(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	booking, err := h.services.BookingService.GetBooking(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, "booking lookup failed")
		return
	}

	_, _ = utils.WriteJSON(w, booking, http.StatusOK)
}

func (h *Handler) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	p, err := requirePrincipal(r)
	if err != nil {
		writeError(w, r, err, "missing principal")
		return
	}

	var req models.BookingStatusRequest
	if err = utils.DecodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "invalid booking status request")
		return
	}

	booking, err := h.services.BookingService.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err, "booking status update failed")
		return
	}

	_, _ = utils.WriteJSON(w, booking, http.StatusOK)
}
