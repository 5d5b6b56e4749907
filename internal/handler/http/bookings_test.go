// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testTourID = "7b0e4a52-3c1d-4f5e-9a8b-2c6d1e0f3a41"

func testBooking(status models.BookingStatus) models.Booking {
	return models.Booking{
		ID:            "booking-1",
		TravelerID:    travelerUser.ID,
		GuideID:       guideUser.ID,
		TourID:        testTourID,
		TourDate:      models.NewDate(time.Date(2030, time.March, 14, 0, 0, 0, 0, time.UTC)),
		GroupSize:     2,
		TotalPrice:    decimal.RequireFromString("3000.00"),
		Currency:      "INR",
		Status:        status,
		PaymentStatus: models.PaymentUnpaid,
	}
}

// ─────────────────────────────────────────────
// createBooking
// ─────────────────────────────────────────────

func TestCreateBooking_Created(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	m.bookings.EXPECT().CreateBooking(gomock.Any(), principalOf(travelerUser), gomock.Any()).
		DoAndReturn(func(_ any, _ models.Principal, req models.BookingRequest) (models.Booking, error) {
			assert.Equal(t, testTourID, req.TourID)
			assert.Equal(t, "2030-03-14", req.TourDate.String())
			assert.Equal(t, 2, req.GroupSize)
			return testBooking(models.BookingPending), nil
		})

	body := `{"tour_id":"` + testTourID + `","tour_date":"2030-03-14","group_size":2}`
	rec := serve(h, &travelerUser, http.MethodPost, "/api/bookings", strings.NewReader(body))

	require.Equal(t, http.StatusCreated, rec.Code)
	var got models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.BookingPending, got.Status)
	assert.True(t, got.TotalPrice.Equal(decimal.RequireFromString("3000")))
}

func TestCreateBooking_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "capacity exceeded", err: store.ErrCapacityExceeded, wantStatus: http.StatusConflict},
		{name: "tour missing", err: store.ErrTourNotFound, wantStatus: http.StatusNotFound},
		{name: "guide cannot book", err: service.ErrNotTraveler, wantStatus: http.StatusForbidden},
		{name: "inactive tour", err: service.ErrTourInactive, wantStatus: http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.expectAuth(travelerUser)
			m.bookings.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Return(models.Booking{}, tt.err)

			body := `{"tour_id":"` + testTourID + `","tour_date":"2030-03-14","group_size":2}`
			rec := serve(h, &travelerUser, http.MethodPost, "/api/bookings", strings.NewReader(body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.err.Error(), decodeError(t, rec))
		})
	}
}

func TestCreateBooking_MalformedDate(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	body := `{"tour_id":"` + testTourID + `","tour_date":"14/03/2030","group_size":2}`
	rec := serve(h, &travelerUser, http.MethodPost, "/api/bookings", strings.NewReader(body))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateBooking_Anonymous(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := serve(h, nil, http.MethodPost, "/api/bookings", strings.NewReader(`{}`))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// ─────────────────────────────────────────────
// listBookings
// ─────────────────────────────────────────────

func TestListBookings_PassesFilter(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	want := models.BookingFilter{
		TourID:     testTourID,
		Status:     models.BookingConfirmed,
		Pagination: models.Pagination{Page: 2, Limit: 5},
	}
	m.bookings.EXPECT().ListBookings(gomock.Any(), principalOf(travelerUser), want).
		Return(models.NewPage([]models.Booking{testBooking(models.BookingConfirmed)}, 6, want.Pagination), nil)

	rec := serve(h, &travelerUser, http.MethodGet, "/api/bookings?status=confirmed&tour_id="+testTourID+"&page=2&limit=5", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var page models.Page[models.Booking]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Items, 1)
	assert.EqualValues(t, 6, page.Total)
}

func TestListBookings_InvalidPagination(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)

	rec := serve(h, &travelerUser, http.MethodGet, "/api/bookings?page=-1", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec), "page")
}

func TestListBookings_GuideAndAdminRoutes(t *testing.T) {
	tests := []struct {
		name string
		user models.User
		path string
	}{
		{name: "guide", user: guideUser, path: "/api/guides/me/bookings"},
		{name: "admin", user: adminUser, path: "/api/admin/bookings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.expectAuth(tt.user)
			m.bookings.EXPECT().ListBookings(gomock.Any(), principalOf(tt.user), gomock.Any()).
				Return(models.Page[models.Booking]{Items: []models.Booking{}}, nil)

			rec := serve(h, &tt.user, http.MethodGet, tt.path, nil)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

// ─────────────────────────────────────────────
// updateBookingStatus
// ─────────────────────────────────────────────

func TestUpdateBookingStatus(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "confirmed", wantStatus: http.StatusOK},
		{name: "invalid transition", err: service.ErrInvalidTransition, wantStatus: http.StatusConflict},
		{name: "not a party", err: service.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "concurrent change", err: store.ErrStatusConflict, wantStatus: http.StatusConflict},
		{name: "missing", err: store.ErrBookingNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newTestHandler(t)
			m.expectAuth(guideUser)

			req := models.BookingStatusRequest{Status: models.BookingConfirmed}
			result := testBooking(models.BookingConfirmed)
			if tt.err != nil {
				result = models.Booking{}
			}
			m.bookings.EXPECT().UpdateStatus(gomock.Any(), principalOf(guideUser), "booking-1", req).Return(result, tt.err)

			rec := serve(h, &guideUser, http.MethodPatch, "/api/bookings/booking-1/status", jsonBody(t, req))

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}
