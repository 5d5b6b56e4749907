// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("booking lookup failed: %w", store.ErrBookingNotFound),
			wantStatus:  http.StatusNotFound,
			wantMessage: store.ErrBookingNotFound.Error(),
		},
		{
			name:        "capacity",
			err:         fmt.Errorf("booking creation failed: %w", store.ErrCapacityExceeded),
			wantStatus:  http.StatusConflict,
			wantMessage: store.ErrCapacityExceeded.Error(),
		},
		{
			name:        "invalid transition",
			err:         service.ErrInvalidTransition,
			wantStatus:  http.StatusConflict,
			wantMessage: "invalid status transition",
		},
		{
			name:        "field validation keeps details",
			err:         fmt.Errorf("invalid: %w", &validators.ValidationError{Fields: []validators.FieldError{{Field: "email", Message: "must be a valid email"}}}),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "validation failed: email must be a valid email",
		},
		{
			name:        "plain validation",
			err:         validators.ErrValidation,
			wantStatus:  http.StatusBadRequest,
			wantMessage: validators.ErrValidation.Error(),
		},
		{
			name:        "invalid query keeps details",
			err:         fmt.Errorf("%w: page must be a non-negative integer", ErrInvalidQuery),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid query parameter: page must be a non-negative integer",
		},
		{
			name:        "invalid JSON",
			err:         fmt.Errorf("%w: unexpected EOF", utils.ErrInvalidJSON),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "invalid JSON body: unexpected EOF",
		},
		{
			name:        "storage failure is hidden",
			err:         fmt.Errorf("%w: dial tcp 10.0.0.5:5432: connection refused", store.ErrExecutingQuery),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: http.StatusText(http.StatusInternalServerError),
		},
		{
			name:        "gateway failure is hidden",
			err:         fmt.Errorf("order creation failed: %w", adapter.ErrUnauthorized),
			wantStatus:  http.StatusBadGateway,
			wantMessage: http.StatusText(http.StatusBadGateway),
		},
		{
			name:        "gateway disabled",
			err:         adapter.ErrGatewayDisabled,
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: http.StatusText(http.StatusServiceUnavailable),
		},
		{
			name:        "password too long for bcrypt",
			err:         fmt.Errorf("register: %w", service.ErrPasswordTooLong),
			wantStatus:  http.StatusBadRequest,
			wantMessage: service.ErrPasswordTooLong.Error(),
		},
		{
			name:        "unknown",
			err:         errors.New("boom"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: http.StatusText(http.StatusInternalServerError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, message := classifyError(tt.err)

			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantMessage, message)
			assert.Equal(t, tt.wantStatus, statusFromError(tt.err))
		})
	}
}

func TestErrorStatusMap_NoServerErrorForClientSentinels(t *testing.T) {
	for _, err := range []error{
		store.ErrEmailAlreadyExists,
		store.ErrReviewExists,
		service.ErrNotTraveler,
		service.ErrTourInactive,
		validators.ErrTourDateInPast,
	} {
		status, ok := errorStatusMap[err]
		assert.True(t, ok, err.Error())
		assert.Less(t, status, http.StatusInternalServerError, err.Error())
	}
}

func TestWriteError_JSONBody(t *testing.T) {
	h, m := newTestHandler(t)
	m.expectAuth(travelerUser)
	m.bookings.EXPECT().GetBooking(gomock.Any(), principalOf(travelerUser), "missing").Return(models.Booking{}, store.ErrBookingNotFound)

	rec := serve(h, &travelerUser, http.MethodGet, "/api/bookings/missing", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, store.ErrBookingNotFound.Error(), decodeError(t, rec))
}
