package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
)

// BookingServiceWrapper decorates a BookingService, e.g. with request
// validation.
type BookingServiceWrapper interface {
	Wrap(BookingService) BookingService
}

// BookingValidationService validates booking requests before handing them to
// the wrapped BookingService.
type BookingValidationService struct {
	inner     BookingService
	validator validators.Validator
}

func NewBookingValidationService(validator validators.Validator) BookingServiceWrapper {
	return &BookingValidationService{
		validator: validator,
	}
}

func (v *BookingValidationService) CreateBooking(ctx context.Context, actor models.Principal, req models.BookingRequest) (models.Booking, error) {
	// the tour date must not be in the past, group size within 1..100
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.Booking{}, fmt.Errorf("error during booking validation: %w", err)
	}

	return v.inner.CreateBooking(ctx, actor, req)
}

func (v *BookingValidationService) ListBookings(ctx context.Context, actor models.Principal, filter models.BookingFilter) (models.Page[models.Booking], error) {
	if err := v.validator.Validate(ctx, filter); err != nil {
		return models.Page[models.Booking]{}, fmt.Errorf("error during booking filter validation: %w", err)
	}

	return v.inner.ListBookings(ctx, actor, filter)
}

func (v *BookingValidationService) GetBooking(ctx context.Context, actor models.Principal, bookingID string) (models.Booking, error) {
	return v.inner.GetBooking(ctx, actor, bookingID)
}

func (v *BookingValidationService) UpdateStatus(ctx context.Context, actor models.Principal, bookingID string, req models.BookingStatusRequest) (models.Booking, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.Booking{}, fmt.Errorf("error during status validation: %w", err)
	}

	return v.inner.UpdateStatus(ctx, actor, bookingID, req)
}

func (v *BookingValidationService) ExpirePending(ctx context.Context, createdBefore time.Time) (int, error) {
	return v.inner.ExpirePending(ctx, createdBefore)
}

func (v *BookingValidationService) CompletePast(ctx context.Context, today models.Date) (int, error) {
	return v.inner.CompletePast(ctx, today)
}

func (v *BookingValidationService) Wrap(wrapper BookingService) BookingService {
	v.inner = wrapper
	return v
}
