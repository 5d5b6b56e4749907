// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
)

// lifecycleBatchSize bounds the bookings handled by one lifecycle query.
const lifecycleBatchSize = 100

type bookingService struct {
	bookingRepository store.BookingRepository
	tourRepository    store.TourRepository
	payments          PaymentService
	publisher         events.Publisher
	metrics           *metrics.Metrics
	ids               utils.IDGenerator
	now               func() time.Time

	logger *logger.Logger
}

// NewBookingService constructs a BookingService. payments refunds paid
// bookings that get cancelled; m may be nil.
func NewBookingService(
	bookings store.BookingRepository,
	tours store.TourRepository,
	payments PaymentService,
	publisher events.Publisher,
	ids utils.IDGenerator,
	m *metrics.Metrics,
	logger *logger.Logger,
) BookingService {
	return &bookingService{
		bookingRepository: bookings,
		tourRepository:    tours,
		payments:          payments,
		publisher:         publisher,
		metrics:           m,
		ids:               ids,
		now:               time.Now,
		logger:            logger,
	}
}

// CreateBooking books an active tour for the calling traveler. The total
// price is fixed here; the store enforces the tour capacity.
func (s *bookingService) CreateBooking(ctx context.Context, actor models.Principal, req models.BookingRequest) (models.Booking, error) {
	log := logger.FromContext(ctx)

	if actor.Role != models.RoleTraveler {
		return models.Booking{}, ErrNotTraveler
	}

	tour, err := s.tourRepository.GetTour(ctx, req.TourID)
	if err != nil {
		return models.Booking{}, err
	}
	if !tour.Active {
		return models.Booking{}, ErrTourInactive
	}
	if req.GroupSize > tour.MaxGroupSize {
		return models.Booking{}, store.ErrCapacityExceeded
	}

	now := s.now().UTC()
	booking := models.Booking{
		ID:            s.ids.Generate(),
		TravelerID:    actor.UserID,
		GuideID:       tour.GuideID,
		TourID:        tour.ID,
		TourDate:      req.TourDate,
		GroupSize:     req.GroupSize,
		TotalPrice:    tour.Price.Mul(decimal.NewFromInt(int64(req.GroupSize))),
		Currency:      tour.Currency,
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.bookingRepository.CreateBooking(ctx, booking)
	if err != nil {
		log.Err(err).Str("tour_id", tour.ID).Str("tour_date", req.TourDate.String()).Msg("booking creation failed")
		return models.Booking{}, fmt.Errorf("booking creation failed: %w", err)
	}

	s.metrics.BookingTransition(string(created.Status))
	publish(ctx, s.publisher, s.metrics, models.NewBookingEvent(s.ids.Generate(), models.EventBookingCreated, created, now))

	return created, nil
}

// ListBookings scopes the listing by the actor's role. Party ids supplied by
// the caller are ignored.
func (s *bookingService) ListBookings(ctx context.Context, actor models.Principal, filter models.BookingFilter) (models.Page[models.Booking], error) {
	filter.TravelerID = ""
	filter.GuideID = ""
	switch actor.Role {
	case models.RoleTraveler:
		filter.TravelerID = actor.UserID
	case models.RoleGuide:
		filter.GuideID = actor.UserID
	case models.RoleAdmin:
	default:
		return models.Page[models.Booking]{}, ErrForbidden
	}
	filter.Pagination = filter.Pagination.Normalize()

	bookings, total, err := s.bookingRepository.ListBookings(ctx, filter)
	if err != nil {
		return models.Page[models.Booking]{}, err
	}
	return models.NewPage(bookings, total, filter.Pagination), nil
}

// GetBooking returns a booking to its traveler, its guide and administrators.
// Everybody else gets store.ErrBookingNotFound.
func (s *bookingService) GetBooking(ctx context.Context, actor models.Principal, bookingID string) (models.Booking, error) {
	booking, err := s.bookingRepository.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if _, ok := booking.PartyRole(actor); !ok {
		return models.Booking{}, store.ErrBookingNotFound
	}
	return booking, nil
}

// UpdateStatus moves a booking along the lifecycle on behalf of one of its
// parties. Cancelling a paid booking refunds it.
func (s *bookingService) UpdateStatus(ctx context.Context, actor models.Principal, bookingID string, req models.BookingStatusRequest) (models.Booking, error) {
	booking, err := s.bookingRepository.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}

	role, ok := booking.PartyRole(actor)
	if !ok {
		return models.Booking{}, store.ErrBookingNotFound
	}
	if !models.TransitionExists(booking.Status, req.Status) {
		return models.Booking{}, ErrInvalidTransition
	}
	if !models.TransitionAllowed(booking.Status, req.Status, role) {
		return models.Booking{}, ErrForbidden
	}

	return s.transition(ctx, booking, req.Status, req.Reason)
}

// ExpirePending cancels unpaid pending bookings created before createdBefore.
func (s *bookingService) ExpirePending(ctx context.Context, createdBefore time.Time) (int, error) {
	bookings, err := s.bookingRepository.ListExpiredPending(ctx, createdBefore, lifecycleBatchSize)
	if err != nil {
		return 0, err
	}
	return s.transitionAll(ctx, bookings, models.BookingCancelled, models.CancellationExpired)
}

// CompletePast completes confirmed bookings whose tour date has passed.
func (s *bookingService) CompletePast(ctx context.Context, today models.Date) (int, error) {
	bookings, err := s.bookingRepository.ListPastConfirmed(ctx, today, lifecycleBatchSize)
	if err != nil {
		return 0, err
	}
	return s.transitionAll(ctx, bookings, models.BookingCompleted, "")
}

// transitionAll applies the same transition to several bookings. Bookings
// changed concurrently are skipped.
func (s *bookingService) transitionAll(ctx context.Context, bookings []models.Booking, to models.BookingStatus, reason string) (int, error) {
	done := 0
	for _, booking := range bookings {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		_, err := s.transition(ctx, booking, to, reason)
		if errors.Is(err, store.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return done, err
		}
		done++
	}
	return done, nil
}

func (s *bookingService) transition(ctx context.Context, booking models.Booking, to models.BookingStatus, reason string) (models.Booking, error) {
	log := logger.FromContext(ctx)
	now := s.now().UTC()

	updated, err := s.bookingRepository.UpdateStatus(ctx, models.StatusChange{
		BookingID: booking.ID,
		From:      booking.Status,
		To:        to,
		Reason:    reason,
		At:        now,
	})
	if err != nil {
		if !errors.Is(err, store.ErrStatusConflict) {
			log.Err(err).Str("booking_id", booking.ID).Str("to", string(to)).Msg("booking status update failed")
		}
		return models.Booking{}, fmt.Errorf("booking status update failed: %w", err)
	}
	s.metrics.BookingTransition(string(to))

	if to == models.BookingCancelled && updated.PaymentStatus == models.PaymentPaid {
		refunded, refundErr := s.payments.RefundBooking(ctx, updated)
		if refundErr != nil {
			log.Err(refundErr).Str("booking_id", booking.ID).Msg("refund of cancelled booking failed")
		} else {
			updated = refunded
		}
	}

	event := models.NewBookingEvent(s.ids.Generate(), models.EventBookingStatusChanged, updated, now)
	event.PreviousStatus = booking.Status
	event.Reason = reason
	publish(ctx, s.publisher, s.metrics, event)

	return updated, nil
}

// publish hands an event to the bus. Failures are logged and counted but
// never fail the request.
func publish(ctx context.Context, publisher events.Publisher, m *metrics.Metrics, event models.BookingEvent) {
	err := publisher.Publish(ctx, event)
	m.EventPublished(string(event.Type), err)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID).
			Msg("event was not published")
	}
}
