// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
)

// bookingRepository is the PostgreSQL-backed implementation of
// [BookingRepository] over the "bookings" table.
type bookingRepository struct {
	*DB
	logger *logger.Logger
}

// NewBookingRepository constructs a [BookingRepository] backed by db.
func NewBookingRepository(db *DB, logger *logger.Logger) BookingRepository {
	return &bookingRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateBooking stores a booking while holding a row lock on its tour, so
// that concurrent bookings of the same tour are checked against the capacity
// one after another. The transaction is retried on transient errors such as
// serialization failures and deadlocks.
func (b *bookingRepository) CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	log := logger.FromContext(ctx)

	var created models.Booking
	err := b.inTx(ctx, nil, func(tx *sql.Tx) error {
		var (
			capacity int
			active   bool
		)
		err := tx.QueryRowContext(ctx, lockTourForBooking, booking.TourID).Scan(&capacity, &active)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTourNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		if !active {
			return ErrTourNotFound
		}

		var booked int
		if err = tx.QueryRowContext(ctx, bookedSeats, booking.TourID, booking.TourDate).Scan(&booked); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingQuery, err)
		}
		if booked+booking.GroupSize > capacity {
			return ErrCapacityExceeded
		}

		row := tx.QueryRowContext(ctx, createBooking,
			booking.ID, booking.TravelerID, booking.GuideID, booking.TourID, booking.TourDate, booking.GroupSize,
			booking.TotalPrice, booking.Currency, booking.Status, booking.PaymentStatus, booking.Notes,
			booking.CancellationReason, booking.CreatedAt, booking.UpdatedAt,
		)
		if created, err = scanBooking(row); err != nil {
			return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}

		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrTourNotFound) && !errors.Is(err, ErrCapacityExceeded) {
			log.Err(err).
				Str("func", "*bookingRepository.CreateBooking").
				Str("tour_id", booking.TourID).
				Msg("failed to create booking")
		}
		return models.Booking{}, err
	}

	return created, nil
}

// GetBooking returns a booking by id.
func (b *bookingRepository) GetBooking(ctx context.Context, id string) (models.Booking, error) {
	log := logger.FromContext(ctx)

	booking, err := scanBooking(b.QueryRowContext(ctx, findBookingByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, ErrBookingNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*bookingRepository.GetBooking").Str("booking_id", id).Msg("failed to get booking")
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return booking, nil
}

// ListBookings returns one page of bookings matching filter and the total
// number of matches.
func (b *bookingRepository) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountBookingsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := b.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*bookingRepository.ListBookings").Msg("failed to count bookings")
		return nil, 0, err
	}

	query, args, err := buildListBookingsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	bookings, err := queryList(ctx, b.DB, query, args, scanBooking)
	if err != nil {
		log.Err(err).Str("func", "*bookingRepository.ListBookings").Msg("failed to list bookings")
		return nil, 0, err
	}

	return bookings, total, nil
}

// UpdateStatus moves a booking from change.From to change.To in a single
// conditional UPDATE.
func (b *bookingRepository) UpdateStatus(ctx context.Context, change models.StatusChange) (models.Booking, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildUpdateStatusQuery(ctx, change)
	if err != nil {
		return models.Booking{}, err
	}

	updated, err := scanBooking(b.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, b.missOrConflict(ctx, change.BookingID)
	}
	if err != nil {
		log.Err(err).
			Str("func", "*bookingRepository.UpdateStatus").
			Str("booking_id", change.BookingID).
			Str("to", string(change.To)).
			Msg("failed to update booking status")
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// UpdatePaymentStatus moves the payment status of a booking from one value to
// another in a single conditional UPDATE.
func (b *bookingRepository) UpdatePaymentStatus(ctx context.Context, bookingID string, from, to models.PaymentStatus) (models.Booking, error) {
	log := logger.FromContext(ctx)

	updated, err := scanBooking(b.QueryRowContext(ctx, updatePaymentStatus, bookingID, from, to))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Booking{}, b.missOrConflict(ctx, bookingID)
	}
	if err != nil {
		log.Err(err).
			Str("func", "*bookingRepository.UpdatePaymentStatus").
			Str("booking_id", bookingID).
			Msg("failed to update payment status")
		return models.Booking{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// missOrConflict explains why a conditional update matched no row.
func (b *bookingRepository) missOrConflict(ctx context.Context, bookingID string) error {
	if _, err := b.GetBooking(ctx, bookingID); err != nil {
		return err
	}
	return ErrStatusConflict
}

// ListExpiredPending returns the oldest unpaid pending bookings created
// before createdBefore.
func (b *bookingRepository) ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	bookings, err := queryList(ctx, b.DB, findExpiredPending, []any{createdBefore, limit}, scanBooking)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*bookingRepository.ListExpiredPending").Msg("failed to list expired bookings")
		return nil, err
	}
	return bookings, nil
}

// ListPastConfirmed returns confirmed bookings whose tour date is before
// the given date.
func (b *bookingRepository) ListPastConfirmed(ctx context.Context, before models.Date, limit int) ([]models.Booking, error) {
	bookings, err := queryList(ctx, b.DB, findPastConfirmed, []any{before, limit}, scanBooking)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*bookingRepository.ListPastConfirmed").Msg("failed to list past bookings")
		return nil, err
	}
	return bookings, nil
}

// GuideStats counts the bookings of a guide by status and sums the earnings
// of completed, paid bookings.
func (b *bookingRepository) GuideStats(ctx context.Context, guideID string) (models.GuideStats, error) {
	log := logger.FromContext(ctx)

	stats := models.GuideStats{
		GuideID:          guideID,
		BookingsByStatus: make(map[models.BookingStatus]int64, len(models.BookingStatuses)),
		Earnings:         decimal.Zero,
	}
	for _, s := range models.BookingStatuses {
		stats.BookingsByStatus[s] = 0
	}

	rows, err := b.QueryContext(ctx, guideBookingsByStatus, guideID)
	if err != nil {
		log.Err(err).Str("func", "*bookingRepository.GuideStats").Str("guide_id", guideID).Msg("failed to aggregate bookings")
		return models.GuideStats{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status   models.BookingStatus
			count    int64
			earnings decimal.Decimal
		)
		if err = rows.Scan(&status, &count, &earnings); err != nil {
			return models.GuideStats{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		stats.BookingsByStatus[status] = count
		stats.Earnings = stats.Earnings.Add(earnings)
	}
	if err = rows.Err(); err != nil {
		return models.GuideStats{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	err = b.QueryRowContext(ctx, guideRating, guideID).Scan(&stats.Rating, &stats.ReviewCount)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GuideStats{}, ErrGuideNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*bookingRepository.GuideStats").Str("guide_id", guideID).Msg("failed to read guide rating")
		return models.GuideStats{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return stats, nil
}
