// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingTestColumns = strings.Split(bookingColumns, ", ")

func newTestBookingRepo(t *testing.T) (*bookingRepository, sqlmock.Sqlmock) {
	db, mock := newTestDB(t)
	return &bookingRepository{DB: db, logger: logger.Nop()}, mock
}

func testBooking() models.Booking {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return models.Booking{
		ID:            "b-1",
		TravelerID:    "traveler-1",
		GuideID:       "guide-1",
		TourID:        "tour-1",
		TourDate:      models.NewDate(now.AddDate(0, 0, 14)),
		GroupSize:     3,
		TotalPrice:    decimal.RequireFromString("150.00"),
		Currency:      "INR",
		Status:        models.BookingPending,
		PaymentStatus: models.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func bookingRows(bookings ...models.Booking) *sqlmock.Rows {
	rows := sqlmock.NewRows(bookingTestColumns)
	for _, b := range bookings {
		rows.AddRow(b.ID, b.TravelerID, b.GuideID, b.TourID, b.TourDate.Time, b.GroupSize, b.TotalPrice.String(),
			b.Currency, string(b.Status), string(b.PaymentStatus), b.Notes, b.CancellationReason, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

// ─────────────────────────────────────────────
// CreateBooking
// ─────────────────────────────────────────────

func TestCreateBooking_Success(t *testing.T) {
	repo, mock := newTestBookingRepo(t)
	booking := testBooking()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT max_group_size, active\s+FROM tours\s+WHERE id = \$1\s+FOR UPDATE`).
		WithArgs(booking.TourID).
		WillReturnRows(sqlmock.NewRows([]string{"max_group_size", "active"}).AddRow(10, true))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(group_size\), 0\)`).
		WithArgs(booking.TourID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(7))
	mock.ExpectQuery("INSERT INTO bookings").
		WithArgs(anyArgs(14)...).
		WillReturnRows(bookingRows(booking))
	mock.ExpectCommit()

	created, err := repo.CreateBooking(context.Background(), booking)
	require.NoError(t, err)
	assert.Equal(t, booking.ID, created.ID)
	assert.Equal(t, booking.TourDate.String(), created.TourDate.String())
	assert.True(t, booking.TotalPrice.Equal(created.TotalPrice))
	assert.Equal(t, models.BookingPending, created.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_CapacityExceeded(t *testing.T) {
	repo, mock := newTestBookingRepo(t)
	booking := testBooking()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(booking.TourID).
		WillReturnRows(sqlmock.NewRows([]string{"max_group_size", "active"}).AddRow(10, true))
	mock.ExpectQuery(`SUM\(group_size\)`).
		WithArgs(booking.TourID, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(8))
	mock.ExpectRollback()

	_, err := repo.CreateBooking(context.Background(), booking)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_TourNotFound(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mock sqlmock.Sqlmock)
	}{
		{
			name: "missing tour",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
			},
		},
		{
			name: "inactive tour",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("FOR UPDATE").
					WillReturnRows(sqlmock.NewRows([]string{"max_group_size", "active"}).AddRow(10, false))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newTestBookingRepo(t)

			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			_, err := repo.CreateBooking(context.Background(), testBooking())
			require.ErrorIs(t, err, ErrTourNotFound)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateBooking_DeadlockIsRetried(t *testing.T) {
	repo, mock := newTestBookingRepo(t)
	booking := testBooking()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnError(pgError(pgerrcode.DeadlockDetected))
	mock.ExpectRollback()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").
		WillReturnRows(sqlmock.NewRows([]string{"max_group_size", "active"}).AddRow(10, true))
	mock.ExpectQuery(`SUM\(group_size\)`).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(0))
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(bookingRows(booking))
	mock.ExpectCommit()

	_, err := repo.CreateBooking(context.Background(), booking)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBooking_RetriesExhausted(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	for range txMaxAttempts {
		mock.ExpectBegin()
		mock.ExpectQuery("FOR UPDATE").WillReturnError(pgError(pgerrcode.SerializationFailure))
		mock.ExpectRollback()
	}

	_, err := repo.CreateBooking(context.Background(), testBooking())
	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.NoError(t, mock.ExpectationsWereMet())
}

// ─────────────────────────────────────────────
// UpdateStatus
// ─────────────────────────────────────────────

func TestUpdateStatus_Success(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	confirmed := testBooking()
	confirmed.Status = models.BookingConfirmed
	at := time.Now().UTC()

	mock.ExpectQuery("UPDATE bookings SET status = \\$1, updated_at = \\$2 WHERE").
		WithArgs(models.BookingConfirmed, at, confirmed.ID, models.BookingPending).
		WillReturnRows(bookingRows(confirmed))

	updated, err := repo.UpdateStatus(context.Background(), models.StatusChange{
		BookingID: confirmed.ID,
		From:      models.BookingPending,
		To:        models.BookingConfirmed,
		At:        at,
	})
	require.NoError(t, err)
	assert.Equal(t, models.BookingConfirmed, updated.Status)
}

func TestUpdateStatus_Conflict(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	current := testBooking()
	current.Status = models.BookingCancelled

	mock.ExpectQuery("UPDATE bookings").
		WillReturnRows(sqlmock.NewRows(bookingTestColumns))
	mock.ExpectQuery(`FROM bookings\s+WHERE id = \$1`).
		WithArgs(current.ID).
		WillReturnRows(bookingRows(current))

	_, err := repo.UpdateStatus(context.Background(), models.StatusChange{
		BookingID: current.ID,
		From:      models.BookingPending,
		To:        models.BookingConfirmed,
	})
	require.ErrorIs(t, err, ErrStatusConflict)
}

func TestUpdateStatus_NotFound(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	mock.ExpectQuery("UPDATE bookings").
		WillReturnRows(sqlmock.NewRows(bookingTestColumns))
	mock.ExpectQuery(`FROM bookings\s+WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatus(context.Background(), models.StatusChange{
		BookingID: "missing",
		From:      models.BookingPending,
		To:        models.BookingCancelled,
	})
	require.ErrorIs(t, err, ErrBookingNotFound)
}

func TestUpdatePaymentStatus_Success(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	paid := testBooking()
	paid.PaymentStatus = models.PaymentPaid

	mock.ExpectQuery("UPDATE bookings\\s+SET payment_status").
		WithArgs(paid.ID, models.PaymentUnpaid, models.PaymentPaid).
		WillReturnRows(bookingRows(paid))

	updated, err := repo.UpdatePaymentStatus(context.Background(), paid.ID, models.PaymentUnpaid, models.PaymentPaid)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, updated.PaymentStatus)
}

// ─────────────────────────────────────────────
// Listings and stats
// ─────────────────────────────────────────────

func TestListExpiredPending(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	cutoff := time.Now().Add(-30 * time.Minute)
	mock.ExpectQuery("status = 'pending' AND payment_status = 'unpaid'").
		WithArgs(cutoff, 50).
		WillReturnRows(bookingRows(testBooking()))

	bookings, err := repo.ListExpiredPending(context.Background(), cutoff, 50)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
}

func TestListPastConfirmed_QueryError(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	mock.ExpectQuery("status = 'confirmed'").
		WillReturnError(errors.New("boom"))

	_, err := repo.ListPastConfirmed(context.Background(), models.NewDate(time.Now()), 10)
	require.ErrorIs(t, err, ErrExecutingQuery)
}

func TestGuideStats(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	mock.ExpectQuery("GROUP BY status").
		WithArgs("guide-1").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "earnings"}).
			AddRow("pending", int64(2), "0").
			AddRow("completed", int64(3), "450.50"))
	mock.ExpectQuery("FROM guide_profiles").
		WithArgs("guide-1").
		WillReturnRows(sqlmock.NewRows([]string{"rating", "review_count"}).AddRow(4.5, 2))

	stats, err := repo.GuideStats(context.Background(), "guide-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), stats.BookingsByStatus[models.BookingPending])
	assert.Equal(t, int64(3), stats.BookingsByStatus[models.BookingCompleted])
	assert.Equal(t, int64(0), stats.BookingsByStatus[models.BookingCancelled])
	assert.Len(t, stats.BookingsByStatus, len(models.BookingStatuses))
	assert.Equal(t, "450.5", stats.Earnings.String())
	assert.Equal(t, 4.5, stats.Rating)
	assert.Equal(t, 2, stats.ReviewCount)
}

func TestGuideStats_UnknownGuide(t *testing.T) {
	repo, mock := newTestBookingRepo(t)

	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count", "earnings"}))
	mock.ExpectQuery("FROM guide_profiles").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GuideStats(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrGuideNotFound)
}
