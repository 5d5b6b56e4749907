// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository persists accounts.
type UserRepository interface {
	// CreateUser stores a new account. When profile is not nil the guide
	// profile is stored atomically with it.
	CreateUser(ctx context.Context, user models.User, profile *models.GuideProfile) (models.User, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	// UpdateUser writes only the columns set in changes and returns the
	// stored account. It returns ErrStatusConflict when a precondition of
	// changes no longer holds.
	UpdateUser(ctx context.Context, id string, changes models.UserChanges) (models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, int64, error)
}

// GuideRepository persists guide profiles and serves the guide read model.
type GuideRepository interface {
	GetGuide(ctx context.Context, userID string) (models.Guide, error)
	SearchGuides(ctx context.Context, filter models.GuideFilter) ([]models.Guide, int64, error)
	UpdateProfile(ctx context.Context, profile models.GuideProfile) (models.GuideProfile, error)
	SetVerified(ctx context.Context, userID string, verified bool) error
	UpdateRating(ctx context.Context, userID string, summary models.RatingSummary) error
}

// TourRepository persists tours.
type TourRepository interface {
	CreateTour(ctx context.Context, tour models.Tour) (models.Tour, error)
	GetTour(ctx context.Context, id string) (models.Tour, error)
	// UpdateTour overwrites the mutable fields of a tour except its images.
	UpdateTour(ctx context.Context, tour models.Tour) (models.Tour, error)
	// AppendImage atomically adds path to the images of a tour.
	AppendImage(ctx context.Context, tourID, path string, updatedAt time.Time) (models.Tour, error)
	SearchTours(ctx context.Context, filter models.TourFilter) ([]models.Tour, int64, error)
}

// BookingRepository persists bookings and enforces the capacity of a tour
// date.
type BookingRepository interface {
	// CreateBooking stores a new booking unless the pending and confirmed
	// bookings of the same tour and date would exceed the tour capacity.
	CreateBooking(ctx context.Context, booking models.Booking) (models.Booking, error)
	GetBooking(ctx context.Context, id string) (models.Booking, error)
	ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, int64, error)
	// UpdateStatus applies the change only if the booking is still in
	// change.From and returns [ErrStatusConflict] otherwise.
	UpdateStatus(ctx context.Context, change models.StatusChange) (models.Booking, error)
	// UpdatePaymentStatus moves the payment status from one value to another
	// and returns [ErrStatusConflict] if it was not in from.
	UpdatePaymentStatus(ctx context.Context, bookingID string, from, to models.PaymentStatus) (models.Booking, error)
	// ListExpiredPending returns unpaid pending bookings created before the
	// given time.
	ListExpiredPending(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error)
	// ListPastConfirmed returns confirmed bookings with a tour date before
	// the given date.
	ListPastConfirmed(ctx context.Context, before models.Date, limit int) ([]models.Booking, error)
	GuideStats(ctx context.Context, guideID string) (models.GuideStats, error)
}

// PaymentRepository persists payment transactions.
type PaymentRepository interface {
	CreateTransaction(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	GetTransactionByOrderID(ctx context.Context, orderID string) (models.Transaction, error)
	GetTransactionByPaymentID(ctx context.Context, paymentID string) (models.Transaction, error)
	// GetCapturedTransaction returns the transaction that captured the
	// booking payment.
	GetCapturedTransaction(ctx context.Context, bookingID string) (models.Transaction, error)
	// UpdateTransaction writes the status, payment id, signature and
	// failure reason of tx if its stored status is still from.
	UpdateTransaction(ctx context.Context, tx models.Transaction, from models.TransactionStatus) (models.Transaction, error)
	ListTransactions(ctx context.Context, filter models.TransactionFilter) ([]models.Transaction, int64, error)
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review models.Review) (models.Review, error)
	GetReview(ctx context.Context, id string) (models.Review, error)
	DeleteReview(ctx context.Context, id string) error
	ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int64, error)
	RatingSummary(ctx context.Context, guideID string) (models.RatingSummary, error)
}

// ReportRepository runs the aggregations of the administrator dashboard.
type ReportRepository interface {
	CountUsersByRole(ctx context.Context) (map[models.Role]int64, error)
	CountBookingsByStatus(ctx context.Context) (map[models.BookingStatus]int64, error)
	// TotalRevenue sums the totals of paid bookings.
	TotalRevenue(ctx context.Context) (decimal.Decimal, error)
	CountActiveTours(ctx context.Context) (int64, error)
	RevenueByMonth(ctx context.Context, r models.RevenueRange) ([]models.MonthlyRevenue, error)
	TopGuides(ctx context.Context, limit int) ([]models.GuideRevenue, error)
}

// MediaStorage keeps uploaded files outside of the database.
type MediaStorage interface {
	// Save writes r under name and returns the path relative to the media
	// root.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
}

// TourStorage combines tour persistence with image storage.
type TourStorage interface {
	TourRepository
	// AddImage stores an image and appends its path to the tour.
	AddImage(ctx context.Context, tourID, name string, r io.Reader) (models.Tour, error)
}

// TokenRevocationStore remembers revoked access tokens until they expire.
type TokenRevocationStore interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Database is the connection of the primary database backend.
type Database interface {
	Ping(ctx context.Context) error
	// Migrate brings the schema up to date: goose migrations for
	// PostgreSQL, collection indexes for MongoDB.
	Migrate(ctx context.Context) error
	Close(ctx context.Context) error
}

// ErrorClassificator decides whether a failed database operation is worth
// retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}
