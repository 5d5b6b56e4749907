// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package service holds the business logic of the marketplace. Services
// receive validated requests from the transport layer, enforce ownership and
// role rules, and coordinate the repositories, the payment gateway and the
// event bus.
package service

import (
	"context"
	"io"
	"time"

	"github.com/MKhiriev/go-tour-guide/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock

// AuthService manages accounts, credentials and access tokens.
type AuthService interface {
	// Register creates a traveler or guide account and issues a token.
	Register(ctx context.Context, req models.RegisterRequest) (models.User, models.Token, error)
	// Login checks the password and, if enabled, the one-time code.
	Login(ctx context.Context, req models.LoginRequest) (models.User, models.Token, error)
	// Logout revokes the token until it expires.
	Logout(ctx context.Context, token models.Token) error
	// Authenticate parses a raw token and checks that it is not revoked and
	// that its user still exists and is active.
	Authenticate(ctx context.Context, rawToken string) (models.User, models.Token, error)

	ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error
	SetupOTP(ctx context.Context, userID string) (models.OTPSetup, error)
	EnableOTP(ctx context.Context, userID, code string) error
	DisableOTP(ctx context.Context, userID, code string) error

	// CreateAdmin creates an administrator account. It is only reachable from
	// the operator CLI.
	CreateAdmin(ctx context.Context, name, email, password string) (models.User, error)
}

// UserService manages profiles and moderation of accounts.
type UserService interface {
	GetUser(ctx context.Context, userID string) (models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.UserUpdate) (models.User, error)
	ListUsers(ctx context.Context, filter models.UserFilter) (models.Page[models.User], error)
	// SetActive blocks or unblocks an account on behalf of an administrator.
	SetActive(ctx context.Context, actor models.Principal, userID string, active bool) (models.User, error)
}

// GuideService serves guide search and guide profiles.
type GuideService interface {
	SearchGuides(ctx context.Context, filter models.GuideFilter) (models.Page[models.Guide], error)
	GetGuide(ctx context.Context, guideID string) (models.Guide, error)
	UpdateProfile(ctx context.Context, guideID string, upd models.GuideProfileUpdate) (models.Guide, error)
	SetVerified(ctx context.Context, guideID string, verified bool) (models.Guide, error)
	Stats(ctx context.Context, guideID string) (models.GuideStats, error)
}

// TourService manages tours and their images.
type TourService interface {
	SearchTours(ctx context.Context, filter models.TourFilter) (models.Page[models.Tour], error)
	// GetTour returns an inactive tour only to its guide and administrators.
	// viewer is the zero value for anonymous requests.
	GetTour(ctx context.Context, viewer models.Principal, tourID string) (models.Tour, error)
	// GuideTours lists the tours of a guide. The guide and administrators
	// also see inactive tours.
	GuideTours(ctx context.Context, viewer models.Principal, guideID string, p models.Pagination) (models.Page[models.Tour], error)
	CreateTour(ctx context.Context, actor models.Principal, req models.TourRequest) (models.Tour, error)
	UpdateTour(ctx context.Context, actor models.Principal, tourID string, upd models.TourUpdate) (models.Tour, error)
	DeactivateTour(ctx context.Context, actor models.Principal, tourID string) (models.Tour, error)
	AddImage(ctx context.Context, actor models.Principal, tourID, filename string, r io.Reader) (models.Tour, error)
}

// BookingService manages bookings along their lifecycle.
type BookingService interface {
	CreateBooking(ctx context.Context, actor models.Principal, req models.BookingRequest) (models.Booking, error)
	// ListBookings scopes the listing by the role of actor: travelers see
	// their bookings, guides the bookings of their tours, admins everything.
	ListBookings(ctx context.Context, actor models.Principal, filter models.BookingFilter) (models.Page[models.Booking], error)
	GetBooking(ctx context.Context, actor models.Principal, bookingID string) (models.Booking, error)
	UpdateStatus(ctx context.Context, actor models.Principal, bookingID string, req models.BookingStatusRequest) (models.Booking, error)

	// ExpirePending cancels unpaid pending bookings created before the given
	// time and returns how many were cancelled.
	ExpirePending(ctx context.Context, createdBefore time.Time) (int, error)
	// CompletePast completes confirmed bookings whose tour date is before
	// today and returns how many were completed.
	CompletePast(ctx context.Context, today models.Date) (int, error)
}

// PaymentService moves money through the payment gateway.
type PaymentService interface {
	CreateOrder(ctx context.Context, actor models.Principal, bookingID string) (models.OrderResponse, error)
	VerifyPayment(ctx context.Context, actor models.Principal, req models.VerifyPaymentRequest) (models.Transaction, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	ListTransactions(ctx context.Context, actor models.Principal, filter models.TransactionFilter) (models.Page[models.Transaction], error)
	// RefundBooking refunds the captured payment of a paid booking and marks
	// it refunded.
	RefundBooking(ctx context.Context, booking models.Booking) (models.Booking, error)
}

// ReviewService manages reviews and keeps guide ratings current.
type ReviewService interface {
	CreateReview(ctx context.Context, actor models.Principal, bookingID string, req models.ReviewRequest) (models.Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	ListReviews(ctx context.Context, filter models.ReviewFilter) (models.Page[models.Review], error)
}

// AdminService builds the administrator reports.
type AdminService interface {
	Dashboard(ctx context.Context) (models.DashboardStats, error)
	Revenue(ctx context.Context, r models.RevenueRange) ([]models.MonthlyRevenue, error)
	TopGuides(ctx context.Context, limit int) ([]models.GuideRevenue, error)
}

// NotificationService turns booking events into emails.
type NotificationService interface {
	Notify(ctx context.Context, event models.BookingEvent) error
}

// AppInfoService reports the version and health of the running server.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	// Health pings the primary storage.
	Health(ctx context.Context) error
}
