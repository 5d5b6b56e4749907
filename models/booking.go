// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
	BookingCompleted BookingStatus = "completed"
)

// BookingStatuses lists every booking status in lifecycle order.
var BookingStatuses = []BookingStatus{BookingPending, BookingConfirmed, BookingCancelled, BookingCompleted}

// Valid reports whether s is a known status.
func (s BookingStatus) Valid() bool {
	return slices.Contains(BookingStatuses, s)
}

// Terminal reports whether no transition leaves s.
func (s BookingStatus) Terminal() bool {
	return s == BookingCancelled || s == BookingCompleted
}

// HoldsCapacity reports whether a booking in status s occupies seats of its
// tour date.
func (s BookingStatus) HoldsCapacity() bool {
	return s == BookingPending || s == BookingConfirmed
}

// PaymentStatus tracks money movement of a booking independently of its
// lifecycle status.
type PaymentStatus string

const (
	PaymentUnpaid   PaymentStatus = "unpaid"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// bookingTransitions maps an allowed (from, to) pair to the parties allowed
// to perform it. Admins may perform every listed transition.
var bookingTransitions = map[[2]BookingStatus][]Role{
	{BookingPending, BookingConfirmed}:   {RoleGuide, RoleAdmin},
	{BookingPending, BookingCancelled}:   {RoleTraveler, RoleGuide, RoleAdmin},
	{BookingConfirmed, BookingCompleted}: {RoleGuide, RoleAdmin},
	{BookingConfirmed, BookingCancelled}: {RoleTraveler, RoleGuide, RoleAdmin},
}

// TransitionExists reports whether the lifecycle allows moving from one
// status to another at all.
func TransitionExists(from, to BookingStatus) bool {
	_, ok := bookingTransitions[[2]BookingStatus{from, to}]
	return ok
}

// TransitionAllowed reports whether a party acting as role may move a booking
// from one status to another.
func TransitionAllowed(from, to BookingStatus, role Role) bool {
	roles, ok := bookingTransitions[[2]BookingStatus{from, to}]
	if !ok {
		return false
	}
	return slices.Contains(roles, role)
}

// Booking is a traveler's reservation of a tour on a given date.
// TotalPrice is fixed at creation time.
type Booking struct {
	ID                 string          `json:"id" bson:"_id"`
	TravelerID         string          `json:"traveler_id" bson:"traveler_id"`
	GuideID            string          `json:"guide_id" bson:"guide_id"`
	TourID             string          `json:"tour_id" bson:"tour_id"`
	TourDate           Date            `json:"tour_date" bson:"tour_date"`
	GroupSize          int             `json:"group_size" bson:"group_size"`
	TotalPrice         decimal.Decimal `json:"total_price" bson:"total_price"`
	Currency           string          `json:"currency" bson:"currency"`
	Status             BookingStatus   `json:"status" bson:"status"`
	PaymentStatus      PaymentStatus   `json:"payment_status" bson:"payment_status"`
	Notes              string          `json:"notes,omitempty" bson:"notes,omitempty"`
	CancellationReason string          `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CreatedAt          time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" bson:"updated_at"`
}

// TableName returns the name of the database table
// associated with the Booking model.
func (b Booking) TableName() string {
	return "bookings"
}

// PartyRole returns the role p plays in the booking: traveler, guide or
// admin. The second result is false when p is not related to the booking.
func (b Booking) PartyRole(p Principal) (Role, bool) {
	switch {
	case p.IsAdmin():
		return RoleAdmin, true
	case p.UserID == b.TravelerID:
		return RoleTraveler, true
	case p.UserID == b.GuideID:
		return RoleGuide, true
	}
	return "", false
}

// BookingRequest is the body of POST /api/bookings.
type BookingRequest struct {
	TourID    string `json:"tour_id" validate:"required,uuid"`
	TourDate  Date   `json:"tour_date"`
	GroupSize int    `json:"group_size" validate:"min=1,max=100"`
	Notes     string `json:"notes" validate:"max=1000"`
}

// BookingStatusRequest is the body of PATCH /api/bookings/{id}/status.
type BookingStatusRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=confirmed cancelled completed"`
	Reason string        `json:"reason" validate:"max=500"`
}

// StatusChange describes a conditional status update. The store applies it
// only when the booking is still in From.
type StatusChange struct {
	BookingID string
	From      BookingStatus
	To        BookingStatus
	Reason    string
	At        time.Time
}

// BookingFilter narrows a booking listing. Empty fields do not filter.
type BookingFilter struct {
	TravelerID string
	GuideID    string
	TourID     string
	Status     BookingStatus
	Pagination
}

// CancellationExpired is the reason recorded for pending bookings cancelled
// by the lifecycle worker.
const CancellationExpired = "expired"
