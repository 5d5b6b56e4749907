// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventType names a booking domain event.
type EventType string

const (
	EventBookingCreated       EventType = "booking.created"
	EventBookingStatusChanged EventType = "booking.status_changed"
	EventPaymentCaptured      EventType = "payment.captured"
)

// BookingEvent is published whenever a booking is created, changes status or
// gets paid. Notification workers turn events into emails.
type BookingEvent struct {
	ID             string          `json:"id"`
	Type           EventType       `json:"type"`
	BookingID      string          `json:"booking_id"`
	TourID         string          `json:"tour_id"`
	TravelerID     string          `json:"traveler_id"`
	GuideID        string          `json:"guide_id"`
	TourDate       Date            `json:"tour_date"`
	Status         BookingStatus   `json:"status"`
	PreviousStatus BookingStatus   `json:"previous_status,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// NewBookingEvent fills an event of the given type from a booking snapshot.
func NewBookingEvent(id string, typ EventType, b Booking, at time.Time) BookingEvent {
	return BookingEvent{
		ID:         id,
		Type:       typ,
		BookingID:  b.ID,
		TourID:     b.TourID,
		TravelerID: b.TravelerID,
		GuideID:    b.GuideID,
		TourDate:   b.TourDate,
		Status:     b.Status,
		Amount:     b.TotalPrice,
		Currency:   b.Currency,
		OccurredAt: at,
	}
}

// Email is a plain-text message produced from a booking event.
type Email struct {
	To      []string
	Subject string
	Body    string
}
