// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/models"
)

type notificationService struct {
	userRepository store.UserRepository
	tourRepository store.TourRepository
	mailer         adapter.Mailer
	metrics        *metrics.Metrics

	logger *logger.Logger
}

// NewNotificationService constructs a NotificationService sending through
// mailer. m may be nil.
func NewNotificationService(users store.UserRepository, tours store.TourRepository, mailer adapter.Mailer, m *metrics.Metrics, logger *logger.Logger) NotificationService {
	return &notificationService{
		userRepository: users,
		tourRepository: tours,
		mailer:         mailer,
		metrics:        m,
		logger:         logger,
	}
}

// Notify emails the traveler and the guide of a booking about event. Each
// party gets its own message; a failed delivery does not stop the other.
func (s *notificationService) Notify(ctx context.Context, event models.BookingEvent) error {
	log := logger.FromContext(ctx)

	traveler, err := s.userRepository.GetUserByID(ctx, event.TravelerID)
	if err != nil {
		return fmt.Errorf("looking up traveler: %w", err)
	}
	guide, err := s.userRepository.GetUserByID(ctx, event.GuideID)
	if err != nil {
		return fmt.Errorf("looking up guide: %w", err)
	}
	tour, err := s.tourRepository.GetTour(ctx, event.TourID)
	if err != nil {
		return fmt.Errorf("looking up tour: %w", err)
	}

	var errs []error
	for _, email := range composeEmails(event, traveler, guide, tour) {
		err = s.mailer.Send(ctx, email)
		s.metrics.Notification(err)
		if err != nil {
			log.Err(err).
				Str("event_id", event.ID).
				Str("event_type", string(event.Type)).
				Msg("notification was not delivered")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// composeEmails renders the messages an event produces, one per recipient.
func composeEmails(event models.BookingEvent, traveler, guide models.User, tour models.Tour) []models.Email {
	summary := bookingSummary(event, tour)

	var travelerSubject, guideSubject, travelerLine, guideLine string
	switch event.Type {
	case models.EventBookingCreated:
		travelerSubject = "Booking request sent: " + tour.Title
		travelerLine = fmt.Sprintf("Your booking request was sent to %s. You will be notified once it is confirmed.", guide.Name)
		guideSubject = "New booking request: " + tour.Title
		guideLine = fmt.Sprintf("%s requested to book your tour.", traveler.Name)
	case models.EventBookingStatusChanged:
		travelerSubject = fmt.Sprintf("Booking %s: %s", event.Status, tour.Title)
		guideSubject = travelerSubject
		travelerLine = statusLine(event)
		guideLine = travelerLine
	case models.EventPaymentCaptured:
		travelerSubject = "Payment received: " + tour.Title
		travelerLine = fmt.Sprintf("We received your payment of %s %s.", event.Amount.StringFixed(2), event.Currency)
		guideSubject = "Booking paid: " + tour.Title
		guideLine = fmt.Sprintf("%s paid for the booking.", traveler.Name)
	default:
		return nil
	}

	return []models.Email{
		{
			To:      []string{traveler.Email},
			Subject: travelerSubject,
			Body:    greeting(traveler.Name) + travelerLine + "\n\n" + summary,
		},
		{
			To:      []string{guide.Email},
			Subject: guideSubject,
			Body:    greeting(guide.Name) + guideLine + "\n\n" + summary,
		},
	}
}

func statusLine(event models.BookingEvent) string {
	line := fmt.Sprintf("The booking changed from %s to %s.", event.PreviousStatus, event.Status)
	if event.Reason != "" {
		line += " Reason: " + event.Reason + "."
	}
	return line
}

func greeting(name string) string {
	return "Hello " + name + ",\n\n"
}

func bookingSummary(event models.BookingEvent, tour models.Tour) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Tour: %s (%s)\n", tour.Title, tour.City)
	fmt.Fprintf(&b, "Date: %s\n", event.TourDate)
	fmt.Fprintf(&b, "Total: %s %s\n", event.Amount.StringFixed(2), event.Currency)
	fmt.Fprintf(&b, "Status: %s\n", event.Status)
	fmt.Fprintf(&b, "Booking: %s\n", event.BookingID)
	return b.String()
}
