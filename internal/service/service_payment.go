// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/models"
)

type paymentService struct {
	paymentRepository store.PaymentRepository
	bookingRepository store.BookingRepository
	gateway           adapter.PaymentGateway
	publisher         events.Publisher
	metrics           *metrics.Metrics
	ids               utils.IDGenerator
	now               func() time.Time

	logger *logger.Logger
}

// NewPaymentService constructs a PaymentService over the payment gateway.
// m may be nil.
func NewPaymentService(
	payments store.PaymentRepository,
	bookings store.BookingRepository,
	gateway adapter.PaymentGateway,
	publisher events.Publisher,
	ids utils.IDGenerator,
	m *metrics.Metrics,
	logger *logger.Logger,
) PaymentService {
	return &paymentService{
		paymentRepository: payments,
		bookingRepository: bookings,
		gateway:           gateway,
		publisher:         publisher,
		metrics:           m,
		ids:               ids,
		now:               time.Now,
		logger:            logger,
	}
}

// CreateOrder registers a gateway order for the full price of an unpaid
// booking of the calling traveler.
func (s *paymentService) CreateOrder(ctx context.Context, actor models.Principal, bookingID string) (models.OrderResponse, error) {
	log := logger.FromContext(ctx)

	booking, err := s.bookingRepository.GetBooking(ctx, bookingID)
	if err != nil {
		return models.OrderResponse{}, err
	}
	role, ok := booking.PartyRole(actor)
	if !ok {
		return models.OrderResponse{}, store.ErrBookingNotFound
	}
	if role != models.RoleTraveler {
		return models.OrderResponse{}, ErrNotTraveler
	}
	if !booking.Status.HoldsCapacity() || booking.PaymentStatus != models.PaymentUnpaid {
		return models.OrderResponse{}, ErrBookingNotPayable
	}

	amount := models.ToMinorUnits(booking.TotalPrice)
	order, err := s.gateway.CreateOrder(ctx, amount, booking.Currency, booking.ID)
	if err != nil {
		log.Err(err).Str("booking_id", booking.ID).Msg("gateway order creation failed")
		return models.OrderResponse{}, fmt.Errorf("gateway order creation failed: %w", err)
	}

	now := s.now().UTC()
	tx, err := s.paymentRepository.CreateTransaction(ctx, models.Transaction{
		ID:        s.ids.Generate(),
		BookingID: booking.ID,
		UserID:    actor.UserID,
		OrderID:   order.ID,
		Amount:    booking.TotalPrice,
		Currency:  booking.Currency,
		Status:    models.TransactionCreated,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.Err(err).Str("order_id", order.ID).Msg("saving transaction failed")
		return models.OrderResponse{}, fmt.Errorf("saving transaction failed: %w", err)
	}
	s.metrics.Payment(string(tx.Status))

	return models.OrderResponse{
		OrderID:   tx.OrderID,
		Amount:    amount,
		Currency:  tx.Currency,
		KeyID:     s.gateway.KeyID(),
		BookingID: booking.ID,
	}, nil
}

// VerifyPayment checks the checkout signature and captures the transaction.
// Verifying an already captured order again returns it unchanged.
func (s *paymentService) VerifyPayment(ctx context.Context, actor models.Principal, req models.VerifyPaymentRequest) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	tx, err := s.paymentRepository.GetTransactionByOrderID(ctx, req.OrderID)
	if err != nil {
		return models.Transaction{}, err
	}
	if tx.UserID != actor.UserID && !actor.IsAdmin() {
		return models.Transaction{}, store.ErrTransactionNotFound
	}
	if tx.Status == models.TransactionCaptured && tx.PaymentID == req.PaymentID {
		return tx, nil
	}
	if tx.Status != models.TransactionCreated && tx.Status != models.TransactionFailed {
		return models.Transaction{}, ErrBookingNotPayable
	}

	if !s.gateway.VerifyPaymentSignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Warn().Str("order_id", req.OrderID).Str("payment_id", req.PaymentID).Msg("payment signature mismatch")
		if _, err = s.fail(ctx, tx, req.PaymentID, "signature verification failed"); err != nil {
			log.Err(err).Str("order_id", req.OrderID).Msg("marking transaction failed")
		}
		return models.Transaction{}, ErrInvalidSignature
	}

	tx.Signature = req.Signature
	return s.capture(ctx, tx, req.PaymentID)
}

// HandleWebhook applies a signed gateway notification. Unknown orders and
// unhandled events are acknowledged without changes.
func (s *paymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	log := logger.FromContext(ctx)

	if !s.gateway.VerifyWebhookSignature(body, signature) {
		return ErrInvalidSignature
	}

	var event models.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("%w: %w", utils.ErrInvalidJSON, err)
	}

	var err error
	switch event.Event {
	case models.WebhookPaymentCaptured:
		err = s.onPaymentCaptured(ctx, event.Payload)
	case models.WebhookPaymentFailed:
		err = s.onPaymentFailed(ctx, event.Payload)
	case models.WebhookRefundProcessed:
		err = s.onRefundProcessed(ctx, event.Payload)
	default:
		log.Debug().Str("event", event.Event).Msg("ignoring webhook event")
		return nil
	}

	if errors.Is(err, store.ErrTransactionNotFound) {
		log.Warn().Str("event", event.Event).Msg("webhook refers to an unknown transaction")
		return nil
	}
	return err
}

func (s *paymentService) onPaymentCaptured(ctx context.Context, payload models.WebhookPayload) error {
	if payload.Payment == nil {
		return fmt.Errorf("%w: payment entity is missing", utils.ErrInvalidJSON)
	}
	payment := payload.Payment.Entity

	tx, err := s.paymentRepository.GetTransactionByOrderID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if tx.Status == models.TransactionCaptured || tx.Status == models.TransactionRefunded {
		return nil
	}

	_, err = s.capture(ctx, tx, payment.ID)
	return err
}

func (s *paymentService) onPaymentFailed(ctx context.Context, payload models.WebhookPayload) error {
	if payload.Payment == nil {
		return fmt.Errorf("%w: payment entity is missing", utils.ErrInvalidJSON)
	}
	payment := payload.Payment.Entity

	tx, err := s.paymentRepository.GetTransactionByOrderID(ctx, payment.OrderID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionCreated {
		return nil
	}

	reason := payment.ErrorDescription
	if reason == "" {
		reason = "payment failed"
	}
	_, err = s.fail(ctx, tx, payment.ID, reason)
	if errors.Is(err, store.ErrStatusConflict) {
		return nil
	}
	return err
}

func (s *paymentService) onRefundProcessed(ctx context.Context, payload models.WebhookPayload) error {
	if payload.Refund == nil {
		return fmt.Errorf("%w: refund entity is missing", utils.ErrInvalidJSON)
	}

	tx, err := s.paymentRepository.GetTransactionByPaymentID(ctx, payload.Refund.Entity.PaymentID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionCaptured {
		return nil
	}

	_, err = s.markRefunded(ctx, tx)
	return err
}

func (s *paymentService) ListTransactions(ctx context.Context, actor models.Principal, filter models.TransactionFilter) (models.Page[models.Transaction], error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.UserID
	}
	filter.Pagination = filter.Pagination.Normalize()

	txs, total, err := s.paymentRepository.ListTransactions(ctx, filter)
	if err != nil {
		return models.Page[models.Transaction]{}, err
	}
	return models.NewPage(txs, total, filter.Pagination), nil
}

// RefundBooking refunds the captured payment of a paid booking in full and
// returns the booking with its new payment status.
func (s *paymentService) RefundBooking(ctx context.Context, booking models.Booking) (models.Booking, error) {
	log := logger.FromContext(ctx)

	if booking.PaymentStatus != models.PaymentPaid {
		return booking, nil
	}

	tx, err := s.paymentRepository.GetCapturedTransaction(ctx, booking.ID)
	if err != nil {
		return models.Booking{}, fmt.Errorf("looking up captured transaction: %w", err)
	}

	refund, err := s.gateway.Refund(ctx, tx.PaymentID, models.ToMinorUnits(tx.Amount))
	if err != nil {
		log.Err(err).Str("booking_id", booking.ID).Str("payment_id", tx.PaymentID).Msg("gateway refund failed")
		return models.Booking{}, fmt.Errorf("gateway refund failed: %w", err)
	}
	log.Info().Str("booking_id", booking.ID).Str("refund_id", refund.ID).Msg("booking refunded")

	return s.markRefunded(ctx, tx)
}

// capture marks tx captured and the booking paid. A booking cancelled while
// the customer was paying is refunded right away.
func (s *paymentService) capture(ctx context.Context, tx models.Transaction, paymentID string) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	from := tx.Status
	tx.Status = models.TransactionCaptured
	tx.PaymentID = paymentID
	tx.FailureReason = ""
	tx.UpdatedAt = s.now().UTC()

	captured, err := s.paymentRepository.UpdateTransaction(ctx, tx, from)
	if errors.Is(err, store.ErrStatusConflict) {
		current, getErr := s.paymentRepository.GetTransactionByOrderID(ctx, tx.OrderID)
		if getErr == nil && current.Status == models.TransactionCaptured {
			return current, nil
		}
		return models.Transaction{}, err
	}
	if err != nil {
		log.Err(err).Str("order_id", tx.OrderID).Msg("capturing transaction failed")
		return models.Transaction{}, fmt.Errorf("capturing transaction failed: %w", err)
	}
	s.metrics.Payment(string(captured.Status))

	booking, err := s.bookingRepository.UpdatePaymentStatus(ctx, captured.BookingID, models.PaymentUnpaid, models.PaymentPaid)
	if err != nil {
		log.Err(err).Str("booking_id", captured.BookingID).Msg("marking booking paid failed")
		return models.Transaction{}, fmt.Errorf("marking booking paid failed: %w", err)
	}

	if booking.Status == models.BookingCancelled {
		log.Warn().Str("booking_id", booking.ID).Msg("payment captured for a cancelled booking, refunding")
		if _, err = s.RefundBooking(ctx, booking); err != nil {
			log.Err(err).Str("booking_id", booking.ID).Msg("refund of cancelled booking failed")
		}
		return captured, nil
	}

	publish(ctx, s.publisher, s.metrics, models.NewBookingEvent(s.ids.Generate(), models.EventPaymentCaptured, booking, tx.UpdatedAt))
	return captured, nil
}

func (s *paymentService) fail(ctx context.Context, tx models.Transaction, paymentID, reason string) (models.Transaction, error) {
	from := tx.Status
	tx.Status = models.TransactionFailed
	tx.PaymentID = paymentID
	tx.FailureReason = reason
	tx.UpdatedAt = s.now().UTC()

	failed, err := s.paymentRepository.UpdateTransaction(ctx, tx, from)
	if err != nil {
		return models.Transaction{}, err
	}
	s.metrics.Payment(string(failed.Status))
	return failed, nil
}

// markRefunded records a refund of a captured transaction. It is reached both
// from a cancellation and from the refund webhook, whichever comes first.
func (s *paymentService) markRefunded(ctx context.Context, tx models.Transaction) (models.Booking, error) {
	tx.Status = models.TransactionRefunded
	tx.UpdatedAt = s.now().UTC()

	if _, err := s.paymentRepository.UpdateTransaction(ctx, tx, models.TransactionCaptured); err != nil && !errors.Is(err, store.ErrStatusConflict) {
		return models.Booking{}, fmt.Errorf("marking transaction refunded failed: %w", err)
	}
	s.metrics.Payment(string(models.TransactionRefunded))

	booking, err := s.bookingRepository.UpdatePaymentStatus(ctx, tx.BookingID, models.PaymentPaid, models.PaymentRefunded)
	if errors.Is(err, store.ErrStatusConflict) {
		return s.bookingRepository.GetBooking(ctx, tx.BookingID)
	}
	if err != nil {
		return models.Booking{}, fmt.Errorf("marking booking refunded failed: %w", err)
	}
	return booking, nil
}
