// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
)

type reviewService struct {
	reviewRepository  store.ReviewRepository
	bookingRepository store.BookingRepository
	guideRepository   store.GuideRepository
	sanitizer         validators.TextSanitizer
	ids               utils.IDGenerator
	now               func() time.Time

	logger *logger.Logger
}

func NewReviewService(
	reviews store.ReviewRepository,
	bookings store.BookingRepository,
	guides store.GuideRepository,
	sanitizer validators.TextSanitizer,
	ids utils.IDGenerator,
	logger *logger.Logger,
) ReviewService {
	return &reviewService{
		reviewRepository:  reviews,
		bookingRepository: bookings,
		guideRepository:   guides,
		sanitizer:         sanitizer,
		ids:               ids,
		now:               time.Now,
		logger:            logger,
	}
}

// CreateReview stores the traveler's review of a completed booking and
// refreshes the guide rating.
func (s *reviewService) CreateReview(ctx context.Context, actor models.Principal, bookingID string, req models.ReviewRequest) (models.Review, error) {
	booking, err := s.bookingRepository.GetBooking(ctx, bookingID)
	if err != nil {
		return models.Review{}, err
	}
	role, ok := booking.PartyRole(actor)
	if !ok {
		return models.Review{}, store.ErrBookingNotFound
	}
	if role != models.RoleTraveler {
		return models.Review{}, ErrNotTraveler
	}
	if booking.Status != models.BookingCompleted {
		return models.Review{}, ErrBookingNotCompleted
	}

	review, err := s.reviewRepository.CreateReview(ctx, models.Review{
		ID:         s.ids.Generate(),
		BookingID:  booking.ID,
		TourID:     booking.TourID,
		GuideID:    booking.GuideID,
		TravelerID: booking.TravelerID,
		Rating:     req.Rating,
		Comment:    s.sanitizer.Text(req.Comment),
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return models.Review{}, fmt.Errorf("review creation failed: %w", err)
	}

	s.refreshRating(ctx, review.GuideID)
	return review, nil
}

func (s *reviewService) DeleteReview(ctx context.Context, reviewID string) error {
	review, err := s.reviewRepository.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if err = s.reviewRepository.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("review deletion failed: %w", err)
	}

	s.logger.Info().Str("review_id", reviewID).Str("guide_id", review.GuideID).Msg("review deleted")
	s.refreshRating(ctx, review.GuideID)
	return nil
}

func (s *reviewService) ListReviews(ctx context.Context, filter models.ReviewFilter) (models.Page[models.Review], error) {
	filter.Pagination = filter.Pagination.Normalize()

	reviews, total, err := s.reviewRepository.ListReviews(ctx, filter)
	if err != nil {
		return models.Page[models.Review]{}, err
	}
	return models.NewPage(reviews, total, filter.Pagination), nil
}

// refreshRating recomputes the rating of a guide from all its reviews. A
// failure leaves the previous rating in place until the next review.
func (s *reviewService) refreshRating(ctx context.Context, guideID string) {
	log := logger.FromContext(ctx)

	summary, err := s.reviewRepository.RatingSummary(ctx, guideID)
	if err != nil {
		log.Err(err).Str("guide_id", guideID).Msg("computing rating failed")
		return
	}
	if err = s.guideRepository.UpdateRating(ctx, guideID, summary); err != nil {
		log.Err(err).Str("guide_id", guideID).Msg("updating rating failed")
	}
}
