// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/jackc/pgerrcode"
)

// reviewRepository is the PostgreSQL-backed implementation of
// [ReviewRepository] over the "reviews" table.
type reviewRepository struct {
	*DB
	logger *logger.Logger
}

// NewReviewRepository constructs a [ReviewRepository] backed by db.
func NewReviewRepository(db *DB, logger *logger.Logger) ReviewRepository {
	return &reviewRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateReview stores a review. The unique index on booking_id turns a
// second review of the same booking into [ErrReviewExists].
func (r *reviewRepository) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	log := logger.FromContext(ctx)

	row := r.QueryRowContext(ctx, createReview,
		review.ID, review.BookingID, review.TourID, review.GuideID, review.TravelerID,
		review.Rating, review.Comment, review.CreatedAt,
	)

	created, err := scanReview(row)
	if err != nil {
		switch postgresError(err) {
		case pgerrcode.UniqueViolation:
			return models.Review{}, ErrReviewExists
		default:
			log.Err(err).Str("func", "*reviewRepository.CreateReview").Str("booking_id", review.BookingID).Msg("failed to create review")
			return models.Review{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return created, nil
}

// GetReview returns a review by id.
func (r *reviewRepository) GetReview(ctx context.Context, id string) (models.Review, error) {
	review, err := scanReview(r.QueryRowContext(ctx, findReviewByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Review{}, ErrReviewNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reviewRepository.GetReview").Str("review_id", id).Msg("failed to get review")
		return models.Review{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return review, nil
}

// DeleteReview removes a review.
func (r *reviewRepository) DeleteReview(ctx context.Context, id string) error {
	res, err := r.ExecContext(ctx, deleteReview, id)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reviewRepository.DeleteReview").Str("review_id", id).Msg("failed to delete review")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrReviewNotFound
	}

	return nil
}

// ListReviews returns one page of reviews of a tour or a guide, newest
// first.
func (r *reviewRepository) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountReviewsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := r.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*reviewRepository.ListReviews").Msg("failed to count reviews")
		return nil, 0, err
	}

	query, args, err := buildListReviewsQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	reviews, err := queryList(ctx, r.DB, query, args, scanReview)
	if err != nil {
		log.Err(err).Str("func", "*reviewRepository.ListReviews").Msg("failed to list reviews")
		return nil, 0, err
	}

	return reviews, total, nil
}

// RatingSummary averages the ratings of every review of a guide.
func (r *reviewRepository) RatingSummary(ctx context.Context, guideID string) (models.RatingSummary, error) {
	var summary models.RatingSummary
	if err := r.QueryRowContext(ctx, guideRatingSummary, guideID).Scan(&summary.Average, &summary.Count); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*reviewRepository.RatingSummary").Str("guide_id", guideID).Msg("failed to summarise ratings")
		return models.RatingSummary{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return summary, nil
}
