// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoReviewRepository is the MongoDB implementation of [ReviewRepository].
type mongoReviewRepository struct {
	reviews *mongo.Collection
	logger  *logger.Logger
}

// NewMongoReviewRepository constructs a [ReviewRepository] over the
// "reviews" collection of db.
func NewMongoReviewRepository(db *mongo.Database, logger *logger.Logger) ReviewRepository {
	return &mongoReviewRepository{
		reviews: db.Collection(reviewsCollection),
		logger:  logger,
	}
}

// CreateReview stores a review. The unique index on booking_id turns a
// second review of the same booking into [ErrReviewExists].
func (r *mongoReviewRepository) CreateReview(ctx context.Context, review models.Review) (models.Review, error) {
	if _, err := r.reviews.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.Review{}, ErrReviewExists
		}
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReviewRepository.CreateReview").Str("booking_id", review.BookingID).Msg("failed to create review")
		return models.Review{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return review, nil
}

// GetReview returns a review by id.
func (r *mongoReviewRepository) GetReview(ctx context.Context, id string) (models.Review, error) {
	var review models.Review
	if err := r.reviews.FindOne(ctx, bson.M{"_id": id}).Decode(&review); err != nil {
		return models.Review{}, notFound(err, ErrReviewNotFound)
	}
	return review, nil
}

// DeleteReview removes a review.
func (r *mongoReviewRepository) DeleteReview(ctx context.Context, id string) error {
	res, err := r.reviews.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReviewRepository.DeleteReview").Str("review_id", id).Msg("failed to delete review")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if res.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// ListReviews returns one page of reviews of a tour or a guide, newest
// first.
func (r *mongoReviewRepository) ListReviews(ctx context.Context, filter models.ReviewFilter) ([]models.Review, int64, error) {
	log := logger.FromContext(ctx)

	query := bson.M{}
	if filter.TourID != "" {
		query["tour_id"] = filter.TourID
	}
	if filter.GuideID != "" {
		query["guide_id"] = filter.GuideID
	}

	total, err := r.reviews.CountDocuments(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*mongoReviewRepository.ListReviews").Msg("failed to count reviews")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cursor, err := r.reviews.Find(ctx, query, findPage(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}, filter.Pagination))
	if err != nil {
		log.Err(err).Str("func", "*mongoReviewRepository.ListReviews").Msg("failed to list reviews")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	reviews, err := findAll[models.Review](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// RatingSummary averages the ratings of every review of a guide.
func (r *mongoReviewRepository) RatingSummary(ctx context.Context, guideID string) (models.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"guide_id": guideID}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}}},
	}

	cursor, err := r.reviews.Aggregate(ctx, pipeline)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoReviewRepository.RatingSummary").Str("guide_id", guideID).Msg("failed to summarise ratings")
		return models.RatingSummary{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	rows, err := findAll[struct {
		Average float64 `bson:"average"`
		Count   int     `bson:"count"`
	}](ctx, cursor)
	if err != nil {
		return models.RatingSummary{}, err
	}
	if len(rows) == 0 {
		return models.RatingSummary{}, nil
	}

	return models.RatingSummary{Average: rows[0].Average, Count: rows[0].Count}, nil
}
