// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoTourRepository is the MongoDB implementation of [TourRepository].
type mongoTourRepository struct {
	tours  *mongo.Collection
	logger *logger.Logger
}

// NewMongoTourRepository constructs a [TourRepository] over the "tours"
// collection of db.
func NewMongoTourRepository(db *mongo.Database, logger *logger.Logger) TourRepository {
	return &mongoTourRepository{
		tours:  db.Collection(toursCollection),
		logger: logger,
	}
}

// CreateTour stores a new tour.
func (t *mongoTourRepository) CreateTour(ctx context.Context, tour models.Tour) (models.Tour, error) {
	if _, err := t.tours.InsertOne(ctx, tour); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoTourRepository.CreateTour").Str("guide_id", tour.GuideID).Msg("failed to create tour")
		return models.Tour{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return tour, nil
}

// GetTour returns a tour by id, active or not.
func (t *mongoTourRepository) GetTour(ctx context.Context, id string) (models.Tour, error) {
	var tour models.Tour
	if err := t.tours.FindOne(ctx, bson.M{"_id": id}).Decode(&tour); err != nil {
		return models.Tour{}, notFound(err, ErrTourNotFound)
	}
	return tour, nil
}

// UpdateTour sets the mutable fields of the tour. Images are only written by
// AppendImage.
func (t *mongoTourRepository) UpdateTour(ctx context.Context, tour models.Tour) (models.Tour, error) {
	update := bson.M{"$set": bson.M{
		"title":          tour.Title,
		"description":    tour.Description,
		"city":           tour.City,
		"country":        tour.Country,
		"price":          tour.Price,
		"currency":       tour.Currency,
		"duration_hours": tour.DurationHours,
		"max_group_size": tour.MaxGroupSize,
		"tags":           tour.Tags,
		"active":         tour.Active,
		"updated_at":     tour.UpdatedAt,
	}}

	var updated models.Tour
	err := t.tours.FindOneAndUpdate(ctx, bson.M{"_id": tour.ID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoTourRepository.UpdateTour").Str("tour_id", tour.ID).Msg("failed to update tour")
		return models.Tour{}, notFound(err, ErrTourNotFound)
	}
	return updated, nil
}

// AppendImage pushes path onto the images of the tour.
func (t *mongoTourRepository) AppendImage(ctx context.Context, tourID, path string, updatedAt time.Time) (models.Tour, error) {
	update := bson.M{
		"$push": bson.M{"images": path},
		"$set":  bson.M{"updated_at": updatedAt},
	}

	var updated models.Tour
	err := t.tours.FindOneAndUpdate(ctx, bson.M{"_id": tourID}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&updated)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*mongoTourRepository.AppendImage").Str("tour_id", tourID).Msg("failed to append tour image")
		return models.Tour{}, notFound(err, ErrTourNotFound)
	}
	return updated, nil
}

func tourQuery(filter models.TourFilter) bson.M {
	query := bson.M{}
	if !filter.IncludeInactive {
		query["active"] = true
	}
	if filter.Query != "" {
		query["$or"] = bson.A{
			bson.M{"title": regexFilter(filter.Query)},
			bson.M{"description": regexFilter(filter.Query)},
			bson.M{"city": regexFilter(filter.Query)},
		}
	}
	if filter.City != "" {
		query["city"] = equalFoldFilter(filter.City)
	}
	if filter.GuideID != "" {
		query["guide_id"] = filter.GuideID
	}
	if filter.Tag != "" {
		query["tags"] = filter.Tag
	}
	price := bson.M{}
	if filter.MinPrice != nil {
		price["$gte"] = *filter.MinPrice
	}
	if filter.MaxPrice != nil {
		price["$lte"] = *filter.MaxPrice
	}
	if len(price) > 0 {
		query["price"] = price
	}
	if filter.MaxDuration != nil {
		query["duration_hours"] = bson.M{"$lte": *filter.MaxDuration}
	}
	return query
}

func tourSort(s models.TourSort) bson.D {
	switch s {
	case models.TourSortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.TourSortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}
	}
}

// SearchTours returns one page of tours matching filter and the total number
// of matches.
func (t *mongoTourRepository) SearchTours(ctx context.Context, filter models.TourFilter) ([]models.Tour, int64, error) {
	log := logger.FromContext(ctx)
	query := tourQuery(filter)

	total, err := t.tours.CountDocuments(ctx, query)
	if err != nil {
		log.Err(err).Str("func", "*mongoTourRepository.SearchTours").Msg("failed to count tours")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	cursor, err := t.tours.Find(ctx, query, findPage(tourSort(filter.Sort), filter.Pagination))
	if err != nil {
		log.Err(err).Str("func", "*mongoTourRepository.SearchTours").Msg("failed to search tours")
		return nil, 0, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	tours, err := findAll[models.Tour](ctx, cursor)
	if err != nil {
		return nil, 0, err
	}

	return tours, total, nil
}
