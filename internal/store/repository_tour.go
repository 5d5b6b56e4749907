// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
	"github.com/jackc/pgerrcode"
)

// tourRepository is the PostgreSQL-backed implementation of
// [TourRepository] over the "tours" table.
type tourRepository struct {
	*DB
	logger *logger.Logger
}

// NewTourRepository constructs a [TourRepository] backed by db.
func NewTourRepository(db *DB, logger *logger.Logger) TourRepository {
	return &tourRepository{
		DB:     db,
		logger: logger,
	}
}

// CreateTour stores a new tour. A guide id that does not reference a user
// yields [ErrUserNotFound].
func (t *tourRepository) CreateTour(ctx context.Context, tour models.Tour) (models.Tour, error) {
	log := logger.FromContext(ctx)

	row := t.QueryRowContext(ctx, createTour,
		tour.ID, tour.GuideID, tour.Title, tour.Description, tour.City, tour.Country, tour.Price, tour.Currency,
		tour.DurationHours, tour.MaxGroupSize, tour.Tags, tour.Images, tour.Active, tour.CreatedAt, tour.UpdatedAt,
	)

	created, err := scanTour(row)
	if err != nil {
		log.Err(err).Str("func", "*tourRepository.CreateTour").Str("guide_id", tour.GuideID).Msg("failed to create tour")

		switch postgresError(err) {
		case pgerrcode.ForeignKeyViolation:
			return models.Tour{}, ErrUserNotFound
		default:
			return models.Tour{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
		}
	}

	return created, nil
}

// GetTour returns a tour by id, active or not.
func (t *tourRepository) GetTour(ctx context.Context, id string) (models.Tour, error) {
	log := logger.FromContext(ctx)

	tour, err := scanTour(t.QueryRowContext(ctx, findTourByID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tour{}, ErrTourNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*tourRepository.GetTour").Str("tour_id", id).Msg("failed to get tour")
		return models.Tour{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return tour, nil
}

// UpdateTour overwrites the mutable columns of the tour. Images are only
// written by AppendImage.
func (t *tourRepository) UpdateTour(ctx context.Context, tour models.Tour) (models.Tour, error) {
	log := logger.FromContext(ctx)

	row := t.QueryRowContext(ctx, updateTour,
		tour.ID, tour.Title, tour.Description, tour.City, tour.Country, tour.Price, tour.Currency,
		tour.DurationHours, tour.MaxGroupSize, tour.Tags, tour.Active, tour.UpdatedAt,
	)

	updated, err := scanTour(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tour{}, ErrTourNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*tourRepository.UpdateTour").Str("tour_id", tour.ID).Msg("failed to update tour")
		return models.Tour{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// AppendImage adds path to the images of the tour in a single statement.
func (t *tourRepository) AppendImage(ctx context.Context, tourID, path string, updatedAt time.Time) (models.Tour, error) {
	updated, err := scanTour(t.QueryRowContext(ctx, appendTourImage, tourID, path, updatedAt))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Tour{}, ErrTourNotFound
	}
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*tourRepository.AppendImage").Str("tour_id", tourID).Msg("failed to append tour image")
		return models.Tour{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// SearchTours returns one page of tours matching filter and the total number
// of matches.
func (t *tourRepository) SearchTours(ctx context.Context, filter models.TourFilter) ([]models.Tour, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountToursQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := t.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*tourRepository.SearchTours").Msg("failed to count tours")
		return nil, 0, err
	}

	query, args, err := buildSearchToursQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	tours, err := queryList(ctx, t.DB, query, args, scanTour)
	if err != nil {
		log.Err(err).Str("func", "*tourRepository.SearchTours").Msg("failed to search tours")
		return nil, 0, err
	}

	return tours, total, nil
}
