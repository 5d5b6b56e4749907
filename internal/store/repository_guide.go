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
)

// guideRepository is the PostgreSQL-backed implementation of
// [GuideRepository]. Guides are read as a join of "users" and
// "guide_profiles".
type guideRepository struct {
	*DB
	logger *logger.Logger
}

// NewGuideRepository constructs a [GuideRepository] backed by db.
func NewGuideRepository(db *DB, logger *logger.Logger) GuideRepository {
	return &guideRepository{
		DB:     db,
		logger: logger,
	}
}

// GetGuide returns the account and profile of a guide. Blocked guides are
// returned as well; hiding them is up to the caller.
func (g *guideRepository) GetGuide(ctx context.Context, userID string) (models.Guide, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildGetGuideQuery(ctx, userID)
	if err != nil {
		return models.Guide{}, err
	}

	guide, err := scanGuide(g.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Guide{}, ErrGuideNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*guideRepository.GetGuide").Str("guide_id", userID).Msg("failed to get guide")
		return models.Guide{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	return guide, nil
}

// SearchGuides returns one page of active guides matching filter and the
// total number of matches.
func (g *guideRepository) SearchGuides(ctx context.Context, filter models.GuideFilter) ([]models.Guide, int64, error) {
	log := logger.FromContext(ctx)

	countQuery, countArgs, err := buildCountGuidesQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	total, err := g.count(ctx, countQuery, countArgs)
	if err != nil {
		log.Err(err).Str("func", "*guideRepository.SearchGuides").Msg("failed to count guides")
		return nil, 0, err
	}

	query, args, err := buildSearchGuidesQuery(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	guides, err := queryList(ctx, g.DB, query, args, scanGuide)
	if err != nil {
		log.Err(err).Str("func", "*guideRepository.SearchGuides").Msg("failed to search guides")
		return nil, 0, err
	}

	return guides, total, nil
}

// UpdateProfile writes the editable fields of the profile: bio, languages,
// location, experience and hourly rate.
func (g *guideRepository) UpdateProfile(ctx context.Context, profile models.GuideProfile) (models.GuideProfile, error) {
	log := logger.FromContext(ctx)

	row := g.QueryRowContext(ctx, updateGuideProfile,
		profile.UserID, profile.Bio, profile.Languages, profile.City, profile.Country,
		profile.ExperienceYears, profile.HourlyRate, profile.UpdatedAt,
	)

	updated, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GuideProfile{}, ErrGuideNotFound
	}
	if err != nil {
		log.Err(err).Str("func", "*guideRepository.UpdateProfile").Str("guide_id", profile.UserID).Msg("failed to update guide profile")
		return models.GuideProfile{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return updated, nil
}

// SetVerified sets the verification badge of a guide.
func (g *guideRepository) SetVerified(ctx context.Context, userID string, verified bool) error {
	return g.execOne(ctx, "*guideRepository.SetVerified", setGuideVerified, userID, verified)
}

// UpdateRating stores the denormalized rating of a guide.
func (g *guideRepository) UpdateRating(ctx context.Context, userID string, summary models.RatingSummary) error {
	return g.execOne(ctx, "*guideRepository.UpdateRating", setGuideRating, userID, summary.Average, summary.Count)
}

func (g *guideRepository) execOne(ctx context.Context, name, statement string, args ...any) error {
	log := logger.FromContext(ctx)

	res, err := g.ExecContext(ctx, statement, args...)
	if err != nil {
		log.Err(err).Str("func", name).Msg("failed to update guide profile")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrGuideNotFound
	}

	return nil
}
