// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
)

type guideService struct {
	guideRepository   store.GuideRepository
	bookingRepository store.BookingRepository
	sanitizer         validators.TextSanitizer
	now               func() time.Time

	logger *logger.Logger
}

func NewGuideService(guides store.GuideRepository, bookings store.BookingRepository, sanitizer validators.TextSanitizer, logger *logger.Logger) GuideService {
	return &guideService{
		guideRepository:   guides,
		bookingRepository: bookings,
		sanitizer:         sanitizer,
		now:               time.Now,
		logger:            logger,
	}
}

func (s *guideService) SearchGuides(ctx context.Context, filter models.GuideFilter) (models.Page[models.Guide], error) {
	filter.Pagination = filter.Pagination.Normalize()

	guides, total, err := s.guideRepository.SearchGuides(ctx, filter)
	if err != nil {
		return models.Page[models.Guide]{}, err
	}
	return models.NewPage(guides, total, filter.Pagination), nil
}

// GetGuide returns an active guide. Blocked guides are reported as not
// found.
func (s *guideService) GetGuide(ctx context.Context, guideID string) (models.Guide, error) {
	guide, err := s.guideRepository.GetGuide(ctx, guideID)
	if err != nil {
		return models.Guide{}, err
	}
	if !guide.Active {
		return models.Guide{}, store.ErrGuideNotFound
	}
	return guide, nil
}

// UpdateProfile applies upd to the caller's guide profile. Free text is
// stripped of markup; languages are deduplicated.
func (s *guideService) UpdateProfile(ctx context.Context, guideID string, upd models.GuideProfileUpdate) (models.Guide, error) {
	guide, err := s.guideRepository.GetGuide(ctx, guideID)
	if err != nil {
		return models.Guide{}, err
	}

	if upd.Bio != nil {
		bio := s.sanitizer.Text(*upd.Bio)
		upd.Bio = &bio
	}
	if upd.City != nil {
		city := s.sanitizer.Text(*upd.City)
		upd.City = &city
	}
	if upd.Country != nil {
		country := s.sanitizer.Text(*upd.Country)
		upd.Country = &country
	}
	if upd.Languages != nil {
		languages := uniqueStrings(*upd.Languages)
		upd.Languages = &languages
	}

	profile := guide.Profile
	upd.Apply(&profile)
	profile.UpdatedAt = s.now().UTC()

	updated, err := s.guideRepository.UpdateProfile(ctx, profile)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("guide_id", guideID).Msg("guide profile update failed")
		return models.Guide{}, fmt.Errorf("guide profile update failed: %w", err)
	}

	guide.Profile = updated
	return guide, nil
}

func (s *guideService) SetVerified(ctx context.Context, guideID string, verified bool) (models.Guide, error) {
	if err := s.guideRepository.SetVerified(ctx, guideID, verified); err != nil {
		return models.Guide{}, err
	}

	s.logger.Info().Str("guide_id", guideID).Bool("verified", verified).Msg("guide verification changed")
	return s.guideRepository.GetGuide(ctx, guideID)
}

// Stats summarises bookings, earnings and rating of a guide. Earnings count
// completed bookings that were paid.
func (s *guideService) Stats(ctx context.Context, guideID string) (models.GuideStats, error) {
	return s.bookingRepository.GuideStats(ctx, guideID)
}

// uniqueStrings drops duplicates, keeping the first occurrence.
func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
