// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/utils"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/models"
)

// MaxImageSize caps an uploaded tour image.
const MaxImageSize = 5 << 20

// imageExtensions maps the accepted sniffed content types to file
// extensions.
var imageExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

type tourService struct {
	tourStorage store.TourStorage
	sanitizer   validators.TextSanitizer
	ids         utils.IDGenerator
	currency    string
	now         func() time.Time

	logger *logger.Logger
}

// NewTourService constructs a TourService. currency is used for tours
// created without one.
func NewTourService(tours store.TourStorage, sanitizer validators.TextSanitizer, ids utils.IDGenerator, currency string, logger *logger.Logger) TourService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &tourService{
		tourStorage: tours,
		sanitizer:   sanitizer,
		ids:         ids,
		currency:    strings.ToUpper(currency),
		now:         time.Now,
		logger:      logger,
	}
}

// SearchTours lists active tours only.
func (s *tourService) SearchTours(ctx context.Context, filter models.TourFilter) (models.Page[models.Tour], error) {
	filter.IncludeInactive = false
	return s.search(ctx, filter)
}

func (s *tourService) GetTour(ctx context.Context, viewer models.Principal, tourID string) (models.Tour, error) {
	tour, err := s.tourStorage.GetTour(ctx, tourID)
	if err != nil {
		return models.Tour{}, err
	}
	if !tour.Active && !canManage(viewer, tour) {
		return models.Tour{}, store.ErrTourNotFound
	}
	return tour, nil
}

func (s *tourService) GuideTours(ctx context.Context, viewer models.Principal, guideID string, p models.Pagination) (models.Page[models.Tour], error) {
	filter := models.TourFilter{
		GuideID:         guideID,
		IncludeInactive: viewer.IsAdmin() || viewer.UserID == guideID,
		Pagination:      p,
	}
	return s.search(ctx, filter)
}

func (s *tourService) search(ctx context.Context, filter models.TourFilter) (models.Page[models.Tour], error) {
	filter.Pagination = filter.Pagination.Normalize()

	tours, total, err := s.tourStorage.SearchTours(ctx, filter)
	if err != nil {
		return models.Page[models.Tour]{}, err
	}
	return models.NewPage(tours, total, filter.Pagination), nil
}

func (s *tourService) CreateTour(ctx context.Context, actor models.Principal, req models.TourRequest) (models.Tour, error) {
	if actor.Role != models.RoleGuide {
		return models.Tour{}, ErrNotGuide
	}

	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = s.currency
	}

	now := s.now().UTC()
	tour := models.Tour{
		ID:            s.ids.Generate(),
		GuideID:       actor.UserID,
		Title:         s.sanitizer.Text(req.Title),
		Description:   s.sanitizer.Text(req.Description),
		City:          s.sanitizer.Text(req.City),
		Country:       s.sanitizer.Text(req.Country),
		Price:         req.Price,
		Currency:      currency,
		DurationHours: req.DurationHours,
		MaxGroupSize:  req.MaxGroupSize,
		Tags:          s.cleanTags(req.Tags),
		Images:        models.StringList{},
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.tourStorage.CreateTour(ctx, tour)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("guide_id", actor.UserID).Msg("tour creation failed")
		return models.Tour{}, fmt.Errorf("tour creation failed: %w", err)
	}

	return created, nil
}

// UpdateTour applies upd to a tour of the calling guide.
func (s *tourService) UpdateTour(ctx context.Context, actor models.Principal, tourID string, upd models.TourUpdate) (models.Tour, error) {
	tour, err := s.tourStorage.GetTour(ctx, tourID)
	if err != nil {
		return models.Tour{}, err
	}
	if tour.GuideID != actor.UserID {
		return models.Tour{}, ErrForbidden
	}

	for _, field := range []*string{upd.Title, upd.Description, upd.City, upd.Country} {
		if field != nil {
			*field = s.sanitizer.Text(*field)
		}
	}
	if upd.Currency != nil {
		currency := strings.ToUpper(*upd.Currency)
		upd.Currency = &currency
	}
	if upd.Tags != nil {
		tags := []string(s.cleanTags(*upd.Tags))
		upd.Tags = &tags
	}

	upd.Apply(&tour)
	tour.UpdatedAt = s.now().UTC()

	updated, err := s.tourStorage.UpdateTour(ctx, tour)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("tour_id", tourID).Msg("tour update failed")
		return models.Tour{}, fmt.Errorf("tour update failed: %w", err)
	}
	return updated, nil
}

// DeactivateTour hides a tour from searches. Existing bookings are kept.
func (s *tourService) DeactivateTour(ctx context.Context, actor models.Principal, tourID string) (models.Tour, error) {
	tour, err := s.tourStorage.GetTour(ctx, tourID)
	if err != nil {
		return models.Tour{}, err
	}
	if !canManage(actor, tour) {
		return models.Tour{}, ErrForbidden
	}
	if !tour.Active {
		return tour, nil
	}

	tour.Active = false
	tour.UpdatedAt = s.now().UTC()

	updated, err := s.tourStorage.UpdateTour(ctx, tour)
	if err != nil {
		return models.Tour{}, fmt.Errorf("tour deactivation failed: %w", err)
	}

	s.logger.Info().Str("tour_id", tourID).Str("actor_id", actor.UserID).Msg("tour deactivated")
	return updated, nil
}

// AddImage stores an uploaded image of a tour of the calling guide. The
// content type is sniffed from the data, the client supplied name is only
// kept for logging.
func (s *tourService) AddImage(ctx context.Context, actor models.Principal, tourID, filename string, r io.Reader) (models.Tour, error) {
	tour, err := s.tourStorage.GetTour(ctx, tourID)
	if err != nil {
		return models.Tour{}, err
	}
	if tour.GuideID != actor.UserID {
		return models.Tour{}, ErrForbidden
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return models.Tour{}, fmt.Errorf("reading image: %w", err)
	}
	head = head[:n]

	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return models.Tour{}, ErrUnsupportedImageType
	}

	body := &sizeLimitedReader{r: io.MultiReader(bytes.NewReader(head), r), remaining: MaxImageSize}
	updated, err := s.tourStorage.AddImage(ctx, tourID, s.ids.Generate()+ext, body)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("tour_id", tourID).Str("filename", filename).Msg("image upload failed")
		return models.Tour{}, err
	}

	return updated, nil
}

func (s *tourService) cleanTags(tags []string) models.StringList {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(s.sanitizer.Text(tag))
		if tag != "" {
			out = append(out, tag)
		}
	}
	return models.StringList(uniqueStrings(out))
}

// canManage reports whether p may see and deactivate tour regardless of its
// active flag.
func canManage(p models.Principal, tour models.Tour) bool {
	return p.IsAdmin() || (p.UserID != "" && p.UserID == tour.GuideID)
}

// sizeLimitedReader fails with ErrImageTooLarge once more than remaining
// bytes were read.
type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrImageTooLarge
	}
	return n, err
}
