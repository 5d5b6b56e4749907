// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
)

// ErrMediaDisabled is returned by AddImage when no media directory is
// configured.
var ErrMediaDisabled = errors.New("media storage is not configured")

// tourStorage combines a [TourRepository] with a [MediaStorage] for tour
// images.
type tourStorage struct {
	TourRepository

	media MediaStorage

	logger *logger.Logger
}

// NewTourStorage wraps repository. media may be nil, in which case image
// uploads fail with [ErrMediaDisabled].
func NewTourStorage(repository TourRepository, media MediaStorage, logger *logger.Logger) TourStorage {
	logger.Debug().Msg("creating tour storage")

	return &tourStorage{
		TourRepository: repository,
		media:          media,
		logger:         logger,
	}
}

// AddImage stores the image under tours/<tour id>/<name> and appends its path
// to the tour. The file is removed again when the tour cannot be updated.
func (t *tourStorage) AddImage(ctx context.Context, tourID, name string, r io.Reader) (models.Tour, error) {
	log := logger.FromContext(ctx)

	if t.media == nil {
		return models.Tour{}, ErrMediaDisabled
	}

	if _, err := t.GetTour(ctx, tourID); err != nil {
		return models.Tour{}, err
	}

	path, err := t.media.Save(ctx, "tours/"+tourID+"/"+name, r)
	if err != nil {
		log.Err(err).Str("func", "*tourStorage.AddImage").Str("tour_id", tourID).Msg("failed to save image")
		return models.Tour{}, err
	}

	updated, err := t.AppendImage(ctx, tourID, path, time.Now().UTC())
	if err != nil {
		if delErr := t.media.Delete(ctx, path); delErr != nil {
			log.Err(delErr).Str("func", "*tourStorage.AddImage").Str("path", path).Msg("failed to remove orphan image")
		}
		return models.Tour{}, err
	}

	return updated, nil
}
