package service

import (
	"context"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
)

// Pinger checks that a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type appInfoService struct {
	appVersion string
	storage    Pinger

	logger *logger.Logger
}

func NewAppInfoService(cfg config.App, storage Pinger, logger *logger.Logger) (AppInfoService, error) {
	if cfg.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}

	return &appInfoService{
		appVersion: cfg.Version,
		storage:    storage,
		logger:     logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(ctx context.Context) string {
	return s.appVersion
}

// Health reports whether the primary storage answers.
func (s *appInfoService) Health(ctx context.Context) error {
	if err := s.storage.Ping(ctx); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*appInfoService.Health").Msg("storage ping failed")
		return err
	}
	return nil
}
