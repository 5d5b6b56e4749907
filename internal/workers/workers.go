package workers

import (
	"context"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"golang.org/x/sync/errgroup"
)

type Workers struct {
	workers []Worker
	logger  *logger.Logger
}

// NewWorkers builds the background workers of the server. status may be nil
// when the gRPC health endpoint is disabled.
func NewWorkers(
	services *service.Services,
	consumer events.Consumer,
	status StatusReporter,
	m *metrics.Metrics,
	cfg config.Workers,
	logger *logger.Logger,
) *Workers {
	logger.Info().Msg("creating workers...")

	return &Workers{
		workers: []Worker{
			NewNotificationPool(consumer, services.NotificationService, cfg.NotificationWorkers, logger),
			NewLifecycleWorker(services.BookingService, cfg.LifecycleInterval, cfg.PendingBookingTTL, logger),
			NewHealthCheck(services.AppInfoService, status, m, cfg.HealthInterval, logger),
		},
		logger: logger,
	}
}

// Run starts every worker and blocks until all of them return. The first
// worker error cancels the others and is returned.
func (w *Workers) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, worker := range w.workers {
		g.Go(func() error {
			return worker.Run(gctx)
		})
	}

	err := g.Wait()
	if w.logger != nil {
		w.logger.Info().Err(err).Msg("workers stopped")
	}
	return err
}
