package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/service"
)

// checkTimeout bounds a single storage ping.
const checkTimeout = 5 * time.Second

// HealthCheck pings the primary storage and publishes the result to the gRPC
// health service and the storage_up gauge.
type HealthCheck struct {
	app      service.AppInfoService
	status   StatusReporter
	metrics  *metrics.Metrics
	interval time.Duration

	up      bool
	checked bool

	logger *logger.Logger
}

func NewHealthCheck(app service.AppInfoService, status StatusReporter, m *metrics.Metrics, interval time.Duration, logger *logger.Logger) *HealthCheck {
	return &HealthCheck{
		app:      app,
		status:   status,
		metrics:  m,
		interval: interval,
		logger:   logger.Component("health"),
	}
}

// Run implements [Worker]. The first check runs immediately.
func (p *HealthCheck) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		p.check(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (p *HealthCheck) check(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	up := p.app.Health(p.logger.WithContext(ctx)) == nil

	if p.status != nil {
		p.status.SetServing(up)
	}
	p.metrics.StorageUp(up)

	if !p.checked || up != p.up {
		p.logger.Info().Bool("up", up).Msg("storage status changed")
	}
	p.up, p.checked = up, true
}
