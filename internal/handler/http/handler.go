package http

import (
	"net/netip"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
)

type Handler struct {
	services  *service.Services
	validator validators.Validator
	metrics   *metrics.Metrics
	limiter   *ipRateLimiter

	trustedProxies []netip.Prefix

	app      config.App
	server   config.Server
	mediaDir string

	logger *logger.Logger
}

func NewHandler(services *service.Services, validator validators.Validator, m *metrics.Metrics, cfg *config.StructuredConfig, logger *logger.Logger) *Handler {
	trusted, err := cfg.Server.TrustedProxyPrefixes()
	if err != nil {
		logger.Err(err).Msg("ignoring trusted proxies")
	}

	logger.Info().Msg("http handler created")
	return &Handler{
		services:  services,
		validator: validator,
		metrics:   m,
		limiter:   newIPRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst),

		trustedProxies: trusted,
		app:            cfg.App,
		server:         cfg.Server,
		mediaDir:       cfg.Storage.Files.MediaDir,
		logger:         logger,
	}
}
