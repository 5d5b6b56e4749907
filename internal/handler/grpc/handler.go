// Package grpc exposes the standard gRPC health service of the API.
//
// The service reports SERVING for the empty service name and for
// [ServiceName] while the primary storage answers pings. Load balancers and
// orchestrators query it on the gRPC address.
package grpc

import (
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health service name of the tour API.
const ServiceName = "tourguide.v1.API"

// Handler is the root gRPC transport handler.
//
// It owns the health server whose status is driven by the storage health check
// worker. A handler instance is created once at startup and shared by the
// gRPC server.
type Handler struct {
	health *health.Server

	logger *logger.Logger
}

// NewHandler constructs a [Handler]. Both service names start NOT_SERVING
// until the first successful check.
func NewHandler(logger *logger.Logger) *Handler {
	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		health: hs,
		logger: logger,
	}
}

// Register attaches the health service to s.
func (h *Handler) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, h.health)
}

// SetServing updates the reported status. It is called by the storage health check.
func (h *Handler) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	h.health.SetServingStatus("", status)
	h.health.SetServingStatus(ServiceName, status)
}

// Shutdown switches every service to NOT_SERVING and ignores later updates,
// so that watchers see the server draining.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}
