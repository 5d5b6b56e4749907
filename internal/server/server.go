package server

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/handler"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"golang.org/x/sync/errgroup"
)

type server struct {
	httpServer *httpServer
	gRPCServer *grpcServer
	background BackgroundRunner

	shutdownTimeout time.Duration
	shutdownOnce    sync.Once
	logger          *logger.Logger
}

// NewServer creates the transports configured in cfg. background, if not
// nil, runs for the lifetime of the servers.
func NewServer(handlers *handler.Handlers, background BackgroundRunner, cfg config.Server, logger *logger.Logger) (Server, error) {
	logger.Info().Msg("creating new server...")
	servers := &server{
		background:      background,
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}

	if cfg.HTTPAddress != "" && handlers.HTTP != nil {
		servers.httpServer = newHTTPServer(handlers.HTTP.Init(), cfg, logger)
	}
	if cfg.GRPCAddress != "" && handlers.GRPC != nil {
		servers.gRPCServer = newGRPCServer(handlers.GRPC, cfg, logger)
	}

	if servers.httpServer == nil && servers.gRPCServer == nil {
		return nil, errNoServersAreCreated
	}

	return servers, nil
}

func (s *server) RunServer() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	if err := s.Run(ctx); err != nil {
		s.logger.Err(err).Msg("error running server")
		return
	}
	s.logger.Info().Msg("server Shutdown gracefully")
}

func (s *server) Run(ctx context.Context) error {
	// listen before starting anything so that a taken port fails fast
	var httpLis, grpcLis net.Listener
	var err error
	if s.httpServer != nil {
		if httpLis, err = net.Listen("tcp", s.httpServer.server.Addr); err != nil {
			return fmt.Errorf("listening HTTP: %w", err)
		}
	}
	if s.gRPCServer != nil {
		if grpcLis, err = net.Listen("tcp", s.gRPCServer.address); err != nil {
			if httpLis != nil {
				_ = httpLis.Close()
			}
			return fmt.Errorf("listening gRPC: %w", err)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	if s.httpServer != nil {
		g.Go(func() error { return s.httpServer.run(httpLis) })
	}
	if s.gRPCServer != nil {
		g.Go(func() error { return s.gRPCServer.run(grpcLis) })
	}
	if s.background != nil {
		g.Go(func() error { return s.background.Run(gctx) })
	}

	// stop the transports on a signal or on the first failure
	g.Go(func() error {
		<-gctx.Done()
		s.Shutdown()
		return nil
	})

	return g.Wait()
}

func (s *server) Shutdown() {
	s.shutdownOnce.Do(func() {
		ctx := context.Background()
		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
			defer cancel()
		}

		// finish HTTP server
		if s.httpServer != nil {
			s.httpServer.Shutdown(ctx)
		}

		// finish gRPC server
		if s.gRPCServer != nil {
			s.gRPCServer.Shutdown(ctx)
		}
	})
}
