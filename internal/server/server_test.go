// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/handler"
	myGRPC "github.com/MKhiriev/go-tour-guide/internal/handler/grpc"
	myHTTP "github.com/MKhiriev/go-tour-guide/internal/handler/http"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackground struct {
	err     error
	started atomic.Bool
	stopped atomic.Bool
}

func (f *fakeBackground) Run(ctx context.Context) error {
	f.started.Store(true)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	f.stopped.Store(true)
	return nil
}

func testHandlers(cfg config.Server) *handler.Handlers {
	structured := &config.StructuredConfig{Server: cfg}
	return &handler.Handlers{
		HTTP: myHTTP.NewHandler(&service.Services{}, validators.NewRequestValidator(nil), nil, structured, logger.Nop()),
		GRPC: myGRPC.NewHandler(logger.Nop()),
	}
}

func localConfig() config.Server {
	return config.Server{
		HTTPAddress:     "127.0.0.1:0",
		GRPCAddress:     "127.0.0.1:0",
		RequestTimeout:  time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestNewServer_NoAddresses(t *testing.T) {
	s, err := NewServer(&handler.Handlers{}, nil, config.Server{}, logger.Nop())

	require.ErrorIs(t, err, errNoServersAreCreated)
	assert.Nil(t, s)
}

func TestNewServer_OnlyConfiguredTransports(t *testing.T) {
	cfg := localConfig()
	cfg.GRPCAddress = ""

	s, err := NewServer(testHandlers(cfg), nil, cfg, logger.Nop())

	require.NoError(t, err)
	impl := s.(*server)
	assert.NotNil(t, impl.httpServer)
	assert.Nil(t, impl.gRPCServer)
	assert.Equal(t, 6*time.Second, impl.httpServer.server.WriteTimeout)
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := localConfig()
	background := &fakeBackground{}
	s, err := NewServer(testHandlers(cfg), background, cfg, logger.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, background.started.Load, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err = <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.True(t, background.stopped.Load())
}

func TestRun_BackgroundFailureStopsServers(t *testing.T) {
	cfg := localConfig()
	boom := errors.New("kafka: broker down")
	s, err := NewServer(testHandlers(cfg), &fakeBackground{err: boom}, cfg, logger.Nop())
	require.NoError(t, err)

	err = s.Run(context.Background())

	assert.ErrorIs(t, err, boom)
}

func TestRun_AddressInUse(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	cfg := localConfig()
	cfg.HTTPAddress = taken.Addr().String()
	s, err := NewServer(testHandlers(cfg), nil, cfg, logger.Nop())
	require.NoError(t, err)

	err = s.Run(context.Background())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "listening HTTP")
}

func TestShutdown_Idempotent(t *testing.T) {
	cfg := localConfig()
	s, err := NewServer(testHandlers(cfg), nil, cfg, logger.Nop())
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.Shutdown()
		s.Shutdown()
	})
}
