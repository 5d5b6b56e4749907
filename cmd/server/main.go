package main

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/adapter"
	"github.com/MKhiriev/go-tour-guide/internal/config"
	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/handler"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/metrics"
	"github.com/MKhiriev/go-tour-guide/internal/server"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/internal/store"
	"github.com/MKhiriev/go-tour-guide/internal/validators"
	"github.com/MKhiriev/go-tour-guide/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("tour-guide-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}
	if buildVersion != "N/A" {
		cfg.App.Version = buildVersion
	}

	log.Debug().Str("http", cfg.Server.HTTPAddress).Str("grpc", cfg.Server.GRPCAddress).Msg("received configs")

	startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	storages, err := store.NewStorages(startCtx, cfg.Storage, log)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer func() {
		if err := storages.Close(context.Background()); err != nil {
			log.Err(err).Msg("error closing storages")
		}
	}()

	gateway, err := adapter.NewPaymentGateway(cfg.Adapter.Payment, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating payment gateway")
	}

	bus := events.NewBus(cfg.Adapter.Kafka, log)
	defer func() {
		if err := bus.Close(); err != nil {
			log.Err(err).Msg("error closing event bus")
		}
	}()

	m := metrics.New()

	services, err := service.NewServices(storages, service.Dependencies{
		Gateway:   gateway,
		Mailer:    adapter.NewMailer(cfg.Adapter.Mail, log),
		Publisher: bus,
		Metrics:   m,
	}, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating services")
	}

	handlers, err := handler.NewHandlers(services, validators.NewRequestValidator(time.Now), m, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	var status workers.StatusReporter
	if handlers.GRPC != nil {
		status = handlers.GRPC
	}
	background := workers.NewWorkers(services, bus, status, m, cfg.Workers, log)

	srv, err := server.NewServer(handlers, background, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
