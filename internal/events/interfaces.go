// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package events carries booking domain events from the request path to the
// notification workers.
//
// Two transports implement [Bus]: a Kafka topic ([NewKafkaBus]) when brokers
// are configured and a buffered in-process channel ([NewMemoryBus])
// otherwise. Publishing never waits for the consumers.
package events

import (
	"context"

	"github.com/MKhiriev/go-tour-guide/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/events_mock.go -package=mock

// Publisher emits booking events.
type Publisher interface {
	Publish(ctx context.Context, event models.BookingEvent) error
}

// Handler processes a single consumed event.
type Handler func(ctx context.Context, event models.BookingEvent) error

// Consumer delivers events to a handler.
type Consumer interface {
	// Consume blocks, passing every received event to handle, until ctx is
	// cancelled or the bus is closed.
	Consume(ctx context.Context, handle Handler) error
}

// Bus is a publisher and consumer pair sharing one transport.
type Bus interface {
	Publisher
	Consumer
	Close() error
}
