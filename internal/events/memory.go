// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package events

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/models"
)

// DefaultMemoryBufferSize is the capacity of the in-process bus.
const DefaultMemoryBufferSize = 256

type memoryBus struct {
	events chan models.BookingEvent
	done   chan struct{}
	once   sync.Once

	logger *logger.Logger
}

// NewMemoryBus returns a [Bus] backed by a buffered channel. Events published
// while the buffer is full are rejected with [ErrBusFull].
func NewMemoryBus(size int, logger *logger.Logger) Bus {
	if size <= 0 {
		size = DefaultMemoryBufferSize
	}
	return &memoryBus{
		events: make(chan models.BookingEvent, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Publish implements [Publisher].
func (b *memoryBus) Publish(ctx context.Context, event models.BookingEvent) error {
	select {
	case <-b.done:
		return ErrBusClosed
	default:
	}

	select {
	case b.events <- event:
		return nil
	default:
		logger.FromContext(ctx).Warn().
			Str("func", "*memoryBus.Publish").
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID).
			Msg("dropping event: bus buffer is full")
		return ErrBusFull
	}
}

// Consume implements [Consumer]. Several goroutines may consume the same bus;
// each event is delivered to exactly one of them.
func (b *memoryBus) Consume(ctx context.Context, handle Handler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.done:
			return ErrBusClosed
		case event := <-b.events:
			if err := handle(ctx, event); err != nil {
				b.logger.Err(err).
					Str("func", "*memoryBus.Consume").
					Str("event_id", event.ID).
					Str("event_type", string(event.Type)).
					Msg("event handler failed")
			}
		}
	}
}

// Close implements [Bus]. Buffered events that were not consumed are lost.
func (b *memoryBus) Close() error {
	b.once.Do(func() { close(b.done) })
	return nil
}
