// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"errors"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/events"
	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/models"
	"golang.org/x/sync/errgroup"
)

// notifyTimeout bounds a single email delivery. In-flight deliveries finish
// after shutdown starts.
const notifyTimeout = 30 * time.Second

// NotificationPool reads booking events from a single consumer and fans them
// out to a fixed number of goroutines sending the emails.
type NotificationPool struct {
	consumer events.Consumer
	notifier service.NotificationService
	size     int

	logger *logger.Logger
}

func NewNotificationPool(consumer events.Consumer, notifier service.NotificationService, size int, logger *logger.Logger) *NotificationPool {
	if size < 1 {
		size = 1
	}
	return &NotificationPool{
		consumer: consumer,
		notifier: notifier,
		size:     size,
		logger:   logger.Component("notifications"),
	}
}

// Run implements [Worker]. A closed bus stops the pool without error.
func (p *NotificationPool) Run(ctx context.Context) error {
	jobs := make(chan models.BookingEvent)

	var g errgroup.Group
	for range p.size {
		g.Go(func() error {
			for event := range jobs {
				p.notify(ctx, event)
			}
			return nil
		})
	}

	err := p.consumer.Consume(ctx, func(ctx context.Context, event models.BookingEvent) error {
		select {
		case jobs <- event:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	close(jobs)
	_ = g.Wait()

	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, events.ErrBusClosed) {
		p.logger.Info().Msg("notification pool stopped")
		return nil
	}
	return err
}

func (p *NotificationPool) notify(ctx context.Context, event models.BookingEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := p.notifier.Notify(p.logger.WithContext(ctx), event); err != nil {
		p.logger.Err(err).
			Str("event_id", event.ID).
			Str("event_type", string(event.Type)).
			Str("booking_id", event.BookingID).
			Msg("notification failed")
	}
}
