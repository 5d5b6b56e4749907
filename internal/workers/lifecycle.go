// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package workers

import (
	"context"
	"time"

	"github.com/MKhiriev/go-tour-guide/internal/logger"
	"github.com/MKhiriev/go-tour-guide/internal/service"
	"github.com/MKhiriev/go-tour-guide/models"
)

// LifecycleWorker periodically cancels stale unpaid bookings and completes
// confirmed bookings whose tour date has passed.
type LifecycleWorker struct {
	bookings   service.BookingService
	interval   time.Duration
	pendingTTL time.Duration
	now        func() time.Time

	logger *logger.Logger
}

func NewLifecycleWorker(bookings service.BookingService, interval, pendingTTL time.Duration, logger *logger.Logger) *LifecycleWorker {
	return &LifecycleWorker{
		bookings:   bookings,
		interval:   interval,
		pendingTTL: pendingTTL,
		now:        time.Now,
		logger:     logger.Component("lifecycle"),
	}
}

// Run implements [Worker]. The first sweep runs immediately.
func (w *LifecycleWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		w.sweep(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// sweep runs one pass. Failures are logged and retried on the next tick.
func (w *LifecycleWorker) sweep(ctx context.Context) {
	ctx = w.logger.WithContext(ctx)
	now := w.now().UTC()

	if w.pendingTTL > 0 {
		expired, err := w.bookings.ExpirePending(ctx, now.Add(-w.pendingTTL))
		if err != nil {
			w.logger.Err(err).Msg("expiring pending bookings failed")
		} else if expired > 0 {
			w.logger.Info().Int("count", expired).Msg("expired pending bookings")
		}
	}

	completed, err := w.bookings.CompletePast(ctx, models.NewDate(now))
	if err != nil {
		w.logger.Err(err).Msg("completing past bookings failed")
	} else if completed > 0 {
		w.logger.Info().Int("count", completed).Msg("completed past bookings")
	}
}
